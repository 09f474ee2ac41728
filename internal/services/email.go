package services

import (
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"github.com/hrfunc/hrfunc-site/internal/config"
	"github.com/hrfunc/hrfunc-site/internal/models"
)

// fieldLabels maps metadata field names to the labels used in the
// confirmation email body.
var fieldLabels = map[string]string{
	"name":            "Name",
	"email":           "Email",
	"phone":           "Phone",
	"doi":             "DOI",
	"study":           "Study",
	"comment":         "Comment",
	"hrfunc_standard": "hrfunc standard",
	"dataset_subset":  "Dataset subset",
	"task":            "Task",
	"conditions":      "Conditions",
	"stimuli":         "Stimuli",
	"intensity":       "Intensity",
	"protocol":        "Protocol",
	"age":             "Age",
	"demographics":    "Demographics",
}

const subsetYesParagraph = "Since your HRFs were estimated on a subset of your dataset, " +
	"we would love to receive estimates from the remaining sessions as well. " +
	"Every additional estimate improves the coverage of the collection."

const subsetNoParagraph = "Since your HRFs cover your full dataset, consider sharing " +
	"estimates from future studies too. Contributions across experimental contexts " +
	"are what make the collection useful."

// Notifier sends a best-effort plain-text confirmation email to the
// submitter. It never blocks the success response already computed:
// missing configuration or a recipient-less submission is a silent skip,
// and send errors degrade to a diagnostic result.
type Notifier struct {
	smtp config.SMTPConfig

	// send is swapped out in tests.
	send func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error
}

func NewNotifier(cfg config.SMTPConfig) *Notifier {
	return &Notifier{
		smtp: cfg,
		send: smtp.SendMail,
	}
}

// SendConfirmation composes and sends the confirmation email for an
// accepted submission.
func (n *Notifier) SendConfirmation(sub *models.Submission) models.NotifyResult {
	recipient := strings.TrimSpace(sub.Fields["email"])
	if recipient == "" {
		return models.NotifyResult{Status: models.NotifySkipped, Detail: "no recipient address"}
	}
	if n.smtp.Host == "" || n.smtp.From == "" {
		return models.NotifyResult{Status: models.NotifySkipped, Detail: "smtp not configured"}
	}

	body := n.ComposeBody(sub)
	message := fmt.Sprintf("To: %s\r\nFrom: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n%s",
		recipient,
		n.smtp.From,
		"Your HRF submission was received",
		body,
	)

	addr := fmt.Sprintf("%s:%d", n.smtp.Host, n.smtp.Port)

	// Auth only when both credentials are configured; test servers such as
	// MailHog accept nil auth. STARTTLS is negotiated opportunistically by
	// smtp.SendMail when the server advertises it.
	var auth smtp.Auth
	if n.smtp.Username != "" && n.smtp.Password != "" {
		auth = smtp.PlainAuth("", n.smtp.Username, n.smtp.Password, n.smtp.Host)
	}

	if err := n.send(addr, auth, n.smtp.From, []string{recipient}, []byte(message)); err != nil {
		return models.NotifyResult{Status: models.NotifyFailed, Detail: err.Error()}
	}

	return models.NotifyResult{Status: models.NotifyDelivered}
}

// ComposeBody renders the plain-text summary of every metadata field,
// with N/A standing in for blanks, plus the canned encouragement
// paragraph keyed off the dataset_subset answer.
func (n *Notifier) ComposeBody(sub *models.Submission) string {
	var b strings.Builder

	name := strings.TrimSpace(sub.Fields["name"])
	if name == "" {
		name = "researcher"
	}
	fmt.Fprintf(&b, "Dear %s,\n\n", name)
	b.WriteString("Thank you for contributing your HRF estimates. ")
	b.WriteString("We received the following submission:\n\n")

	for _, field := range models.MetadataFields {
		value := strings.TrimSpace(sub.Fields[field])
		if value == "" {
			value = "N/A"
		}
		fmt.Fprintf(&b, "%s: %s\n", fieldLabels[field], value)
	}

	b.WriteString("\n")
	fmt.Fprintf(&b, "Original filename: %s\n", sub.OriginalFilename)
	fmt.Fprintf(&b, "Stored as: %s\n", sub.StoredFilename)
	fmt.Fprintf(&b, "Received at: %s\n", sub.UploadedAt.Format(time.RFC3339))

	switch strings.ToLower(strings.TrimSpace(sub.Fields["dataset_subset"])) {
	case "yes":
		b.WriteString("\n" + subsetYesParagraph + "\n")
	case "no":
		b.WriteString("\n" + subsetNoParagraph + "\n")
	}

	b.WriteString("\nThis is an automated message. Please do not reply to this email.\n")

	return b.String()
}
