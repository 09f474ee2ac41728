package services

import (
	"errors"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrfunc/hrfunc-site/internal/config"
	"github.com/hrfunc/hrfunc-site/internal/models"
)

func notifierSubmission(fields map[string]string) *models.Submission {
	return &models.Submission{
		ID:               "sub-1",
		Fields:           fields,
		OriginalFilename: "data.json",
		StoredFilename:   "data_20260831T120000Z_abcd1234.json",
		UploadedAt:       time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC),
	}
}

func configuredSMTP() config.SMTPConfig {
	return config.SMTPConfig{
		Host: "smtp.example.org",
		Port: 587,
		From: "noreply@example.org",
	}
}

func TestNotifierSkipsWithoutRecipient(t *testing.T) {
	n := NewNotifier(configuredSMTP())
	n.send = func(string, smtp.Auth, string, []string, []byte) error {
		t.Fatal("send must not be called")
		return nil
	}

	result := n.SendConfirmation(notifierSubmission(map[string]string{"email": "  "}))
	assert.Equal(t, models.NotifySkipped, result.Status)
	assert.Equal(t, "no recipient address", result.Detail)
}

func TestNotifierSkipsWhenSMTPUnconfigured(t *testing.T) {
	n := NewNotifier(config.SMTPConfig{Port: 587})
	n.send = func(string, smtp.Auth, string, []string, []byte) error {
		t.Fatal("send must not be called")
		return nil
	}

	result := n.SendConfirmation(notifierSubmission(map[string]string{"email": "ada@example.org"}))
	assert.Equal(t, models.NotifySkipped, result.Status)
	assert.Equal(t, "smtp not configured", result.Detail)
}

func TestNotifierDeliversPlainTextSummary(t *testing.T) {
	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte
	var gotAuth smtp.Auth

	n := NewNotifier(configuredSMTP())
	n.send = func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotAuth, gotFrom, gotTo, gotMsg = addr, auth, from, to, msg
		return nil
	}

	result := n.SendConfirmation(notifierSubmission(map[string]string{
		"email": "ada@example.org",
		"name":  "Ada",
		"study": "StudyX",
	}))
	require.Equal(t, models.NotifyDelivered, result.Status)

	assert.Equal(t, "smtp.example.org:587", gotAddr)
	assert.Nil(t, gotAuth, "auth requires both username and password")
	assert.Equal(t, "noreply@example.org", gotFrom)
	assert.Equal(t, []string{"ada@example.org"}, gotTo)

	message := string(gotMsg)
	assert.Contains(t, message, "Content-Type: text/plain")
	assert.Contains(t, message, "Study: StudyX")
	assert.Contains(t, message, "Phone: N/A")
	assert.Contains(t, message, "data_20260831T120000Z_abcd1234.json")
}

func TestNotifierUsesAuthWhenCredentialsConfigured(t *testing.T) {
	cfg := configuredSMTP()
	cfg.Username = "mailer"
	cfg.Password = "hunter2"

	var gotAuth smtp.Auth
	n := NewNotifier(cfg)
	n.send = func(_ string, auth smtp.Auth, _ string, _ []string, _ []byte) error {
		gotAuth = auth
		return nil
	}

	result := n.SendConfirmation(notifierSubmission(map[string]string{"email": "ada@example.org"}))
	require.Equal(t, models.NotifyDelivered, result.Status)
	assert.NotNil(t, gotAuth)
}

func TestNotifierReportsSendFailure(t *testing.T) {
	n := NewNotifier(configuredSMTP())
	n.send = func(string, smtp.Auth, string, []string, []byte) error {
		return errors.New("connection refused")
	}

	result := n.SendConfirmation(notifierSubmission(map[string]string{"email": "ada@example.org"}))
	assert.Equal(t, models.NotifyFailed, result.Status)
	assert.Contains(t, result.Detail, "connection refused")
}

func TestComposeBodySubsetParagraphs(t *testing.T) {
	n := NewNotifier(configuredSMTP())

	body := n.ComposeBody(notifierSubmission(map[string]string{"dataset_subset": " Yes "}))
	assert.Contains(t, body, subsetYesParagraph)
	assert.NotContains(t, body, subsetNoParagraph)

	body = n.ComposeBody(notifierSubmission(map[string]string{"dataset_subset": "NO"}))
	assert.Contains(t, body, subsetNoParagraph)
	assert.NotContains(t, body, subsetYesParagraph)

	body = n.ComposeBody(notifierSubmission(map[string]string{"dataset_subset": "maybe"}))
	assert.NotContains(t, body, subsetYesParagraph)
	assert.NotContains(t, body, subsetNoParagraph)
}

func TestComposeBodyListsEveryFieldWithPlaceholders(t *testing.T) {
	n := NewNotifier(configuredSMTP())

	body := n.ComposeBody(notifierSubmission(map[string]string{}))
	for _, field := range models.MetadataFields {
		assert.Contains(t, body, fieldLabels[field]+":")
	}
	assert.True(t, strings.Contains(body, "N/A"))
	assert.Contains(t, body, "Dear researcher,")
}
