package handlers

import (
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/hrfunc/hrfunc-site/internal/logging"
	"github.com/hrfunc/hrfunc-site/internal/models"
)

// uploadFileField is the multipart field the browser form and API
// clients put the .json attachment in.
const uploadFileField = "jsonFile"

// sessionLastUpload keys the per-client cooldown timestamp stored in the
// session, checked alongside the server-side rate limiter map.
const sessionLastUpload = "last_upload_unix"

// multipartSlack covers multipart framing and form fields on top of the
// payload size limit enforced by the request body reader.
const multipartSlack = 64 << 10

// uploadJSON handles the intake pipeline: key check, rate limit,
// normalize, audit, forward, notify, respond. Callers with an x-api-key
// header get JSON bodies; browser submissions get a flash message and a
// redirect.
func (s *Server) uploadJSON(c *gin.Context) {
	apiKey := c.GetHeader("x-api-key")
	isAPI := apiKey != ""

	if isAPI && apiKey != s.config.Upload.APIKey {
		s.uploadError(c, isAPI, http.StatusUnauthorized, "invalid API key")
		return
	}

	// The framework ceiling is approximate; the normalizer re-checks the
	// payload length after the read.
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body,
		s.config.Upload.MaxPayloadBytes+multipartSlack)

	now := time.Now()
	if remaining := s.cooldownRemaining(c, now); remaining > 0 {
		wait := int(math.Ceil(remaining.Seconds()))
		s.uploadError(c, isAPI, http.StatusTooManyRequests,
			fmt.Sprintf("please wait %d seconds before submitting again", wait))
		return
	}

	fileHeader, err := c.FormFile(uploadFileField)
	if err != nil {
		s.uploadError(c, isAPI, http.StatusBadRequest, "invalid file: must be a .json file")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		s.uploadError(c, isAPI, http.StatusBadRequest, "could not read uploaded file")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.uploadError(c, isAPI, http.StatusBadRequest, "could not read uploaded file")
		return
	}

	fields := make(map[string]string, len(models.MetadataFields))
	for _, name := range models.MetadataFields {
		fields[name] = c.PostForm(name)
	}

	sub, envelope, err := s.normalizer.Normalize(fileHeader.Filename, data, fields, now)
	if err != nil {
		s.uploadError(c, isAPI, http.StatusBadRequest, err.Error())
		return
	}

	// Side log only; failure never changes the outcome.
	if err := s.audit.Append(sub); err != nil {
		logging.Warnf("audit log write failed for %s: %v", sub.StoredFilename, err)
	}

	if err := s.forwarder.Forward(c.Request.Context(), sub.StoredFilename, envelope); err != nil {
		logging.Warnf("forward failed for %s: %v", sub.StoredFilename, err)
		s.uploadError(c, isAPI, http.StatusBadGateway, err.Error())
		return
	}

	switch result := s.notifier.SendConfirmation(sub); result.Status {
	case models.NotifyDelivered:
		logging.Infof("confirmation email sent for %s", sub.StoredFilename)
	case models.NotifySkipped:
		logging.Warnf("confirmation email skipped for %s: %s", sub.StoredFilename, result.Detail)
	case models.NotifyFailed:
		logging.Warnf("confirmation email failed for %s: %s", sub.StoredFilename, result.Detail)
	}

	message := "HRF estimates uploaded successfully. Thank you for contributing!"
	if study := strings.TrimSpace(sub.Fields["study"]); study != "" {
		message = fmt.Sprintf("HRF estimates for study %q uploaded successfully. Thank you for contributing!", study)
	}

	if isAPI {
		c.JSON(http.StatusOK, models.UploadResponse{
			Success:      true,
			Message:      message,
			Filename:     sub.StoredFilename,
			SubmissionID: sub.ID,
			Timestamp:    sub.UploadedAt.Format(time.RFC3339),
		})
		return
	}

	session := sessions.Default(c)
	session.AddFlash(message, "success")
	if err := session.Save(); err != nil {
		logging.Warnf("failed to save session: %v", err)
	}
	c.Redirect(http.StatusFound, "/")
}

// cooldownRemaining applies both throttle mechanisms: the shared
// client-IP map and the session timestamp. Either one inside the window
// rejects; passing records the attempt in both.
func (s *Server) cooldownRemaining(c *gin.Context, now time.Time) time.Duration {
	window := s.rateLimiter.Window()
	if window <= 0 {
		return 0
	}

	var remaining time.Duration

	session := sessions.Default(c)
	if v := session.Get(sessionLastUpload); v != nil {
		if last, ok := v.(int64); ok {
			if elapsed := now.Sub(time.Unix(last, 0)); elapsed < window {
				remaining = window - elapsed
			}
		}
	}

	if wait, ok := s.rateLimiter.Allow(c.ClientIP(), now); !ok && wait > remaining {
		remaining = wait
	}

	if remaining > 0 {
		return remaining
	}

	session.Set(sessionLastUpload, now.Unix())
	if err := session.Save(); err != nil {
		logging.Warnf("failed to save session: %v", err)
	}
	return 0
}

func (s *Server) uploadError(c *gin.Context, isAPI bool, code int, message string) {
	if isAPI {
		c.JSON(code, models.ErrorResponse{
			Success: false,
			Error:   message,
			Code:    code,
		})
		return
	}

	session := sessions.Default(c)
	session.AddFlash(message, "error")
	if err := session.Save(); err != nil {
		logging.Warnf("failed to save session: %v", err)
	}
	c.Redirect(http.StatusFound, "/")
}
