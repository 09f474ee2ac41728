package models

import (
	"time"
)

// MetadataFields is the fixed set of form fields attached to every
// submission, in the column order used by the audit log and the
// confirmation email. All values are opaque strings; absent fields are
// recorded as the empty string.
var MetadataFields = []string{
	"name",
	"email",
	"phone",
	"doi",
	"study",
	"comment",
	"hrfunc_standard",
	"dataset_subset",
	"task",
	"conditions",
	"stimuli",
	"intensity",
	"protocol",
	"age",
	"demographics",
}

// Submission is the transient value built once per accepted upload. It is
// never persisted as an object; only its envelope and audit row outlive
// the request.
type Submission struct {
	ID               string
	Payload          any
	Fields           map[string]string
	OriginalFilename string
	StoredFilename   string
	UploadedAt       time.Time
}

// Envelope serialized form uses these reserved keys.
const (
	MetadataKey = "_hrf_submission"
	PayloadKey  = "hrf_data"
)

// UploadResponse is the success body returned to API callers.
type UploadResponse struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	Filename     string `json:"filename"`
	SubmissionID string `json:"submission_id"`
	Timestamp    string `json:"timestamp"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    int    `json:"code"`
}

// NotifyStatus classifies the outcome of a confirmation email attempt.
type NotifyStatus string

const (
	NotifyDelivered NotifyStatus = "delivered"
	NotifySkipped   NotifyStatus = "skipped"
	NotifyFailed    NotifyStatus = "failed"
)

// NotifyResult carries the notifier outcome plus a diagnostic detail for
// the skipped and failed cases. It is never surfaced to the submitter.
type NotifyResult struct {
	Status NotifyStatus
	Detail string
}
