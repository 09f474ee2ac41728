package services

import (
	"encoding/csv"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/hrfunc/hrfunc-site/internal/models"
)

// AuditLogger appends one fixed-schema CSV row per accepted submission,
// creating the file with a header row on first use. Rows are append-only;
// nothing in this service mutates or deletes them.
type AuditLogger struct {
	mu   sync.Mutex
	path string
}

func NewAuditLogger(path string) *AuditLogger {
	return &AuditLogger{path: path}
}

// Columns returns the audit log column order: every metadata field, then
// the stored filename, the original filename and the upload timestamp.
func (a *AuditLogger) Columns() []string {
	columns := make([]string, 0, len(models.MetadataFields)+3)
	columns = append(columns, models.MetadataFields...)
	return append(columns, "json_filename", "original_filename", "upload_time")
}

// Append writes the submission's row. The caller treats a returned error
// as a diagnostic: it is logged, never surfaced, and never changes the
// user-visible outcome.
func (a *AuditLogger) Append(sub *models.Submission) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	writeHeader := false
	if info, err := os.Stat(a.path); os.IsNotExist(err) || (err == nil && info.Size() == 0) {
		writeHeader = true
	}

	file, err := os.OpenFile(a.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open audit log: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if writeHeader {
		if err := writer.Write(a.Columns()); err != nil {
			return fmt.Errorf("failed to write audit header: %w", err)
		}
	}

	row := make([]string, 0, len(models.MetadataFields)+3)
	for _, field := range models.MetadataFields {
		row = append(row, sub.Fields[field])
	}
	row = append(row, sub.StoredFilename, sub.OriginalFilename,
		sub.UploadedAt.Format(time.RFC3339))

	if err := writer.Write(row); err != nil {
		return fmt.Errorf("failed to write audit row: %w", err)
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush audit row: %w", err)
	}

	return nil
}
