package services

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/hrfunc/hrfunc-site/internal/models"
)

// fallbackBase replaces filenames that sanitize down to nothing.
const fallbackBase = "upload"

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Normalizer turns a raw uploaded file plus its form fields into a
// Submission and its serialized envelope. It performs no I/O; a rejected
// upload leaves no trace.
type Normalizer struct {
	maxBytes int64
}

func NewNormalizer(maxBytes int64) *Normalizer {
	return &Normalizer{maxBytes: maxBytes}
}

// Normalize validates the uploaded bytes and builds the submission and
// the compact envelope JSON forwarded to the collection API. All errors
// are recoverable client-input errors suitable for direct display.
func (n *Normalizer) Normalize(filename string, data []byte, fields map[string]string, now time.Time) (*models.Submission, []byte, error) {
	if filename == "" {
		return nil, nil, fmt.Errorf("invalid file: must be a .json file")
	}
	if !strings.HasSuffix(strings.ToLower(filename), ".json") {
		return nil, nil, fmt.Errorf("invalid file: must be a .json file")
	}
	// The framework's request-size ceiling is not precise, so the limit is
	// re-checked on the bytes actually read.
	if n.maxBytes > 0 && int64(len(data)) > n.maxBytes {
		return nil, nil, fmt.Errorf("file too large: limit is %d bytes", n.maxBytes)
	}
	if !utf8.Valid(data) {
		return nil, nil, fmt.Errorf("invalid JSON content: file is not UTF-8 text")
	}

	var payload any
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, nil, fmt.Errorf("invalid JSON content")
	}
	switch payload.(type) {
	case map[string]any, []any:
	default:
		return nil, nil, fmt.Errorf("invalid JSON content: top-level value must be an object or array")
	}

	sanitized := SanitizeFilename(filename)
	stored, err := StorageFilename(sanitized, now)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to derive storage filename: %w", err)
	}

	sub := &models.Submission{
		ID:               uuid.New().String(),
		Payload:          payload,
		Fields:           fields,
		OriginalFilename: sanitized,
		StoredFilename:   stored,
		UploadedAt:       now.UTC(),
	}

	envelope, err := json.Marshal(n.Envelope(sub))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to serialize submission: %w", err)
	}

	return sub, envelope, nil
}

// Envelope merges the submission metadata into the parsed payload. Object
// payloads get the metadata key injected alongside their own keys; any
// other payload is wrapped under the reserved payload key so the metadata
// key can still be attached.
func (n *Normalizer) Envelope(sub *models.Submission) map[string]any {
	meta := make(map[string]any, len(models.MetadataFields)+4)
	for _, field := range models.MetadataFields {
		meta[field] = sub.Fields[field]
	}
	meta["submission_id"] = sub.ID
	meta["upload_time"] = sub.UploadedAt.Format(time.RFC3339)
	meta["original_filename"] = sub.OriginalFilename
	meta["stored_filename"] = sub.StoredFilename

	if obj, ok := sub.Payload.(map[string]any); ok {
		envelope := make(map[string]any, len(obj)+1)
		for k, v := range obj {
			envelope[k] = v
		}
		envelope[models.MetadataKey] = meta
		return envelope
	}

	return map[string]any{
		models.PayloadKey:  sub.Payload,
		models.MetadataKey: meta,
	}
}

// SanitizeFilename strips directory components and unsafe characters from
// a client-supplied filename. An empty result falls back to a fixed base
// name so the storage filename derivation always has something to work
// with.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(name)
	name = unsafeChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, "._-")
	if name == "" || name == "json" {
		return fallbackBase + ".json"
	}
	return name
}

// StorageFilename derives a collision-resistant name from the sanitized
// original: base, UTC timestamp at second precision, and a random hex
// token, joined with the original extension (default .json). Two uploads
// of the same file in the same second still diverge on the token.
func StorageFilename(sanitized string, now time.Time) (string, error) {
	ext := path.Ext(sanitized)
	if ext == "" {
		ext = ".json"
	}
	base := strings.TrimSuffix(sanitized, ext)
	if base == "" {
		base = fallbackBase
	}

	token := make([]byte, 4)
	if _, err := rand.Read(token); err != nil {
		return "", err
	}

	stamp := now.UTC().Format("20060102T150405Z")
	return fmt.Sprintf("%s_%s_%s%s", base, stamp, hex.EncodeToString(token), ext), nil
}
