package backup

import (
	"strings"
	"time"

	"github.com/cflux/backoffice/internal"
)

// EnvelopeVersion identifies the current backup file format.
const EnvelopeVersion = "2.0"

// MaxUploadSize caps uploaded backup files at 100MB.
const MaxUploadSize = 100 << 20

// Envelope is the on-disk backup document: every table's full contents
// plus enough metadata to validate it on restore.
type Envelope struct {
	Version    string                              `json:"version"`
	Timestamp  time.Time                           `json:"timestamp"`
	SchemaInfo SchemaInfo                          `json:"schemaInfo"`
	Data       map[string][]map[string]interface{} `json:"data"`
	Statistics map[string]int                      `json:"statistics"`
}

type SchemaInfo struct {
	TablesCount int    `json:"tablesCount"`
	Description string `json:"description"`
}

// FileInfo describes one backup file on disk.
type FileInfo struct {
	Filename  string    `json:"filename"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateResult is returned from a completed backup run.
type CreateResult struct {
	Filename   string         `json:"filename"`
	Size       int64          `json:"size"`
	Statistics map[string]int `json:"statistics"`
}

// RestoreResult reports what a restore run actually put back, table by
// table, so partial failures are visible to the caller.
type RestoreResult struct {
	RestoredRecords int            `json:"restoredRecords"`
	BackupVersion   string         `json:"backupVersion"`
	Tables          map[string]int `json:"tables"`
}

var (
	ErrBackupNotFound = internal.NewNotFoundError("Backup file not found", internal.ErrCodeBackupNotFound)
)

// ValidateFilename rejects path traversal before any filesystem access.
func ValidateFilename(filename string) error {
	if filename == "" ||
		strings.Contains(filename, "..") ||
		strings.Contains(filename, "/") ||
		strings.Contains(filename, "\\") {
		return internal.ErrInvalidFilename
	}
	return nil
}
