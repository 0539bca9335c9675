package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cflux/backoffice/internal"
	"github.com/cflux/backoffice/internal/core/events"
)

// Store is the raw row-level database access the backup engine needs.
// Rows travel as column-name keyed maps so the engine stays
// schema-agnostic.
type Store interface {
	ReadAll(table string) ([]map[string]interface{}, error)
	DeleteAll(table string) error
	InsertRow(table string, row map[string]interface{}) error
}

type Service struct {
	store  Store
	dir    string
	bus    *events.EventBus
	logger *slog.Logger
}

func NewService(store Store, dir string, bus *events.EventBus, logger *slog.Logger) *Service {
	return &Service{store: store, dir: dir, bus: bus, logger: logger}
}

// CreateBackup reads every table in parallel, wraps the rows in an
// envelope and writes it as pretty JSON into the backup directory.
func (s *Service) CreateBackup(ctx context.Context, createdBy string) (*CreateResult, error) {
	envelope, err := s.buildEnvelope(ctx)
	if err != nil {
		return nil, err
	}

	payload, err := json.MarshalIndent(envelope, "", "  ")
	if err != nil {
		return nil, internal.NewInternalServerError("failed to serialize backup", internal.ErrCodeBackupFailed).WithCause(err)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, internal.NewInternalServerError("failed to create backup directory", internal.ErrCodeBackupFailed).WithCause(err)
	}

	filename := fmt.Sprintf("backup_%s.json", envelope.Timestamp.UTC().Format("2006-01-02T15-04-05"))
	if err := os.WriteFile(filepath.Join(s.dir, filename), payload, 0o644); err != nil {
		return nil, internal.NewInternalServerError("failed to write backup file", internal.ErrCodeBackupFailed).WithCause(err)
	}

	total := envelope.Statistics["totalRecords"]
	s.logger.Info("backup created",
		"filename", filename,
		"size_bytes", len(payload),
		"total_records", total)

	if s.bus != nil {
		s.bus.Publish(ctx, events.NewBackupCreatedEvent(filename, int64(len(payload)), total, createdBy))
	}

	return &CreateResult{
		Filename:   filename,
		Size:       int64(len(payload)),
		Statistics: envelope.Statistics,
	}, nil
}

// Export builds a fresh envelope and returns it serialized, without
// writing anything into the backup directory.
func (s *Service) Export(ctx context.Context) ([]byte, string, error) {
	envelope, err := s.buildEnvelope(ctx)
	if err != nil {
		return nil, "", err
	}

	payload, err := json.MarshalIndent(envelope, "", "  ")
	if err != nil {
		return nil, "", internal.NewInternalServerError("failed to serialize backup", internal.ErrCodeBackupFailed).WithCause(err)
	}

	filename := fmt.Sprintf("export_%s.json", envelope.Timestamp.UTC().Format("2006-01-02T15-04-05"))
	return payload, filename, nil
}

func (s *Service) buildEnvelope(ctx context.Context) (*Envelope, error) {
	tables := DeleteOrder()

	var mu sync.Mutex
	data := make(map[string][]map[string]interface{}, len(tables))

	g, _ := errgroup.WithContext(ctx)
	for _, t := range tables {
		g.Go(func() error {
			rows, err := s.store.ReadAll(t.Name)
			if err != nil {
				return fmt.Errorf("read table %s: %w", t.Name, err)
			}
			if rows == nil {
				rows = []map[string]interface{}{}
			}
			mu.Lock()
			data[t.Key] = rows
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, internal.NewInternalServerError("failed to read database contents", internal.ErrCodeBackupFailed).WithCause(err)
	}

	stats := make(map[string]int, len(tables)+1)
	total := 0
	for key, rows := range data {
		stats[key] = len(rows)
		total += len(rows)
	}
	stats["totalRecords"] = total

	return &Envelope{
		Version:   EnvelopeVersion,
		Timestamp: time.Now(),
		SchemaInfo: SchemaInfo{
			TablesCount: TableCount(),
			Description: "Full database backup including all business and configuration tables",
		},
		Data:       data,
		Statistics: stats,
	}, nil
}

// ListBackups returns every backup file in the directory, newest first.
func (s *Service) ListBackups() ([]FileInfo, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []FileInfo{}, nil
		}
		return nil, internal.NewInternalServerError("failed to read backup directory", internal.ErrCodeBackupFailed).WithCause(err)
	}

	files := make([]FileInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".json" && ext != ".sql" {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Filename:  entry.Name(),
			Size:      info.Size(),
			CreatedAt: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].CreatedAt.After(files[j].CreatedAt)
	})
	return files, nil
}

// ResolvePath validates the filename and returns the absolute path of
// an existing backup file.
func (s *Service) ResolvePath(filename string) (string, error) {
	if err := ValidateFilename(filename); err != nil {
		return "", err
	}
	path := filepath.Join(s.dir, filename)
	if _, err := os.Stat(path); err != nil {
		return "", ErrBackupNotFound
	}
	return path, nil
}

func (s *Service) DeleteBackup(filename string) error {
	path, err := s.ResolvePath(filename)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		return internal.NewInternalServerError("failed to delete backup file", internal.ErrCodeBackupFailed).WithCause(err)
	}
	s.logger.Info("backup deleted", "filename", filename)
	return nil
}

// UploadBackup accepts a .json or .sql file capped at MaxUploadSize and
// places it into the backup directory under a timestamped name.
func (s *Service) UploadBackup(originalFilename string, size int64, body io.Reader) (*FileInfo, error) {
	if err := ValidateFilename(originalFilename); err != nil {
		return nil, err
	}

	ext := strings.ToLower(filepath.Ext(originalFilename))
	if ext != ".json" && ext != ".sql" {
		return nil, internal.NewValidationError("Only .json and .sql backup files are allowed", internal.ErrCodeInvalidFileType)
	}
	if size > MaxUploadSize {
		return nil, internal.NewValidationError("Backup file exceeds the 100MB limit", internal.ErrCodeFileTooLarge)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, internal.NewInternalServerError("failed to create backup directory", internal.ErrCodeBackupFailed).WithCause(err)
	}

	filename := fmt.Sprintf("uploaded_backup_%s%s", time.Now().UTC().Format("2006-01-02T15-04-05"), ext)
	path := filepath.Join(s.dir, filename)

	f, err := os.Create(path)
	if err != nil {
		return nil, internal.NewInternalServerError("failed to store uploaded backup", internal.ErrCodeBackupFailed).WithCause(err)
	}
	defer f.Close()

	written, err := io.Copy(f, io.LimitReader(body, MaxUploadSize+1))
	if err != nil {
		os.Remove(path)
		return nil, internal.NewInternalServerError("failed to store uploaded backup", internal.ErrCodeBackupFailed).WithCause(err)
	}
	if written > MaxUploadSize {
		os.Remove(path)
		return nil, internal.NewValidationError("Backup file exceeds the 100MB limit", internal.ErrCodeFileTooLarge)
	}

	s.logger.Info("backup uploaded", "filename", filename, "size_bytes", written)
	return &FileInfo{Filename: filename, Size: written, CreatedAt: time.Now()}, nil
}

// RestoreBackup wipes the database child-first and reinserts the
// envelope's rows parent-first, one row at a time. The procedure is
// deliberately non-transactional; a mid-restore failure leaves the
// per-table counts accumulated so far in the returned error context.
func (s *Service) RestoreBackup(ctx context.Context, filename, restoredBy string) (*RestoreResult, error) {
	path, err := s.ResolvePath(filename)
	if err != nil {
		return nil, err
	}

	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, internal.NewInternalServerError("failed to read backup file", internal.ErrCodeRestoreFailed).WithCause(err)
	}

	var envelope Envelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return nil, internal.NewValidationError("Backup file is not valid JSON", internal.ErrCodeRestoreFailed)
	}
	if envelope.Data == nil {
		return nil, internal.NewValidationError("Backup file has no data section", internal.ErrCodeRestoreFailed)
	}

	s.logger.Info("restore started", "filename", filename, "backup_version", envelope.Version)

	for _, t := range DeleteOrder() {
		if err := s.store.DeleteAll(t.Name); err != nil {
			return nil, internal.NewInternalServerError(
				fmt.Sprintf("failed to clear table %s", t.Name),
				internal.ErrCodeRestoreFailed).WithCause(err)
		}
	}

	result := &RestoreResult{
		BackupVersion: envelope.Version,
		Tables:        make(map[string]int, TableCount()),
	}

	for _, t := range RestoreOrder() {
		rows := envelope.Data[t.Key]
		if t.Key == "documentNodes" {
			rows = orderNodesParentFirst(rows)
		}

		inserted := 0
		for _, row := range rows {
			if err := s.store.InsertRow(t.Name, row); err != nil {
				result.Tables[t.Key] = inserted
				return nil, internal.NewInternalServerError(
					fmt.Sprintf("failed to restore table %s after %d rows", t.Name, inserted),
					internal.ErrCodeRestoreFailed).WithCause(err)
			}
			inserted++
		}
		result.Tables[t.Key] = inserted
		result.RestoredRecords += inserted
	}

	s.logger.Info("restore finished",
		"filename", filename,
		"restored_records", result.RestoredRecords)

	if s.bus != nil {
		s.bus.Publish(ctx, events.NewBackupRestoredEvent(filename, result.RestoredRecords, envelope.Version, restoredBy))
	}
	return result, nil
}

// orderNodesParentFirst topologically sorts document-node rows so a
// parent row is always inserted before any of its children. Rows whose
// parent never appears are appended at the end as a fallback.
func orderNodesParentFirst(rows []map[string]interface{}) []map[string]interface{} {
	children := make(map[string][]map[string]interface{})
	var roots []map[string]interface{}
	known := make(map[string]bool, len(rows))

	for _, row := range rows {
		if id, ok := row["id"].(string); ok {
			known[id] = true
		}
	}
	for _, row := range rows {
		parent, ok := row["parent_id"].(string)
		if !ok || parent == "" || !known[parent] {
			roots = append(roots, row)
			continue
		}
		children[parent] = append(children[parent], row)
	}

	ordered := make([]map[string]interface{}, 0, len(rows))
	visited := make(map[string]bool, len(rows))

	var add func(row map[string]interface{})
	add = func(row map[string]interface{}) {
		id, _ := row["id"].(string)
		if id != "" {
			if visited[id] {
				return
			}
			visited[id] = true
		}
		ordered = append(ordered, row)
		for _, child := range children[id] {
			add(child)
		}
	}
	for _, root := range roots {
		add(root)
	}

	// Orphans reachable through no root (cycles, bad data) still get
	// restored rather than dropped.
	for _, row := range rows {
		if id, ok := row["id"].(string); ok && !visited[id] {
			add(row)
		}
	}
	return ordered
}
