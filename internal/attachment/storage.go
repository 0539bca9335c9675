package attachment

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// FileStore abstracts the physical attachment storage so the service
// can be tested against a temp directory.
type FileStore interface {
	// Save streams r into a new file and returns the path relative to
	// the store root along with the number of bytes written.
	Save(storedName string, r io.Reader) (relPath string, size int64, err error)
	Open(relPath string) (io.ReadCloser, error)
	Remove(relPath string) error
	Exists(relPath string) bool
	// Archive moves the file at relPath into the archive directory
	// under archiveName, creating the directory if absent.
	Archive(relPath, archiveName string) error
	// OpenArchived opens a previously archived file by its archive name.
	OpenArchived(archiveName string) (io.ReadCloser, error)
}

// LocalStore keeps attachments on the local filesystem under a base
// directory, with superseded versions in an archive subdirectory.
type LocalStore struct {
	baseDir    string
	archiveDir string
}

func NewLocalStore(baseDir, archiveDir string) *LocalStore {
	return &LocalStore{baseDir: baseDir, archiveDir: archiveDir}
}

func (s *LocalStore) Save(storedName string, r io.Reader) (string, int64, error) {
	if err := os.MkdirAll(s.baseDir, 0o755); err != nil {
		return "", 0, fmt.Errorf("create upload dir: %w", err)
	}

	dst := filepath.Join(s.baseDir, storedName)
	f, err := os.Create(dst)
	if err != nil {
		return "", 0, fmt.Errorf("create file: %w", err)
	}
	defer f.Close()

	size, err := io.Copy(f, r)
	if err != nil {
		os.Remove(dst)
		return "", 0, fmt.Errorf("write file: %w", err)
	}
	return storedName, size, nil
}

func (s *LocalStore) Open(relPath string) (io.ReadCloser, error) {
	return os.Open(filepath.Join(s.baseDir, relPath))
}

func (s *LocalStore) Remove(relPath string) error {
	return os.Remove(filepath.Join(s.baseDir, relPath))
}

func (s *LocalStore) Exists(relPath string) bool {
	_, err := os.Stat(filepath.Join(s.baseDir, relPath))
	return err == nil
}

func (s *LocalStore) Archive(relPath, archiveName string) error {
	if err := os.MkdirAll(s.archiveDir, 0o755); err != nil {
		return fmt.Errorf("create archive dir: %w", err)
	}
	return os.Rename(filepath.Join(s.baseDir, relPath), filepath.Join(s.archiveDir, archiveName))
}

func (s *LocalStore) OpenArchived(archiveName string) (io.ReadCloser, error) {
	return os.Open(filepath.Join(s.archiveDir, archiveName))
}

// ArchiveName is the naming convention linking a superseded version-log
// row to its archived file on disk.
func ArchiveName(version int, filename string) string {
	return fmt.Sprintf("v%d-%s", version, filename)
}
