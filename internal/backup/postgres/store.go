package postgres

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/cflux/backoffice/internal/backup"
)

// BackupStore implements backup.Store with schema-agnostic row maps so
// the engine works against any table in the registry.
type BackupStore struct {
	db *gorm.DB
}

func NewBackupStore(db *gorm.DB) backup.Store {
	return &BackupStore{db: db}
}

func (s *BackupStore) ReadAll(table string) ([]map[string]interface{}, error) {
	var rows []map[string]interface{}
	err := s.db.Table(table).Find(&rows).Error
	return rows, err
}

func (s *BackupStore) DeleteAll(table string) error {
	return s.db.Exec(fmt.Sprintf("DELETE FROM %s", table)).Error
}

func (s *BackupStore) InsertRow(table string, row map[string]interface{}) error {
	return s.db.Table(table).Create(row).Error
}
