package postgres

import (
	"database/sql"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/cflux/backoffice/internal/auth"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) GetCredentials(email string) (string, string, error) {
	var passwordHash string
	var userID string
	query := `SELECT id, password_hash FROM users WHERE email = ? AND is_active = true`

	row := r.db.Raw(query, email).Row()
	if err := row.Scan(&userID, &passwordHash); err != nil {
		if err == sql.ErrNoRows {
			return "", "", fmt.Errorf("user not found")
		}
		return "", "", err
	}
	return passwordHash, userID, nil
}

func (r *Repository) GetUser(userID string) (*auth.User, error) {
	var account auth.Account
	err := r.db.Where("id = ? AND is_active = ?", userID, true).First(&account).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("user not found")
		}
		return nil, err
	}

	groupIDs, err := r.activeGroupIDs(userID)
	if err != nil {
		return nil, err
	}

	return &auth.User{
		ID:       account.ID,
		Email:    account.Email,
		Role:     account.Role,
		GroupIDs: groupIDs,
	}, nil
}

func (r *Repository) activeGroupIDs(userID string) ([]string, error) {
	var groupIDs []string
	err := r.db.
		Table("user_group_memberships").
		Select("user_group_memberships.user_group_id").
		Joins("JOIN user_groups ON user_groups.id = user_group_memberships.user_group_id").
		Where("user_group_memberships.user_id = ? AND user_groups.is_active = ?", userID, true).
		Scan(&groupIDs).Error
	return groupIDs, err
}

func (r *Repository) TouchLastLogin(userID string) error {
	return r.db.Model(&auth.Account{}).
		Where("id = ?", userID).
		Update("last_login_at", time.Now()).Error
}
