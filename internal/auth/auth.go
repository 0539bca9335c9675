package auth

import (
	"context"
	"time"
)

const RoleAdmin = "ADMIN"

// User is the authenticated principal carried through request context.
type User struct {
	ID       string   `json:"id"`
	Email    string   `json:"email"`
	Role     string   `json:"role"`
	GroupIDs []string `json:"group_ids,omitempty"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Account is the persisted user record.
type Account struct {
	ID            string     `json:"id" gorm:"primaryKey"`
	Email         string     `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash  string     `json:"-" gorm:"column:password_hash;not null"`
	FirstName     string     `json:"first_name" gorm:"column:first_name"`
	LastName      string     `json:"last_name" gorm:"column:last_name"`
	Role          string     `json:"role" gorm:"default:USER"`
	IsActive      bool       `json:"is_active" gorm:"column:is_active;default:true"`
	VacationDays  float64    `json:"vacation_days" gorm:"column:vacation_days;default:30"`
	LastLoginAt   *time.Time `json:"last_login_at,omitempty" gorm:"column:last_login_at"`
	CreatedAt     time.Time  `json:"created_at" gorm:"column:created_at"`
	UpdatedAt     time.Time  `json:"updated_at" gorm:"column:updated_at"`
}

func (Account) TableName() string {
	return "users"
}

// UserGroup is a named collection of users used for permission grants.
type UserGroup struct {
	ID          string    `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"uniqueIndex;not null"`
	Description *string   `json:"description,omitempty"`
	Color       *string   `json:"color,omitempty"`
	IsActive    bool      `json:"is_active" gorm:"column:is_active;default:true"`
	CreatedAt   time.Time `json:"created_at" gorm:"column:created_at"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"column:updated_at"`
}

func (UserGroup) TableName() string {
	return "user_groups"
}

// UserGroupMembership links a user to a group.
type UserGroupMembership struct {
	ID          string    `json:"id" gorm:"primaryKey"`
	UserID      string    `json:"user_id" gorm:"column:user_id;not null"`
	UserGroupID string    `json:"user_group_id" gorm:"column:user_group_id;not null"`
	CreatedAt   time.Time `json:"created_at" gorm:"column:created_at"`
}

func (UserGroupMembership) TableName() string {
	return "user_group_memberships"
}

type AuthTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type userCtxKey struct{}

// ContextWithUser stores the authenticated user in the request context.
func ContextWithUser(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, userCtxKey{}, user)
}

// UserFromContext fetches the authenticated user placed by the auth middleware.
func UserFromContext(ctx context.Context) (*User, bool) {
	user, ok := ctx.Value(userCtxKey{}).(*User)
	return user, ok
}
