// Package model holds the GORM persistence models; domain code never sees them.
package model

import (
	"time"

	"github.com/google/uuid"
)

// UserModel mirrors the 'users' table. The unique index on email is what
// finally decides concurrent sign-ups for the same address.
type UserModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Email     string    `gorm:"type:varchar(255);uniqueIndex:idx_users_email;not null"`
	Password  string    `gorm:"type:varchar(255);not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName explicitly sets the table name for GORM.
func (UserModel) TableName() string {
	return "users"
}
