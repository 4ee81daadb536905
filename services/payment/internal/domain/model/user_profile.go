package model

import "time"

// UserProfile owns a user's ledger. Ledger transactions lock this row to serialize
// concurrent writers for the same user.
type UserProfile struct {
	ID        string    `gorm:"primaryKey;size:128" json:"id"`
	Email     string    `gorm:"size:255" json:"email,omitempty"`
	Name      string    `gorm:"size:255" json:"name,omitempty"`
	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null" json:"updatedAt"`
}

// TableName specifies the table name for GORM
func (UserProfile) TableName() string {
	return "user_profiles"
}
