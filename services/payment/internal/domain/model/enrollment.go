package model

import "time"

// Enrollment grants a user access to a masterclass.
type Enrollment struct {
	MasterclassID string    `gorm:"primaryKey;size:128" json:"masterclassId"`
	UserID        string    `gorm:"primaryKey;size:128;index" json:"userId"`
	OrderID       string    `gorm:"size:128" json:"orderId"`
	CreatedAt     time.Time `gorm:"not null" json:"createdAt"`
}

// TableName specifies the table name for GORM
func (Enrollment) TableName() string {
	return "enrollments"
}

// ReminderDelivery records that a session reminder went to a user.
type ReminderDelivery struct {
	SessionID string    `gorm:"primaryKey;size:128" json:"sessionId"`
	UserID    string    `gorm:"primaryKey;size:128" json:"userId"`
	SentAt    time.Time `gorm:"not null" json:"sentAt"`
}

// TableName specifies the table name for GORM
func (ReminderDelivery) TableName() string {
	return "reminder_deliveries"
}
