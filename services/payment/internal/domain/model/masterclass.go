package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Session sources.
const (
	SessionSourceZoom    = "zoom"
	SessionSourceYouTube = "youtube"
)

// Masterclass is a purchasable course.
type Masterclass struct {
	ID          string          `gorm:"primaryKey;size:128" json:"id"`
	Title       string          `gorm:"size:255;not null" json:"title"`
	Description string          `json:"description,omitempty"`
	SpeakerName string          `gorm:"size:255" json:"speakerName,omitempty"`
	Price       decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"price"`
	Currency    string          `gorm:"size:3;not null;default:'INR'" json:"currency"`
	StartsAt    *time.Time      `json:"startsAt,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`

	Sessions []MasterclassSession `gorm:"foreignKey:MasterclassID;constraint:OnDelete:CASCADE" json:"sessions,omitempty"`
}

// TableName specifies the table name for GORM
func (Masterclass) TableName() string {
	return "masterclasses"
}

// IsFree reports whether the masterclass can be enrolled without a gateway payment.
func (m *Masterclass) IsFree() bool {
	return !m.Price.IsPositive()
}

// MasterclassSession is one content item; zoom sessions are live and get reminders.
type MasterclassSession struct {
	ID            string     `gorm:"primaryKey;size:128" json:"id"`
	MasterclassID string     `gorm:"size:128;not null;index" json:"masterclassId"`
	Title         string     `gorm:"size:255;not null" json:"title"`
	Source        string     `gorm:"size:20;not null" json:"source"`
	ScheduledAt   *time.Time `gorm:"index" json:"scheduledAt,omitempty"`
	JoinURL       string     `json:"joinUrl,omitempty"`
	Position      int        `gorm:"not null;default:0" json:"position"`
}

// TableName specifies the table name for GORM
func (MasterclassSession) TableName() string {
	return "masterclass_sessions"
}

// IsLive reports whether the session is a scheduled live session.
func (s *MasterclassSession) IsLive() bool {
	return s.Source == SessionSourceZoom && s.ScheduledAt != nil
}

// StartsWithin reports whether the session starts in (now, now+window].
func (s *MasterclassSession) StartsWithin(now time.Time, window time.Duration) bool {
	if !s.IsLive() {
		return false
	}
	return s.ScheduledAt.After(now) && !s.ScheduledAt.After(now.Add(window))
}
