package models

import "time"

// CalendarEvent is a scheduled clan event (KvK, Arms Race, …). Event submissions
// may link to one so their committed results land on the right event.
type CalendarEvent struct {
	ID        string    `json:"id" gorm:"primaryKey;type:uuid"`
	ClanID    string    `json:"clan_id" gorm:"not null;index"`
	Name      string    `json:"name" gorm:"not null"`
	StartsAt  time.Time `json:"starts_at"`
	EndsAt    time.Time `json:"ends_at"`
	CreatedBy string    `json:"created_by" gorm:"type:uuid"`

	Timestamps
}
