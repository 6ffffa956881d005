package models

import "time"

// Production tables — the trusted counterparts of approved staged entries.
// Every row is stamped with the submission it came from, the matched account
// (nullable — an admin may approve an unmatched row) and the raw player name.

// ChestEntry is a committed chest opening.
type ChestEntry struct {
	ID            string    `json:"id" gorm:"primaryKey;type:uuid"`
	ClanID        string    `json:"clan_id" gorm:"not null;index"`
	SubmissionID  string    `json:"submission_id" gorm:"not null;index"`
	GameAccountID *string   `json:"game_account_id,omitempty" gorm:"type:uuid;index"`
	PlayerName    string    `json:"player_name" gorm:"not null"`
	ChestName     string    `json:"chest_name"`
	Source        string    `json:"source"`
	Level         int       `json:"level" gorm:"default:0"`
	OpenedAt      time.Time `json:"opened_at"`
	CreatedAt     time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// MemberSnapshot is a committed member power reading. The staged captured_at
// becomes snapshot_date here.
type MemberSnapshot struct {
	ID            string    `json:"id" gorm:"primaryKey;type:uuid"`
	ClanID        string    `json:"clan_id" gorm:"not null;index"`
	SubmissionID  string    `json:"submission_id" gorm:"not null;index"`
	GameAccountID *string   `json:"game_account_id,omitempty" gorm:"type:uuid;index"`
	PlayerName    string    `json:"player_name" gorm:"not null"`
	Coordinates   string    `json:"coordinates"`
	Score         int64     `json:"score" gorm:"default:0"`
	SnapshotDate  time.Time `json:"snapshot_date"`
	CreatedAt     time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// EventResult is a committed event score. Carries the submission's linked
// calendar event, if any.
type EventResult struct {
	ID            string    `json:"id" gorm:"primaryKey;type:uuid"`
	ClanID        string    `json:"clan_id" gorm:"not null;index"`
	SubmissionID  string    `json:"submission_id" gorm:"not null;index"`
	EventID       *string   `json:"event_id,omitempty" gorm:"type:uuid;index"`
	GameAccountID *string   `json:"game_account_id,omitempty" gorm:"type:uuid;index"`
	PlayerName    string    `json:"player_name" gorm:"not null"`
	EventName     string    `json:"event_name"`
	Points        int64     `json:"points" gorm:"default:0"`
	ResultDate    time.Time `json:"result_date"`
	CreatedAt     time.Time `json:"created_at" gorm:"autoCreateTime"`
}
