package models

import "time"

// Submission types — one ingested screenshot batch is exactly one of these.
const (
	SubmissionTypeChests  = "chests"
	SubmissionTypeMembers = "members"
	SubmissionTypeEvents  = "events"
)

// Submission statuses — derived from the staged entries, never hand-set.
const (
	SubmissionStatusPending  = "pending"
	SubmissionStatusPartial  = "partial"
	SubmissionStatusApproved = "approved"
	SubmissionStatusRejected = "rejected"
)

// Per-entry review statuses. Entries only move forward: pending → auto_matched
// → approved/rejected. There is no unapprove.
const (
	ItemStatusPending     = "pending"
	ItemStatusAutoMatched = "auto_matched"
	ItemStatusApproved    = "approved"
	ItemStatusRejected    = "rejected"
)

// Submission is one ingested batch of OCR rows awaiting review.
// Status and the four counters are rollups over the staged entries; the review
// service recomputes them after every mutation. A submission whose staged-entry
// count reaches zero is deleted outright.
type Submission struct {
	ID            string     `json:"id" gorm:"primaryKey;type:uuid"`
	ClanID        string     `json:"clan_id" gorm:"not null;index"`
	Type          string     `json:"type" gorm:"type:varchar(16);not null"`
	Status        string     `json:"status" gorm:"type:varchar(16);default:'pending'"`
	ItemCount     int        `json:"item_count" gorm:"default:0"`
	ApprovedCount int        `json:"approved_count" gorm:"default:0"`
	RejectedCount int        `json:"rejected_count" gorm:"default:0"`
	MatchedCount  int        `json:"matched_count" gorm:"default:0"`
	ReviewedBy    *string    `json:"reviewed_by,omitempty" gorm:"type:uuid"`
	ReviewedAt    *time.Time `json:"reviewed_at,omitempty"`
	// Events submissions may be linked to a calendar event; committed results
	// carry the link into the event_results table.
	LinkedEventID *string `json:"linked_event_id,omitempty" gorm:"type:uuid"`
	// Archived copy of the uploaded screenshot (R2). Removed when the
	// submission self-cleans.
	ScreenshotURL string    `json:"screenshot_url,omitempty"`
	UploadedBy    string    `json:"uploaded_by" gorm:"type:uuid"`
	CreatedAt     time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt     time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// StagedChestEntry is one OCR row of a chest-openings submission.
type StagedChestEntry struct {
	ID                   string    `json:"id" gorm:"primaryKey;type:uuid"`
	SubmissionID         string    `json:"submission_id" gorm:"not null;index"`
	ItemStatus           string    `json:"item_status" gorm:"type:varchar(16);default:'pending';index"`
	PlayerName           string    `json:"player_name" gorm:"not null"`
	MatchedGameAccountID *string   `json:"matched_game_account_id,omitempty" gorm:"type:uuid"`
	ChestName            string    `json:"chest_name"`
	Source               string    `json:"source"`
	Level                int       `json:"level" gorm:"default:0"`
	OpenedAt             time.Time `json:"opened_at"`
	CreatedAt            time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt            time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// StagedMemberEntry is one OCR row of a member power-score submission.
type StagedMemberEntry struct {
	ID                   string    `json:"id" gorm:"primaryKey;type:uuid"`
	SubmissionID         string    `json:"submission_id" gorm:"not null;index"`
	ItemStatus           string    `json:"item_status" gorm:"type:varchar(16);default:'pending';index"`
	PlayerName           string    `json:"player_name" gorm:"not null"`
	MatchedGameAccountID *string   `json:"matched_game_account_id,omitempty" gorm:"type:uuid"`
	Coordinates          string    `json:"coordinates"`
	Score                int64     `json:"score" gorm:"default:0"`
	CapturedAt           time.Time `json:"captured_at"`
	CreatedAt            time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt            time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// StagedEventEntry is one OCR row of an event-results submission.
type StagedEventEntry struct {
	ID                   string    `json:"id" gorm:"primaryKey;type:uuid"`
	SubmissionID         string    `json:"submission_id" gorm:"not null;index"`
	ItemStatus           string    `json:"item_status" gorm:"type:varchar(16);default:'pending';index"`
	PlayerName           string    `json:"player_name" gorm:"not null"`
	MatchedGameAccountID *string   `json:"matched_game_account_id,omitempty" gorm:"type:uuid"`
	EventName            string    `json:"event_name"`
	EventPoints          int64     `json:"event_points" gorm:"default:0"`
	CapturedAt           time.Time `json:"captured_at"`
	CreatedAt            time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt            time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}
