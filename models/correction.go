package models

import "time"

// Correction entity types — what kind of OCR text the rule fixes.
const (
	CorrectionEntityPlayer = "player"
	CorrectionEntityChest  = "chest"
	CorrectionEntitySource = "source"
)

// CorrectionRule maps a known-bad OCR reading to its corrected text, scoped per
// clan and per entity type. Rules are created by the correction review UI in the
// web frontend; this service only reads them.
type CorrectionRule struct {
	ID            string    `json:"id" gorm:"primaryKey;type:uuid"`
	ClanID        string    `json:"clan_id" gorm:"not null;index:idx_corrections_lookup"`
	EntityType    string    `json:"entity_type" gorm:"type:varchar(16);not null;index:idx_corrections_lookup"`
	OCRText       string    `json:"ocr_text" gorm:"column:ocr_text;not null"`
	CorrectedText string    `json:"corrected_text" gorm:"not null"`
	CreatedBy     string    `json:"created_by" gorm:"type:uuid"`
	CreatedAt     time.Time `json:"created_at" gorm:"autoCreateTime"`
}
