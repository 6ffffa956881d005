// services/matching.go — OCR player-name matching engine
package services

import (
	"strings"

	"clan-review-system/models"

	"golang.org/x/text/cases"
	"gorm.io/gorm"
)

// NormalizeName folds an OCR-scanned name for lookup: trim + Unicode case fold.
// Case folding (not ToLower) so names like "İlker" and "ilker" collide the way
// the game client renders them.
func NormalizeName(raw string) string {
	return cases.Fold().String(strings.TrimSpace(raw))
}

// MatchPlayerName resolves a raw OCR name against the roster, optionally via a
// player correction. Resolution is exact-after-correction only — no fuzzy
// matching. Returns the matched game account id, or "" when unmatched.
//
// roster maps normalized display name → account id; corrections maps normalized
// OCR text → corrected display name. Both are built once per request by the
// loaders below.
func MatchPlayerName(raw string, roster map[string]string, corrections map[string]string) string {
	key := NormalizeName(raw)
	if key == "" {
		return ""
	}
	if accountID, ok := roster[key]; ok {
		return accountID
	}
	if corrected, ok := corrections[key]; ok {
		if accountID, ok := roster[NormalizeName(corrected)]; ok {
			return accountID
		}
	}
	return ""
}

// LoadRoster builds the normalized-name → account-id lookup for a clan's
// active roster. Rebuilt per request; the roster sync worker keeps the
// underlying table current.
func LoadRoster(db *gorm.DB, clanID string) (map[string]string, error) {
	var accounts []models.GameAccount
	if err := db.Where("clan_id = ? AND is_active = ?", clanID, true).
		Find(&accounts).Error; err != nil {
		return nil, err
	}
	roster := make(map[string]string, len(accounts))
	for _, a := range accounts {
		roster[NormalizeName(a.DisplayName)] = a.ID
	}
	return roster, nil
}

// LoadPlayerCorrections builds the clan's player-name correction lookup,
// keyed by normalized OCR text.
func LoadPlayerCorrections(db *gorm.DB, clanID string) (map[string]string, error) {
	var rules []models.CorrectionRule
	if err := db.Where("clan_id = ? AND entity_type = ?", clanID, models.CorrectionEntityPlayer).
		Find(&rules).Error; err != nil {
		return nil, err
	}
	corrections := make(map[string]string, len(rules))
	for _, r := range rules {
		corrections[NormalizeName(r.OCRText)] = r.CorrectedText
	}
	return corrections, nil
}
