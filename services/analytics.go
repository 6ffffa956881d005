// services/analytics.go — per-type production rollups
package services

import (
	"log"
	"time"

	"clan-review-system/models"

	"github.com/gofiber/fiber/v2"
)

// Analytics rows come from server-side aggregation procedures owned by the
// store (chest_analytics / member_analytics / event_analytics). We only define
// the result shapes and dispatch.

type ChestAnalyticsRow struct {
	GameAccountID *string   `json:"game_account_id,omitempty"`
	PlayerName    string    `json:"player_name"`
	ChestCount    int64     `json:"chest_count"`
	TotalLevel    int64     `json:"total_level"`
	LastOpenedAt  time.Time `json:"last_opened_at"`
}

type MemberAnalyticsRow struct {
	GameAccountID  *string   `json:"game_account_id,omitempty"`
	PlayerName     string    `json:"player_name"`
	LatestScore    int64     `json:"latest_score"`
	ScoreDelta     int64     `json:"score_delta"`
	SnapshotCount  int64     `json:"snapshot_count"`
	LastCapturedAt time.Time `json:"last_captured_at"`
}

type EventAnalyticsRow struct {
	GameAccountID *string `json:"game_account_id,omitempty"`
	PlayerName    string  `json:"player_name"`
	TotalPoints   int64   `json:"total_points"`
	EventCount    int64   `json:"event_count"`
}

// GetAnalytics runs the aggregation procedure for one submission type:
// GET /clans/:clanId/analytics/:type
func (s *ReviewService) GetAnalytics(c *fiber.Ctx) error {
	clanID := c.Params("clanId")

	switch c.Params("type") {
	case models.SubmissionTypeChests:
		var rows []ChestAnalyticsRow
		if err := s.DB.Raw("SELECT * FROM chest_analytics(?)", clanID).Scan(&rows).Error; err != nil {
			log.Printf("[ANALYTICS] ❌ chest_analytics failed for clan %s: %v", clanID, err)
			return c.Status(500).JSON(fiber.Map{"error": "analytics query failed"})
		}
		return c.JSON(rows)

	case models.SubmissionTypeMembers:
		var rows []MemberAnalyticsRow
		if err := s.DB.Raw("SELECT * FROM member_analytics(?)", clanID).Scan(&rows).Error; err != nil {
			log.Printf("[ANALYTICS] ❌ member_analytics failed for clan %s: %v", clanID, err)
			return c.Status(500).JSON(fiber.Map{"error": "analytics query failed"})
		}
		return c.JSON(rows)

	case models.SubmissionTypeEvents:
		var rows []EventAnalyticsRow
		if err := s.DB.Raw("SELECT * FROM event_analytics(?)", clanID).Scan(&rows).Error; err != nil {
			log.Printf("[ANALYTICS] ❌ event_analytics failed for clan %s: %v", clanID, err)
			return c.Status(500).JSON(fiber.Map{"error": "analytics query failed"})
		}
		return c.JSON(rows)

	default:
		return c.Status(400).JSON(fiber.Map{"error": "type must be one of chests, members, events"})
	}
}
