// services/rematch.go — rematch-all entry point
package services

import (
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// RematchAllPending re-runs matching over every pending unmatched staged entry
// of a clan (or just one submission) in a single server-side routine. The
// rematch_pending_entries procedure applies the same normalize → correct →
// exact-match semantics as MatchPlayerName, but atomically inside Postgres.
// Returns the number of rows it changed.
//
// Note the per-entry bulk "rematch" action takes the client-orchestrated path
// through MatchPlayerName instead; the two must stay semantically aligned.
func (s *ReviewService) RematchAllPending(clanID string, submissionID *string) (int64, error) {
	var out struct {
		Rematched int64
	}
	err := s.DB.
		Raw("SELECT rematch_pending_entries(?, ?) AS rematched", clanID, submissionID).
		Scan(&out).Error
	if err != nil {
		return 0, fmt.Errorf("rematch_pending_entries: %w", err)
	}
	return out.Rematched, nil
}

// RematchAll is the HTTP entry point:
// POST /clans/:clanId/rematch  body: {"submission_id": "..."} (optional)
func (s *ReviewService) RematchAll(c *fiber.Ctx) error {
	clanID := c.Params("clanId")

	type Req struct {
		SubmissionID string `json:"submission_id,omitempty"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
	}

	var submissionID *string
	if req.SubmissionID != "" {
		if _, err := uuid.Parse(req.SubmissionID); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "malformed submission id"})
		}
		submissionID = &req.SubmissionID
	}

	count, err := s.RematchAllPending(clanID, submissionID)
	if err != nil {
		log.Printf("[REVIEW] ❌ Rematch-all for clan %s failed: %v", clanID, err)
		return c.Status(500).JSON(fiber.Map{"error": "rematch failed", "details": err.Error()})
	}
	return c.JSON(fiber.Map{"rematched_count": count})
}
