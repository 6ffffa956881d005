// services/review_service.go — staged-entry bulk review pipeline
package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"clan-review-system/models"
	"clan-review-system/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Bulk actions supported by the review pipeline.
const (
	BulkActionDelete  = "delete"
	BulkActionReject  = "reject"
	BulkActionApprove = "approve"
	BulkActionRematch = "rematch"
)

// MaxBulkEntryIDs caps one bulk action — the review UI pages at 100 anyway.
const MaxBulkEntryIDs = 500

var (
	ErrSubmissionNotFound    = errors.New("submission not found")
	ErrUnknownSubmissionType = errors.New("unknown submission type")
)

type ReviewService struct {
	DB *gorm.DB
}

func NewReviewService(db *gorm.DB) *ReviewService {
	return &ReviewService{DB: db}
}

// BulkCounts is the per-status tally returned after a bulk action.
type BulkCounts struct {
	Approved    int `json:"approved"`
	Rejected    int `json:"rejected"`
	Pending     int `json:"pending"`
	AutoMatched int `json:"auto_matched"`
}

// BulkActionResult is the response of one bulk action. When the action removed
// the last staged entries the submission itself is gone and only
// SubmissionDeleted is meaningful.
type BulkActionResult struct {
	AffectedCount     int64       `json:"affected_count"`
	SubmissionDeleted bool        `json:"submission_deleted"`
	SubmissionStatus  string      `json:"submission_status,omitempty"`
	Counts            *BulkCounts `json:"counts,omitempty"`
}

// submissionAggregate is the aggregator's report: either Deleted (no staged
// entries remain — caller must remove the submission row, which
// recomputeSubmission already did) or the derived status + counts.
type submissionAggregate struct {
	Deleted bool
	Status  string
	Counts  BulkCounts
}

// stagingModelFor maps a submission type onto its staging table. The set is
// closed — anything else is a data corruption, not a client error.
func stagingModelFor(subType string) (interface{}, error) {
	switch subType {
	case models.SubmissionTypeChests:
		return &models.StagedChestEntry{}, nil
	case models.SubmissionTypeMembers:
		return &models.StagedMemberEntry{}, nil
	case models.SubmissionTypeEvents:
		return &models.StagedEventEntry{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSubmissionType, subType)
	}
}

// ProcessBulkAction executes one bulk action over a caller-selected set of
// staged entries and recomputes the submission rollup. Every store operation is
// scoped by submission id, so entry ids from another submission are inert.
//
// The caller has already been verified as a clan admin; this method trusts it.
func (s *ReviewService) ProcessBulkAction(clanID, submissionID, reviewedBy string, entryIDs []string, action string) (*BulkActionResult, error) {
	var sub models.Submission
	if err := s.DB.First(&sub, "id = ? AND clan_id = ?", submissionID, clanID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("fetch submission: %w", err)
	}

	var (
		affected int64
		err      error
	)
	switch action {
	case BulkActionDelete:
		affected, err = s.deleteEntries(&sub, entryIDs)
	case BulkActionReject:
		affected, err = s.rejectEntries(&sub, entryIDs)
	case BulkActionApprove:
		affected, err = s.approveEntries(&sub, entryIDs)
	case BulkActionRematch:
		affected, err = s.rematchEntries(&sub, entryIDs)
	default:
		return nil, fmt.Errorf("invalid bulk action %q", action)
	}
	if err != nil {
		return nil, err
	}

	agg, err := s.recomputeSubmission(&sub, reviewedBy)
	if err != nil {
		return nil, err
	}
	if agg.Deleted {
		log.Printf("[REVIEW] Submission %s emptied by bulk %s — removed", sub.ID, action)
		return &BulkActionResult{AffectedCount: affected, SubmissionDeleted: true}, nil
	}
	return &BulkActionResult{
		AffectedCount:    affected,
		SubmissionStatus: agg.Status,
		Counts:           &agg.Counts,
	}, nil
}

// deleteEntries removes the targeted staged rows. Rows that were already
// approved have production counterparts; those are reverted first, matched by
// (submission id, player name). The three steps are not one transaction —
// a re-run converges because every step is predicate-scoped.
func (s *ReviewService) deleteEntries(sub *models.Submission, entryIDs []string) (int64, error) {
	model, err := stagingModelFor(sub.Type)
	if err != nil {
		return 0, err
	}

	var approvedNames []string
	if err := s.DB.Model(model).
		Where("submission_id = ? AND id IN ? AND item_status = ?", sub.ID, entryIDs, models.ItemStatusApproved).
		Pluck("player_name", &approvedNames).Error; err != nil {
		return 0, fmt.Errorf("find approved entries: %w", err)
	}
	if len(approvedNames) > 0 {
		if err := s.revertProduction(sub, approvedNames); err != nil {
			return 0, err
		}
	}

	res := s.DB.Where("submission_id = ? AND id IN ?", sub.ID, entryIDs).Delete(model)
	if res.Error != nil {
		return 0, fmt.Errorf("delete staged entries: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// rejectEntries marks the targeted rows rejected regardless of their current
// status. No production effect — rejected entries were never committed, and an
// approved entry must be deleted, not rejected, to undo its commit.
func (s *ReviewService) rejectEntries(sub *models.Submission, entryIDs []string) (int64, error) {
	model, err := stagingModelFor(sub.Type)
	if err != nil {
		return 0, err
	}
	res := s.DB.Model(model).
		Where("submission_id = ? AND id IN ?", sub.ID, entryIDs).
		Update("item_status", models.ItemStatusRejected)
	if res.Error != nil {
		return 0, fmt.Errorf("reject entries: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// approveEntries marks the targeted rows approved and commits the ones that
// were not already approved to production. Re-approving is a no-op on
// production — the row is counted as affected but never re-copied.
func (s *ReviewService) approveEntries(sub *models.Submission, entryIDs []string) (int64, error) {
	switch sub.Type {
	case models.SubmissionTypeChests:
		var rows []models.StagedChestEntry
		if err := s.DB.
			Where("submission_id = ? AND id IN ? AND item_status <> ?", sub.ID, entryIDs, models.ItemStatusApproved).
			Find(&rows).Error; err != nil {
			return 0, fmt.Errorf("load chest entries: %w", err)
		}
		affected, err := s.markApproved(&models.StagedChestEntry{}, sub.ID, entryIDs)
		if err != nil {
			return 0, err
		}
		if len(rows) > 0 {
			if err := s.commitChests(sub, rows); err != nil {
				return 0, err
			}
		}
		return affected, nil

	case models.SubmissionTypeMembers:
		var rows []models.StagedMemberEntry
		if err := s.DB.
			Where("submission_id = ? AND id IN ? AND item_status <> ?", sub.ID, entryIDs, models.ItemStatusApproved).
			Find(&rows).Error; err != nil {
			return 0, fmt.Errorf("load member entries: %w", err)
		}
		affected, err := s.markApproved(&models.StagedMemberEntry{}, sub.ID, entryIDs)
		if err != nil {
			return 0, err
		}
		if len(rows) > 0 {
			if err := s.commitMembers(sub, rows); err != nil {
				return 0, err
			}
		}
		return affected, nil

	case models.SubmissionTypeEvents:
		var rows []models.StagedEventEntry
		if err := s.DB.
			Where("submission_id = ? AND id IN ? AND item_status <> ?", sub.ID, entryIDs, models.ItemStatusApproved).
			Find(&rows).Error; err != nil {
			return 0, fmt.Errorf("load event entries: %w", err)
		}
		affected, err := s.markApproved(&models.StagedEventEntry{}, sub.ID, entryIDs)
		if err != nil {
			return 0, err
		}
		if len(rows) > 0 {
			if err := s.commitEvents(sub, rows); err != nil {
				return 0, err
			}
		}
		return affected, nil

	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownSubmissionType, sub.Type)
	}
}

func (s *ReviewService) markApproved(model interface{}, submissionID string, entryIDs []string) (int64, error) {
	res := s.DB.Model(model).
		Where("submission_id = ? AND id IN ?", submissionID, entryIDs).
		Update("item_status", models.ItemStatusApproved)
	if res.Error != nil {
		return 0, fmt.Errorf("approve entries: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// rematchEntries re-runs name matching for the targeted rows that are still
// pending and unmatched; everything else in the id list is silently skipped.
// Updates are batched per matched account and re-assert the pending+unmatched
// predicate, so a row concurrently approved or rejected by another admin
// between our read and write is left alone (and not counted).
func (s *ReviewService) rematchEntries(sub *models.Submission, entryIDs []string) (int64, error) {
	model, err := stagingModelFor(sub.Type)
	if err != nil {
		return 0, err
	}

	type pendingRow struct {
		ID         string
		PlayerName string
	}
	var rows []pendingRow
	if err := s.DB.Model(model).
		Select("id, player_name").
		Where("submission_id = ? AND id IN ? AND item_status = ? AND matched_game_account_id IS NULL",
			sub.ID, entryIDs, models.ItemStatusPending).
		Scan(&rows).Error; err != nil {
		return 0, fmt.Errorf("load pending entries: %w", err)
	}
	if len(rows) == 0 {
		return 0, nil
	}

	roster, err := LoadRoster(s.DB, sub.ClanID)
	if err != nil {
		return 0, fmt.Errorf("load roster: %w", err)
	}
	corrections, err := LoadPlayerCorrections(s.DB, sub.ClanID)
	if err != nil {
		return 0, fmt.Errorf("load corrections: %w", err)
	}

	// Group hits by account so each account is one UPDATE.
	matched := make(map[string][]string)
	for _, row := range rows {
		if accountID := MatchPlayerName(row.PlayerName, roster, corrections); accountID != "" {
			matched[accountID] = append(matched[accountID], row.ID)
		}
	}

	var affected int64
	for accountID, ids := range matched {
		res := s.DB.Model(model).
			Where("submission_id = ? AND id IN ? AND item_status = ? AND matched_game_account_id IS NULL",
				sub.ID, ids, models.ItemStatusPending).
			Updates(map[string]interface{}{
				"matched_game_account_id": accountID,
				"item_status":             models.ItemStatusAutoMatched,
			})
		if res.Error != nil {
			return affected, fmt.Errorf("apply match for account %s: %w", accountID, res.Error)
		}
		affected += res.RowsAffected
	}
	return affected, nil
}

// recomputeSubmission re-derives the rollup counters and status from the
// staged entries. Idempotent. Reports Deleted (and removes the submission row)
// when no entries remain.
func (s *ReviewService) recomputeSubmission(sub *models.Submission, reviewedBy string) (*submissionAggregate, error) {
	model, err := stagingModelFor(sub.Type)
	if err != nil {
		return nil, err
	}

	type tally struct {
		ItemStatus string
		Total      int
	}
	var tallies []tally
	if err := s.DB.Model(model).
		Select("item_status, COUNT(*) AS total").
		Where("submission_id = ?", sub.ID).
		Group("item_status").
		Scan(&tallies).Error; err != nil {
		return nil, fmt.Errorf("tally entries: %w", err)
	}

	var counts BulkCounts
	total := 0
	for _, t := range tallies {
		total += t.Total
		switch t.ItemStatus {
		case models.ItemStatusApproved:
			counts.Approved = t.Total
		case models.ItemStatusRejected:
			counts.Rejected = t.Total
		case models.ItemStatusPending:
			counts.Pending = t.Total
		case models.ItemStatusAutoMatched:
			counts.AutoMatched = t.Total
		}
	}

	if total == 0 {
		if err := s.DB.Delete(&models.Submission{}, "id = ?", sub.ID).Error; err != nil {
			return nil, fmt.Errorf("delete emptied submission: %w", err)
		}
		if sub.ScreenshotURL != "" {
			// Best effort — an orphaned archive object is harmless.
			if err := utils.DeleteFileFromR2(utils.KeyFromObjectURL(sub.ScreenshotURL)); err != nil {
				log.Printf("[REVIEW] ⚠️ Failed to delete archived screenshot for submission %s: %v", sub.ID, err)
			}
		}
		return &submissionAggregate{Deleted: true}, nil
	}

	var matchedCount int64
	if err := s.DB.Model(model).
		Where("submission_id = ? AND matched_game_account_id IS NOT NULL", sub.ID).
		Count(&matchedCount).Error; err != nil {
		return nil, fmt.Errorf("count matched entries: %w", err)
	}

	status := models.SubmissionStatusPartial
	switch {
	case counts.Approved == total:
		status = models.SubmissionStatusApproved
	case counts.Rejected == total:
		status = models.SubmissionStatusRejected
	case counts.Approved == 0 && counts.Rejected == 0 && counts.AutoMatched == 0:
		status = models.SubmissionStatusPending
	}

	updates := map[string]interface{}{
		"status":         status,
		"item_count":     total,
		"approved_count": counts.Approved,
		"rejected_count": counts.Rejected,
		"matched_count":  matchedCount,
	}
	if reviewedBy != "" {
		now := time.Now()
		updates["reviewed_by"] = reviewedBy
		updates["reviewed_at"] = &now
	}
	if err := s.DB.Model(&models.Submission{}).Where("id = ?", sub.ID).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("persist submission rollup: %w", err)
	}

	return &submissionAggregate{Status: status, Counts: counts}, nil
}

// BulkAction is the HTTP entry point:
// POST /clans/:clanId/submissions/:id/bulk-action
func (s *ReviewService) BulkAction(c *fiber.Ctx) error {
	clanID := c.Params("clanId")
	submissionID := c.Params("id")
	if _, err := uuid.Parse(submissionID); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "malformed submission id"})
	}

	type Req struct {
		EntryIDs []string `json:"entry_ids"`
		Action   string   `json:"action" validate:"oneof=delete reject approve rematch"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
	}
	switch req.Action {
	case BulkActionDelete, BulkActionReject, BulkActionApprove, BulkActionRematch:
	default:
		return c.Status(400).JSON(fiber.Map{"error": "invalid action"})
	}
	if len(req.EntryIDs) == 0 {
		return c.Status(400).JSON(fiber.Map{"error": "entry_ids must not be empty"})
	}
	if len(req.EntryIDs) > MaxBulkEntryIDs {
		return c.Status(400).JSON(fiber.Map{"error": fmt.Sprintf("entry_ids exceeds limit of %d", MaxBulkEntryIDs)})
	}
	for _, id := range req.EntryIDs {
		if _, err := uuid.Parse(id); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "malformed entry id", "details": id})
		}
	}

	reviewedBy, _ := c.Locals("user_id").(string)
	result, err := s.ProcessBulkAction(clanID, submissionID, reviewedBy, req.EntryIDs, req.Action)
	if err != nil {
		if errors.Is(err, ErrSubmissionNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "submission not found"})
		}
		log.Printf("[REVIEW] ❌ Bulk %s on submission %s failed: %v", req.Action, submissionID, err)
		return c.Status(500).JSON(fiber.Map{"error": "bulk action failed", "details": err.Error()})
	}
	return c.JSON(result)
}
