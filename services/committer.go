// services/committer.go — approved staged rows → production tables
package services

import (
	"fmt"

	"clan-review-system/models"

	"github.com/google/uuid"
)

// commitChests copies freshly approved chest rows into chest_entries as one
// batch insert. Each production row is stamped with the submission id, the
// matched account (may be nil) and the raw player name.
func (s *ReviewService) commitChests(sub *models.Submission, rows []models.StagedChestEntry) error {
	prod := make([]models.ChestEntry, 0, len(rows))
	for _, r := range rows {
		prod = append(prod, models.ChestEntry{
			ID:            uuid.NewString(),
			ClanID:        sub.ClanID,
			SubmissionID:  sub.ID,
			GameAccountID: r.MatchedGameAccountID,
			PlayerName:    r.PlayerName,
			ChestName:     r.ChestName,
			Source:        r.Source,
			Level:         r.Level,
			OpenedAt:      r.OpenedAt,
		})
	}
	if err := s.DB.Create(&prod).Error; err != nil {
		return fmt.Errorf("commit chest entries: %w", err)
	}
	return nil
}

// commitMembers copies approved member rows into member_snapshots. The staged
// captured_at lands in snapshot_date.
func (s *ReviewService) commitMembers(sub *models.Submission, rows []models.StagedMemberEntry) error {
	prod := make([]models.MemberSnapshot, 0, len(rows))
	for _, r := range rows {
		prod = append(prod, models.MemberSnapshot{
			ID:            uuid.NewString(),
			ClanID:        sub.ClanID,
			SubmissionID:  sub.ID,
			GameAccountID: r.MatchedGameAccountID,
			PlayerName:    r.PlayerName,
			Coordinates:   r.Coordinates,
			Score:         r.Score,
			SnapshotDate:  r.CapturedAt,
		})
	}
	if err := s.DB.Create(&prod).Error; err != nil {
		return fmt.Errorf("commit member snapshots: %w", err)
	}
	return nil
}

// commitEvents copies approved event rows into event_results, carrying the
// submission's linked calendar event.
func (s *ReviewService) commitEvents(sub *models.Submission, rows []models.StagedEventEntry) error {
	prod := make([]models.EventResult, 0, len(rows))
	for _, r := range rows {
		prod = append(prod, models.EventResult{
			ID:            uuid.NewString(),
			ClanID:        sub.ClanID,
			SubmissionID:  sub.ID,
			EventID:       sub.LinkedEventID,
			GameAccountID: r.MatchedGameAccountID,
			PlayerName:    r.PlayerName,
			EventName:     r.EventName,
			Points:        r.EventPoints,
			ResultDate:    r.CapturedAt,
		})
	}
	if err := s.DB.Create(&prod).Error; err != nil {
		return fmt.Errorf("commit event results: %w", err)
	}
	return nil
}

// revertProduction deletes the production rows behind approved staged entries
// that are being deleted. The key is (submission id, player name) — coarse: a
// player with several approved rows of one type inside one submission loses
// all of them at once.
// TODO: stamp production rows with the staged entry id and revert by that.
func (s *ReviewService) revertProduction(sub *models.Submission, playerNames []string) error {
	model, err := productionModelFor(sub.Type)
	if err != nil {
		return err
	}
	if err := s.DB.
		Where("submission_id = ? AND player_name IN ?", sub.ID, playerNames).
		Delete(model).Error; err != nil {
		return fmt.Errorf("revert production rows: %w", err)
	}
	return nil
}

func productionModelFor(subType string) (interface{}, error) {
	switch subType {
	case models.SubmissionTypeChests:
		return &models.ChestEntry{}, nil
	case models.SubmissionTypeMembers:
		return &models.MemberSnapshot{}, nil
	case models.SubmissionTypeEvents:
		return &models.EventResult{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSubmissionType, subType)
	}
}
