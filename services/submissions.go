// services/submissions.go — ingestion + review browsing endpoints
package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"clan-review-system/models"
	"clan-review-system/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// Parsed OCR row shapes, one per submission type. The OCR stage runs in the web
// frontend; we receive its output as a JSON array in the "rows" form field.

type ChestRowInput struct {
	PlayerName string    `json:"player_name"`
	ChestName  string    `json:"chest_name"`
	Source     string    `json:"source"`
	Level      int       `json:"level"`
	OpenedAt   time.Time `json:"opened_at"`
}

type MemberRowInput struct {
	PlayerName  string    `json:"player_name"`
	Coordinates string    `json:"coordinates"`
	Score       int64     `json:"score"`
	CapturedAt  time.Time `json:"captured_at"`
}

type EventRowInput struct {
	PlayerName  string    `json:"player_name"`
	EventName   string    `json:"event_name"`
	EventPoints int64     `json:"event_points"`
	CapturedAt  time.Time `json:"captured_at"`
}

// CreateSubmission ingests one screenshot batch:
// POST /clans/:clanId/submissions (multipart form)
//
// Fields: type (chests|members|events), rows (JSON array of parsed OCR rows),
// linked_event_id (events only, optional), screenshot (file, optional — gets
// archived to R2). Every row is matched against the roster once at ingestion;
// hits arrive in review already auto_matched.
func (s *ReviewService) CreateSubmission(c *fiber.Ctx) error {
	clanID := c.Params("clanId")
	uploadedBy, _ := c.Locals("user_id").(string)

	subType := c.FormValue("type")
	switch subType {
	case models.SubmissionTypeChests, models.SubmissionTypeMembers, models.SubmissionTypeEvents:
	default:
		return c.Status(400).JSON(fiber.Map{"error": "type must be one of chests, members, events"})
	}

	rowsJSON := c.FormValue("rows")
	if rowsJSON == "" {
		return c.Status(400).JSON(fiber.Map{"error": "rows is required"})
	}

	var linkedEventID *string
	if v := c.FormValue("linked_event_id"); v != "" {
		if subType != models.SubmissionTypeEvents {
			return c.Status(400).JSON(fiber.Map{"error": "linked_event_id is only valid for events submissions"})
		}
		if err := s.DB.First(&models.CalendarEvent{}, "id = ? AND clan_id = ?", v, clanID).Error; err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "linked_event_id not found"})
		}
		linkedEventID = &v
	}

	// Archive the screenshot so reviewers can re-check rows against the source.
	var screenshotURL string
	if file, err := c.FormFile("screenshot"); err == nil && file.Size > 0 {
		ext := filepath.Ext(file.Filename)
		if ext == "" {
			ext = ".png"
		}
		base := slug.Make(strings.TrimSuffix(file.Filename, ext))
		key := fmt.Sprintf("screenshots/%s/%s-%s%s", clanID, uuid.NewString(), base, ext)
		url, err := utils.UploadFileToR2(file, key)
		if err != nil {
			log.Printf("[INGEST] ❌ Screenshot upload failed for clan %s: %v", clanID, err)
			return c.Status(500).JSON(fiber.Map{"error": "failed to archive screenshot"})
		}
		screenshotURL = url
	}

	roster, err := LoadRoster(s.DB, clanID)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to load roster", "details": err.Error()})
	}
	corrections, err := LoadPlayerCorrections(s.DB, clanID)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to load corrections", "details": err.Error()})
	}

	sub := models.Submission{
		ID:            uuid.NewString(),
		ClanID:        clanID,
		Type:          subType,
		Status:        models.SubmissionStatusPending,
		LinkedEventID: linkedEventID,
		ScreenshotURL: screenshotURL,
		UploadedBy:    uploadedBy,
	}

	matchRow := func(playerName string) (string, *string) {
		if accountID := MatchPlayerName(playerName, roster, corrections); accountID != "" {
			id := accountID
			return models.ItemStatusAutoMatched, &id
		}
		return models.ItemStatusPending, nil
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&sub).Error; err != nil {
			return err
		}
		switch subType {
		case models.SubmissionTypeChests:
			var rows []ChestRowInput
			if err := json.Unmarshal([]byte(rowsJSON), &rows); err != nil {
				return fmt.Errorf("invalid rows payload: %w", err)
			}
			if len(rows) == 0 {
				return errors.New("rows must not be empty")
			}
			entries := make([]models.StagedChestEntry, 0, len(rows))
			for _, r := range rows {
				status, accountID := matchRow(r.PlayerName)
				entries = append(entries, models.StagedChestEntry{
					ID:                   uuid.NewString(),
					SubmissionID:         sub.ID,
					ItemStatus:           status,
					PlayerName:           r.PlayerName,
					MatchedGameAccountID: accountID,
					ChestName:            r.ChestName,
					Source:               r.Source,
					Level:                r.Level,
					OpenedAt:             r.OpenedAt,
				})
			}
			return tx.Create(&entries).Error

		case models.SubmissionTypeMembers:
			var rows []MemberRowInput
			if err := json.Unmarshal([]byte(rowsJSON), &rows); err != nil {
				return fmt.Errorf("invalid rows payload: %w", err)
			}
			if len(rows) == 0 {
				return errors.New("rows must not be empty")
			}
			entries := make([]models.StagedMemberEntry, 0, len(rows))
			for _, r := range rows {
				status, accountID := matchRow(r.PlayerName)
				entries = append(entries, models.StagedMemberEntry{
					ID:                   uuid.NewString(),
					SubmissionID:         sub.ID,
					ItemStatus:           status,
					PlayerName:           r.PlayerName,
					MatchedGameAccountID: accountID,
					Coordinates:          r.Coordinates,
					Score:                r.Score,
					CapturedAt:           r.CapturedAt,
				})
			}
			return tx.Create(&entries).Error

		default: // events
			var rows []EventRowInput
			if err := json.Unmarshal([]byte(rowsJSON), &rows); err != nil {
				return fmt.Errorf("invalid rows payload: %w", err)
			}
			if len(rows) == 0 {
				return errors.New("rows must not be empty")
			}
			entries := make([]models.StagedEventEntry, 0, len(rows))
			for _, r := range rows {
				status, accountID := matchRow(r.PlayerName)
				entries = append(entries, models.StagedEventEntry{
					ID:                   uuid.NewString(),
					SubmissionID:         sub.ID,
					ItemStatus:           status,
					PlayerName:           r.PlayerName,
					MatchedGameAccountID: accountID,
					EventName:            r.EventName,
					EventPoints:          r.EventPoints,
					CapturedAt:           r.CapturedAt,
				})
			}
			return tx.Create(&entries).Error
		}
	})
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "ingestion failed", "details": err.Error()})
	}

	// Initial rollup (item_count, matched_count, status).
	if _, err := s.recomputeSubmission(&sub, ""); err != nil {
		log.Printf("[INGEST] ⚠️ Rollup after ingest failed for submission %s: %v", sub.ID, err)
	}

	var created models.Submission
	if err := s.DB.First(&created, "id = ?", sub.ID).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to reload submission"})
	}
	log.Printf("[INGEST] 📥 Submission %s (%s) ingested for clan %s: %d rows, %d auto-matched",
		created.ID, created.Type, clanID, created.ItemCount, created.MatchedCount)
	return c.Status(201).JSON(created)
}

// GetSubmissions lists a clan's submissions for the review queue:
// GET /clans/:clanId/submissions?status=&type=&page=&size=
func (s *ReviewService) GetSubmissions(c *fiber.Ctx) error {
	clanID := c.Params("clanId")
	page, _ := strconv.Atoi(c.Query("page", "1"))
	size, _ := strconv.Atoi(c.Query("size", "50"))
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 200 {
		size = 50
	}

	q := s.DB.Where("clan_id = ?", clanID)
	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}
	if subType := c.Query("type"); subType != "" {
		q = q.Where("type = ?", subType)
	}

	var subs []models.Submission
	if err := q.Order("created_at DESC").
		Limit(size).Offset((page - 1) * size).
		Find(&subs).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch submissions"})
	}
	return c.JSON(subs)
}

// GetSubmissionByID returns one submission plus its staged entries:
// GET /clans/:clanId/submissions/:id
func (s *ReviewService) GetSubmissionByID(c *fiber.Ctx) error {
	clanID := c.Params("clanId")
	id := c.Params("id")

	var sub models.Submission
	if err := s.DB.First(&sub, "id = ? AND clan_id = ?", id, clanID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "submission not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "DB error"})
	}

	var entries interface{}
	switch sub.Type {
	case models.SubmissionTypeChests:
		var rows []models.StagedChestEntry
		if err := s.DB.Where("submission_id = ?", sub.ID).Order("created_at ASC").Find(&rows).Error; err != nil {
			return c.Status(500).JSON(fiber.Map{"error": "failed to fetch entries"})
		}
		entries = rows
	case models.SubmissionTypeMembers:
		var rows []models.StagedMemberEntry
		if err := s.DB.Where("submission_id = ?", sub.ID).Order("created_at ASC").Find(&rows).Error; err != nil {
			return c.Status(500).JSON(fiber.Map{"error": "failed to fetch entries"})
		}
		entries = rows
	case models.SubmissionTypeEvents:
		var rows []models.StagedEventEntry
		if err := s.DB.Where("submission_id = ?", sub.ID).Order("created_at ASC").Find(&rows).Error; err != nil {
			return c.Status(500).JSON(fiber.Map{"error": "failed to fetch entries"})
		}
		entries = rows
	default:
		return c.Status(500).JSON(fiber.Map{"error": "unknown submission type"})
	}

	return c.JSON(fiber.Map{
		"submission": sub,
		"entries":    entries,
	})
}
