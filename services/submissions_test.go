package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"clan-review-system/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestApp wires the review routes the way handlers.SetupReviewRoutes does,
// with the user-context middleware replaced by a stub that injects a fixed
// reviewer id.
func newTestApp(s *ReviewService, userID string) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user_id", userID)
		return c.Next()
	})
	clans := app.Group("/clans/:clanId")
	clans.Post("/submissions", s.CreateSubmission)
	clans.Get("/submissions", s.GetSubmissions)
	clans.Get("/submissions/:id", s.GetSubmissionByID)
	clans.Post("/submissions/:id/bulk-action", s.BulkAction)
	return app
}

func multipartBody(t *testing.T, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func rowsJSON(t *testing.T, rows interface{}) string {
	t.Helper()
	b, err := json.Marshal(rows)
	require.NoError(t, err)
	return string(b)
}

func TestCreateSubmission_ChestsAutoMatch(t *testing.T) {
	db := setupTestDB(t)
	s := NewReviewService(db)
	clanID := uuid.NewString()
	userID := uuid.NewString()

	account := models.GameAccount{ID: uuid.NewString(), ClanID: clanID, DisplayName: "Khaleesi", IsActive: true}
	require.NoError(t, db.Create(&account).Error)
	require.NoError(t, db.Create(&models.CorrectionRule{
		ID: uuid.NewString(), ClanID: clanID,
		EntityType: models.CorrectionEntityPlayer,
		OCRText:    "khalessi", CorrectedText: "Khaleesi",
	}).Error)

	rows := rowsJSON(t, []ChestRowInput{
		{PlayerName: "Khaleesi", ChestName: "Epic Chest", Source: "Crypt 12", Level: 15},
		{PlayerName: "khalessi", ChestName: "Rare Chest", Source: "Crypt 10", Level: 10},
		{PlayerName: "Nobody", ChestName: "Common Chest", Source: "Arena", Level: 5},
	})
	body, contentType := multipartBody(t, map[string]string{
		"type": models.SubmissionTypeChests,
		"rows": rows,
	})

	app := newTestApp(s, userID)
	req := httptest.NewRequest(http.MethodPost, "/clans/"+clanID+"/submissions", body)
	req.Header.Set("Content-Type", contentType)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, 201, resp.StatusCode)

	var created models.Submission
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	assert.Equal(t, clanID, created.ClanID)
	assert.Equal(t, userID, created.UploadedBy)
	assert.Equal(t, 3, created.ItemCount)
	assert.Equal(t, 2, created.MatchedCount)
	// Two auto-matched rows mean review already has work done — not pending.
	assert.Equal(t, models.SubmissionStatusPartial, created.Status)

	var matched int64
	require.NoError(t, db.Model(&models.StagedChestEntry{}).
		Where("submission_id = ? AND item_status = ? AND matched_game_account_id = ?",
			created.ID, models.ItemStatusAutoMatched, account.ID).
		Count(&matched).Error)
	assert.Equal(t, int64(2), matched)
}

func TestCreateSubmission_NoMatchesStaysPending(t *testing.T) {
	db := setupTestDB(t)
	s := NewReviewService(db)
	clanID := uuid.NewString()

	rows := rowsJSON(t, []MemberRowInput{
		{PlayerName: "Stranger", Coordinates: "100:200", Score: 5_000_000},
	})
	body, contentType := multipartBody(t, map[string]string{
		"type": models.SubmissionTypeMembers,
		"rows": rows,
	})

	app := newTestApp(s, uuid.NewString())
	req := httptest.NewRequest(http.MethodPost, "/clans/"+clanID+"/submissions", body)
	req.Header.Set("Content-Type", contentType)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, 201, resp.StatusCode)

	var created models.Submission
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	assert.Equal(t, models.SubmissionStatusPending, created.Status)
	assert.Equal(t, 0, created.MatchedCount)
}

func TestCreateSubmission_Validation(t *testing.T) {
	db := setupTestDB(t)
	s := NewReviewService(db)
	clanID := uuid.NewString()
	app := newTestApp(s, uuid.NewString())

	post := func(fields map[string]string) int {
		body, contentType := multipartBody(t, fields)
		req := httptest.NewRequest(http.MethodPost, "/clans/"+clanID+"/submissions", body)
		req.Header.Set("Content-Type", contentType)
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.StatusCode
	}

	assert.Equal(t, 400, post(map[string]string{"type": "loot", "rows": "[]"}))
	assert.Equal(t, 400, post(map[string]string{"type": models.SubmissionTypeChests}))
	assert.Equal(t, 400, post(map[string]string{"type": models.SubmissionTypeChests, "rows": "[]"}))
	assert.Equal(t, 400, post(map[string]string{"type": models.SubmissionTypeChests, "rows": "not json"}))
	// linked_event_id is an events-only field
	assert.Equal(t, 400, post(map[string]string{
		"type": models.SubmissionTypeChests,
		"rows": rowsJSON(t, []ChestRowInput{{PlayerName: "Khaleesi"}}),
		"linked_event_id": uuid.NewString(),
	}))
	// and must reference a calendar event of this clan
	assert.Equal(t, 400, post(map[string]string{
		"type": models.SubmissionTypeEvents,
		"rows": rowsJSON(t, []EventRowInput{{PlayerName: "Khaleesi"}}),
		"linked_event_id": uuid.NewString(),
	}))

	var count int64
	require.NoError(t, db.Model(&models.Submission{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestCreateSubmission_LinkedEvent(t *testing.T) {
	db := setupTestDB(t)
	s := NewReviewService(db)
	clanID := uuid.NewString()

	event := models.CalendarEvent{ID: uuid.NewString(), ClanID: clanID, Name: "Kingdom Invasion"}
	require.NoError(t, db.Create(&event).Error)

	body, contentType := multipartBody(t, map[string]string{
		"type":            models.SubmissionTypeEvents,
		"rows":            rowsJSON(t, []EventRowInput{{PlayerName: "Khaleesi", EventName: "Kingdom Invasion", EventPoints: 1000}}),
		"linked_event_id": event.ID,
	})

	app := newTestApp(s, uuid.NewString())
	req := httptest.NewRequest(http.MethodPost, "/clans/"+clanID+"/submissions", body)
	req.Header.Set("Content-Type", contentType)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, 201, resp.StatusCode)

	var created models.Submission
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	require.NotNil(t, created.LinkedEventID)
	assert.Equal(t, event.ID, *created.LinkedEventID)
}

func TestGetSubmissions_Filters(t *testing.T) {
	db := setupTestDB(t)
	s := NewReviewService(db)
	clanID := uuid.NewString()

	seedChestSubmission(t, db, clanID, "Khaleesi")
	rejected, entries := seedChestSubmission(t, db, clanID, "Jon")
	_, err := s.ProcessBulkAction(clanID, rejected.ID, "admin-1", entryIDs(entries, 0), BulkActionReject)
	require.NoError(t, err)
	seedChestSubmission(t, db, uuid.NewString(), "Stranger") // other clan

	app := newTestApp(s, uuid.NewString())
	get := func(path string) []models.Submission {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		require.Equal(t, 200, resp.StatusCode)
		var subs []models.Submission
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&subs))
		return subs
	}

	assert.Len(t, get("/clans/"+clanID+"/submissions"), 2)
	got := get("/clans/" + clanID + "/submissions?status=rejected")
	require.Len(t, got, 1)
	assert.Equal(t, rejected.ID, got[0].ID)
	assert.Empty(t, get("/clans/"+clanID+"/submissions?type=members"))
}

func TestGetSubmissionByID_WithEntries(t *testing.T) {
	db := setupTestDB(t)
	s := NewReviewService(db)
	clanID := uuid.NewString()
	sub, _ := seedChestSubmission(t, db, clanID, "Khaleesi", "Jon")

	app := newTestApp(s, uuid.NewString())
	req := httptest.NewRequest(http.MethodGet, "/clans/"+clanID+"/submissions/"+sub.ID, nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)

	var payload struct {
		Submission models.Submission         `json:"submission"`
		Entries    []models.StagedChestEntry `json:"entries"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.Equal(t, sub.ID, payload.Submission.ID)
	assert.Len(t, payload.Entries, 2)
}

func TestGetSubmissionByID_NotFound(t *testing.T) {
	db := setupTestDB(t)
	s := NewReviewService(db)
	clanID := uuid.NewString()
	sub, _ := seedChestSubmission(t, db, clanID, "Khaleesi")

	app := newTestApp(s, uuid.NewString())

	req := httptest.NewRequest(http.MethodGet, "/clans/"+clanID+"/submissions/"+uuid.NewString(), nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)

	// Same id through another clan is also not found.
	req = httptest.NewRequest(http.MethodGet, "/clans/"+uuid.NewString()+"/submissions/"+sub.ID, nil)
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)
}

func TestBulkActionEndpoint_Validation(t *testing.T) {
	db := setupTestDB(t)
	s := NewReviewService(db)
	clanID := uuid.NewString()
	sub, entries := seedChestSubmission(t, db, clanID, "Khaleesi")
	app := newTestApp(s, uuid.NewString())

	post := func(submissionID string, payload interface{}) int {
		b, err := json.Marshal(payload)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodPost,
			"/clans/"+clanID+"/submissions/"+submissionID+"/bulk-action", bytes.NewReader(b))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.StatusCode
	}

	type reqBody struct {
		EntryIDs []string `json:"entry_ids"`
		Action   string   `json:"action"`
	}

	assert.Equal(t, 400, post("not-a-uuid", reqBody{EntryIDs: entryIDs(entries, 0), Action: "approve"}))
	assert.Equal(t, 400, post(sub.ID, reqBody{EntryIDs: entryIDs(entries, 0), Action: "escalate"}))
	assert.Equal(t, 400, post(sub.ID, reqBody{EntryIDs: nil, Action: "approve"}))
	assert.Equal(t, 400, post(sub.ID, reqBody{EntryIDs: []string{"not-a-uuid"}, Action: "approve"}))
	assert.Equal(t, 404, post(uuid.NewString(), reqBody{EntryIDs: entryIDs(entries, 0), Action: "approve"}))

	oversized := make([]string, MaxBulkEntryIDs+1)
	for i := range oversized {
		oversized[i] = uuid.NewString()
	}
	assert.Equal(t, 400, post(sub.ID, reqBody{EntryIDs: oversized, Action: "reject"}))

	// Nothing above touched the entry.
	var entry models.StagedChestEntry
	require.NoError(t, db.First(&entry, "id = ?", entries[0].ID).Error)
	assert.Equal(t, models.ItemStatusPending, entry.ItemStatus)

	// Sanity: a well-formed request goes through and reports the rollup.
	b, err := json.Marshal(reqBody{EntryIDs: entryIDs(entries, 0), Action: "approve"})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost,
		"/clans/"+clanID+"/submissions/"+sub.ID+"/bulk-action", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)

	var result BulkActionResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, int64(1), result.AffectedCount)
	assert.Equal(t, models.SubmissionStatusApproved, result.SubmissionStatus)
}

func TestCreateSubmission_ThenFullReviewCycle(t *testing.T) {
	db := setupTestDB(t)
	s := NewReviewService(db)
	clanID := uuid.NewString()
	reviewer := uuid.NewString()

	account := models.GameAccount{ID: uuid.NewString(), ClanID: clanID, DisplayName: "Khaleesi", IsActive: true}
	require.NoError(t, db.Create(&account).Error)

	body, contentType := multipartBody(t, map[string]string{
		"type": models.SubmissionTypeChests,
		"rows": rowsJSON(t, []ChestRowInput{
			{PlayerName: "Khaleesi", ChestName: "Epic Chest", Source: "Crypt 12", Level: 15},
			{PlayerName: "Ghost", ChestName: "Rare Chest", Source: "Crypt 10", Level: 10},
		}),
	})
	app := newTestApp(s, reviewer)
	req := httptest.NewRequest(http.MethodPost, "/clans/"+clanID+"/submissions", body)
	req.Header.Set("Content-Type", contentType)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, 201, resp.StatusCode)
	var created models.Submission
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))

	var staged []models.StagedChestEntry
	require.NoError(t, db.Where("submission_id = ?", created.ID).Order("created_at ASC").Find(&staged).Error)
	require.Len(t, staged, 2)

	ids := []string{staged[0].ID, staged[1].ID}
	res, err := s.ProcessBulkAction(clanID, created.ID, reviewer, ids, BulkActionApprove)
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionStatusApproved, res.SubmissionStatus)

	var prod []models.ChestEntry
	require.NoError(t, db.Where("submission_id = ?", created.ID).Find(&prod).Error)
	require.Len(t, prod, 2)
	for _, p := range prod {
		assert.Equal(t, clanID, p.ClanID)
		if p.PlayerName == "Khaleesi" {
			require.NotNil(t, p.GameAccountID, fmt.Sprintf("matched row %s must carry its account", p.ID))
			assert.Equal(t, account.ID, *p.GameAccountID)
		} else {
			assert.Nil(t, p.GameAccountID)
		}
	}
}
