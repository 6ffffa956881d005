// workers/roster_sync_worker.go
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"clan-review-system/models"
	"clan-review-system/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RosterMemberChange matches the JSON the profile service emits for one roster
// membership change.
type RosterMemberChange struct {
	AccountID   string     `json:"account_id"`
	ClanID      string     `json:"clan_id"`
	DisplayName string     `json:"display_name"`
	IsActive    bool       `json:"is_active"`
	LeftAt      *time.Time `json:"left_at,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// GetRosterChangesResponse is the top-level structure of the profile service response.
type GetRosterChangesResponse struct {
	Members []RosterMemberChange `json:"members"`
}

// RosterSyncWorker keeps the local game_accounts table (the Account Directory
// the matching engine reads) in step with the profile service. Name matching
// is only as good as the roster is fresh.
type RosterSyncWorker struct {
	db           *gorm.DB
	interval     time.Duration
	baseURL      string // e.g., "http://localhost:8500"
	endpointPath string // e.g., "/api/v1/public/rosters"
	serviceToken string
	httpClient   *http.Client
}

func NewRosterSyncWorker(db *gorm.DB, profileServiceBaseURL, endpointPath, serviceToken string) *RosterSyncWorker {
	return &RosterSyncWorker{
		db:           db,
		interval:     1 * time.Minute,
		baseURL:      profileServiceBaseURL,
		endpointPath: endpointPath,
		serviceToken: serviceToken,
		httpClient:   utils.HTTPClient,
	}
}

func (w *RosterSyncWorker) Start(ctx context.Context) {
	log.Println("🔁 Starting Roster Sync Worker (profile-service → game_accounts)…")
	go w.run(ctx)
}

func (w *RosterSyncWorker) run(ctx context.Context) {
	// Initial sync — backfill from the beginning of time if the table is empty.
	if err := w.syncBatch(ctx, time.Time{}); err != nil {
		log.Printf("⚠️ Initial roster sync failed: %v", err)
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			lastSyncTime := w.getLastSyncTime()
			if err := w.syncBatch(ctx, lastSyncTime); err != nil {
				log.Printf("❌ Roster sync batch failed: %v", err)
			}
		case <-ctx.Done():
			log.Println("⏹️ Roster Sync Worker stopped")
			return
		}
	}
}

// getLastSyncTime finds the most recent UpdatedAt in the local roster table.
func (w *RosterSyncWorker) getLastSyncTime() time.Time {
	var lastTime time.Time
	err := w.db.Raw("SELECT MAX(updated_at) FROM game_accounts WHERE deleted_at IS NULL").Scan(&lastTime).Error
	if err != nil || lastTime.IsZero() {
		return time.Unix(0, 0)
	}
	return lastTime
}

// syncBatch fetches roster changes since the given time and upserts them.
func (w *RosterSyncWorker) syncBatch(ctx context.Context, since time.Time) error {
	sinceStr := since.UTC().Format(time.RFC3339)

	base, err := url.Parse(w.baseURL)
	if err != nil {
		return fmt.Errorf("invalid profile service URL '%s': %w", w.baseURL, err)
	}
	endpointURL := base.JoinPath(w.endpointPath)
	q := endpointURL.Query()
	q.Set("since", sinceStr)
	endpointURL.RawQuery = q.Encode()
	finalURL := endpointURL.String()

	req, err := http.NewRequestWithContext(ctx, "GET", finalURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request to %s: %w", finalURL, err)
	}
	req.Header.Set("X-Service-Token", w.serviceToken)

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request to profile service failed: %w", err)
	}
	defer func() {
		// Always drain & close to prevent connection leaks
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("profile service non-200 response: %d — %s", resp.StatusCode, string(body))
	}

	var response GetRosterChangesResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return fmt.Errorf("failed to decode profile service response: %w", err)
	}

	if len(response.Members) == 0 {
		return nil
	}

	log.Printf("[SYNC] 📥 Processing %d roster change(s) from profile service…", len(response.Members))

	var upsertCount, errorCount int
	for _, m := range response.Members {
		account := models.GameAccount{
			ID:          m.AccountID,
			ClanID:      m.ClanID,
			DisplayName: m.DisplayName,
			IsActive:    m.IsActive,
			LeftAt:      m.LeftAt,
		}

		if err := w.db.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"clan_id", "display_name", "is_active", "left_at", "updated_at",
			}),
		}).Create(&account).Error; err != nil {
			errorCount++
			log.Printf("[SYNC] ⚠️ Failed to upsert game_account (id=%q, name=%q): %v",
				m.AccountID, m.DisplayName, err)
		} else {
			upsertCount++
		}
	}

	log.Printf("[SYNC] ✅ Synced %d roster change(s) (%d upserted, %d errors) since %s",
		len(response.Members), upsertCount, errorCount, sinceStr)
	return nil
}
