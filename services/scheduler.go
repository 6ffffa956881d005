// services/scheduler.go
package services

import (
	"log"
	"time"

	"clan-review-system/models"

	"github.com/go-co-op/gocron/v2"
)

// StartRematchScheduler periodically sweeps clans with unfinished submissions
// and runs the server-side rematch over their pending entries. Catches rows
// that were unmatched at ingestion but became matchable after a roster sync or
// a new correction rule.
func (s *ReviewService) StartRematchScheduler() {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	_, _ = sched.NewJob(
		gocron.DurationJob(15*time.Minute),
		gocron.NewTask(func() {
			var clanIDs []string
			err := s.DB.Model(&models.Submission{}).
				Distinct("clan_id").
				Where("status IN ?", []string{models.SubmissionStatusPending, models.SubmissionStatusPartial}).
				Pluck("clan_id", &clanIDs).Error
			if err != nil {
				log.Printf("[Scheduler] DB error: %v", err)
				return
			}

			for _, clanID := range clanIDs {
				n, err := s.RematchAllPending(clanID, nil)
				if err != nil {
					log.Printf("[Scheduler] Rematch failed for clan %s: %v", clanID, err)
					continue
				}
				if n > 0 {
					log.Printf("✅ [Scheduler] Rematched %d pending entries for clan %s", n, clanID)
				}
			}
		}),
	)
}
