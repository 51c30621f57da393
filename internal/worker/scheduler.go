package worker

import (
	"context"
	"log"
	"time"

	"github.com/renatodap/fitness-backend/internal/embeddings"
	"github.com/renatodap/fitness-backend/internal/reports"
	"github.com/renatodap/fitness-backend/internal/storage"
	"github.com/renatodap/fitness-backend/internal/summaries"
)

// Schedule floor:
//   - nightly at 02:00 UTC: per-user summaries + report publishing +
//     recommendation reaping
//   - every 15 minutes: embedding queue drain
const (
	nightlyHourUTC     = 2
	queueDrainInterval = 15 * time.Minute
	queueDrainBatch    = 100
)

// Scheduler drives the recurring jobs. It runs inside the worker
// process, not the API.
type Scheduler struct {
	store      storage.Store
	embeddings *embeddings.Service
	summaries  *summaries.Service
	reports    *reports.Generator

	stop chan struct{}
}

func NewScheduler(store storage.Store, embedService *embeddings.Service, summaryService *summaries.Service, reportGenerator *reports.Generator) *Scheduler {
	return &Scheduler{
		store:      store,
		embeddings: embedService,
		summaries:  summaryService,
		reports:    reportGenerator,
		stop:       make(chan struct{}),
	}
}

func (s *Scheduler) Start() {
	go s.nightlyLoop()
	go s.queueDrainLoop()
	log.Println("[Scheduler] started")
}

func (s *Scheduler) Stop() {
	close(s.stop)
}

func (s *Scheduler) nightlyLoop() {
	for {
		select {
		case <-time.After(untilNextNightly(time.Now().UTC())):
		case <-s.stop:
			return
		}
		s.runNightly()
	}
}

func (s *Scheduler) runNightly() {
	ctx, cancel := context.WithTimeout(context.Background(), taskTimeLimit)
	defer cancel()

	generated, err := s.summaries.GenerateAll(ctx)
	if err != nil {
		log.Printf("[Scheduler] nightly summaries failed: %v", err)
	} else {
		log.Printf("[Scheduler] nightly summaries complete: %d generated", generated)
	}

	if s.reports != nil {
		userIDs, err := s.store.ListUserIDs(ctx)
		if err != nil {
			log.Printf("[Scheduler] report pass skipped: %v", err)
		} else {
			for _, userID := range userIDs {
				if _, err := s.reports.PublishWeeklyReport(ctx, userID); err != nil {
					log.Printf("[Scheduler] weekly report for %s failed: %v", userID, err)
				}
			}
		}
	}

	expired, err := s.store.ExpireRecommendationsBefore(ctx, time.Now().UTC())
	if err != nil {
		log.Printf("[Scheduler] recommendation reaping failed: %v", err)
	} else if expired > 0 {
		log.Printf("[Scheduler] reaped %d expired recommendations", expired)
	}
}

func (s *Scheduler) queueDrainLoop() {
	ticker := time.NewTicker(queueDrainInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), taskTimeLimit)
			processed, failed, err := s.embeddings.ProcessQueue(ctx, queueDrainBatch)
			cancel()
			if err != nil {
				log.Printf("[Scheduler] embedding queue drain failed: %v", err)
			} else if processed+failed > 0 {
				log.Printf("[Scheduler] embedding queue drained: %d ok, %d failed", processed, failed)
			}
		case <-s.stop:
			return
		}
	}
}

// untilNextNightly returns the wait until the next 02:00 UTC.
func untilNextNightly(now time.Time) time.Duration {
	next := time.Date(now.Year(), now.Month(), now.Day(), nightlyHourUTC, 0, 0, 0, time.UTC)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next.Sub(now)
}
