package service

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/trickspot/backend/internal/repository"
)

// expiryScanBatch caps how many overdue battles one tick processes.
const expiryScanBatch = 100

// ExpiryWorker is the external clock for turn deadlines. On every tick it
// collects active battles whose deadline passed and hands each to
// HandleDeadlineExpiry, which performs its own checks under the battle lock.
type ExpiryWorker struct {
	battles    *BattleService
	battleRepo repository.BattleRepository
	interval   time.Duration
	scheduler  gocron.Scheduler
}

func NewExpiryWorker(battles *BattleService, battleRepo repository.BattleRepository, interval time.Duration) *ExpiryWorker {
	return &ExpiryWorker{
		battles:    battles,
		battleRepo: battleRepo,
		interval:   interval,
	}
}

func (w *ExpiryWorker) Start() error {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return err
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(w.interval),
		gocron.NewTask(w.Tick),
	)
	if err != nil {
		return err
	}

	w.scheduler = scheduler
	scheduler.Start()
	log.Printf("expiry worker started, tick interval %s", w.interval)
	return nil
}

func (w *ExpiryWorker) Stop() {
	if w.scheduler != nil {
		if err := w.scheduler.Shutdown(); err != nil {
			log.Printf("ERROR [ExpiryWorker] shutdown: %v", err)
		}
	}
}

// Tick runs one scan. Exported so a deployment can drive expiry from an
// external cron instead of the in-process scheduler.
func (w *ExpiryWorker) Tick() {
	ctx := context.Background()

	ids, err := w.battleRepo.ListOverdue(ctx, expiryScanBatch)
	if err != nil {
		log.Printf("ERROR [ExpiryWorker] overdue scan failed: %v", err)
		return
	}

	for _, id := range ids {
		if err := w.battles.HandleDeadlineExpiry(ctx, id); err != nil {
			log.Printf("ERROR [ExpiryWorker] expiry for battle %s failed: %v", id, err)
		}
	}
}
