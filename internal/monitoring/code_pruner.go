package monitoring

import (
	"log"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/whisperbox/whisperbox-be/internal/database"
)

// CodePruner clears expired verification codes from unverified accounts so
// stale codes cannot linger in the store indefinitely.
type CodePruner struct {
	db       *database.Store
	schedule cron.Schedule
	done     chan bool
}

// NewCodePruner creates a pruner running on the given cron cadence.
func NewCodePruner(db *database.Store, scheduleSpec string) (*CodePruner, error) {
	schedule, err := cron.ParseStandard(scheduleSpec)
	if err != nil {
		return nil, err
	}
	return &CodePruner{
		db:       db,
		schedule: schedule,
		done:     make(chan bool),
	}, nil
}

// Run starts the pruner loop.
func (p *CodePruner) Run() {
	log.Println("Starting verification-code pruner...")

	// Run once immediately on start
	p.prune()

	for {
		next := p.schedule.Next(time.Now())
		timer := time.NewTimer(time.Until(next))
		select {
		case <-p.done:
			timer.Stop()
			log.Println("Stopping verification-code pruner.")
			return
		case <-timer.C:
			p.prune()
		}
	}
}

// Stop halts the pruner.
func (p *CodePruner) Stop() {
	p.done <- true
}

// prune drops codes whose expiry has passed on accounts that never verified.
func (p *CodePruner) prune() {
	res, err := p.db.Exec(`UPDATE users SET verify_code = NULL, verify_code_expiry = NULL
		WHERE is_verified = 0 AND verify_code_expiry IS NOT NULL AND verify_code_expiry < ?`,
		time.Now().UTC())
	if err != nil {
		log.Printf("Pruner: failed to clear expired verification codes: %v", err)
		return
	}
	if affected, err := res.RowsAffected(); err == nil && affected > 0 {
		log.Printf("Pruner: cleared %d expired verification code(s)", affected)
	}
}
