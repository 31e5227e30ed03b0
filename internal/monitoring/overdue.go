// Package monitoring runs the background jobs of the service.
package monitoring

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/mydebts/mydebts-be/internal/services"
)

// OverdueMarker flips unpaid debts past their due date to overdue once a
// day. Debt status is assigned exclusively on the server; this job is
// where the overdue state comes from.
type OverdueMarker struct {
	debtSvc services.DebtServiceProvider
	cron    *cron.Cron
}

// NewOverdueMarker creates a new OverdueMarker.
func NewOverdueMarker(debtSvc services.DebtServiceProvider) *OverdueMarker {
	return &OverdueMarker{
		debtSvc: debtSvc,
		cron:    cron.New(),
	}
}

// Run marks overdue debts immediately, then once every midnight.
func (m *OverdueMarker) Run() {
	log.Info().Msg("Starting overdue marker...")
	m.mark()

	m.cron.AddFunc("@midnight", m.mark)
	m.cron.Start()
}

// Stop halts the job and waits for a running pass to finish.
func (m *OverdueMarker) Stop() {
	ctx := m.cron.Stop()
	<-ctx.Done()
	log.Info().Msg("Stopped overdue marker.")
}

func (m *OverdueMarker) mark() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	n, err := m.debtSvc.MarkOverdue(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to mark overdue debts")
		return
	}
	if n > 0 {
		log.Info().Int("count", n).Msg("Marked debts overdue")
	}
}
