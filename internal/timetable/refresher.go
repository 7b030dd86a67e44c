package timetable

import (
	"context"
	"log"

	"github.com/robfig/cron/v3"
)

// Refresher runs the background maintenance jobs: periodic revalidation of
// the current week (which feeds the widgets) and a daily prune of cached
// weeks outside the retention window. Interactive loads never wait on it.
type Refresher struct {
	cron         *cron.Cron
	orchestrator *Orchestrator
	refreshSpec  string
}

// NewRefresher creates the background refresher. refreshSpec is a cron
// expression ("@every 30m" style specs included); empty selects the
// default half-hour cadence.
func NewRefresher(orchestrator *Orchestrator, refreshSpec string) *Refresher {
	if refreshSpec == "" {
		refreshSpec = "@every 30m"
	}
	return &Refresher{
		cron:         cron.New(),
		orchestrator: orchestrator,
		refreshSpec:  refreshSpec,
	}
}

// Start registers the jobs and starts the cron loop.
func (r *Refresher) Start() error {
	if _, err := r.cron.AddFunc(r.refreshSpec, r.revalidateCurrentWeek); err != nil {
		return err
	}

	// Prune once a day; growth is bounded either way since the user pages
	// through a handful of weeks at most.
	if _, err := r.cron.AddFunc("@daily", r.prune); err != nil {
		return err
	}

	r.cron.Start()
	log.Printf("Background refresher started (%s)", r.refreshSpec)
	return nil
}

// Stop gracefully shuts down the refresher, waiting for a running job.
func (r *Refresher) Stop() {
	log.Println("Stopping background refresher...")
	ctx := r.cron.Stop()
	<-ctx.Done()
	log.Println("Background refresher stopped")
}

func (r *Refresher) revalidateCurrentWeek() {
	if err := r.orchestrator.Revalidate(context.Background(), 0); err != nil && !Terminal(err) {
		log.Printf("Scheduled revalidation failed: %v", err)
	}
}

func (r *Refresher) prune() {
	if err := r.orchestrator.PruneOldEntries(context.Background()); err != nil {
		log.Printf("Cache prune failed: %v", err)
	}
}
