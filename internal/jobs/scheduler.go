package jobs

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"rentdesk/internal/bus"
	"rentdesk/internal/querycache"
	"rentdesk/internal/repositories"
	"rentdesk/internal/services"

	"github.com/go-co-op/gocron/v2"
)

// JobScheduler manages background jobs: query-cache garbage collection,
// overdue rental alerts, and report warm-up.
type JobScheduler struct {
	scheduler       gocron.Scheduler
	cache           *querycache.Cache
	reservationRepo repositories.ReservationRepository
	reportService   services.ReportService
	eventBus        *bus.Bus
	gcInterval      time.Duration
	jobs            map[string]gocron.Job
	mu              sync.RWMutex
}

// NewJobScheduler creates a new job scheduler
func NewJobScheduler(cache *querycache.Cache, reservationRepo repositories.ReservationRepository,
	reportService services.ReportService, eventBus *bus.Bus, gcInterval time.Duration) (*JobScheduler, error) {

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %v", err)
	}

	js := &JobScheduler{
		scheduler:       scheduler,
		cache:           cache,
		reservationRepo: reservationRepo,
		reportService:   reportService,
		eventBus:        eventBus,
		gcInterval:      gcInterval,
		jobs:            make(map[string]gocron.Job),
	}

	js.registerJobs()
	return js, nil
}

// Start starts the job scheduler
func (js *JobScheduler) Start() {
	log.Printf("Starting background job scheduler")
	js.scheduler.Start()
}

// Stop stops the job scheduler
func (js *JobScheduler) Stop() error {
	log.Printf("Stopping background job scheduler")
	return js.scheduler.Shutdown()
}

func (js *JobScheduler) registerJobs() {
	// Query-cache sweep, on the configured GC window.
	gcJob, err := js.scheduler.NewJob(
		gocron.DurationJob(js.gcInterval),
		gocron.NewTask(js.sweepQueryCache),
		gocron.WithName("querycache-gc"),
	)
	if err != nil {
		log.Printf("Failed to create cache GC job: %v", err)
	} else {
		js.addJob("querycache-gc", gcJob)
	}

	// Overdue rental scan - every 15 minutes
	overdueJob, err := js.scheduler.NewJob(
		gocron.DurationJob(15*time.Minute),
		gocron.NewTask(js.scanOverdueRentals, context.Background()),
		gocron.WithName("overdue-rental-scan"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		log.Printf("Failed to create overdue scan job: %v", err)
	} else {
		js.addJob("overdue-rental-scan", overdueJob)
	}

	// Fleet report warm-up - every 5 minutes
	reportJob, err := js.scheduler.NewJob(
		gocron.DurationJob(5*time.Minute),
		gocron.NewTask(js.refreshFleetReport, context.Background()),
		gocron.WithName("fleet-report-refresh"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		log.Printf("Failed to create report refresh job: %v", err)
	} else {
		js.addJob("fleet-report-refresh", reportJob)
	}
}

func (js *JobScheduler) addJob(name string, job gocron.Job) {
	js.mu.Lock()
	js.jobs[name] = job
	js.mu.Unlock()
}

func (js *JobScheduler) sweepQueryCache() {
	removed := js.cache.GC()
	if removed > 0 {
		log.Printf("jobs: query cache GC removed %d expired entries", removed)
	}
}

// scanOverdueRentals alerts agents about rentals past their return date.
func (js *JobScheduler) scanOverdueRentals(ctx context.Context) {
	overdue, err := js.reservationRepo.ListOverdue(ctx, time.Now())
	if err != nil {
		log.Printf("jobs: overdue scan failed: %v", err)
		return
	}
	if len(overdue) == 0 {
		return
	}

	log.Printf("jobs: %d rentals overdue", len(overdue))
	for _, r := range overdue {
		js.eventBus.Publish(bus.ShowNotification{
			Severity: bus.SeverityWarning,
			Text:     fmt.Sprintf("Rental %s (%s) is overdue since %s", r.ConfirmationNo, r.CustomerName, r.ReturnDate.Format("2006-01-02")),
		})
	}
}

// refreshFleetReport keeps the dashboard's fleet report warm so the first
// viewer of the day does not pay for the computation.
func (js *JobScheduler) refreshFleetReport(ctx context.Context) {
	if _, err := js.reportService.FleetUtilization(ctx); err != nil {
		log.Printf("jobs: fleet report refresh failed: %v", err)
	}
}
