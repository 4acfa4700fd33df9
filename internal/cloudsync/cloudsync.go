package cloudsync

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
	"golang.org/x/time/rate"

	"github.com/lootwatch/lootwatchd/internal/store"
	"github.com/lootwatch/lootwatchd/pkg/log"
	"github.com/lootwatch/lootwatchd/pkg/schema"
)

const (
	DefaultUplinkInterval   = 60 * time.Second
	DefaultDownlinkInterval = 300 * time.Second

	maxBackoff      = time.Hour
	uplinkBatchSize = 50
	rateLimitPerHr  = 100
	historyWindow   = 72 * time.Hour
)

// InventoryFunc returns the TypeIds currently present in scope's
// inventory, bounding how many history series Downlink fetches.
type InventoryFunc func(scope schema.PlayerScope) ([]schema.TypeId, error)

// ScopeFunc returns the active player scope, if one is currently known.
type ScopeFunc func() (schema.PlayerScope, bool)

// Observer is told about uplink/downlink outcomes, for callers that
// want to expose them (e.g. as Prometheus counters). Calls happen from
// the scheduler's goroutine.
type Observer interface {
	UplinkOutcome(outcome string) // "success", "retry", or "dropped"
	DownlinkRows(n int)
}

type nopObserver struct{}

func (nopObserver) UplinkOutcome(string) {}
func (nopObserver) DownlinkRows(int)     {}

// Worker owns the Uplink and Downlink loops. It is the only component
// permitted to mutate the Outbox and the Cloud Price cache tables.
type Worker struct {
	store        *store.Store
	client       *Client
	deviceUUID   string
	baseCurrency schema.TypeId
	seasonID     func() string
	scope        ScopeFunc
	inventory    InventoryFunc

	uplinkInterval   time.Duration
	downlinkInterval time.Duration

	limiter  *rate.Limiter
	sched    gocron.Scheduler
	observer Observer
}

func New(s *store.Store, client *Client, deviceUUID string, baseCurrency schema.TypeId, seasonID func() string, scope ScopeFunc, inventory InventoryFunc) *Worker {
	return &Worker{
		store:            s,
		client:           client,
		deviceUUID:       deviceUUID,
		baseCurrency:     baseCurrency,
		seasonID:         seasonID,
		scope:            scope,
		inventory:        inventory,
		uplinkInterval:   DefaultUplinkInterval,
		downlinkInterval: DefaultDownlinkInterval,
		limiter:          rate.NewLimiter(rate.Every(time.Hour/rateLimitPerHr), 5),
		observer:         nopObserver{},
	}
}

// SetObserver installs o to receive uplink/downlink outcome callbacks.
// Passing nil restores the no-op observer.
func (w *Worker) SetObserver(o Observer) {
	if o == nil {
		o = nopObserver{}
	}
	w.observer = o
}

// Start begins the Uplink and Downlink loops. Lifecycle per spec: start on
// enabling cloud sync, stop on disabling; disabling never purges the local
// cache.
func (w *Worker) Start(ctx context.Context) error {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return err
	}
	w.sched = sched

	if _, err := sched.NewJob(gocron.DurationJob(w.uplinkInterval), gocron.NewTask(func() { w.runUplink(ctx) })); err != nil {
		return err
	}
	if _, err := sched.NewJob(gocron.DurationJob(w.downlinkInterval), gocron.NewTask(func() { w.runDownlink(ctx) })); err != nil {
		return err
	}

	sched.Start()
	log.Info("cloudsync: uplink/downlink loops started")
	return nil
}

// SyncNow runs one uplink pass followed by one downlink pass
// synchronously, for the "sync now" API action. It does not touch the
// scheduled loops and is safe to call whether or not Start has run.
func (w *Worker) SyncNow(ctx context.Context) error {
	w.runUplink(ctx)
	w.runDownlink(ctx)
	return ctx.Err()
}

// Stop shuts the scheduler down. gocron waits for in-flight job ticks to
// return before Shutdown returns, satisfying the cooperative-cancellation
// requirement; any outbox entries not yet submitted stay queued.
func (w *Worker) Stop() error {
	if w.sched == nil {
		return nil
	}
	return w.sched.Shutdown()
}
