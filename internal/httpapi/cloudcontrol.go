package httpapi

import (
	"context"
	"sync"

	"github.com/lootwatch/lootwatchd/internal/cloudsync"
)

// CloudController owns the Cloud Sync Worker's on/off lifecycle, which
// spec.md §4.8 leaves to user control: "start on enabling cloud sync,
// stop on disabling; disabling never purges the local cache." The
// worker itself has no notion of enabled/disabled — only Start/Stop —
// so the toggle state lives here.
type CloudController struct {
	mu      sync.Mutex
	worker  *cloudsync.Worker
	cancel  context.CancelFunc
	enabled bool
}

// NewCloudController wraps a worker. worker is nil when no cloud
// credentials were configured (cloudsync.NewFromEnv's disabled case);
// every method is then a safe no-op reporting disabled.
func NewCloudController(worker *cloudsync.Worker) *CloudController {
	return &CloudController{worker: worker}
}

// Configured reports whether cloud credentials were provided at all.
func (c *CloudController) Configured() bool {
	return c.worker != nil
}

// Enabled reports whether the uplink/downlink loops are currently running.
func (c *CloudController) Enabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enabled
}

// Enable starts the worker's loops if not already running.
func (c *CloudController) Enable() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.Configured() || c.enabled {
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	if err := c.worker.Start(ctx); err != nil {
		cancel()
		return err
	}
	c.cancel = cancel
	c.enabled = true
	return nil
}

// Disable stops the worker's loops. The outbox and cached prices are
// left exactly as they are.
func (c *CloudController) Disable() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.enabled {
		return nil
	}
	err := c.worker.Stop()
	if c.cancel != nil {
		c.cancel()
	}
	c.enabled = false
	return err
}

// SyncNow runs one uplink and downlink pass synchronously, independent
// of whether the scheduled loops are running.
func (c *CloudController) SyncNow(ctx context.Context) error {
	if !c.Configured() {
		return errCloudNotConfigured
	}
	return c.worker.SyncNow(ctx)
}

var errCloudNotConfigured = errString("cloud sync is not configured: LOOTWATCH_CLOUD_URL/LOOTWATCH_CLOUD_KEY are unset")
