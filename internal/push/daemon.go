package push

import (
	"context"
	"log"
	"os"
	"sync"
	"time"
)

// DaemonConfig holds configuration for the periodic push loop.
type DaemonConfig struct {
	// Interval is how often dirty rows are pushed.
	Interval time.Duration

	// Logger for daemon activity.
	Logger *log.Logger
}

// DefaultDaemonConfig returns sensible defaults.
func DefaultDaemonConfig() *DaemonConfig {
	return &DaemonConfig{
		Interval: 5 * time.Minute,
		Logger:   log.New(os.Stderr, "[pushd] ", log.LstdFlags),
	}
}

// Daemon runs the push driver on a fixed interval until stopped. The
// enclosing application offloads it onto a worker goroutine; the core calls
// stay synchronous.
type Daemon struct {
	driver *Driver
	config *DaemonConfig

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewDaemon creates a daemon over an existing driver.
func NewDaemon(driver *Driver, config *DaemonConfig) *Daemon {
	if config == nil {
		config = DefaultDaemonConfig()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Daemon{driver: driver, config: config, ctx: ctx, cancel: cancel}
}

// Start begins the periodic loop. An immediate push runs first so a freshly
// started application drains its backlog without waiting a full interval.
func (d *Daemon) Start() {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		d.runOnce()
		ticker := time.NewTicker(d.config.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-d.ctx.Done():
				return
			case <-ticker.C:
				d.runOnce()
			}
		}
	}()
}

// Stop halts the loop and waits for an in-flight push to finish. There is
// no cancellation of in-flight remote calls; partial batches are safe
// because unpushed rows stay dirty.
func (d *Daemon) Stop() {
	d.cancel()
	d.wg.Wait()
}

func (d *Daemon) runOnce() {
	result, err := d.driver.PushAll(d.ctx)
	if err != nil {
		d.config.Logger.Printf("WARNING: push cycle failed: %v", err)
		return
	}
	if result.Pushed > 0 || result.Failed > 0 {
		d.config.Logger.Printf("Push cycle: pushed=%d failed=%d skipped=%d",
			result.Pushed, result.Failed, result.Skipped)
	}
}
