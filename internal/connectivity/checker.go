package connectivity

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Checker periodically probes an upstream URL and feeds the result into the
// Monitor.
type Checker struct {
	log      zerolog.Logger
	monitor  *Monitor
	url      string
	interval time.Duration
	timeout  time.Duration
	client   *http.Client
}

type CheckerOptions struct {
	URL        string
	Interval   time.Duration
	Timeout    time.Duration
	HTTPClient *http.Client
}

func NewChecker(log zerolog.Logger, monitor *Monitor, opts CheckerOptions) *Checker {
	interval := opts.Interval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	return &Checker{
		log:      log,
		monitor:  monitor,
		url:      strings.TrimSpace(opts.URL),
		interval: interval,
		timeout:  timeout,
		client:   client,
	}
}

// Run blocks until ctx is cancelled. A Checker without URL returns at once.
func (c *Checker) Run(ctx context.Context) {
	if c == nil || c.url == "" || c.monitor == nil {
		return
	}

	timer := time.NewTimer(0)
	defer timer.Stop()

	var consecutiveFailures int
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		if err := c.CheckOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			consecutiveFailures++
			c.log.Debug().Err(err).Int("failures", consecutiveFailures).Msg("connectivity check failed")
		} else {
			consecutiveFailures = 0
		}

		timer.Reset(backoffDuration(c.interval, consecutiveFailures))
	}
}

// CheckOnce performs a single HEAD request and records the outcome.
func (c *Checker) CheckOnce(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.url, nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		c.monitor.Set(false, "check")
		return err
	}
	_ = resp.Body.Close()

	// Any HTTP answer proves the network path works, even a 404.
	if resp.StatusCode >= 500 {
		c.monitor.Set(false, "check")
		return fmt.Errorf("check %s: status %d", c.url, resp.StatusCode)
	}
	c.monitor.Set(true, "check")
	return nil
}

// backoffDuration re-checks sooner while the network is down, never slower
// than the configured interval.
func backoffDuration(base time.Duration, failures int) time.Duration {
	if base <= 0 {
		base = 30 * time.Second
	}
	if failures <= 0 {
		return base
	}
	if failures > 4 {
		failures = 4
	}
	d := base / time.Duration(1<<failures)
	if d < time.Second {
		return time.Second
	}
	return d
}
