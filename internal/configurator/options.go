// Package configurator hosts server-side configurator sessions. A session
// owns one shopper's selection state for one product and drives the
// resolvers that narrow choices and fetch prices.
package configurator

import (
	"log/slog"
	"time"

	"github.com/dukerupert/configurator/internal/pricing"
)

// Metrics receives session and resolver events.
type Metrics interface {
	pricing.Observer
	SessionOpened(kind string)
	SessionClosed(reason string)
	AxisChanged()
	InvalidCombination()
	CartConfigurationBuilt(kind string)
}

// Options configures sessions created by a Manager.
type Options struct {
	// SettleWindow is the price debounce interval. Zero means 400ms.
	SettleWindow time.Duration

	// TTL is how long an idle session survives a sweep. Zero disables expiry.
	TTL time.Duration

	Logger  *slog.Logger
	Metrics Metrics

	// OnPriceError is called for every backend transport error.
	OnPriceError func(error)

	// Now is the clock. Defaults to time.Now.
	Now func() time.Time
}

func (o Options) withDefaults() Options {
	if o.SettleWindow <= 0 {
		o.SettleWindow = pricing.DefaultSettleWindow
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Metrics == nil {
		o.Metrics = nopMetrics{}
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

func (o Options) resolverConfig(name string) pricing.Config {
	return pricing.Config{
		Name:     name,
		Window:   o.SettleWindow,
		Logger:   o.Logger,
		Observer: o.Metrics,
		OnError:  o.OnPriceError,
	}
}

type nopMetrics struct{}

func (nopMetrics) RequestIssued(string)                   {}
func (nopMetrics) RequestCompleted(string, time.Duration) {}
func (nopMetrics) StaleDiscarded(string)                  {}
func (nopMetrics) Coalesced(string)                       {}
func (nopMetrics) InvalidSkipped(string)                  {}
func (nopMetrics) TransportError(string)                  {}
func (nopMetrics) SessionOpened(string)                   {}
func (nopMetrics) SessionClosed(string)                   {}
func (nopMetrics) AxisChanged()                           {}
func (nopMetrics) InvalidCombination()                    {}
func (nopMetrics) CartConfigurationBuilt(string)          {}
