// Package integrations connects the planner to external task and calendar
// providers. Connectors are registered explicitly at construction time; a
// provider without a registered connector is simply absent, never an error
// path discovered at call time through hidden initialization.
package integrations

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"
)

// Provider identifies an external system the planner can pull from.
type Provider string

const (
	ProviderNotion         Provider = "notion"
	ProviderClickUp        Provider = "clickup"
	ProviderLinear         Provider = "linear"
	ProviderTodoist        Provider = "todoist"
	ProviderGoogleCalendar Provider = "google_calendar"
	ProviderOutlook        Provider = "outlook"
	ProviderAppleCalendar  Provider = "apple_calendar"
	ProviderFastmail       Provider = "fastmail"
)

// ErrUnknownProvider is returned when no connector is registered for the
// requested provider.
var ErrUnknownProvider = errors.New("integrations: unknown provider")

// ExternalTask is a task as reported by an external provider, before it is
// imported into a workspace backlog.
type ExternalTask struct {
	ID        string
	Title     string
	Completed bool
	Source    Provider
}

// ExternalEvent is a committed external placement with a half-open interval.
type ExternalEvent struct {
	ID     string
	Title  string
	Start  time.Time
	End    time.Time
	Source Provider
}

// Connector pulls tasks and events from one external provider.
type Connector interface {
	Provider() Provider
	FetchTasks(ctx context.Context) ([]ExternalTask, error)
	FetchEvents(ctx context.Context, from, to time.Time) ([]ExternalEvent, error)
}

// Dispatcher routes fetch requests to the connector registered for each
// provider.
type Dispatcher struct {
	connectors map[Provider]Connector
}

// NewDispatcher builds a dispatcher from an explicit connector list. Later
// entries for the same provider win.
func NewDispatcher(connectors ...Connector) *Dispatcher {
	byProvider := make(map[Provider]Connector, len(connectors))
	for _, connector := range connectors {
		if connector == nil {
			continue
		}
		byProvider[connector.Provider()] = connector
	}
	return &Dispatcher{connectors: byProvider}
}

// Providers lists the registered providers in stable order.
func (d *Dispatcher) Providers() []Provider {
	providers := make([]Provider, 0, len(d.connectors))
	for provider := range d.connectors {
		providers = append(providers, provider)
	}
	sort.Slice(providers, func(i, j int) bool { return providers[i] < providers[j] })
	return providers
}

// FetchTasks pulls tasks from the named provider.
func (d *Dispatcher) FetchTasks(ctx context.Context, provider Provider) ([]ExternalTask, error) {
	connector, ok := d.connectors[provider]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, provider)
	}
	return connector.FetchTasks(ctx)
}

// FetchEvents pulls events overlapping [from, to) from the named provider.
func (d *Dispatcher) FetchEvents(ctx context.Context, provider Provider, from, to time.Time) ([]ExternalEvent, error) {
	connector, ok := d.connectors[provider]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, provider)
	}
	return connector.FetchEvents(ctx, from, to)
}
