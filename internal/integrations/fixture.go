package integrations

import (
	"context"
	"time"
)

// FixtureConnector serves a static data set for one provider. It backs local
// development and demos until real provider clients land, and doubles as the
// reference Connector implementation.
type FixtureConnector struct {
	provider Provider
	tasks    []ExternalTask
	events   []ExternalEvent
}

// NewFixtureConnector builds a connector serving the given static data. The
// data's Source fields are stamped with the provider so fixtures cannot
// masquerade as another source.
func NewFixtureConnector(provider Provider, tasks []ExternalTask, events []ExternalEvent) *FixtureConnector {
	stampedTasks := make([]ExternalTask, len(tasks))
	for i, task := range tasks {
		task.Source = provider
		stampedTasks[i] = task
	}
	stampedEvents := make([]ExternalEvent, len(events))
	for i, event := range events {
		event.Source = provider
		stampedEvents[i] = event
	}
	return &FixtureConnector{provider: provider, tasks: stampedTasks, events: stampedEvents}
}

// Provider identifies the provider this connector serves.
func (c *FixtureConnector) Provider() Provider {
	return c.provider
}

// FetchTasks returns a copy of the fixture task set.
func (c *FixtureConnector) FetchTasks(ctx context.Context) ([]ExternalTask, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tasks := make([]ExternalTask, len(c.tasks))
	copy(tasks, c.tasks)
	return tasks, nil
}

// FetchEvents returns the fixture events overlapping [from, to).
func (c *FixtureConnector) FetchEvents(ctx context.Context, from, to time.Time) ([]ExternalEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var events []ExternalEvent
	for _, event := range c.events {
		if event.Start.Before(to) && from.Before(event.End) {
			events = append(events, event)
		}
	}
	return events, nil
}

// DefaultFixtures returns the demo connector set covering the task
// providers. Calendar providers get an empty fixture so the full provider
// list is routable in development.
func DefaultFixtures(reference time.Time) []Connector {
	monday := reference.Truncate(24 * time.Hour)
	return []Connector{
		NewFixtureConnector(ProviderNotion, []ExternalTask{
			{ID: "notion-1", Title: "Draft launch brief"},
			{ID: "notion-2", Title: "Review roadmap doc", Completed: true},
		}, nil),
		NewFixtureConnector(ProviderClickUp, []ExternalTask{
			{ID: "clickup-1", Title: "Triage support queue"},
		}, nil),
		NewFixtureConnector(ProviderLinear, []ExternalTask{
			{ID: "linear-1", Title: "Fix onboarding crash"},
			{ID: "linear-2", Title: "Ship settings page"},
		}, nil),
		NewFixtureConnector(ProviderTodoist, []ExternalTask{
			{ID: "todoist-1", Title: "Book dentist appointment"},
		}, nil),
		NewFixtureConnector(ProviderGoogleCalendar, nil, []ExternalEvent{
			{ID: "gcal-1", Title: "Team sync", Start: monday.Add(10 * time.Hour), End: monday.Add(11 * time.Hour)},
		}),
		NewFixtureConnector(ProviderOutlook, nil, nil),
		NewFixtureConnector(ProviderAppleCalendar, nil, nil),
		NewFixtureConnector(ProviderFastmail, nil, nil),
	}
}
