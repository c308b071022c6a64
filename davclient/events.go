package davclient

import (
	"context"

	"github.com/beevik/etree"
	caldavxml "github.com/cyp0633/caldora-client/internal/xml"
	"github.com/emersion/go-ical"
)

// QueryOption adds filter elements to the VEVENT comp-filter of a
// calendar-query, e.g. a C:prop-filter on SUMMARY.
type QueryOption func(compFilter *etree.Element)

// FindEvents returns every event overlapping [start, end) in the order the
// server listed them. start and end take any input FormatTimestamp accepts.
// Calendar blocks that are empty or fail to parse are skipped.
func (c *Client) FindEvents(ctx context.Context, start, end any, opts ...QueryOption) ([]ical.Event, error) {
	dtstart, err := FormatTimestamp(start)
	if err != nil {
		return nil, err
	}
	dtend, err := FormatTimestamp(end)
	if err != nil {
		return nil, err
	}

	query := caldavxml.EventRangeQuery(dtstart, dtend)
	for _, opt := range opts {
		query.Extend = append(query.Extend, opt)
	}

	cals, err := c.report(ctx, query)
	if err != nil {
		return nil, err
	}

	var events []ical.Event
	for _, cal := range cals {
		events = append(events, cal.Events()...)
	}
	c.logger.Debug("found events", "start", dtstart, "end", dtend, "count", len(events))
	return events, nil
}

// FindEvent fetches the event stored under uid. A missing resource and one
// whose body cannot be parsed both yield a KindNotExist error.
func (c *Client) FindEvent(ctx context.Context, uid string) (*ical.Event, error) {
	comp, err := c.fetchComponent(ctx, uid, ical.CompEvent)
	if err != nil {
		return nil, err
	}
	return &ical.Event{Component: comp}, nil
}

// CreateEvent lets build fill in a new event, stores it under a fresh UID and
// returns the event as the server stored it. See AddEvent.
func (c *Client) CreateEvent(ctx context.Context, build func(*ical.Event)) (*ical.Event, error) {
	event := ical.NewEvent()
	if build != nil {
		build(event)
	}
	return c.AddEvent(ctx, event)
}

// AddEvent stores event under a freshly generated UID, overwriting any UID it
// carries, and returns the stored form.
//
// Before the PUT the UID is probed with a GET and KindDuplicate is returned
// if it is taken. This is best effort only: the probe and the PUT are
// separate requests, so a concurrent client can create the same UID in
// between and the PUT will overwrite it.
func (c *Client) AddEvent(ctx context.Context, event *ical.Event) (*ical.Event, error) {
	if event == nil || event.Component == nil {
		return nil, configErrorf("nil event")
	}

	uid, err := c.claimUID(ctx)
	if err != nil {
		return nil, err
	}
	event.Props.SetText(ical.PropUID, uid)
	ensureStamp(event.Component)

	if err := c.putResource(ctx, uid, event.Component); err != nil {
		return nil, err
	}
	c.logger.Debug("created event", "uid", uid)
	return c.FindEvent(ctx, uid)
}

// UpdateEvent replaces the stored event with the same UID and returns the
// stored form. How the replacement happens depends on the UpdateStrategy.
func (c *Client) UpdateEvent(ctx context.Context, event *ical.Event) (*ical.Event, error) {
	if event == nil {
		return nil, configErrorf("nil event")
	}
	uid, err := componentUID(event.Component)
	if err != nil {
		return nil, err
	}
	ensureStamp(event.Component)

	if err := c.replaceResource(ctx, uid, event.Component); err != nil {
		return nil, err
	}
	return c.FindEvent(ctx, uid)
}

// DeleteEvent removes the event stored under uid. It reports true for any
// 2xx answer and false for other unclassified statuses; 401, 404, 410 and
// 5xx are returned as errors.
func (c *Client) DeleteEvent(ctx context.Context, uid string) (bool, error) {
	return c.deleteResource(ctx, uid)
}
