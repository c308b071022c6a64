package davclient

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	caldavxml "github.com/cyp0633/caldora-client/internal/xml"
	"github.com/emersion/go-ical"
	"github.com/samber/mo"
	"github.com/teambition/rrule-go"
)

// Geo is a GEO property value
type Geo struct {
	Lat float64
	Lon float64
}

// TodoAttributes describes a new to-do. Zero values are left out of the
// resource.
type TodoAttributes struct {
	Start       time.Time
	Duration    time.Duration
	Summary     string
	Description string
	// Class is PUBLIC, PRIVATE or CONFIDENTIAL
	Class    string
	Location string
	// PercentComplete is 0-100
	PercentComplete mo.Option[int]
	// Priority is 0-9, 0 meaning undefined
	Priority mo.Option[int]
	URL      string
	Geo      mo.Option[Geo]
	// Status is NEEDS-ACTION, COMPLETED, IN-PROCESS or CANCELLED
	Status string
	// RRule is an RFC 5545 recurrence rule such as "FREQ=WEEKLY;COUNT=4".
	// It is validated and stored, not expanded.
	RRule string
}

// component builds a VTODO carrying uid
func (a TodoAttributes) component(uid string) (*ical.Component, error) {
	todo := ical.NewComponent(ical.CompToDo)
	todo.Props.SetText(ical.PropUID, uid)
	todo.Props.SetDateTime(ical.PropDateTimeStamp, time.Now().UTC())

	if !a.Start.IsZero() {
		todo.Props.SetDateTime(ical.PropDateTimeStart, a.Start.UTC())
	}
	if a.Duration != 0 {
		setRaw(todo, ical.PropDuration, formatDuration(a.Duration))
	}
	setText(todo, ical.PropSummary, a.Summary)
	setText(todo, ical.PropDescription, a.Description)
	setText(todo, ical.PropLocation, a.Location)

	if a.Class != "" {
		class := strings.ToUpper(a.Class)
		switch class {
		case "PUBLIC", "PRIVATE", "CONFIDENTIAL":
		default:
			return nil, configErrorf("invalid CLASS %q", a.Class)
		}
		setRaw(todo, ical.PropClass, class)
	}

	if a.Status != "" {
		status := strings.ToUpper(a.Status)
		switch status {
		case "NEEDS-ACTION", "COMPLETED", "IN-PROCESS", "CANCELLED":
		default:
			return nil, configErrorf("invalid to-do STATUS %q", a.Status)
		}
		setRaw(todo, ical.PropStatus, status)
	}

	if pct, ok := a.PercentComplete.Get(); ok {
		if pct < 0 || pct > 100 {
			return nil, configErrorf("PERCENT-COMPLETE %d out of range 0-100", pct)
		}
		setRaw(todo, ical.PropPercentComplete, strconv.Itoa(pct))
	}

	if prio, ok := a.Priority.Get(); ok {
		if prio < 0 || prio > 9 {
			return nil, configErrorf("PRIORITY %d out of range 0-9", prio)
		}
		setRaw(todo, ical.PropPriority, strconv.Itoa(prio))
	}

	if a.URL != "" {
		if _, err := url.ParseRequestURI(a.URL); err != nil {
			return nil, &Error{Kind: KindConfig, Message: "invalid URL", Err: err}
		}
		setRaw(todo, ical.PropURL, a.URL)
	}

	if geo, ok := a.Geo.Get(); ok {
		setRaw(todo, ical.PropGeo,
			strconv.FormatFloat(geo.Lat, 'f', -1, 64)+";"+strconv.FormatFloat(geo.Lon, 'f', -1, 64))
	}

	if a.RRule != "" {
		rule, err := rrule.StrToROption(strings.TrimPrefix(a.RRule, "RRULE:"))
		if err != nil {
			return nil, &Error{Kind: KindConfig, Message: "invalid RRULE", Err: err}
		}
		todo.Props.SetRecurrenceRule(rule)
	}

	return todo, nil
}

func setText(comp *ical.Component, name, value string) {
	if value != "" {
		comp.Props.SetText(name, value)
	}
}

// setRaw sets a property whose value needs no text escaping
func setRaw(comp *ical.Component, name, value string) {
	prop := ical.NewProp(name)
	prop.Value = value
	comp.Props.Set(prop)
}

// formatDuration renders d as an RFC 5545 DURATION, e.g. PT1H30M or P1DT2H
func formatDuration(d time.Duration) string {
	var b strings.Builder
	if d < 0 {
		b.WriteByte('-')
		d = -d
	}
	b.WriteByte('P')

	secs := int64(d / time.Second)
	days := secs / 86400
	secs %= 86400
	hours, mins, secs := secs/3600, (secs%3600)/60, secs%60

	if days > 0 {
		fmt.Fprintf(&b, "%dD", days)
	}
	if hours == 0 && mins == 0 && secs == 0 {
		if days == 0 {
			b.WriteString("T0S")
		}
		return b.String()
	}
	b.WriteByte('T')
	if hours > 0 {
		fmt.Fprintf(&b, "%dH", hours)
	}
	if mins > 0 {
		fmt.Fprintf(&b, "%dM", mins)
	}
	if secs > 0 {
		fmt.Fprintf(&b, "%dS", secs)
	}
	return b.String()
}

// FindTodos returns every to-do in the collection in server order
func (c *Client) FindTodos(ctx context.Context) ([]*ical.Component, error) {
	cals, err := c.report(ctx, caldavxml.TodoQuery())
	if err != nil {
		return nil, err
	}
	todos := components(cals, ical.CompToDo)
	c.logger.Debug("found todos", "count", len(todos))
	return todos, nil
}

// FindTodo fetches the to-do stored under uid. Like FindEvent it reports an
// unparsable resource as KindNotExist.
func (c *Client) FindTodo(ctx context.Context, uid string) (*ical.Component, error) {
	return c.fetchComponent(ctx, uid, ical.CompToDo)
}

// CreateTodo stores a new to-do under a fresh UID and returns the stored
// form. The duplicate check has the same best-effort limits as AddEvent.
func (c *Client) CreateTodo(ctx context.Context, attrs TodoAttributes) (*ical.Component, error) {
	// build once up front so invalid attributes fail before any request
	if _, err := attrs.component(""); err != nil {
		return nil, err
	}

	uid, err := c.claimUID(ctx)
	if err != nil {
		return nil, err
	}
	todo, err := attrs.component(uid)
	if err != nil {
		return nil, err
	}

	if err := c.putResource(ctx, uid, todo); err != nil {
		return nil, err
	}
	c.logger.Debug("created todo", "uid", uid)
	return c.FindTodo(ctx, uid)
}

// UpdateTodo replaces the stored to-do with the same UID and returns the
// stored form
func (c *Client) UpdateTodo(ctx context.Context, todo *ical.Component) (*ical.Component, error) {
	uid, err := componentUID(todo)
	if err != nil {
		return nil, err
	}
	if todo.Name != ical.CompToDo {
		return nil, configErrorf("expected %s, got %s", ical.CompToDo, todo.Name)
	}
	ensureStamp(todo)

	if err := c.replaceResource(ctx, uid, todo); err != nil {
		return nil, err
	}
	return c.FindTodo(ctx, uid)
}

// DeleteTodo removes the to-do stored under uid, with DeleteEvent's semantics
func (c *Client) DeleteTodo(ctx context.Context, uid string) (bool, error) {
	return c.deleteResource(ctx, uid)
}
