package davclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/cyp0633/caldora-client/internal/httpclient"
	caldavxml "github.com/cyp0633/caldora-client/internal/xml"
	"github.com/emersion/go-ical"
	"github.com/samber/mo"
)

const productID = "-//github.com/cyp0633/caldora-client//NONSGML v1.0//EN"

var errEmptyCalendar = errors.New("no calendar in data")

// transportError lifts failures the transport can attribute to the server
// into the error taxonomy and passes everything else through.
func transportError(err error) error {
	if errors.Is(err, httpclient.ErrNoChallenge) {
		return &Error{Kind: KindAuthentication, Message: "digest negotiation failed", Err: err}
	}
	return err
}

// getResource fetches {base}/{uid}.ics and returns the body of a response
// that passed classification.
func (c *Client) getResource(ctx context.Context, uid string) ([]byte, error) {
	path := c.conn.ResourcePath(uid)
	var body []byte
	err := Retry(ctx, c.retry, func(ctx context.Context) error {
		resp, err := c.http.DoGET(ctx, path)
		if err != nil {
			return transportError(err)
		}
		if err := Classify(resp.StatusCode); err != nil {
			return err
		}
		body = resp.Body
		return nil
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

// putResource stores comp, wrapped in a VCALENDAR, at {base}/{uid}.ics
func (c *Client) putResource(ctx context.Context, uid string, comp *ical.Component) error {
	data, err := encodeComponent(comp)
	if err != nil {
		return &Error{Kind: KindConfig, Message: "cannot serialize resource", Err: err}
	}

	path := c.conn.ResourcePath(uid)
	return Retry(ctx, c.retry, func(ctx context.Context) error {
		resp, err := c.http.DoPUT(ctx, path, data)
		if err != nil {
			return transportError(err)
		}
		if err := Classify(resp.StatusCode); err != nil {
			return err
		}
		if !resp.IsSuccess() {
			return &Error{Kind: KindAPI, StatusCode: resp.StatusCode, Message: "server did not store " + path}
		}
		return nil
	})
}

// deleteResource removes {base}/{uid}.ics. Classified statuses are errors;
// any other status is reported through the boolean.
func (c *Client) deleteResource(ctx context.Context, uid string) (bool, error) {
	path := c.conn.ResourcePath(uid)
	var deleted bool
	err := Retry(ctx, c.retry, func(ctx context.Context) error {
		resp, err := c.http.DoDELETE(ctx, path)
		if err != nil {
			return transportError(err)
		}
		if err := Classify(resp.StatusCode); err != nil {
			return err
		}
		deleted = resp.IsSuccess()
		return nil
	})
	if err != nil {
		return false, err
	}
	if !deleted {
		c.logger.Debug("delete not acknowledged", "path", path)
	}
	return deleted, nil
}

// resourceExists reports whether a parsable calendar is stored under uid.
// Absence and unparsable bodies are "no"; other failures are returned.
func (c *Client) resourceExists(ctx context.Context, uid string) (bool, error) {
	body, err := c.getResource(ctx, uid)
	if err != nil {
		if KindOf(err) == KindNotExist {
			return false, nil
		}
		return false, err
	}
	return !decodeCalendars(body).IsError(), nil
}

// claimUID generates a UID and checks that no resource uses it yet.
// The check and the later PUT are separate requests; another client can
// still create the same UID in between.
func (c *Client) claimUID(ctx context.Context) (string, error) {
	uid := c.newUID()
	exists, err := c.resourceExists(ctx, uid)
	if err != nil {
		return "", err
	}
	if exists {
		return "", &Error{Kind: KindDuplicate, Message: fmt.Sprintf("resource %s already exists", uid)}
	}
	return uid, nil
}

// replaceResource writes comp over the existing resource uid using the
// configured UpdateStrategy.
func (c *Client) replaceResource(ctx context.Context, uid string, comp *ical.Component) error {
	if c.strategy != UpdateDeleteCreate {
		return c.putResource(ctx, uid, comp)
	}

	deleted, err := c.deleteResource(ctx, uid)
	if err != nil {
		return err
	}
	if !deleted {
		return &Error{Kind: KindAPI, Message: fmt.Sprintf("server refused to delete %s before update", uid)}
	}
	if err := c.putResource(ctx, uid, comp); err != nil {
		c.logger.Warn("resource deleted but not recreated", "uid", uid, "error", err)
		return &Error{Kind: KindPartialUpdate, Message: fmt.Sprintf("%s was deleted but could not be recreated", uid), Err: err}
	}
	return nil
}

// report runs a calendar-query and decodes every calendar-data node.
// Nodes that are empty or fail to parse are skipped.
func (c *Client) report(ctx context.Context, query *caldavxml.CalendarQuery) ([]*ical.Calendar, error) {
	var nodes []caldavxml.CalendarData
	err := Retry(ctx, c.retry, func(ctx context.Context) error {
		resp, err := c.http.DoREPORT(ctx, c.conn.BasePath, 1, query.ToXML())
		if err != nil {
			return transportError(err)
		}
		if err := Classify(resp.StatusCode); err != nil {
			return err
		}
		nodes, err = caldavxml.ParseCalendarData(resp.Body)
		if err != nil {
			return &Error{Kind: KindAPI, StatusCode: resp.StatusCode, Message: "malformed REPORT response", Err: err}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var cals []*ical.Calendar
	for _, node := range nodes {
		res := decodeCalendars([]byte(node.Data))
		if res.IsError() {
			c.logger.Debug("skipping calendar-data", "href", node.Href, "error", res.Error())
			continue
		}
		cals = append(cals, res.MustGet()...)
	}
	return cals, nil
}

// decodeCalendars parses every VCALENDAR in data
func decodeCalendars(data []byte) mo.Result[[]*ical.Calendar] {
	dec := ical.NewDecoder(bytes.NewReader(data))
	var cals []*ical.Calendar
	for {
		cal, err := dec.Decode()
		if err == io.EOF {
			break
		}
		if err != nil {
			return mo.Err[[]*ical.Calendar](err)
		}
		cals = append(cals, cal)
	}
	if len(cals) == 0 {
		return mo.Err[[]*ical.Calendar](errEmptyCalendar)
	}
	return mo.Ok(cals)
}

// components returns the children named name of all calendars, in order
func components(cals []*ical.Calendar, name string) []*ical.Component {
	var out []*ical.Component
	for _, cal := range cals {
		for _, child := range cal.Children {
			if child.Name == name {
				out = append(out, child)
			}
		}
	}
	return out
}

// fetchComponent GETs uid and returns its first component named name.
// An unparsable body or a calendar without such a component is reported as
// KindNotExist, the same as a 404.
func (c *Client) fetchComponent(ctx context.Context, uid, name string) (*ical.Component, error) {
	body, err := c.getResource(ctx, uid)
	if err != nil {
		return nil, err
	}
	cals, err := decodeCalendars(body).Get()
	if err != nil {
		return nil, &Error{Kind: KindNotExist, Message: fmt.Sprintf("resource %s is not a calendar", uid), Err: err}
	}
	found := components(cals, name)
	if len(found) == 0 {
		return nil, &Error{Kind: KindNotExist, Message: fmt.Sprintf("resource %s has no %s", uid, name)}
	}
	return found[0], nil
}

// encodeComponent converts comp to iCalendar format bytes
func encodeComponent(comp *ical.Component) ([]byte, error) {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropProductID, productID)
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Children = append(cal.Children, comp)

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return nil, fmt.Errorf("failed to encode calendar: %w", err)
	}
	return buf.Bytes(), nil
}

// componentUID returns the UID of comp or a KindConfig error
func componentUID(comp *ical.Component) (string, error) {
	if comp == nil {
		return "", configErrorf("nil calendar component")
	}
	uid, err := comp.Props.Text(ical.PropUID)
	if err != nil || uid == "" {
		return "", configErrorf("%s has no UID", comp.Name)
	}
	return uid, nil
}

// ensureStamp sets DTSTAMP when the component lacks one
func ensureStamp(comp *ical.Component) {
	if comp.Props.Get(ical.PropDateTimeStamp) == nil {
		comp.Props.SetDateTime(ical.PropDateTimeStamp, time.Now().UTC())
	}
}
