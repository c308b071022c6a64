package davclient

import (
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/emersion/go-ical"
)

// TimestampLayout is the basic iCalendar date-time form without zone suffix
const TimestampLayout = "20060102T150405"

// Timestamper is implemented by values that carry a point in time
type Timestamper interface {
	Time() time.Time
}

// FormatTimestamp converts v to a UTC timestamp in TimestampLayout.
//
// Accepted inputs are time.Time and *time.Time, an *ical.Prop holding a
// DATE-TIME, any Timestamper, integers as Unix seconds, and strings in any
// format dateparse understands (zone-less strings are read as UTC).
// Everything else is a KindConfig error.
func FormatTimestamp(v any) (string, error) {
	t, err := toTime(v)
	if err != nil {
		return "", err
	}
	return t.UTC().Format(TimestampLayout), nil
}

func toTime(v any) (time.Time, error) {
	switch x := v.(type) {
	case time.Time:
		return x, nil
	case *time.Time:
		if x == nil {
			return time.Time{}, configErrorf("nil timestamp")
		}
		return *x, nil
	case *ical.Prop:
		if x == nil {
			return time.Time{}, configErrorf("nil timestamp")
		}
		t, err := x.DateTime(time.UTC)
		if err != nil {
			return time.Time{}, &Error{Kind: KindConfig, Message: "invalid " + x.Name + " value", Err: err}
		}
		return t, nil
	case Timestamper:
		return x.Time(), nil
	case int:
		return time.Unix(int64(x), 0), nil
	case int32:
		return time.Unix(int64(x), 0), nil
	case int64:
		return time.Unix(x, 0), nil
	case uint32:
		return time.Unix(int64(x), 0), nil
	case uint64:
		return time.Unix(int64(x), 0), nil
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return time.Time{}, configErrorf("empty timestamp")
		}
		t, err := dateparse.ParseIn(s, time.UTC)
		if err != nil {
			return time.Time{}, &Error{Kind: KindConfig, Message: fmt.Sprintf("unparsable timestamp %q", s), Err: err}
		}
		return t, nil
	case nil:
		return time.Time{}, configErrorf("nil timestamp")
	default:
		return time.Time{}, configErrorf("unsupported timestamp type %T", v)
	}
}
