package davclient

import (
	"testing"
	"time"

	"github.com/emersion/go-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedStamp time.Time

func (f fixedStamp) Time() time.Time { return time.Time(f) }

func TestFormatTimestamp(t *testing.T) {
	newYear := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	shanghai := time.FixedZone("CST", 8*60*60)

	prop := ical.NewProp(ical.PropDateTimeStart)
	prop.SetDateTime(newYear)

	tests := []struct {
		name  string
		input any
	}{
		{"time", newYear},
		{"time pointer", &newYear},
		{"other zone", time.Date(2024, 1, 1, 8, 0, 0, 0, shanghai)},
		{"unix int", 1704067200},
		{"unix int64", int64(1704067200)},
		{"unix uint32", uint32(1704067200)},
		{"rfc3339", "2024-01-01T00:00:00Z"},
		{"rfc3339 with offset", "2024-01-01T08:00:00+08:00"},
		{"date only", "2024-01-01"},
		{"ical prop", prop},
		{"timestamper", fixedStamp(newYear)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FormatTimestamp(tt.input)
			require.NoError(t, err)
			assert.Equal(t, "20240101T000000", got)
		})
	}
}

func TestFormatTimestampInvalid(t *testing.T) {
	var nilTime *time.Time

	tests := []struct {
		name  string
		input any
	}{
		{"nil", nil},
		{"nil pointer", nilTime},
		{"empty string", "   "},
		{"garbage", "not a date"},
		{"float", 1.5},
		{"struct", struct{}{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FormatTimestamp(tt.input)
			assert.Equal(t, KindConfig, KindOf(err))
		})
	}
}
