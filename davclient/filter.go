package davclient

import (
	"strconv"

	"github.com/beevik/etree"
	caldavxml "github.com/cyp0633/caldora-client/internal/xml"
)

// Ready-made QueryOptions for FindEvents. Text matches are substring matches
// with the server's default collation, as defined by RFC 4791.

// MatchSummary keeps events whose SUMMARY contains text
func MatchSummary(text string) QueryOption {
	return matchProp("SUMMARY", text, false)
}

// MatchDescription keeps events whose DESCRIPTION contains text
func MatchDescription(text string) QueryOption {
	return matchProp("DESCRIPTION", text, false)
}

// MatchLocation keeps events whose LOCATION contains text
func MatchLocation(text string) QueryOption {
	return matchProp("LOCATION", text, false)
}

// MatchOrganizer keeps events whose ORGANIZER contains text
func MatchOrganizer(text string) QueryOption {
	return matchProp("ORGANIZER", text, false)
}

// MatchStatus keeps events with the given STATUS
func MatchStatus(status string) QueryOption {
	return matchProp("STATUS", status, false)
}

// ExcludeStatus drops events with the given STATUS, e.g. CANCELLED
func ExcludeStatus(status string) QueryOption {
	return matchProp("STATUS", status, true)
}

// MatchPriority keeps events with the given PRIORITY
func MatchPriority(priority int) QueryOption {
	return matchProp("PRIORITY", strconv.Itoa(priority), false)
}

// MatchCategories keeps events carrying every one of the categories
func MatchCategories(categories ...string) QueryOption {
	return func(compFilter *etree.Element) {
		for _, category := range categories {
			matchProp("CATEGORIES", category, false)(compFilter)
		}
	}
}

// HasAlarm keeps events with at least one VALARM
func HasAlarm() QueryOption {
	return func(compFilter *etree.Element) {
		alarm := compFilter.CreateElement(caldavxml.PrefixCalDAV + ":comp-filter")
		alarm.CreateAttr("name", "VALARM")
	}
}

func matchProp(name, text string, negate bool) QueryOption {
	return func(compFilter *etree.Element) {
		propFilter := compFilter.CreateElement(caldavxml.PrefixCalDAV + ":prop-filter")
		propFilter.CreateAttr("name", name)
		match := propFilter.CreateElement(caldavxml.PrefixCalDAV + ":text-match")
		if negate {
			match.CreateAttr("negate-condition", "yes")
		}
		match.SetText(text)
	}
}
