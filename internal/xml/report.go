package xml

import "github.com/beevik/etree"

// Component names understood by calendar-query filters
const (
	CompCalendar = "VCALENDAR"
	CompEvent    = "VEVENT"
	CompTodo     = "VTODO"
)

// CalendarQuery describes a CalDAV calendar-query REPORT body. It always
// requests calendar-data and getetag.
type CalendarQuery struct {
	// Component is the comp-filter nested under VCALENDAR
	Component string

	// Start and End are UTC date-times in the basic iCalendar form
	// YYYYMMDDTHHMMSS. The time-range filter is only written when both are set.
	Start string
	End   string

	// Extend may add further filter elements to the component comp-filter
	Extend []func(compFilter *etree.Element)
}

// EventRangeQuery returns a query for events overlapping [start, end)
func EventRangeQuery(start, end string) *CalendarQuery {
	return &CalendarQuery{Component: CompEvent, Start: start, End: end}
}

// TodoQuery returns a query for every to-do in the collection
func TodoQuery() *CalendarQuery {
	return &CalendarQuery{Component: CompTodo}
}

// ToXML converts the query to an XML document
func (q *CalendarQuery) ToXML() *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="utf-8"`)

	root := doc.CreateElement(caldavTag("calendar-query"))
	AddNamespaces(doc)

	prop := root.CreateElement(davTag("prop"))
	prop.CreateElement(davTag("getetag"))
	prop.CreateElement(caldavTag("calendar-data"))

	filter := root.CreateElement(caldavTag("filter"))
	calFilter := filter.CreateElement(caldavTag("comp-filter"))
	calFilter.CreateAttr("name", CompCalendar)

	compFilter := calFilter.CreateElement(caldavTag("comp-filter"))
	compFilter.CreateAttr("name", q.Component)

	if q.Start != "" && q.End != "" {
		timeRange := compFilter.CreateElement(caldavTag("time-range"))
		// RFC 4791 requires UTC values with the Z suffix
		timeRange.CreateAttr("start", q.Start+"Z")
		timeRange.CreateAttr("end", q.End+"Z")
	}

	for _, extend := range q.Extend {
		if extend != nil {
			extend(compFilter)
		}
	}

	return doc
}
