package xml

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"
)

// calendarDataPath selects every calendar-data element in the CalDAV namespace
var calendarDataPath = etree.MustCompilePath("//calendar-data[namespace-uri()='" + CalDAV + "']")

// CalendarData is the text of one calendar-data element of a multistatus
// response, with the href of its enclosing response when present.
type CalendarData struct {
	Href string
	Data string
}

// ParseCalendarData extracts calendar-data nodes from a REPORT response body
// in document order.
func ParseCalendarData(body []byte) ([]CalendarData, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(body); err != nil {
		return nil, fmt.Errorf("failed to parse multistatus: %w", err)
	}
	if doc.Root() == nil {
		return nil, fmt.Errorf("empty document")
	}

	var nodes []CalendarData
	for _, elem := range doc.FindElementsPath(calendarDataPath) {
		nodes = append(nodes, CalendarData{
			Href: enclosingHref(elem),
			Data: strings.TrimSpace(elem.Text()),
		})
	}
	return nodes, nil
}

// enclosingHref walks up to the DAV:response ancestor and returns its href
func enclosingHref(elem *etree.Element) string {
	for p := elem.Parent(); p != nil; p = p.Parent() {
		if p.Tag != "response" || p.NamespaceURI() != DAV {
			continue
		}
		for _, child := range p.ChildElements() {
			if child.Tag == "href" && child.NamespaceURI() == DAV {
				return strings.TrimSpace(child.Text())
			}
		}
		return ""
	}
	return ""
}
