package extract

import (
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// SegmentRecord is the flat per-segment output record consumed by the
// persistence layer. Actual times come from timestamp recognition and may
// carry the "unrecognized" sentinel or a base64 image reference.
type SegmentRecord struct {
	FlightNumber  string    `json:"flight_number"`
	DepartureDate string    `json:"departure_date"`
	SegmentIndex  int       `json:"segment_index"`

	DepartureAirport   string `json:"departure_airport"`
	ArrivalAirport     string `json:"arrival_airport"`
	ScheduledDeparture string `json:"scheduled_departure"`
	ScheduledArrival   string `json:"scheduled_arrival"`
	ActualDeparture    string `json:"actual_departure"`
	ActualArrival      string `json:"actual_arrival"`
	FlightStatus       string `json:"flight_status"`

	CreatedAt time.Time `json:"created_at"`
}

// resultListSelector is the CSS path to the result container, mirroring
// the XPath locator used for element access.
const resultListSelector = "html > body > div:nth-of-type(1) > div:nth-of-type(2) > div:nth-of-type(1) > div > div:nth-of-type(2) > div:nth-of-type(3)"

// SegmentCountFromHTML counts the flight-segment rows present in the
// result container of a page snapshot. Zero means no result data.
func SegmentCountFromHTML(html string) int {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return 0
	}
	return doc.Find(resultListSelector).ChildrenFiltered("div").Length()
}
