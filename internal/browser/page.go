// Package browser holds the page-access contract the recognition core
// drives the target site through, plus a W3C WebDriver implementation.
// Expected conditions (element not found) are data, not exceptions: every
// lookup returns a typed Lookup variant and reserves the error return for
// infrastructure faults.
package browser

import "time"

// Role names a page element by its logical function. Locator resolution
// lives behind the Page implementation.
type Role string

const (
	RoleFlightNumberTab   Role = "flight_number_tab"
	RoleFlightNumberInput Role = "flight_number_input"
	RoleDepartureDateInput Role = "departure_date_input"
	RoleCaptchaImage      Role = "captcha_image"
	RoleCaptchaInput      Role = "captcha_input"
	RoleQueryButton       Role = "query_button"
	RoleResultList        Role = "result_list"

	// Segment-scoped roles; combine with a 1-based segment index via SegLoc.
	RoleSegmentContainer   Role = "segment_container"
	RoleDepartureAirport   Role = "departure_airport"
	RoleArrivalAirport     Role = "arrival_airport"
	RoleScheduledDeparture Role = "scheduled_departure"
	RoleScheduledArrival   Role = "scheduled_arrival"
	RoleActualDepartureImg Role = "actual_departure_img"
	RoleActualArrivalImg   Role = "actual_arrival_img"
	RoleFlightStatus       Role = "flight_status"
)

// Locator addresses one element: a role, optionally scoped to a result
// segment.
type Locator struct {
	Role    Role
	Segment int // 0 = not segment-scoped; segments count from 1
}

// Loc builds a page-level locator.
func Loc(role Role) Locator { return Locator{Role: role} }

// SegLoc builds a segment-scoped locator.
func SegLoc(role Role, segment int) Locator { return Locator{Role: role, Segment: segment} }

// Lookup is the typed outcome of an element access.
type Lookup int

const (
	LookupFound Lookup = iota
	LookupNotFound
)

// Page is the browser session contract consumed by the query coordinator
// and the extractors. Implementations own locator resolution and must be
// used from a single goroutine.
type Page interface {
	// Navigate loads the given URL and waits for the document to exist.
	Navigate(url string) error

	// ElementImage captures the rendered bytes of an element (PNG).
	ElementImage(loc Locator) ([]byte, Lookup, error)

	// Click clicks an element.
	Click(loc Locator) (Lookup, error)

	// SetValue clears an input and types the given text.
	SetValue(loc Locator, text string) (Lookup, error)

	// Text returns an element's visible text.
	Text(loc Locator) (string, Lookup, error)

	// PageHTML returns the full current page source.
	PageHTML() (string, error)

	// WaitVisible polls until the element is displayed or the timeout
	// elapses. A false return with nil error means the element never
	// appeared, which is an expected condition.
	WaitVisible(loc Locator, timeout time.Duration) (bool, error)
}
