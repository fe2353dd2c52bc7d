package browser

import "fmt"

// xpathTable maps roles to the target site's element paths. Segment-scoped
// entries carry a %d placeholder for the 1-based segment index.
//
// TODO: the result-page paths break whenever the site reshuffles its
// layout divs; move the table into config once a second layout shows up.
var xpathTable = map[Role]string{
	RoleFlightNumberTab:    "/html/body/div[1]/div[2]/div[1]/div[1]/div/div/div[1]/span[2]",
	RoleFlightNumberInput:  "/html/body/div[1]/div[2]/div[1]/div[1]/div/div/div[4]/div/input",
	RoleDepartureDateInput: "/html/body/div[1]/div[2]/div[1]/div[1]/div/div/div[5]/div/input",
	RoleCaptchaInput:       "/html/body/div[1]/div[2]/div[1]/div[1]/div/div/div[6]/div/input",
	RoleCaptchaImage:       "/html/body/div[1]/div[2]/div[1]/div[1]/div/div/div[6]/img",
	RoleQueryButton:        "/html/body/div[1]/div[2]/div[1]/div[1]/div/div/button",
	RoleResultList:         "/html/body/div[1]/div[2]/div[1]/div/div[2]/div[3]",
	RoleSegmentContainer:   "/html/body/div[1]/div[2]/div[1]/div/div[2]/div[3]/div[%d]",
	RoleDepartureAirport:   "/html/body/div[1]/div[2]/div[1]/div/div[2]/div[3]/div[%d]/div[2]/span",
	RoleArrivalAirport:     "/html/body/div[1]/div[2]/div[1]/div/div[2]/div[3]/div[%d]/div[3]/span",
	RoleScheduledDeparture: "/html/body/div[1]/div[2]/div[1]/div/div[2]/div[3]/div[%d]/div[4]/span",
	RoleScheduledArrival:   "/html/body/div[1]/div[2]/div[1]/div/div[2]/div[3]/div[%d]/div[5]/span[1]",
	RoleActualDepartureImg: "/html/body/div[1]/div[2]/div[1]/div/div[2]/div[3]/div[%d]/div[6]/img",
	RoleActualArrivalImg:   "/html/body/div[1]/div[2]/div[1]/div/div[2]/div[3]/div[%d]/div[7]/img",
	RoleFlightStatus:       "/html/body/div[1]/div[2]/div[1]/div/div[2]/div[3]/div[%d]/div[10]/span",
}

// resolveXPath turns a locator into a concrete XPath expression.
func resolveXPath(loc Locator) (string, error) {
	template, ok := xpathTable[loc.Role]
	if !ok {
		return "", fmt.Errorf("no locator registered for role %q", loc.Role)
	}
	if loc.Segment > 0 {
		return fmt.Sprintf(template, loc.Segment), nil
	}
	return template, nil
}
