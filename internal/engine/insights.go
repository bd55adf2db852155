package engine

import (
	"fmt"

	"github.com/Fatal777/invoisaic/internal/decision"
)

// recentWindow is how many recent records the failure-trend check reads.
const recentWindow = 5

// recentFailureFloor is the failure count above which the trend warning
// fires.
const recentFailureFloor = 2

// Insights derives forward-looking advisory strings from the request,
// the decision confidence so far, and the failure trend. Checks run in
// a fixed order; each fires at most once.
func Insights(req decision.Request, confidence int, recentFailures int, largeThreshold float64) []string {
	var out []string

	if confidence < 80 {
		out = append(out, fmt.Sprintf("confidence %d is below the autonomy threshold; consider a human check", confidence))
	}
	if recentFailures > recentFailureFloor {
		out = append(out, fmt.Sprintf("%d of the last %d %s decisions were unsuccessful; review category handling", recentFailures, recentWindow, req.Category))
	}
	if amount, ok := req.Payload.Amount(); ok && amount > largeThreshold {
		out = append(out, fmt.Sprintf("amount %.2f is a large transaction; fraud controls apply", amount))
	}
	if req.Payload.CrossBorder() {
		out = append(out, "cross-border transaction; verify destination-country compliance")
	}
	if country, ok := req.Payload.Country(); ok {
		out = append(out, fmt.Sprintf("jurisdiction %s rules apply; confirm local requirements", country))
	}

	return out
}
