package server

import (
	"errors"
	"strings"
	"time"

	billingdomain "github.com/smallbiznis/weighbill/internal/billing/domain"
	weighingdomain "github.com/smallbiznis/weighbill/internal/weighing/domain"
)

var errInvalidTime = errors.New("invalid_time")

// parseOptionalStamp reads a yyyymmddhhmmss timestamp in the facility zone.
func parseOptionalStamp(value string, loc *time.Location) (*time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}
	parsed, err := time.ParseInLocation(weighingdomain.TimeLayout, trimmed, loc)
	if err != nil {
		return nil, errInvalidTime
	}
	return &parsed, nil
}

// parseWindow resolves from/to query values, defaulting to the current month
// up to now.
func parseWindow(fromRaw, toRaw string, now time.Time, loc *time.Location) (time.Time, time.Time, error) {
	from, to := billingdomain.DefaultWindow(now, loc)

	parsedFrom, err := parseOptionalStamp(fromRaw, loc)
	if err != nil {
		return time.Time{}, time.Time{}, newValidationError("from", "invalid_from", "from must be yyyymmddhhmmss")
	}
	parsedTo, err := parseOptionalStamp(toRaw, loc)
	if err != nil {
		return time.Time{}, time.Time{}, newValidationError("to", "invalid_to", "to must be yyyymmddhhmmss")
	}
	if parsedFrom != nil {
		from = *parsedFrom
	}
	if parsedTo != nil {
		to = *parsedTo
	}
	if from.After(to) {
		return time.Time{}, time.Time{}, newValidationError("from", "invalid_window", "from must not be after to")
	}
	return from, to, nil
}
