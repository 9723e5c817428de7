package cookie

import (
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/errors/v5"
)

// DefaultDuration is the cookie lifetime used when no expiry is supplied.
const DefaultDuration = 30 * 24 * time.Hour

var relativeUnits = map[string]time.Duration{
	"second": time.Second,
	"minute": time.Minute,
	"hour":   time.Hour,
	"day":    24 * time.Hour,
	"week":   7 * 24 * time.Hour,
	"month":  30 * 24 * time.Hour,
	"year":   365 * 24 * time.Hour,
}

// ParseRelative resolves a relative expiry expression to a duration. It
// accepts a bare integer (seconds) or a natural-language expression such as
// "30 days", "+1 month", or "12 hours".
func ParseRelative(expr string) (time.Duration, error) {
	expr = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(expr), "+"))
	if expr == "" {
		return 0, errors.New("empty duration expression")
	}

	if secs, err := strconv.ParseInt(expr, 10, 64); err == nil {
		return time.Duration(secs) * time.Second, nil
	}

	fields := strings.Fields(strings.ToLower(expr))
	if len(fields) != 2 {
		return 0, errors.Newf("cannot parse duration expression %q", expr)
	}

	n, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "cannot parse count in duration expression %q", expr)
	}

	unit, ok := relativeUnits[strings.TrimSuffix(fields[1], "s")]
	if !ok {
		return 0, errors.Newf("unknown unit in duration expression %q", expr)
	}

	return time.Duration(n) * unit, nil
}
