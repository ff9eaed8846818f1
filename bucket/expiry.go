package bucket

import (
	"strconv"
	"strings"
	"time"

	"github.com/timemore/bucket/errors"
)

// Expiry tells when a temporary URL stops being valid.
type Expiry interface {
	Resolve(now time.Time) (time.Time, error)
}

type expiresAt time.Time

func (e expiresAt) Resolve(time.Time) (time.Time, error) { return time.Time(e), nil }

type expiresIn time.Duration

func (e expiresIn) Resolve(now time.Time) (time.Time, error) { return now.Add(time.Duration(e)), nil }

type expiresExpr string

func (e expiresExpr) Resolve(now time.Time) (time.Time, error) { return ParseExpiry(string(e), now) }

// ExpiresAt expires at the absolute time t.
func ExpiresAt(t time.Time) Expiry { return expiresAt(t) }

// ExpiresIn expires d after the URL is generated.
func ExpiresIn(d time.Duration) Expiry { return expiresIn(d) }

// ExpiresExpr expires at the time described by expr, see ParseExpiry.
func ExpiresExpr(expr string) Expiry { return expiresExpr(expr) }

var expiryLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

var expiryUnits = map[string]func(t time.Time, n int) time.Time{
	"sec":    func(t time.Time, n int) time.Time { return t.Add(time.Duration(n) * time.Second) },
	"second": func(t time.Time, n int) time.Time { return t.Add(time.Duration(n) * time.Second) },
	"min":    func(t time.Time, n int) time.Time { return t.Add(time.Duration(n) * time.Minute) },
	"minute": func(t time.Time, n int) time.Time { return t.Add(time.Duration(n) * time.Minute) },
	"hour":   func(t time.Time, n int) time.Time { return t.Add(time.Duration(n) * time.Hour) },
	"day":    func(t time.Time, n int) time.Time { return t.AddDate(0, 0, n) },
	"week":   func(t time.Time, n int) time.Time { return t.AddDate(0, 0, 7*n) },
	"month":  func(t time.Time, n int) time.Time { return t.AddDate(0, n, 0) },
	"year":   func(t time.Time, n int) time.Time { return t.AddDate(n, 0, 0) },
}

// ParseExpiry resolves expr against now. Accepted forms:
//
//	"+1 hour", "2 days 3 hours", "+30 minutes"  relative, any of sec, min, hour, day, week, month, year
//	"90m", "1h30m"                              Go durations
//	"tomorrow"                                  next midnight in now's location
//	"2024-05-01T10:00:00Z", "2024-05-01 10:00:00", "2024-05-01"
func ParseExpiry(expr string, now time.Time) (time.Time, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return time.Time{}, errors.ArgMsg("expiry", "empty")
	}

	lower := strings.ToLower(expr)
	switch lower {
	case "now":
		return now, nil
	case "tomorrow":
		y, m, d := now.Date()
		return time.Date(y, m, d+1, 0, 0, 0, 0, now.Location()), nil
	}

	for _, layout := range expiryLayouts {
		if t, err := time.ParseInLocation(layout, expr, now.Location()); err == nil {
			return t, nil
		}
	}

	if d, err := time.ParseDuration(strings.TrimPrefix(lower, "+")); err == nil {
		return now.Add(d), nil
	}

	fields := strings.Fields(lower)
	if len(fields)%2 != 0 {
		return time.Time{}, errors.ArgMsg("expiry", "unrecognized expression "+strconv.Quote(expr))
	}
	t := now
	for i := 0; i < len(fields); i += 2 {
		n, err := strconv.Atoi(fields[i])
		if err != nil {
			return time.Time{}, errors.ArgMsg("expiry", "unrecognized expression "+strconv.Quote(expr))
		}
		add, ok := expiryUnits[strings.TrimSuffix(fields[i+1], "s")]
		if !ok {
			return time.Time{}, errors.ArgMsg("expiry", "unknown unit "+strconv.Quote(fields[i+1]))
		}
		t = add(t, n)
	}
	return t, nil
}
