// Package money provides fixed-point decimal helpers and time parsing
// shared by the strategy, ledger, and exchange client layers.
//
// All monetary values in this bot flow through shopspring/decimal rather
// than float64, so that price comparisons and arithmetic never suffer
// binary floating point rounding.
package money

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// millisUnixThreshold is the magnitude above which a raw numeric timestamp
// is assumed to be milliseconds rather than seconds.
const millisUnixThreshold = 10_000_000_000

// Quantize2 rounds d to two decimal places, truncating toward zero. Prices
// in the marketplace are always expressed with at most two decimals; this
// is applied after every computed offer, order, or listing price before it
// is sent to the API.
func Quantize2(d decimal.Decimal) decimal.Decimal {
	return d.Truncate(2)
}

// ParseDecimal parses s into a decimal.Decimal, returning decimal.Zero for
// an empty string. It is used when decoding loosely-typed marketplace
// responses where a numeric field may arrive as an empty string instead of
// being omitted.
func ParseDecimal(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

// ParseUnixTS parses a Unix timestamp in seconds or milliseconds, inferring
// the unit from magnitude: values above 10^10 are treated as milliseconds.
// A string that isn't purely numeric is tried as an ISO-8601 timestamp
// instead, mirroring the marketplace's mixed listed_at/created_at encodings.
func ParseUnixTS(raw any) (int64, bool) {
	switch t := raw.(type) {
	case float64:
		return applyMillisThreshold(int64(t)), true
	case int64:
		return applyMillisThreshold(t), true
	case int:
		return applyMillisThreshold(int64(t)), true
	case string:
		text := strings.TrimSpace(t)
		if text == "" {
			return 0, false
		}
		if isDigits(text) {
			parsed, err := strconv.ParseInt(text, 10, 64)
			if err != nil {
				return 0, false
			}
			return applyMillisThreshold(parsed), true
		}
		return parseISOTimestamp(text)
	default:
		return 0, false
	}
}

func applyMillisThreshold(v int64) int64 {
	if v > millisUnixThreshold {
		return v / 1000
	}
	return v
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// parseISOTimestamp tries the two fixed ISO-8601 layouts the marketplace
// actually emits, then falls back to RFC3339 with a trailing "Z" rewritten
// to "+00:00" for anything else RFC3339-shaped.
func parseISOTimestamp(text string) (int64, bool) {
	for _, layout := range []string{"2006-01-02T15:04:05.999999999Z", "2006-01-02T15:04:05Z"} {
		if ts, err := time.Parse(layout, text); err == nil {
			return ts.Unix(), true
		}
	}
	withOffset := text
	if strings.HasSuffix(text, "Z") {
		withOffset = strings.TrimSuffix(text, "Z") + "+00:00"
	}
	if ts, err := time.Parse(time.RFC3339, withOffset); err == nil {
		return ts.Unix(), true
	}
	return 0, false
}

// FormatISOZ formats a Unix-second timestamp as an RFC3339 UTC string that
// ParseUnixTS reads back to the same value.
func FormatISOZ(unixSeconds int64) string {
	return time.Unix(unixSeconds, 0).UTC().Format(time.RFC3339)
}

// Clock abstracts wall-clock access so strategy and worker logic can be
// tested with a fixed time instead of time.Now().
type Clock interface {
	NowUnix() int64
}

// SystemClock is the Clock backed by the real wall clock.
type SystemClock struct{}

// NowUnix returns the current Unix timestamp in seconds.
func (SystemClock) NowUnix() int64 { return time.Now().Unix() }

// IsStale reports whether a timestamp is older than maxAge seconds as of
// now. Used to decide whether a cached liquidity observation is still
// usable.
func IsStale(observedTS, nowUnix int64, maxAgeSeconds int64) bool {
	if observedTS <= 0 {
		return true
	}
	return nowUnix-observedTS > maxAgeSeconds
}
