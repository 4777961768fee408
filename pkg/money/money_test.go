package money

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestQuantize2TruncatesTowardZero(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"1.239", "1.23"},
		{"1.231", "1.23"},
		{"-1.239", "-1.23"},
		{"2", "2"},
	}

	for _, tt := range tests {
		d, err := decimal.NewFromString(tt.in)
		if err != nil {
			t.Fatalf("bad fixture %q: %v", tt.in, err)
		}
		got := Quantize2(d)
		want, _ := decimal.NewFromString(tt.want)
		if !got.Equal(want) {
			t.Errorf("Quantize2(%s) = %s, want %s", tt.in, got, want)
		}
	}
}

func TestParseDecimalEmptyIsZero(t *testing.T) {
	t.Parallel()

	d, err := ParseDecimal("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !d.Equal(decimal.Zero) {
		t.Fatalf("ParseDecimal(\"\") = %s, want 0", d)
	}
}

func TestParseDecimalInvalid(t *testing.T) {
	t.Parallel()

	if _, err := ParseDecimal("not-a-number"); err == nil {
		t.Fatal("expected error for invalid decimal string")
	}
}

func TestParseUnixTSInfersMilliseconds(t *testing.T) {
	t.Parallel()

	seconds, ok := ParseUnixTS(float64(1_700_000_000))
	if !ok || seconds != 1_700_000_000 {
		t.Fatalf("ParseUnixTS(seconds) = %d, %v", seconds, ok)
	}

	millis, ok := ParseUnixTS(float64(1_700_000_000_000))
	if !ok || millis != 1_700_000_000 {
		t.Fatalf("ParseUnixTS(millis) = %d, %v", millis, ok)
	}
}

func TestParseUnixTSRejectsUnsupportedType(t *testing.T) {
	t.Parallel()

	if _, ok := ParseUnixTS(struct{}{}); ok {
		t.Fatal("expected ParseUnixTS to reject unsupported type")
	}
}

func TestParseUnixTSMillisThresholdMatchesSpec(t *testing.T) {
	t.Parallel()

	// 2e10 is a plausible millisecond value and must not be mistaken for
	// a seconds value at the old, too-high 1e12 threshold.
	got, ok := ParseUnixTS(float64(20_000_000_000))
	if !ok || got != 20_000_000 {
		t.Fatalf("ParseUnixTS(2e10) = %d, %v, want 20_000_000", got, ok)
	}

	// Exactly at the threshold is still seconds; only values strictly
	// above it are divided.
	atThreshold, ok := ParseUnixTS(int64(10_000_000_000))
	if !ok || atThreshold != 10_000_000_000 {
		t.Fatalf("ParseUnixTS(threshold) = %d, %v, want unchanged", atThreshold, ok)
	}
}

func TestParseUnixTSParsesISO8601Strings(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want int64
	}{
		{"2024-01-01T00:00:00Z", 1704067200},
		{"2024-01-01T00:00:00.123Z", 1704067200},
		{"2024-01-01T00:00:00+00:00", 1704067200},
	}
	for _, tt := range tests {
		got, ok := ParseUnixTS(tt.in)
		if !ok || got != tt.want {
			t.Errorf("ParseUnixTS(%q) = %d, %v, want %d", tt.in, got, ok, tt.want)
		}
	}
}

func TestParseUnixTSRejectsGarbageString(t *testing.T) {
	t.Parallel()

	if _, ok := ParseUnixTS("not a timestamp"); ok {
		t.Fatal("expected ParseUnixTS to reject a non-numeric, non-ISO string")
	}
}

func TestParseUnixTSRoundTripsWithFormatISOZ(t *testing.T) {
	t.Parallel()

	const original int64 = 1_700_000_000
	got, ok := ParseUnixTS(FormatISOZ(original))
	if !ok || got != original {
		t.Fatalf("ParseUnixTS(FormatISOZ(%d)) = %d, %v, want round-trip", original, got, ok)
	}
}

func TestIsStale(t *testing.T) {
	t.Parallel()

	now := int64(1_700_000_100)
	if IsStale(1_700_000_000, now, 200) {
		t.Fatal("observation within window should not be stale")
	}
	if !IsStale(1_700_000_000, now, 50) {
		t.Fatal("observation outside window should be stale")
	}
	if !IsStale(0, now, 1_000_000) {
		t.Fatal("zero timestamp should always be stale")
	}
}
