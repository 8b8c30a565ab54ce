package date

import (
	"encoding/json"
	"testing"
	"time"
)

// TestTime assert that the time() is cannonical and gives comparable times.
func TestTime(t *testing.T) {
	d1 := New(2025, 7, 31)
	d2 := New(2025, 7, 31)

	if d1.time() != d2.time() {
		// Note that usually time.Time are not comparable (there is a pointer for the timezone) this
		// tests also checks that the property remain true
		t.Errorf("invalid time() function same day gives two different time")
	}
}

func TestParse(t *testing.T) {
	testCases := []struct {
		in        string
		want      Date
		expectErr bool
	}{
		{"2024-01-02", New(2024, time.January, 2), false},
		{"2025-7-1", New(2025, time.July, 1), false},
		{"2024-13-01", Date{}, true},
		{"", Date{}, true},
	}
	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := Parse(tc.in)
			if (err != nil) != tc.expectErr {
				t.Fatalf("Parse(%q) error = %v, want error: %v", tc.in, err, tc.expectErr)
			}
			if got != tc.want {
				t.Errorf("Parse(%q) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestOnUsesUTCDay(t *testing.T) {
	paris := time.FixedZone("CEST", 2*3600)
	// 01:00 in Paris is still the previous day in UTC.
	got := On(time.Date(2024, time.June, 2, 1, 0, 0, 0, paris))
	if want := New(2024, time.June, 1); got != want {
		t.Errorf("On() = %v, want %v", got, want)
	}
}

func TestDaysSince(t *testing.T) {
	a := New(2024, time.February, 27)
	b := New(2024, time.March, 2)
	if got := b.DaysSince(a); got != 4 {
		t.Errorf("DaysSince() = %d, want 4 (leap year)", got)
	}
	if got := a.DaysSince(b); got != -4 {
		t.Errorf("DaysSince() = %d, want -4", got)
	}
}

func TestJSON(t *testing.T) {
	d := New(2024, time.June, 1)
	b, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(b) != `"2024-06-01"` {
		t.Errorf("Marshal() = %s", b)
	}
	var back Date
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if back != d {
		t.Errorf("Unmarshal() = %v, want %v", back, d)
	}
}

func TestRange(t *testing.T) {
	from, to := New(2024, time.January, 1), New(2024, time.January, 31)
	r, err := NewRange(from, to)
	if err != nil {
		t.Fatalf("NewRange() error = %v", err)
	}
	if r.Days() != 31 {
		t.Errorf("Days() = %d, want 31", r.Days())
	}
	if !r.Contains(from) || !r.Contains(to) {
		t.Errorf("Contains() must include boundaries")
	}
	if r.Contains(to.Add(1)) {
		t.Errorf("Contains(%v) = true, want false", to.Add(1))
	}
	if _, err := NewRange(to, from); err == nil {
		t.Errorf("NewRange(to, from) expected error")
	}
}
