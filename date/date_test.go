package date

import (
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		in      string
		want    Date
		wantErr bool
	}{
		{in: "2024-01-31", want: New(2024, time.January, 31)},
		{in: "2024-2-1", want: New(2024, time.February, 1)},
		{in: "not-a-date", wantErr: true},
		{in: "2024-13-01", wantErr: true},
	}
	for _, tc := range testCases {
		got, err := Parse(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("Parse(%q) expected an error, got %v", tc.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("Parse(%q) unexpected error: %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("Parse(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestValueOrdering(t *testing.T) {
	a := New(2024, time.January, 31)
	b := New(2024, time.February, 1)
	if a.Value() >= b.Value() {
		t.Errorf("Value() not monotonic: %d >= %d", a.Value(), b.Value())
	}
	if !a.Before(b) || b.Before(a) {
		t.Errorf("Before() inconsistent for %v and %v", a, b)
	}
	if got := a.Compare(b); got != -1 {
		t.Errorf("Compare() = %d, want -1", got)
	}
	var zero Date
	if zero.Value() != 0 {
		t.Errorf("zero date Value() = %d, want 0", zero.Value())
	}
}

func TestAddNormalizes(t *testing.T) {
	d := New(2024, time.March, 1).Add(-1)
	if want := New(2024, time.February, 29); d != want {
		t.Errorf("Add(-1) = %v, want %v (leap year)", d, want)
	}
}

func TestValueFormatsAsYYYYMMDD(t *testing.T) {
	d := New(2024, time.December, 5)
	if d.Value() != 20241205 {
		t.Errorf("Value() = %d, want 20241205", d.Value())
	}
}
