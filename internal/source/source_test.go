package source

import (
	"testing"
	"time"
)

func TestResolve_Year(t *testing.T) {
	w := Resolve(WindowRequest{Year: 2024}, time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC))

	wantStart := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	wantEnd := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	if !w.Start.Equal(wantStart) || !w.End.Equal(wantEnd) {
		t.Errorf("Resolve(year=2024) = [%v, %v), want [%v, %v)", w.Start, w.End, wantStart, wantEnd)
	}

	if w.Contains(time.Date(2023, 12, 31, 23, 59, 0, 0, time.UTC)) {
		t.Error("window contains 2023-12-31, want excluded")
	}
	if !w.Contains(time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)) {
		t.Error("window excludes mid-2024, want included")
	}
	if w.Contains(wantEnd) {
		t.Error("window contains its exclusive end")
	}
}

func TestResolve_ExplicitRangeEndInclusive(t *testing.T) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

	w := Resolve(WindowRequest{Start: start, End: end}, time.Now())

	if !w.Start.Equal(start) {
		t.Errorf("Start = %v, want %v", w.Start, start)
	}
	// The end day itself must be selectable.
	if !w.Contains(time.Date(2024, 3, 10, 18, 30, 0, 0, time.UTC)) {
		t.Error("window excludes the inclusive end day")
	}
	if w.Contains(time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)) {
		t.Error("window contains the day after the end")
	}
}

func TestResolve_DaysBack(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	w := Resolve(WindowRequest{DaysBack: 30}, now)

	if !w.Start.Equal(now.AddDate(0, 0, -30)) {
		t.Errorf("Start = %v, want 30 days before now", w.Start)
	}
	if !w.End.Equal(now.AddDate(0, 0, 1)) {
		t.Errorf("End = %v, want tomorrow", w.End)
	}
}

func TestResolve_YearBeatsOtherFields(t *testing.T) {
	now := time.Now()
	w := Resolve(WindowRequest{Year: 2023, DaysBack: 7, Start: now, End: now}, now)
	if w.Start.Year() != 2023 || w.End.Year() != 2024 {
		t.Errorf("Resolve = [%v, %v), want the 2023 window", w.Start, w.End)
	}
}

func TestDecodeBase64URL(t *testing.T) {
	// "Hello?>" exercises the URL-safe alphabet substitutions.
	got, err := decodeBase64URL("SGVsbG8_Pg")
	if err != nil {
		t.Fatalf("decodeBase64URL() error = %v", err)
	}
	if string(got) != "Hello?>" {
		t.Errorf("decodeBase64URL() = %q, want %q", got, "Hello?>")
	}
}
