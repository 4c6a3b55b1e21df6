package samples

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDueDate_MondayAnchors(t *testing.T) {
	received := date(2024, time.January, 1) // Monday

	if got := DueDate(received, SLAExpress); !got.Equal(date(2024, time.January, 5)) {
		t.Errorf("express due date = %s, want 2024-01-05", got.Format("2006-01-02"))
	}
	if got := DueDate(received, SLANormal); !got.Equal(date(2024, time.January, 12)) {
		t.Errorf("normal due date = %s, want 2024-01-12", got.Format("2006-01-02"))
	}
}

func TestDueDate_FridayExpressSkipsWeekend(t *testing.T) {
	received := date(2024, time.January, 5) // Friday

	got := DueDate(received, SLAExpress)
	if want := received.AddDate(0, 0, 6); !got.Equal(want) {
		t.Errorf("due date = %s, want Friday+6 calendar days (%s)", got.Format("2006-01-02"), want.Format("2006-01-02"))
	}
	if wd := got.Weekday(); wd == time.Saturday || wd == time.Sunday {
		t.Errorf("due date fell on a weekend: %s", wd)
	}
}

func TestDueDate_NeverOnWeekend(t *testing.T) {
	start := date(2024, time.March, 1)
	for i := 0; i < 60; i++ {
		received := start.AddDate(0, 0, i)
		for _, sla := range []SLAType{SLANormal, SLAExpress} {
			due := DueDate(received, sla)
			if wd := due.Weekday(); wd == time.Saturday || wd == time.Sunday {
				t.Errorf("received %s %s: due date %s is a %s", received.Format("2006-01-02"), sla, due.Format("2006-01-02"), wd)
			}
			if !due.After(received) {
				t.Errorf("received %s: due date %s not after reception", received.Format("2006-01-02"), due.Format("2006-01-02"))
			}
		}
	}
}

func TestDueDate_Deterministic(t *testing.T) {
	received := date(2024, time.June, 12)
	first := DueDate(received, SLANormal)
	for i := 0; i < 5; i++ {
		if got := DueDate(received, SLANormal); !got.Equal(first) {
			t.Fatalf("non-deterministic due date: %s vs %s", got, first)
		}
	}
}

func TestDeriveSLAStatus(t *testing.T) {
	due := date(2024, time.January, 12)

	cases := []struct {
		name      string
		now       time.Time
		completed bool
		want      SLAStatus
	}{
		{"well before due", date(2024, time.January, 8), false, SLAOnTime},
		{"day before due", date(2024, time.January, 11), false, SLAAtRisk},
		{"on due date", date(2024, time.January, 12), false, SLAAtRisk},
		{"past due", date(2024, time.January, 15), false, SLABreached},
		{"completed past due", date(2024, time.January, 15), true, SLAOnTime},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DeriveSLAStatus(due, tc.now, tc.completed); got != tc.want {
				t.Errorf("got %s, want %s", got, tc.want)
			}
		})
	}
}
