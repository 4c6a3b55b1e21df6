package samples

import "time"

// Business-day turnaround targets per SLA class.
const (
	expressBusinessDays = 4
	normalBusinessDays  = 9
)

// DueDate computes the sample due date from the reception date and SLA class.
// It advances one calendar day at a time, counting only Monday through Friday
// toward the target. Saturdays and Sundays never count; holidays are not
// modeled.
func DueDate(received time.Time, slaType SLAType) time.Time {
	target := normalBusinessDays
	if slaType == SLAExpress {
		target = expressBusinessDays
	}

	d := received
	counted := 0
	for counted < target {
		d = d.AddDate(0, 0, 1)
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			counted++
		}
	}
	return d
}

// DeriveSLAStatus classifies a sample against its due date. Completed samples
// are always on_time; otherwise a sample is breached after its due date and
// at_risk on the due date or the day before.
func DeriveSLAStatus(due, now time.Time, completed bool) SLAStatus {
	if completed {
		return SLAOnTime
	}

	dueDay := truncateToDay(due)
	nowDay := truncateToDay(now)
	switch {
	case nowDay.After(dueDay):
		return SLABreached
	case !nowDay.Before(dueDay.AddDate(0, 0, -1)):
		return SLAAtRisk
	default:
		return SLAOnTime
	}
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
