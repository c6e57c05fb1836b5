package booking

import "time"

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusRefunded  Status = "refunded"
)

func (s Status) String() string {
	return string(s)
}

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled, StatusRefunded:
		return true
	default:
		return false
	}
}

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

func (s PaymentStatus) String() string {
	return string(s)
}

// ReminderLead identifies one of the fixed reminder lead times. Each lead
// has its own sent flag on the booking and its own tolerance window.
type ReminderLead string

const (
	ReminderLead1h ReminderLead = "1h"
	ReminderLead5m ReminderLead = "5m"
)

func (l ReminderLead) Offset() time.Duration {
	switch l {
	case ReminderLead1h:
		return time.Hour
	case ReminderLead5m:
		return 5 * time.Minute
	default:
		return 0
	}
}

func (l ReminderLead) Tolerance() time.Duration {
	switch l {
	case ReminderLead1h:
		return 5 * time.Minute
	case ReminderLead5m:
		return time.Minute
	default:
		return 0
	}
}

// Window returns the session-time interval a sweep at `now` covers for
// this lead.
func (l ReminderLead) Window(now time.Time) (from, to time.Time) {
	center := now.Add(l.Offset())
	return center.Add(-l.Tolerance()), center.Add(l.Tolerance())
}

func Leads() []ReminderLead {
	return []ReminderLead{ReminderLead1h, ReminderLead5m}
}
