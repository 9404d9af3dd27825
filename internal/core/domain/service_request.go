package domain

import "time"

// ServiceType is the kind of maintenance visit a customer can book.
type ServiceType string

const (
	ServiceCleaning   ServiceType = "cleaning"
	ServiceRepair     ServiceType = "repair"
	ServiceInspection ServiceType = "inspection"
)

// Valid reports whether t is a bookable service type.
func (t ServiceType) Valid() bool {
	switch t {
	case ServiceCleaning, ServiceRepair, ServiceInspection:
		return true
	}
	return false
}

// TimeBand is the preferred time-of-day for a visit.
type TimeBand string

const (
	BandMorning   TimeBand = "morning"
	BandAfternoon TimeBand = "afternoon"
	BandEvening   TimeBand = "evening"
)

var bandLabels = map[TimeBand]string{
	BandMorning:   "8AM - 12PM",
	BandAfternoon: "12PM - 4PM",
	BandEvening:   "4PM - 8PM",
}

// Valid reports whether b is a known band.
func (b TimeBand) Valid() bool {
	_, ok := bandLabels[b]
	return ok
}

// Label returns the display hours for the band.
func (b TimeBand) Label() string {
	if l, ok := bandLabels[b]; ok {
		return l
	}
	return string(b)
}

// ServiceStatus represents the lifecycle state of a service request.
type ServiceStatus string

const (
	ServiceUpcoming  ServiceStatus = "upcoming"
	ServiceCompleted ServiceStatus = "completed"
	ServiceCancelled ServiceStatus = "cancelled"
)

// validTransitions defines the allowed state machine transitions.
var validTransitions = map[ServiceStatus][]ServiceStatus{
	ServiceUpcoming: {ServiceCompleted, ServiceCancelled},
}

// CanTransitionTo reports whether a transition from current status to next is valid.
func (s ServiceStatus) CanTransitionTo(next ServiceStatus) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ServiceRequest is a scheduled visit tied to a customer profile.
type ServiceRequest struct {
	ID            string        `json:"id"`
	CustomerID    string        `json:"customer_id"`
	ServiceType   ServiceType   `json:"service_type"`
	ScheduledDate time.Time     `json:"scheduled_date"`
	PreferredTime TimeBand      `json:"preferred_time"`
	Status        ServiceStatus `json:"status"`
	CreatedAt     time.Time     `json:"created_at"`
}

// DateOnly truncates t to midnight UTC of its calendar day.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// IsPastDate reports whether date falls on a calendar day before today.
func IsPastDate(date, today time.Time) bool {
	return DateOnly(date).Before(DateOnly(today))
}
