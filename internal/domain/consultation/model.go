// Package consultation implements the consultation lifecycle: patients
// request a consultation with a hospital specialist, admins review and
// schedule it, and both sides join the video session during the join window.
package consultation

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Consultation statuses. The set is closed: any other value is rejected
// before persistence.
const (
	StatusPending     = "pending"
	StatusUnderReview = "under_review"
	StatusApproved    = "approved"
	StatusScheduled   = "scheduled"
	StatusCompleted   = "completed"
	StatusCancelled   = "cancelled"
)

var validStatuses = map[string]bool{
	StatusPending:     true,
	StatusUnderReview: true,
	StatusApproved:    true,
	StatusScheduled:   true,
	StatusCompleted:   true,
	StatusCancelled:   true,
}

// Urgency levels a patient may attach to a request.
const (
	UrgencyNormal    = "normal"
	UrgencyUrgent    = "urgent"
	UrgencyEmergency = "emergency"
)

var validUrgencies = map[string]bool{
	UrgencyNormal:    true,
	UrgencyUrgent:    true,
	UrgencyEmergency: true,
}

// Consultation is a patient's request for a remote consultation with a
// hospital specialist. Scheduling fields are only populated while the
// status is scheduled. The join_* fields are computed per request from the
// scheduled time and are never persisted.
type Consultation struct {
	ID                   uuid.UUID  `db:"id" json:"id"`
	PatientID            string     `db:"patient_id" json:"patient_id"`
	HospitalID           uuid.UUID  `db:"hospital_id" json:"hospital_id"`
	SpecialistName       string     `db:"specialist_name" json:"specialist_name"`
	Specialty            string     `db:"specialty" json:"specialty"`
	ConditionDescription string     `db:"condition_description" json:"condition_description"`
	MedicalHistory       *string    `db:"medical_history" json:"medical_history,omitempty"`
	CurrentMedications   *string    `db:"current_medications" json:"current_medications,omitempty"`
	PreferredDate        *time.Time `db:"preferred_date" json:"preferred_date,omitempty"`
	Urgency              string     `db:"urgency" json:"urgency"`
	Status               string     `db:"status" json:"status"`
	ScheduledDate        *time.Time `db:"scheduled_date" json:"scheduled_date,omitempty"`
	MeetingLink          *string    `db:"meeting_link" json:"meeting_link,omitempty"`
	AdminNotes           *string    `db:"admin_notes" json:"admin_notes,omitempty"`
	CreatedAt            time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time  `db:"updated_at" json:"updated_at"`

	JoinState   JoinState `db:"-" json:"join_state"`
	JoinMessage string    `db:"-" json:"join_message"`
	CanJoin     bool      `db:"-" json:"can_join"`
}

// ValidStatus reports whether s is a known consultation status.
func ValidStatus(s string) bool {
	return validStatuses[s]
}

// ValidUrgency reports whether u is a known urgency level.
func ValidUrgency(u string) bool {
	return validUrgencies[u]
}

// IsScheduled reports whether the consultation is currently scheduled.
func (c *Consultation) IsScheduled() bool {
	return c.Status == StatusScheduled
}

// checkSchedulingFields verifies that scheduled_date and meeting_link are
// both set when the status is scheduled and both cleared otherwise. Every
// status-changing write passes through this check before persistence.
func (c *Consultation) checkSchedulingFields() error {
	if c.Status == StatusScheduled {
		if c.ScheduledDate == nil || c.MeetingLink == nil || *c.MeetingLink == "" {
			return fmt.Errorf("scheduled consultation requires a scheduled date and meeting link")
		}
		return nil
	}
	if c.ScheduledDate != nil || c.MeetingLink != nil {
		return fmt.Errorf("consultation with status %q must not carry scheduling fields", c.Status)
	}
	return nil
}

// ComputeJoin fills the computed join-window fields relative to now.
func (c *Consultation) ComputeJoin(now time.Time) {
	c.JoinState = EvaluateJoin(c.ScheduledDate, now)
	c.JoinMessage = JoinStatusMessage(c.ScheduledDate, now)
	c.CanJoin = c.JoinState == JoinOpen
}
