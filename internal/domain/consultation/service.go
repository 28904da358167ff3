package consultation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/afyalink/afyalink-api/internal/platform/analytics"
	"github.com/afyalink/afyalink-api/internal/platform/notification"
	"github.com/afyalink/afyalink-api/internal/platform/realtime"
)

// ContactDirectory resolves a user's email and display name for notification
// dispatch. A missing profile returns empty strings, not an error.
type ContactDirectory interface {
	Contact(ctx context.Context, userID string) (email, fullName string, err error)
}

// Service implements the consultation lifecycle on top of a Repository.
type Service struct {
	repo      Repository
	contacts  ContactDirectory
	sender    notification.EmailSender
	publisher realtime.EventPublisher
	sink      analytics.Sink
	logger    zerolog.Logger

	// dispatch runs notification sends. Overridden in tests to run inline.
	dispatch func(fn func())
}

// NewService creates a consultation service.
func NewService(repo Repository, contacts ContactDirectory, sender notification.EmailSender, publisher realtime.EventPublisher, sink analytics.Sink, logger zerolog.Logger) *Service {
	return &Service{
		repo:      repo,
		contacts:  contacts,
		sender:    sender,
		publisher: publisher,
		sink:      sink,
		logger:    logger,
		dispatch:  func(fn func()) { go fn() },
	}
}

// CreateInput carries the patient-supplied fields of a new request.
type CreateInput struct {
	HospitalID           uuid.UUID
	SpecialistName       string
	Specialty            string
	ConditionDescription string
	MedicalHistory       *string
	CurrentMedications   *string
	PreferredDate        *time.Time
	Urgency              string
}

// Create registers a new consultation request for the patient. The status is
// always pending and scheduling fields are never accepted from the caller.
func (s *Service) Create(ctx context.Context, patientID string, in CreateInput) (*Consultation, error) {
	if patientID == "" {
		return nil, fmt.Errorf("patient id is required")
	}
	if in.HospitalID == uuid.Nil {
		return nil, fmt.Errorf("hospital_id is required")
	}
	if in.SpecialistName == "" {
		return nil, fmt.Errorf("specialist_name is required")
	}
	if in.Specialty == "" {
		return nil, fmt.Errorf("specialty is required")
	}
	if in.ConditionDescription == "" {
		return nil, fmt.Errorf("condition_description is required")
	}
	urgency := in.Urgency
	if urgency == "" {
		urgency = UrgencyNormal
	}
	if !ValidUrgency(urgency) {
		return nil, fmt.Errorf("invalid urgency %q", in.Urgency)
	}

	now := time.Now().UTC()
	c := &Consultation{
		ID:                   uuid.New(),
		PatientID:            patientID,
		HospitalID:           in.HospitalID,
		SpecialistName:       in.SpecialistName,
		Specialty:            in.Specialty,
		ConditionDescription: in.ConditionDescription,
		MedicalHistory:       in.MedicalHistory,
		CurrentMedications:   in.CurrentMedications,
		PreferredDate:        in.PreferredDate,
		Urgency:              urgency,
		Status:               StatusPending,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	if err := s.repo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create consultation: %w", err)
	}

	s.track(ctx, "consultation_requested", patientID, map[string]string{
		"consultation_id": c.ID.String(),
		"urgency":         urgency,
	})
	s.broadcast(ctx, "insert", c)

	c.ComputeJoin(time.Now())
	return c, nil
}

// GetForPatient returns the patient's own consultation. A consultation that
// belongs to a different patient is reported as not found.
func (s *Service) GetForPatient(ctx context.Context, patientID string, id uuid.UUID) (*Consultation, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.PatientID != patientID {
		return nil, ErrNotFound
	}
	c.ComputeJoin(time.Now())
	return c, nil
}

// ListForPatient returns the patient's consultations newest first.
func (s *Service) ListForPatient(ctx context.Context, patientID string, limit, offset int) ([]*Consultation, int, error) {
	items, total, err := s.repo.ListByPatient(ctx, patientID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list consultations: %w", err)
	}
	now := time.Now()
	for _, c := range items {
		c.ComputeJoin(now)
	}
	return items, total, nil
}

// Get returns any consultation by id. Admin use only; ownership is not
// checked here.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Consultation, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.ComputeJoin(time.Now())
	return c, nil
}

// List returns all consultations newest first, optionally filtered by status.
func (s *Service) List(ctx context.Context, status string, limit, offset int) ([]*Consultation, int, error) {
	if status != "" && !ValidStatus(status) {
		return nil, 0, fmt.Errorf("invalid status filter %q", status)
	}
	items, total, err := s.repo.List(ctx, status, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list consultations: %w", err)
	}
	now := time.Now()
	for _, c := range items {
		c.ComputeJoin(now)
	}
	return items, total, nil
}

// Decision is an admin's status update. When the new status is scheduled,
// the date, time of day, and meeting link are all required and are combined
// into a single timestamp.
type Decision struct {
	Status        string
	ScheduledDate string // "2006-01-02"
	ScheduledTime string // "15:04"
	MeetingLink   string
}

// Decide applies a status decision. Transitions into scheduled trigger a
// confirmation email unless the consultation was already scheduled for the
// same timestamp and link. Transitions out of scheduled clear the scheduling
// fields in the same write.
func (s *Service) Decide(ctx context.Context, id uuid.UUID, d Decision) (*Consultation, error) {
	if !ValidStatus(d.Status) {
		return nil, fmt.Errorf("invalid status %q", d.Status)
	}

	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	prevScheduledAt := c.ScheduledDate
	prevLink := c.MeetingLink
	wasScheduled := c.Status == StatusScheduled

	if d.Status == StatusScheduled {
		if d.ScheduledDate == "" || d.ScheduledTime == "" {
			return nil, fmt.Errorf("scheduled_date and scheduled_time are required to schedule")
		}
		if d.MeetingLink == "" {
			return nil, fmt.Errorf("meeting_link is required to schedule")
		}
		at, err := time.Parse("2006-01-02 15:04", d.ScheduledDate+" "+d.ScheduledTime)
		if err != nil {
			return nil, fmt.Errorf("invalid scheduled date or time: %w", err)
		}
		c.ScheduledDate = &at
		c.MeetingLink = &d.MeetingLink
	} else {
		c.ScheduledDate = nil
		c.MeetingLink = nil
	}
	c.Status = d.Status
	c.UpdatedAt = time.Now().UTC()

	if err := c.checkSchedulingFields(); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("update consultation: %w", err)
	}

	if c.Status == StatusScheduled && !sameSchedule(wasScheduled, prevScheduledAt, prevLink, c) {
		s.sendScheduledEmail(c)
		s.track(ctx, "consultation_scheduled", c.PatientID, map[string]string{
			"consultation_id": c.ID.String(),
		})
	}
	s.broadcast(ctx, "update", c)

	c.ComputeJoin(time.Now())
	return c, nil
}

// SetNotes sets or clears the admin notes without touching the status.
func (s *Service) SetNotes(ctx context.Context, id uuid.UUID, notes *string) (*Consultation, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	c.AdminNotes = notes
	c.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("update consultation: %w", err)
	}

	s.broadcast(ctx, "update", c)
	c.ComputeJoin(time.Now())
	return c, nil
}

// sameSchedule reports whether the consultation was already scheduled for
// the exact same timestamp and meeting link before this write. Re-confirming
// an unchanged schedule must not email the patient again.
func sameSchedule(wasScheduled bool, prevAt *time.Time, prevLink *string, c *Consultation) bool {
	if !wasScheduled || prevAt == nil || prevLink == nil {
		return false
	}
	return prevAt.Equal(*c.ScheduledDate) && *prevLink == *c.MeetingLink
}

// sendScheduledEmail dispatches the confirmation asynchronously. Delivery
// failure is logged and never propagated to the admin's request.
func (s *Service) sendScheduledEmail(c *Consultation) {
	consultationID := c.ID.String()
	patientID := c.PatientID
	specialist := c.SpecialistName
	specialty := c.Specialty
	scheduledAt := *c.ScheduledDate
	link := *c.MeetingLink

	s.dispatch(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		email, name, err := s.contacts.Contact(ctx, patientID)
		if err != nil {
			s.logger.Warn().Err(err).
				Str("consultation_id", consultationID).
				Msg("could not resolve patient contact for scheduling email")
			return
		}

		err = notification.SendConsultationScheduled(ctx, s.sender, notification.ConsultationScheduled{
			PatientEmail:  email,
			PatientName:   name,
			Specialist:    specialist,
			Specialty:     specialty,
			ScheduledDate: scheduledAt,
			MeetingLink:   link,
		})
		if err != nil {
			s.logger.Warn().Err(err).
				Str("consultation_id", consultationID).
				Msg("scheduling confirmation email failed")
		}
	})
}

// broadcast publishes a change event to the admin feed and the owning
// patient's private feed.
func (s *Service) broadcast(ctx context.Context, eventType string, c *Consultation) {
	now := time.Now().UTC()
	for _, topic := range []string{realtime.TopicConsultations, realtime.PatientTopic(c.PatientID)} {
		event := realtime.Event{
			Type:       eventType,
			Topic:      topic,
			Resource:   "consultation",
			ResourceID: c.ID.String(),
			Timestamp:  now,
		}
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.logger.Warn().Err(err).Str("topic", topic).Msg("publish consultation event failed")
		}
	}
}

// track records a product analytics event, best effort.
func (s *Service) track(ctx context.Context, name, userID string, props map[string]string) {
	if err := s.sink.Track(ctx, analytics.Event{Name: name, UserID: userID, Properties: props}); err != nil {
		s.logger.Debug().Err(err).Str("event", name).Msg("analytics track failed")
	}
}
