package notification

import (
	"context"
	"fmt"
	"html"
	"time"
)

// Defaults substituted when the profile is missing or incomplete. A scheduling
// confirmation still goes out even when we only know the patient's email.
const (
	DefaultPatientName = "Patient"
	DefaultSpecialist  = "Your Specialist"
	DefaultSpecialty   = "Medical Consultation"
)

// ConsultationScheduled is the payload for a scheduling confirmation email.
type ConsultationScheduled struct {
	PatientEmail  string
	PatientName   string
	Specialist    string
	Specialty     string
	ScheduledDate time.Time
	MeetingLink   string
}

// Validate checks required fields and fills defaults for the optional ones.
// It must pass before any send is attempted so a half-built payload never
// reaches the provider.
func (p *ConsultationScheduled) Validate() error {
	if p.PatientEmail == "" {
		return fmt.Errorf("patient email is required")
	}
	if p.ScheduledDate.IsZero() {
		return fmt.Errorf("scheduled date is required")
	}
	if p.MeetingLink == "" {
		return fmt.Errorf("meeting link is required")
	}
	if p.PatientName == "" {
		p.PatientName = DefaultPatientName
	}
	if p.Specialist == "" {
		p.Specialist = DefaultSpecialist
	}
	if p.Specialty == "" {
		p.Specialty = DefaultSpecialty
	}
	return nil
}

// FormattedDate returns the long-form date shown in the email,
// e.g. "Monday, January 2, 2006".
func (p *ConsultationScheduled) FormattedDate() string {
	return p.ScheduledDate.Format("Monday, January 2, 2006")
}

// FormattedTime returns the clock time shown in the email, e.g. "3:04 PM".
func (p *ConsultationScheduled) FormattedTime() string {
	return p.ScheduledDate.Format("3:04 PM")
}

// Subject returns the email subject line.
func (p *ConsultationScheduled) Subject() string {
	return fmt.Sprintf("Your consultation is scheduled for %s", p.FormattedDate())
}

// HTMLBody renders the confirmation email body. User-supplied strings are
// escaped before interpolation.
func (p *ConsultationScheduled) HTMLBody() string {
	return fmt.Sprintf(`<div style="font-family: sans-serif; max-width: 600px;">
  <h2>Consultation Confirmed</h2>
  <p>Dear %s,</p>
  <p>Your consultation has been scheduled. Here are the details:</p>
  <table cellpadding="6">
    <tr><td><strong>Specialist</strong></td><td>%s</td></tr>
    <tr><td><strong>Specialty</strong></td><td>%s</td></tr>
    <tr><td><strong>Date</strong></td><td>%s</td></tr>
    <tr><td><strong>Time</strong></td><td>%s</td></tr>
  </table>
  <p><a href="%s" style="display: inline-block; padding: 10px 20px; background: #0f766e; color: #fff; text-decoration: none; border-radius: 6px;">Join your consultation</a></p>
  <p>The join button becomes active 15 minutes before your appointment.</p>
</div>`,
		html.EscapeString(p.PatientName),
		html.EscapeString(p.Specialist),
		html.EscapeString(p.Specialty),
		p.FormattedDate(),
		p.FormattedTime(),
		html.EscapeString(p.MeetingLink),
	)
}

// SendConsultationScheduled validates the payload and sends the confirmation.
func SendConsultationScheduled(ctx context.Context, sender EmailSender, p ConsultationScheduled) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("consultation scheduled email: %w", err)
	}
	if err := sender.SendEmail(ctx, p.PatientEmail, p.Subject(), p.HTMLBody()); err != nil {
		return fmt.Errorf("send consultation scheduled email: %w", err)
	}
	return nil
}
