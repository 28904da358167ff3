package notification

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func validPayload() ConsultationScheduled {
	return ConsultationScheduled{
		PatientEmail:  "amina@example.com",
		PatientName:   "Amina Yusuf",
		Specialist:    "Dr. Mehta",
		Specialty:     "Cardiology",
		ScheduledDate: time.Date(2026, time.March, 9, 14, 30, 0, 0, time.UTC),
		MeetingLink:   "https://meet.example.com/abc",
	}
}

func TestConsultationScheduled_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ConsultationScheduled)
		wantErr string
	}{
		{"valid", func(p *ConsultationScheduled) {}, ""},
		{"missing email", func(p *ConsultationScheduled) { p.PatientEmail = "" }, "patient email"},
		{"missing date", func(p *ConsultationScheduled) { p.ScheduledDate = time.Time{} }, "scheduled date"},
		{"missing link", func(p *ConsultationScheduled) { p.MeetingLink = "" }, "meeting link"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validPayload()
			tt.mutate(&p)
			err := p.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestConsultationScheduled_Defaults(t *testing.T) {
	p := ConsultationScheduled{
		PatientEmail:  "amina@example.com",
		ScheduledDate: time.Date(2026, time.March, 9, 14, 30, 0, 0, time.UTC),
		MeetingLink:   "https://meet.example.com/abc",
	}
	if err := p.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if p.PatientName != DefaultPatientName {
		t.Errorf("PatientName = %q, want %q", p.PatientName, DefaultPatientName)
	}
	if p.Specialist != DefaultSpecialist {
		t.Errorf("Specialist = %q, want %q", p.Specialist, DefaultSpecialist)
	}
	if p.Specialty != DefaultSpecialty {
		t.Errorf("Specialty = %q, want %q", p.Specialty, DefaultSpecialty)
	}
}

func TestConsultationScheduled_Formatting(t *testing.T) {
	p := validPayload()
	if got := p.FormattedDate(); got != "Monday, March 9, 2026" {
		t.Errorf("FormattedDate() = %q", got)
	}
	if got := p.FormattedTime(); got != "2:30 PM" {
		t.Errorf("FormattedTime() = %q", got)
	}
}

func TestConsultationScheduled_HTMLBodyEscapes(t *testing.T) {
	p := validPayload()
	p.PatientName = `<script>alert("x")</script>`
	if err := p.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	body := p.HTMLBody()
	if strings.Contains(body, "<script>") {
		t.Error("expected patient name to be escaped in body")
	}
	if !strings.Contains(body, "Dr. Mehta") {
		t.Error("expected specialist in body")
	}
	if !strings.Contains(body, "https://meet.example.com/abc") {
		t.Error("expected meeting link in body")
	}
}

func TestSendConsultationScheduled(t *testing.T) {
	sender := &MockEmailSender{}
	p := validPayload()

	if err := SendConsultationScheduled(context.Background(), sender, p); err != nil {
		t.Fatalf("SendConsultationScheduled() error = %v", err)
	}

	calls := sender.Calls()
	if len(calls) != 1 {
		t.Fatalf("expected 1 email, got %d", len(calls))
	}
	if calls[0].To != "amina@example.com" {
		t.Errorf("To = %q", calls[0].To)
	}
	if !strings.Contains(calls[0].Subject, "Monday, March 9, 2026") {
		t.Errorf("Subject = %q", calls[0].Subject)
	}
}

func TestSendConsultationScheduled_InvalidPayloadNotSent(t *testing.T) {
	sender := &MockEmailSender{}
	p := validPayload()
	p.PatientEmail = ""

	if err := SendConsultationScheduled(context.Background(), sender, p); err == nil {
		t.Fatal("expected validation error")
	}
	if len(sender.Calls()) != 0 {
		t.Error("no email should be sent for an invalid payload")
	}
}

func TestResendSender_SendEmail(t *testing.T) {
	var gotAuth string
	var gotBody resendRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"id":"email-1"}`))
	}))
	defer srv.Close()

	sender := NewResendSender("re_test_key", "Afya Care Link <no-reply@example.com>")
	sender.endpoint = srv.URL

	err := sender.SendEmail(context.Background(), "amina@example.com", "Hello", "<p>Hi</p>")
	if err != nil {
		t.Fatalf("SendEmail() error = %v", err)
	}
	if gotAuth != "Bearer re_test_key" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if len(gotBody.To) != 1 || gotBody.To[0] != "amina@example.com" {
		t.Errorf("To = %v", gotBody.To)
	}
	if gotBody.From != "Afya Care Link <no-reply@example.com>" {
		t.Errorf("From = %q", gotBody.From)
	}
}

func TestResendSender_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"message":"invalid from address"}`))
	}))
	defer srv.Close()

	sender := NewResendSender("re_test_key", "bad")
	sender.endpoint = srv.URL

	err := sender.SendEmail(context.Background(), "amina@example.com", "Hello", "<p>Hi</p>")
	if err == nil {
		t.Fatal("expected error for non-2xx response")
	}
	if !strings.Contains(err.Error(), "422") {
		t.Errorf("error should include status code, got %v", err)
	}
}
