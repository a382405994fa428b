package email

import (
	"context"
	"strings"
	"testing"
	"time"
)

type recordedSend struct {
	recipient string
	subject   string
	body      string
}

// recorder captures sends on a channel so tests can wait for the async
// delivery goroutine.
type recorder struct {
	sends chan recordedSend
}

func newRecorder() *recorder {
	return &recorder{sends: make(chan recordedSend, 8)}
}

func (r *recorder) Send(_ context.Context, recipient, subject, body string) error {
	r.sends <- recordedSend{recipient: recipient, subject: subject, body: body}
	return nil
}

func (r *recorder) wait(t *testing.T) recordedSend {
	t.Helper()
	select {
	case s := <-r.sends:
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for delivery")
		return recordedSend{}
	}
}

func TestNilSenderDropsNotifications(t *testing.T) {
	var s *Sender
	// Must not panic.
	s.SendReservationConfirmed("player@example.com", "Alex", ReservationDetails{})
	s.SendReservationCancelled("player@example.com", "Alex", ReservationDetails{})
	s.SendReservationExpired("player@example.com", "Alex", ReservationDetails{})
	s.SendReservationReminder("player@example.com", "Alex", ReservationDetails{})
}

func TestSendSkipsEmptyRecipient(t *testing.T) {
	rec := newRecorder()
	s := NewSenderWithDeliverer(rec)

	s.SendReservationConfirmed("", "Alex", ReservationDetails{})

	select {
	case sent := <-rec.sends:
		t.Fatalf("Expected no delivery, got one to %q", sent.recipient)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestConfirmedNotification(t *testing.T) {
	rec := newRecorder()
	s := NewSenderWithDeliverer(rec)

	s.SendReservationConfirmed("player@example.com", "Alex", ReservationDetails{
		CourtName: "Center Court",
		Day:       "2026-09-01",
		StartHour: 10,
		EndHour:   12,
		Price:     "$45.00",
	})

	sent := rec.wait(t)
	if sent.recipient != "player@example.com" {
		t.Errorf("Recipient = %q, want player@example.com", sent.recipient)
	}
	if sent.subject != confirmedSubject {
		t.Errorf("Subject = %q, want %q", sent.subject, confirmedSubject)
	}
	for _, want := range []string{"Hi Alex,", "Center Court", "2026-09-01", "10:00", "12:00", "$45.00"} {
		if !strings.Contains(sent.body, want) {
			t.Errorf("Body missing %q:\n%s", want, sent.body)
		}
	}
}

func TestExpiredNotificationMentionsRelease(t *testing.T) {
	rec := newRecorder()
	s := NewSenderWithDeliverer(rec)

	s.SendReservationExpired("player@example.com", "", ReservationDetails{
		Day:       "2026-09-01",
		StartHour: 18,
		EndHour:   19,
	})

	sent := rec.wait(t)
	if sent.subject != expiredSubject {
		t.Errorf("Subject = %q, want %q", sent.subject, expiredSubject)
	}
	if !strings.Contains(sent.body, "released") {
		t.Errorf("Body should mention the slot being released:\n%s", sent.body)
	}
	// No name given, falls back to the bare greeting and generic court.
	if !strings.Contains(sent.body, "Hi,") {
		t.Errorf("Body missing bare greeting:\n%s", sent.body)
	}
	if !strings.Contains(sent.body, "your court") {
		t.Errorf("Body missing generic court fallback:\n%s", sent.body)
	}
}
