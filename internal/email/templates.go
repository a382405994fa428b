package email

import (
	"fmt"

	"github.com/courtbook/courtbook/internal/booking"
)

// ReservationDetails carries the facts a notification mentions.
type ReservationDetails struct {
	CourtName string
	Day       string
	StartHour int
	EndHour   int
	Price     string
}

const (
	confirmedSubject = "Your court reservation is confirmed"
	cancelledSubject = "Your court reservation was cancelled"
	expiredSubject   = "Your court reservation expired"
	reminderSubject  = "Reminder: your court time starts soon"
)

func (d ReservationDetails) when() string {
	return fmt.Sprintf("%s from %s to %s",
		d.Day, booking.FormatHour(d.StartHour), booking.FormatHour(d.EndHour))
}

func (d ReservationDetails) court() string {
	if d.CourtName == "" {
		return "your court"
	}
	return d.CourtName
}

func greeting(name string) string {
	if name == "" {
		return "Hi,"
	}
	return "Hi " + name + ","
}

func confirmedBody(name string, d ReservationDetails) string {
	body := fmt.Sprintf("%s\n\nYour reservation for %s on %s is confirmed.",
		greeting(name), d.court(), d.when())
	if d.Price != "" {
		body += fmt.Sprintf("\nTotal: %s.", d.Price)
	}
	return body + "\n\nSee you on the court!\nCourtbook"
}

func cancelledBody(name string, d ReservationDetails) string {
	return fmt.Sprintf("%s\n\nYour reservation for %s on %s has been cancelled.\n\nCourtbook",
		greeting(name), d.court(), d.when())
}

func expiredBody(name string, d ReservationDetails) string {
	return fmt.Sprintf("%s\n\nYour unconfirmed reservation for %s on %s was held for an hour and has now been released. The slot is open again if you still want it.\n\nCourtbook",
		greeting(name), d.court(), d.when())
}

func reminderBody(name string, d ReservationDetails) string {
	return fmt.Sprintf("%s\n\nA reminder that your reservation for %s on %s starts within the hour.\n\nSee you soon!\nCourtbook",
		greeting(name), d.court(), d.when())
}
