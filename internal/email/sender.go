// Package email delivers reservation notifications over AWS SESv2.
// Sends are fire-and-forget: a delivery failure is logged, never
// surfaced to the request that triggered it.
package email

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/courtbook/courtbook/internal/config"
)

const sendTimeout = 10 * time.Second

// Sender sends reservation lifecycle notifications. A nil *Sender is
// valid and drops every notification, so callers never branch on
// whether email is configured.
type Sender struct {
	deliverer Deliverer
}

// NewSender builds a Sender from the email configuration. Returns nil
// when email is disabled.
func NewSender(cfg config.EmailConfig) (*Sender, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	client, err := NewSESClient(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.Region, cfg.Sender)
	if err != nil {
		return nil, err
	}
	return &Sender{deliverer: client}, nil
}

// NewSenderWithDeliverer wires a custom transport, used by tests.
func NewSenderWithDeliverer(d Deliverer) *Sender {
	return &Sender{deliverer: d}
}

// SendReservationConfirmed notifies the user that their reservation is
// locked in.
func (s *Sender) SendReservationConfirmed(to, name string, d ReservationDetails) {
	s.deliver(to, confirmedSubject, confirmedBody(name, d))
}

// SendReservationCancelled notifies the user that their reservation was
// cancelled.
func (s *Sender) SendReservationCancelled(to, name string, d ReservationDetails) {
	s.deliver(to, cancelledSubject, cancelledBody(name, d))
}

// SendReservationExpired notifies the user that an unconfirmed
// reservation was released.
func (s *Sender) SendReservationExpired(to, name string, d ReservationDetails) {
	s.deliver(to, expiredSubject, expiredBody(name, d))
}

// SendReservationReminder reminds the user of an upcoming confirmed
// reservation.
func (s *Sender) SendReservationReminder(to, name string, d ReservationDetails) {
	s.deliver(to, reminderSubject, reminderBody(name, d))
}

func (s *Sender) deliver(to, subject, body string) {
	if s == nil || s.deliverer == nil || to == "" {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()
		if err := s.deliverer.Send(ctx, to, subject, body); err != nil {
			log.Error().
				Err(err).
				Str("recipient", to).
				Str("subject", subject).
				Msg("Failed to deliver notification")
		}
	}()
}
