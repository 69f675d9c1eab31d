// Package mailer sends buyer notifications over SMTP. Every send is
// best-effort: callers log failures and move on, the triggering
// transaction has already committed.
package mailer

import (
	"fmt"
	"net/smtp"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type Config struct {
	Host     string
	Port     int
	From     string
	Password string
}

type Mailer struct {
	cfg Config
	log *zerolog.Logger
}

func New(cfg Config, log *zerolog.Logger) *Mailer {
	return &Mailer{cfg: cfg, log: log}
}

func (m *Mailer) send(recipient, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s",
		m.cfg.From, recipient, subject, body,
	)

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	auth := smtp.PlainAuth("", m.cfg.From, m.cfg.Password, m.cfg.Host)

	if err := smtp.SendMail(addr, auth, m.cfg.From, []string{recipient}, []byte(msg)); err != nil {
		m.log.Warn().Msgf("failed to send email to %s: %v", recipient, err)
		return fmt.Errorf("send email: %w", err)
	}

	m.log.Info().Msgf("email sent to %s (%s)", recipient, subject)
	return nil
}

func (m *Mailer) OrderPending(email, eventName string, timeoutMinutes int) error {
	return m.send(email,
		"Complete your ticket purchase",
		fmt.Sprintf("Hello!\n\nYour order for \"%s\" is reserved. Please complete payment within %d minutes or the reservation will be released.", eventName, timeoutMinutes),
	)
}

func (m *Mailer) TicketsIssued(email, eventName string, count int) error {
	return m.send(email,
		"Your tickets are ready",
		fmt.Sprintf("Hello!\n\nPayment confirmed: %d ticket(s) for \"%s\" have been issued. See you there!", count, eventName),
	)
}

func (m *Mailer) OrderRefunded(email, eventName string, amount decimal.Decimal) error {
	return m.send(email,
		"Your order has been refunded",
		fmt.Sprintf("Hello!\n\nYour order for \"%s\" was refunded. Amount: %s.", eventName, amount.StringFixed(2)),
	)
}
