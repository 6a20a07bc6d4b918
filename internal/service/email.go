package service

import (
	"fmt"
	"mime"
	"net/smtp"
	"strings"

	"github.com/synclaro/website-api/internal/models"
)

type EmailService struct {
	from          string
	username      string
	password      string
	host          string
	port          string
	testEmailOnly string // If set, all emails go to this address (for testing)
	sendMailFn    func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewEmailService creates a new email service using SMTP
func NewEmailService(smtpHost, smtpPort, username, password, fromEmail, testEmailOnly string) (*EmailService, error) {
	if smtpHost == "" || username == "" || password == "" {
		return nil, fmt.Errorf("SMTP configuration incomplete")
	}
	if fromEmail == "" {
		fromEmail = username
	}

	return &EmailService{
		from:          fromEmail,
		username:      username,
		password:      password,
		host:          smtpHost,
		port:          smtpPort,
		testEmailOnly: testEmailOnly,
		sendMailFn:    smtp.SendMail,
	}, nil
}

// SendBookingConfirmation tells the applicant their appointment is booked.
// The calendar invitation itself comes from the calendar provider.
func (s *EmailService) SendBookingConfirmation(to, name, program string, appt models.Appointment) error {
	subject := fmt.Sprintf("Dein Kennenlerngespräch am %s", appt.FormattedDate)
	body := fmt.Sprintf(`Hallo %s,

vielen Dank für deine Bewerbung für %s. Dein Kennenlerngespräch ist gebucht:

Datum: %s
Uhrzeit: %s Uhr

Die Kalendereinladung erhältst du in einer separaten E-Mail.

`, name, models.ProgramLabel(program), appt.FormattedDate, appt.FormattedTime)

	return s.send(to, subject, body, "Bis bald!\n")
}

// SendOwnerNotification informs the calendar owner about a new booking.
func (s *EmailService) SendOwnerNotification(to string, app *models.Application, appt models.Appointment, notes string) error {
	subject := fmt.Sprintf("Neuer Termin: %s am %s um %s", app.FullName(), appt.FormattedDate, appt.FormattedTime)

	var b strings.Builder
	fmt.Fprintf(&b, "Neuer Termin gebucht.\n\n")
	fmt.Fprintf(&b, "Bewerber: %s\n", app.FullName())
	fmt.Fprintf(&b, "E-Mail: %s\n", app.Email)
	if app.Phone != "" {
		fmt.Fprintf(&b, "Telefon: %s\n", app.Phone)
	}
	fmt.Fprintf(&b, "Programm: %s\n", app.ProgramLabel())
	fmt.Fprintf(&b, "Termin: %s, %s Uhr\n", appt.FormattedDate, appt.FormattedTime)
	fmt.Fprintf(&b, "Kalender-Event: %s\n\n", appt.CalendarEventID)
	if notes != "" {
		fmt.Fprintf(&b, "Notizen:\n%s\n\n", notes)
	}
	return s.send(to, subject, b.String(), "")
}

func (s *EmailService) send(to, subject, body, footer string) error {
	// Override recipient for testing if TEST_EMAIL_ONLY is set
	actualRecipient := to
	if s.testEmailOnly != "" {
		actualRecipient = s.testEmailOnly
	}
	if s.testEmailOnly != "" && to != actualRecipient {
		body += fmt.Sprintf("[TEST MODE] Original recipient: %s\n\n", to)
	}
	body += footer

	message := s.buildPlainMessage(actualRecipient, subject, body)

	auth := smtp.PlainAuth("", s.username, s.password, s.host)
	addr := s.host + ":" + s.port

	if err := s.sendMailFn(addr, auth, s.from, []string{actualRecipient}, []byte(message)); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", actualRecipient, err)
	}
	return nil
}

func (s *EmailService) buildPlainMessage(to, subject, body string) string {
	return fmt.Sprintf("From: %s\r\n"+
		"To: %s\r\n"+
		"Subject: %s\r\n"+
		"MIME-Version: 1.0\r\n"+
		"Content-Type: text/plain; charset=UTF-8\r\n"+
		"\r\n"+
		"%s", s.from, to, mime.QEncoding.Encode("UTF-8", subject), body)
}
