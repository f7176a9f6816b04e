package email

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"
)

type Service interface {
	SendVerification(ctx context.Context, to, token string) error
	SendPasswordReset(ctx context.Context, to, token string) error
	SendAppointmentReminder(ctx context.Context, to, patientName, when, clinician string) error
	SendCustom(ctx context.Context, to, subject, body string) error
}

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	BaseURL  string
}

type smtpService struct {
	dialer  *gomail.Dialer
	from    string
	baseURL string
}

func NewSMTPService(cfg Config) Service {
	return &smtpService{
		dialer:  gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:    cfg.From,
		baseURL: cfg.BaseURL,
	}
}

func (s *smtpService) send(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func (s *smtpService) SendVerification(_ context.Context, to, token string) error {
	body := fmt.Sprintf(
		`<p>Welcome to the practice portal.</p>
		<p>Please verify your email by clicking <a href="%s/verify?token=%s">here</a>.</p>
		<p>This link expires in 48 hours.</p>`,
		s.baseURL, token,
	)
	return s.send(to, "Verify your email", body)
}

func (s *smtpService) SendPasswordReset(_ context.Context, to, token string) error {
	body := fmt.Sprintf(
		`<p>A password reset was requested for your account.</p>
		<p>Reset your password <a href="%s/reset-password?token=%s">here</a>. The link expires in 1 hour.</p>
		<p>If you did not request this, you can ignore this email.</p>`,
		s.baseURL, token,
	)
	return s.send(to, "Password reset", body)
}

func (s *smtpService) SendAppointmentReminder(_ context.Context, to, patientName, when, clinician string) error {
	body := fmt.Sprintf(
		`<p>Hi %s,</p>
		<p>This is a reminder of your upcoming appointment with %s at %s.</p>
		<p>Please arrive 10 minutes early, or use the kiosk to check in.</p>`,
		patientName, clinician, when,
	)
	return s.send(to, "Appointment reminder", body)
}

func (s *smtpService) SendCustom(_ context.Context, to, subject, body string) error {
	return s.send(to, subject, body)
}
