package mail

import (
	"bytes"
	"crypto/tls"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"sync"

	"github.com/joy095/spaces/config"
	"github.com/joy095/spaces/logger"
	gomail "gopkg.in/gomail.v2"
)

const (
	bookingConfirmationTemplate   = "templates/email/booking_confirmation.html"
	subscriptionActivatedTemplate = "templates/email/subscription_activated.html"
)

var (
	ErrMailerNotConfigured = errors.New("smtp is not configured")
	ErrTemplatesNotLoaded  = errors.New("email templates not initialized")
)

var (
	templatesMu sync.RWMutex
	templates   *template.Template
)

// InitTemplates parses every email template from fsys once at start-up.
func InitTemplates(fsys fs.FS) error {
	t, err := template.ParseFS(fsys, "templates/email/*.html")
	if err != nil {
		logger.ErrorLogger.Errorf("Failed to parse email templates: %v", err)
		return fmt.Errorf("failed to parse email templates: %w", err)
	}
	templatesMu.Lock()
	templates = t
	templatesMu.Unlock()
	return nil
}

func render(path string, data interface{}) (string, error) {
	templatesMu.RLock()
	t := templates
	templatesMu.RUnlock()
	if t == nil {
		return "", ErrTemplatesNotLoaded
	}

	name := path[len("templates/email/"):]
	var body bytes.Buffer
	if err := t.ExecuteTemplate(&body, name, data); err != nil {
		logger.ErrorLogger.Errorf("Failed to execute email template %s: %v", name, err)
		return "", fmt.Errorf("failed to execute email template: %w", err)
	}
	return body.String(), nil
}

// BookingLine is one row of a confirmation email.
type BookingLine struct {
	Date           string
	StartTime      string
	EndTime        string
	Seats          int
	RedemptionCode string
}

type BookingConfirmation struct {
	Name      string
	SpaceName string
	PaymentID string
	Currency  string
	Total     string
	Lines     []BookingLine
}

type SubscriptionReceipt struct {
	Name         string
	Plan         string
	BillingCycle string
	PaymentID    string
	Currency     string
	Amount       string
	ExpiryDate   string
}

// Sender delivers the transactional emails of the payment flows.
type Sender interface {
	SendBookingConfirmation(to string, data BookingConfirmation) error
	SendSubscriptionReceipt(to string, data SubscriptionReceipt) error
}

// SMTPSender sends mail through the configured SMTP relay with gomail.
type SMTPSender struct {
	cfg config.SMTPConfig
}

func NewSMTPSender(cfg config.SMTPConfig) *SMTPSender {
	return &SMTPSender{cfg: cfg}
}

func (s *SMTPSender) SendBookingConfirmation(to string, data BookingConfirmation) error {
	return s.send(to, "Your booking is confirmed", bookingConfirmationTemplate, data)
}

func (s *SMTPSender) SendSubscriptionReceipt(to string, data SubscriptionReceipt) error {
	return s.send(to, "Your subscription is active", subscriptionActivatedTemplate, data)
}

func (s *SMTPSender) send(toEmail, subject, templatePath string, data interface{}) error {
	if s.cfg.Host == "" || s.cfg.From == "" {
		return ErrMailerNotConfigured
	}

	body, err := render(templatePath, data)
	if err != nil {
		return err
	}

	mailer := gomail.NewMessage()
	mailer.SetHeader("From", s.cfg.From)
	mailer.SetHeader("To", toEmail)
	mailer.SetHeader("Subject", subject)
	mailer.SetBody("text/html", body)

	dialer := gomail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.Username, s.cfg.Password)
	dialer.TLSConfig = &tls.Config{ServerName: s.cfg.Host}

	if err := dialer.DialAndSend(mailer); err != nil {
		logger.ErrorLogger.Errorf("Failed to send email to %s: %v", toEmail, err)
		return fmt.Errorf("failed to send email: %w", err)
	}

	logger.InfoLogger.Infof("Sent %q email to %s", subject, toEmail)
	return nil
}
