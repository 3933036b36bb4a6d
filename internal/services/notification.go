package services

import (
	"fmt"
	"log"

	"gopkg.in/gomail.v2"

	"github.com/voltmotors/voltride-backend/config"
	"github.com/voltmotors/voltride-backend/internal/models"
	"github.com/voltmotors/voltride-backend/internal/storage"
)

// EmailSender sends a single mail. Satisfied by the gomail dialer in
// production and by a capture fake in tests.
type EmailSender interface {
	Send(to, subject, htmlBody string) error
}

// GomailSender sends mail over SMTP using gomail.
type GomailSender struct {
	dialer *gomail.Dialer
	from   string
}

func NewGomailSender(cfg *config.Config) *GomailSender {
	return &GomailSender{
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword),
		from:   cfg.SMTPUser,
	}
}

func (g *GomailSender) Send(to, subject, htmlBody string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", g.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)
	return g.dialer.DialAndSend(m)
}

// NotificationService mails the ops inbox about booking payment transitions.
// Each (transaction, status) pair fires at most one mail, enforced through
// the submission dedup ledger, so replayed gateway webhooks stay quiet.
type NotificationService struct {
	store    storage.Store
	sender   EmailSender
	opsEmail string
}

func NewNotificationService(store storage.Store, sender EmailSender, cfg *config.Config) *NotificationService {
	return &NotificationService{
		store:    store,
		sender:   sender,
		opsEmail: cfg.OpsEmail,
	}
}

// NotifyBookingStatus sends the ops mail for a booking payment transition,
// unless one was already sent for this exact (transaction, status).
func (n *NotificationService) NotifyBookingStatus(booking *models.Booking) error {
	if n.opsEmail == "" {
		return nil
	}

	already, err := n.store.HasSubmission(booking.TransactionID, models.SubmissionCategoryEmail, booking.PaymentStatus)
	if err != nil {
		return fmt.Errorf("dedup check failed: %w", err)
	}
	if already {
		log.Printf("Notification for %s/%s already sent, skipping",
			booking.TransactionID, booking.PaymentStatus)
		return nil
	}

	subject := fmt.Sprintf("Booking %s: payment %s", booking.TransactionID, booking.PaymentStatus)
	body := fmt.Sprintf(`
		<p>Booking update for <strong>%s</strong> (%s)</p>
		<ul>
			<li>Customer: %s (%s)</li>
			<li>Model: %s, Color: %s</li>
			<li>Amount: ₹%.2f</li>
			<li>Payment status: <strong>%s</strong></li>
		</ul>
	`, booking.TransactionID, booking.PaymentRef, booking.Name, booking.Phone,
		booking.ScooterModel, booking.Color, booking.Amount, booking.PaymentStatus)

	if err := n.sender.Send(n.opsEmail, subject, body); err != nil {
		return fmt.Errorf("failed to send notification email: %w", err)
	}

	if err := n.store.RecordSubmission(booking.TransactionID, models.SubmissionCategoryEmail, booking.PaymentStatus); err != nil {
		return fmt.Errorf("failed to record notification: %w", err)
	}

	return nil
}
