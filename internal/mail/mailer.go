package mail

import (
	"context"
	"fmt"
	"time"

	gomail "github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"github.com/flavien-hugs/yimba-api/internal/config"
)

const defaultSender = "ireele <no-reply@ireele.com>"

const clientTimeout = 30 * time.Second

// Mailer sends transactional HTML mail over SMTP with STARTTLS. A nil
// Mailer is valid and drops every message, which keeps mail optional in
// environments without an SMTP relay.
type Mailer struct {
	cfg config.SMTPCfg
	log *zap.SugaredLogger
}

// New returns nil when no SMTP host is configured.
func New(cfg config.SMTPCfg, log *zap.SugaredLogger) *Mailer {
	if cfg.Host == "" {
		return nil
	}
	if cfg.Sender == "" {
		cfg.Sender = defaultSender
	}
	return &Mailer{cfg: cfg, log: log}
}

// Send delivers an HTML message to a single recipient.
func (m *Mailer) Send(ctx context.Context, to, subject, body string) error {
	if m == nil {
		return nil
	}
	msg := gomail.NewMsg()
	if err := msg.From(m.cfg.Sender); err != nil {
		return fmt.Errorf("mail sender: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("mail recipient: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, body)

	client, err := gomail.NewClient(m.cfg.Host,
		gomail.WithPort(m.cfg.Port),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(m.cfg.Username),
		gomail.WithPassword(m.cfg.Password),
	)
	if err != nil {
		return fmt.Errorf("mail client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}

// SendAsync fires Send on its own goroutine and logs any failure. Used for
// notifications that must not slow down or fail the request.
func (m *Mailer) SendAsync(to, subject, body string) {
	if m == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), clientTimeout)
		defer cancel()
		if err := m.Send(ctx, to, subject, body); err != nil {
			m.log.Errorw("send mail", "to", to, "subject", subject, "error", err)
		}
	}()
}
