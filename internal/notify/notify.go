// Package notify emails the scrape results to the operator.
package notify

import (
	"fmt"
	"net/smtp"
	"time"

	"github.com/jordan-wright/email"
	"go.uber.org/zap"

	"github.com/maxburton/firebird/internal/config"
)

// Notifier sends the end-of-run results email with the generated
// files attached.
type Notifier struct {
	cfg    config.MailConfig
	logger *zap.Logger
}

func NewNotifier(cfg config.MailConfig, logger *zap.Logger) *Notifier {
	return &Notifier{
		cfg:    cfg,
		logger: logger.Named("notify"),
	}
}

// Send mails the attachments with an elapsed-time summary, as plain
// text with an HTML alternative.
func (n *Notifier) Send(restaurantName string, elapsed time.Duration, attachments []string) error {
	if !n.cfg.Enabled {
		n.logger.Info("Mail disabled, skipping results email")
		return nil
	}

	hours := int(elapsed.Hours())
	minutes := int(elapsed.Minutes()) % 60
	seconds := int(elapsed.Seconds()) % 60

	msg := email.NewEmail()
	msg.From = n.cfg.From
	msg.To = []string{n.cfg.To}
	msg.Subject = "Scraping Results"
	msg.Text = []byte(fmt.Sprintf(
		"Attached are the files generated from the scrape of %s\n\nTime Elapsed: %.2fs (%dhrs, %dmins, %dsecs)\n",
		restaurantName, elapsed.Seconds(), hours, minutes, seconds))
	msg.HTML = []byte(fmt.Sprintf(
		"<html><body><p>Attached are the files generated from the scrape of %s<br><br>Time Elapsed: %.2fs (%dhrs, %dmins, %dsecs)<br><br></p></body></html>",
		restaurantName, elapsed.Seconds(), hours, minutes, seconds))

	for _, path := range attachments {
		if _, err := msg.AttachFile(path); err != nil {
			return fmt.Errorf("attaching %s: %w", path, err)
		}
	}

	addr := fmt.Sprintf("%s:%d", n.cfg.Host, n.cfg.Port)
	auth := smtp.PlainAuth("", n.cfg.From, n.cfg.Password, n.cfg.Host)
	if err := msg.Send(addr, auth); err != nil {
		return fmt.Errorf("sending results email: %w", err)
	}
	n.logger.Info("Results email sent", zap.String("to", n.cfg.To), zap.Int("attachments", len(attachments)))
	return nil
}
