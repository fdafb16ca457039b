package email

import (
	"fmt"
	"html"

	"go.uber.org/zap"

	"github.com/atrium-pm/atrium/internal/domain/repository"
	"github.com/atrium-pm/atrium/internal/observability/logger"
	"github.com/atrium-pm/atrium/internal/util"
)

// Notifier formats and dispatches the domain notifications. Sends run
// in a goroutine; errors are logged, never propagated.
type Notifier struct {
	sender Sender
	to     string
}

// NewNotifier returns a notifier delivering to the configured address.
func NewNotifier(sender Sender, to string) *Notifier {
	return &Notifier{sender: sender, to: to}
}

// LeadReceived announces a new lead from the public intake form.
func (n *Notifier) LeadReceived(siteName string, lead *repository.Lead) {
	if n.to == "" {
		return
	}
	subject := fmt.Sprintf("[%s] New lead: %s", siteName, lead.Name)
	text := fmt.Sprintf("New lead for %s\n\nName: %s\nEmail: %s\nPhone: %s\n\n%s",
		siteName, lead.Name, lead.Email, lead.Phone, lead.Message)
	htmlBody := fmt.Sprintf(
		"<p>New lead for <b>%s</b></p><p>Name: %s<br>Email: %s<br>Phone: %s</p><p>%s</p>",
		html.EscapeString(siteName), html.EscapeString(lead.Name),
		html.EscapeString(lead.Email), html.EscapeString(lead.Phone),
		html.EscapeString(lead.Message))

	go n.deliver(subject, htmlBody, text, logger.LeadID(lead.ID), logger.Email(util.MaskEmail(lead.Email)))
}

// UrgentWorkOrder announces a work order filed with urgent priority.
func (n *Notifier) UrgentWorkOrder(siteName string, wo *repository.WorkOrder) {
	if n.to == "" {
		return
	}
	subject := fmt.Sprintf("[%s] Urgent work order: %s", siteName, wo.Title)
	text := fmt.Sprintf("Urgent work order for %s\n\n%s\n\n%s", siteName, wo.Title, wo.Description)
	htmlBody := fmt.Sprintf("<p>Urgent work order for <b>%s</b></p><p><b>%s</b></p><p>%s</p>",
		html.EscapeString(siteName), html.EscapeString(wo.Title), html.EscapeString(wo.Description))

	go n.deliver(subject, htmlBody, text, logger.String("work_order_id", wo.ID))
}

func (n *Notifier) deliver(subject, htmlBody, text string, fields ...zap.Field) {
	if err := n.sender.Send(n.to, subject, htmlBody, text); err != nil {
		logger.L().Warn("notification send failed",
			append([]zap.Field{logger.String("subject", subject), logger.Err(err)}, fields...)...)
	}
}
