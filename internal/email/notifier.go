package email

import (
	"context"
	"fmt"

	"opsboard_backend/internal/clients"
	"opsboard_backend/internal/events"
	"opsboard_backend/platform/logger"

	"github.com/google/uuid"
)

type directory interface {
	GetUser(ctx context.Context, id uuid.UUID) (clients.User, error)
}

type mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Notifier emails the task owner when the scanner records a new delay
// notification. Delivery failures are logged, never propagated; the in-app
// feed is the source of truth and email is best effort.
type Notifier struct {
	sender    mailer
	directory directory
	log       *logger.Logger
}

// NewNotifier creates the delay notice mailer.
func NewNotifier(sender mailer, dir directory, log *logger.Logger) *Notifier {
	return &Notifier{sender: sender, directory: dir, log: log}
}

// Register subscribes the notifier to the event bus.
func (n *Notifier) Register(bus events.Bus) {
	bus.Subscribe(events.DelayNotificationCreatedName, events.HandlerFunc(n.handleCreated))
}

func (n *Notifier) handleCreated(ctx context.Context, e events.Event) error {
	event, ok := e.(events.DelayNotificationCreated)
	if !ok {
		return nil
	}

	user, err := n.directory.GetUser(ctx, event.OwnerID)
	if err != nil {
		n.log.Debug("skipping delay email, owner not resolvable",
			"owner_id", event.OwnerID.String(), "error", err.Error())
		return nil
	}
	if user.Email == "" {
		return nil
	}

	subject := fmt.Sprintf("Overdue: %s", event.Title)
	body := fmt.Sprintf(
		"Hi %s,\n\n%q (source: %s) was due on %s and is now overdue.\n"+
			"Please add a justification on the dashboard.\n",
		user.DisplayName, event.Title, event.SourceTable,
		event.DueDate.Format("2006-01-02"),
	)

	if err := n.sender.Send(ctx, user.Email, subject, body); err != nil {
		n.log.Error("delay email delivery failed",
			"recipient", user.Email, "notification_id", event.NotificationID.String(),
			"error", err.Error())
	}
	return nil
}
