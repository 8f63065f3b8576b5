package session

import (
	"context"

	"mibolsillo/internal/amqp"
)

// Publisher announces accepted selection changes. *amqp.Client satisfies it.
type Publisher interface {
	PublishSelectionChanged(ctx context.Context, msg *amqp.SelectionChangedMessage) error
}

// NopPublisher drops every event. It is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishSelectionChanged(context.Context, *amqp.SelectionChangedMessage) error {
	return nil
}

var (
	_ Publisher = NopPublisher{}
	_ Publisher = (*amqp.Client)(nil)
)

func selectionMessage(id string, s Selection) *amqp.SelectionChangedMessage {
	return amqp.NewSelectionChangedMessage(id, s.UserID, s.Segment, string(s.Health),
		s.DateRange.Start.String(), s.DateRange.End.String(), s.Compare)
}
