package chathub

import (
	"errors"

	"mentorchat/backend/internal/models"
	"mentorchat/backend/internal/storage"

	"github.com/sirupsen/logrus"
)

// DeliveryOutcome describes what happened to one inbound message.
type DeliveryOutcome string

const (
	// OutcomeDropped: resolution failed (policy or missing chat) and
	// nothing was persisted. The sender is not told; see the router log.
	OutcomeDropped DeliveryOutcome = "dropped"
	// OutcomeDeliveredOnline: persisted and pushed to the receiver's
	// live connection.
	OutcomeDeliveredOnline DeliveryOutcome = "delivered_online"
	// OutcomeDeliveredOffline: persisted; the receiver picks it up on
	// the next history fetch (or via a sibling instance's push).
	OutcomeDeliveredOffline DeliveryOutcome = "delivered_offline"
)

// DeliveryRouter orchestrates one inbound message end to end: resolve
// the chat, persist the message, then push it to the receiver if a live
// connection exists.
type DeliveryRouter struct {
	Registry *PresenceRegistry
	Resolver *ChatResolver
	Storage  storage.Storage
	Log      *logrus.Logger
}

func NewDeliveryRouter(reg *PresenceRegistry, res *ChatResolver, s storage.Storage, log *logrus.Logger) *DeliveryRouter {
	if log == nil {
		log = logrus.New()
	}
	return &DeliveryRouter{Registry: reg, Resolver: res, Storage: s, Log: log}
}

// HandleIncoming runs the full pipeline for one message. Push delivery
// is fire-and-forget: a full send buffer or an offline receiver is not
// an error, the message is already durable at that point.
func (d *DeliveryRouter) HandleIncoming(senderID, receiverID, body string, isNewChat bool) (DeliveryOutcome, error) {
	chatID, err := d.Resolver.Resolve(senderID, receiverID, isNewChat)
	if errors.Is(err, ErrChatNotFound) || errors.Is(err, ErrPolicyRejected) {
		// The sender currently gets no feedback on a drop; this log
		// line is the only record of it.
		d.Log.WithFields(logrus.Fields{
			"sender_id":   senderID,
			"receiver_id": receiverID,
			"reason":      err.Error(),
		}).Warn("message dropped")
		return OutcomeDropped, nil
	}
	if err != nil {
		return OutcomeDropped, err
	}

	msg := &models.Message{
		ChatID:   chatID,
		SenderID: senderID,
		Body:     body,
		Status:   models.MessageStatusSent,
	}
	if err := d.Storage.SaveMessage(msg); err != nil {
		return OutcomeDropped, err
	}

	out := models.OutboundMessage{
		Type:     models.EventReceiveMessage,
		SenderID: senderID,
		Body:     body,
		SentAt:   msg.SentAt,
	}
	if client, ok := d.Registry.Lookup(receiverID); ok {
		select {
		case client.GetSendChannel() <- out:
		default:
			d.Log.WithField("receiver_id", receiverID).Warn("push skipped: send buffer full")
		}
		return OutcomeDeliveredOnline, nil
	}

	// The receiver may be connected to a sibling instance.
	pushed := models.PushedMessage{
		ReceiverID: receiverID,
		SenderID:   senderID,
		Body:       body,
		SentAt:     msg.SentAt,
	}
	if err := d.Storage.PublishDelivery(pushed); err != nil {
		d.Log.WithError(err).Warn("delivery fanout publish failed")
	}
	return OutcomeDeliveredOffline, nil
}
