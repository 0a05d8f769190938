package chathub

import (
	"mentorchat/backend/internal/models"
	"mentorchat/backend/internal/storage"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

var validate = validator.New()

type registerPayload struct {
	PartyID string `validate:"required"`
}

type sendPayload struct {
	SenderID   string `validate:"required"`
	ReceiverID string `validate:"required"`
	Body       string `validate:"required"`
}

// IncomingEvent pairs a decoded client frame with the connection it
// arrived on.
type IncomingEvent struct {
	Client Client
	Event  models.ClientEvent
}

// ManagerService is the hub: it owns the presence registry, consumes
// events from every connection and dispatches them to the delivery
// router. Handlers for distinct connections run concurrently; the hub
// loop serializes registration state changes.
type ManagerService struct {
	Registry *PresenceRegistry
	Router   *DeliveryRouter
	Storage  storage.Storage
	Log      *logrus.Logger

	EventCh      chan IncomingEvent
	UnregisterCh chan Client
	PubSubCh     chan models.PushedMessage
}

func NewManagerService(reg *PresenceRegistry, router *DeliveryRouter, s storage.Storage, log *logrus.Logger) *ManagerService {
	if log == nil {
		log = logrus.New()
	}
	return &ManagerService{
		Registry:     reg,
		Router:       router,
		Storage:      s,
		Log:          log,
		EventCh:      make(chan IncomingEvent),
		UnregisterCh: make(chan Client),
		PubSubCh:     make(chan models.PushedMessage),
	}
}

// Run is the hub's main loop. Start it once, in its own goroutine.
func (m *ManagerService) Run() {
	m.StartDeliveryListener()

	for {
		select {
		case c := <-m.UnregisterCh:
			m.Registry.UnregisterConn(c.GetConnID())
			c.Close()
			m.Log.WithFields(logrus.Fields{
				"conn_id":  c.GetConnID(),
				"party_id": c.GetPartyID(),
			}).Info("connection closed")

		case in := <-m.EventCh:
			m.dispatch(in)

		case msg := <-m.PubSubCh:
			m.deliverLocal(msg)
		}
	}
}

func (m *ManagerService) dispatch(in IncomingEvent) {
	switch in.Event.Type {
	case models.EventRegisterUser:
		if err := validate.Struct(registerPayload{PartyID: in.Event.PartyID}); err != nil {
			m.Log.WithField("conn_id", in.Client.GetConnID()).Warn("register_user without party_id")
			return
		}
		in.Client.SetPartyID(in.Event.PartyID)
		m.Registry.Register(in.Event.PartyID, in.Client)
		m.Log.WithFields(logrus.Fields{
			"party_id": in.Event.PartyID,
			"conn_id":  in.Client.GetConnID(),
		}).Info("party registered")

	case models.EventSendMessage:
		ev := in.Event
		// A registered connection speaks for its party regardless of
		// what the payload claims.
		senderID := ev.SenderID
		if pid := in.Client.GetPartyID(); pid != "" {
			senderID = pid
		}
		if err := validate.Struct(sendPayload{SenderID: senderID, ReceiverID: ev.ReceiverID, Body: ev.Body}); err != nil {
			m.Log.WithField("conn_id", in.Client.GetConnID()).Warn("send_message with missing fields")
			return
		}
		outcome, err := m.Router.HandleIncoming(senderID, ev.ReceiverID, ev.Body, ev.IsNewChat)
		if err != nil {
			m.Log.WithError(err).WithFields(logrus.Fields{
				"sender_id":   senderID,
				"receiver_id": ev.ReceiverID,
			}).Error("message handling failed")
			return
		}
		m.Log.WithFields(logrus.Fields{
			"sender_id":   senderID,
			"receiver_id": ev.ReceiverID,
			"outcome":     string(outcome),
		}).Debug("message handled")

	default:
		m.Log.WithField("type", in.Event.Type).Warn("unknown client event")
	}
}

// deliverLocal pushes a fanout message to the receiver if this instance
// holds its connection. A slow client's full buffer drops the push; the
// message is already persisted.
func (m *ManagerService) deliverLocal(msg models.PushedMessage) {
	client, ok := m.Registry.Lookup(msg.ReceiverID)
	if !ok {
		return
	}
	out := models.OutboundMessage{
		Type:     models.EventReceiveMessage,
		SenderID: msg.SenderID,
		Body:     msg.Body,
		SentAt:   msg.SentAt,
	}
	select {
	case client.GetSendChannel() <- out:
	default:
		m.Log.WithField("receiver_id", msg.ReceiverID).Warn("fanout push skipped: send buffer full")
	}
}
