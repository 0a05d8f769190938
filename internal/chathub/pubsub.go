package chathub

import (
	"encoding/json"

	"mentorchat/backend/internal/models"
)

// StartDeliveryListener subscribes to the shared Redis delivery channel
// and feeds sibling-instance pushes into the hub loop. Without Redis
// the service runs single-instance and there is nothing to listen to.
func (m *ManagerService) StartDeliveryListener() {
	pubsub := m.Storage.SubscribeDeliveries()
	if pubsub == nil {
		return
	}

	go func() {
		defer pubsub.Close()

		for msg := range pubsub.Channel() {
			var pushed models.PushedMessage
			if err := json.Unmarshal([]byte(msg.Payload), &pushed); err != nil {
				m.Log.WithError(err).Warn("bad payload on delivery channel")
				continue
			}
			m.PubSubCh <- pushed
		}
	}()
}
