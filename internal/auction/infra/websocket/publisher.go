package websocket

import (
	"encoding/json"

	"github.com/cortega/playerauction/internal/auction/application"
	ws "github.com/cortega/playerauction/internal/shared/websocket"
	"go.uber.org/zap"
)

// HubPublisher adapts the shared hub to the coordinator's EventPublisher.
// Publish marshals the envelope and hands it to the hub's buffered channel,
// so it never blocks the coordinator's critical section.
type HubPublisher struct {
	hub *ws.Hub
}

func NewHubPublisher(hub *ws.Hub) *HubPublisher {
	return &HubPublisher{hub: hub}
}

func (p *HubPublisher) Publish(event application.Event) {
	data, err := json.Marshal(Envelope{Type: event.Name, Payload: event.Payload})
	if err != nil {
		log.Error("Failed to marshal broadcast event",
			zap.String("event", event.Name),
			zap.Error(err),
		)
		return
	}
	p.hub.Broadcast(data)
}
