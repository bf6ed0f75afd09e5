package events

import (
	"encoding/json"
	"time"
)

// Tipos de evento publicados por el backend de caché.
const (
	CacheUnsupportedFeature = "cache.unsupported_feature"
)

// Base de todos los eventos de integración
type IntegrationEvent struct {
	Type      string          `json:"type"`
	Key       string          `json:"key,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"` // contenido específico del evento
}

// NewIntegrationEvent serializa data dentro de un IntegrationEvent.
func NewIntegrationEvent(eventType, key string, ts time.Time, data interface{}) (IntegrationEvent, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return IntegrationEvent{}, err
	}
	return IntegrationEvent{Type: eventType, Key: key, Timestamp: ts, Data: raw}, nil
}

func (e IntegrationEvent) PartitionKey() string {
	return e.Key
}
