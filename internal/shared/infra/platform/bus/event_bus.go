package bus

import "context"

// Keyer lo implementan los eventos que eligen su clave de partición.
type Keyer interface {
	PartitionKey() string
}

// La semántica de topic y el formato del payload los decide cada adapter.
type EventBus interface {
	Publish(ctx context.Context, event interface{}) error
}
