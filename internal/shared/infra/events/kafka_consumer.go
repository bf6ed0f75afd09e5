package events

import (
	"context"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageHandler define la interfaz que debe cumplir cualquier consumidor de eventos.
type MessageHandler interface {
	HandleMessage(ctx context.Context, key string, payload []byte)
}

// MessageReader es la parte de *kafka.Reader que usa el adapter.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// ConsumerAdapter escucha un topic de Kafka y entrega cada mensaje al handler.
type ConsumerAdapter struct {
	reader  MessageReader
	topic   string
	handler MessageHandler
	log     *zap.Logger
	done    chan struct{}
}

// NewKafkaReader crea un reader de grupo para topic.
func NewKafkaReader(brokers []string, topic, groupID string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		Topic:   topic,
		GroupID: groupID,
	})
}

func NewConsumerAdapter(reader MessageReader, topic string, handler MessageHandler, log *zap.Logger) *ConsumerAdapter {
	if log == nil {
		log = zap.NewNop()
	}
	return &ConsumerAdapter{
		reader:  reader,
		topic:   topic,
		handler: handler,
		log:     log,
		done:    make(chan struct{}),
	}
}

// Start inicia el bucle de consumo de mensajes en una goroutine.
func (c *ConsumerAdapter) Start(ctx context.Context) {
	c.log.Info("🎧 Iniciando consumidor de Kafka...", zap.String("topic", c.topic))

	go func() {
		defer close(c.done)
		for {
			// ReadMessage es una llamada bloqueante.
			msg, err := c.reader.ReadMessage(ctx)
			if err != nil {
				// Si el contexto se cancela, el error es normal y salimos limpiamente.
				if ctx.Err() != nil {
					c.log.Info("Consumidor de Kafka detenido.", zap.String("topic", c.topic))
					return
				}
				c.log.Error("Error al leer mensaje de Kafka", zap.Error(err))
				continue
			}

			c.handler.HandleMessage(ctx, string(msg.Key), msg.Value)
		}
	}()
}

// Done se cierra cuando el bucle de consumo termina.
func (c *ConsumerAdapter) Done() <-chan struct{} {
	return c.done
}

// Close cierra el reader subyacente.
func (c *ConsumerAdapter) Close() error {
	return c.reader.Close()
}
