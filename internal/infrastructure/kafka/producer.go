package kafka

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/jhoicas/commerce-core/pkg/logger"
)

// Producer publica mensajes de auditoría de forma asíncrona: Publish encola
// en el inbox y una goroutine drena hacia el writer. Un broker caído degrada
// a pérdida de eventos de auditoría, nunca bloquea el camino de escritura.
type Producer struct {
	w       *kafka.Writer
	inbox   chan kafka.Message
	closeCh chan struct{}
	log     *logger.Logger
}

// NewProducer construye el productor para el topic dado.
func NewProducer(brokers []string, topic string, buf int, log *logger.Logger) *Producer {
	return &Producer{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
		},
		inbox:   make(chan kafka.Message, buf),
		closeCh: make(chan struct{}),
		log:     log,
	}
}

// Start arranca la goroutine de drenado. Al cancelar ctx se vacía el inbox
// antes de cerrar el writer.
func (p *Producer) Start(ctx context.Context) {
	go func() {
		defer close(p.closeCh)
		for {
			select {
			case <-ctx.Done():
				p.drain()
				_ = p.w.Close()
				return
			case m, ok := <-p.inbox:
				if !ok {
					_ = p.w.Close()
					return
				}
				p.write(m)
			}
		}
	}()
}

func (p *Producer) drain() {
	for {
		select {
		case m, ok := <-p.inbox:
			if !ok {
				return
			}
			p.write(m)
		default:
			return
		}
	}
}

func (p *Producer) write(m kafka.Message) {
	wctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.w.WriteMessages(wctx, m); err != nil {
		p.log.Warn().Err(err).Str("topic", p.w.Topic).Msg("evento de auditoría descartado")
	}
}

// Publish encola un mensaje; si el inbox está lleno se descarta con un warn
// en lugar de bloquear al llamador.
func (p *Producer) Publish(key, value []byte) {
	m := kafka.Message{Key: key, Value: value, Time: time.Now()}
	select {
	case p.inbox <- m:
	default:
		p.log.Warn().Str("topic", p.w.Topic).Msg("inbox lleno, evento de auditoría descartado")
	}
}

// WaitClosed espera a que la goroutine de drenado termine.
func (p *Producer) WaitClosed() { <-p.closeCh }
