package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jhoicas/commerce-core/internal/application/ports"
	"github.com/jhoicas/commerce-core/internal/domain/entity"
	"github.com/jhoicas/commerce-core/pkg/logger"
)

var _ ports.Notifier = (*Notifier)(nil)

// Envelope formato común de los eventos de auditoría.
type Envelope struct {
	Event      string          `json:"event"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

// Notifier implementa ports.Notifier publicando eventos en el topic de
// auditoría. Fire-and-forget: nunca devuelve error al dominio.
type Notifier struct {
	p   *Producer
	log *logger.Logger
}

// NewNotifier construye el notifier sobre el productor.
func NewNotifier(p *Producer, log *logger.Logger) *Notifier {
	return &Notifier{p: p, log: log}
}

func (n *Notifier) OrderTransitioned(ctx context.Context, orderID string, from, to entity.OrderStatus, actor string, at time.Time) {
	n.publish("order.transitioned", orderID, at, map[string]any{
		"order_id": orderID,
		"from":     string(from),
		"to":       string(to),
		"actor":    actor,
	})
}

func (n *Notifier) ReservationExpired(ctx context.Context, movementID, productID string, quantity int64, at time.Time) {
	n.publish("reservation.expired", productID, at, map[string]any{
		"movement_id": movementID,
		"product_id":  productID,
		"quantity":    quantity,
	})
}

func (n *Notifier) LowStock(ctx context.Context, productID string, available int64, at time.Time) {
	n.publish("stock.low", productID, at, map[string]any{
		"product_id": productID,
		"available":  available,
	})
}

func (n *Notifier) publish(event, key string, at time.Time, payload map[string]any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		n.log.Warn().Err(err).Str("event", event).Msg("no se pudo serializar el evento")
		return
	}
	body, err := json.Marshal(Envelope{Event: event, OccurredAt: at.UTC(), Payload: raw})
	if err != nil {
		n.log.Warn().Err(err).Str("event", event).Msg("no se pudo serializar el sobre")
		return
	}
	n.p.Publish([]byte(key), body)
}
