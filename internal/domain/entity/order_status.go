package entity

// OrderStatus estado del agregado pedido. Toda mutación pasa por CanTransition;
// la tabla es la única fuente de verdad de transiciones.
type OrderStatus string

const (
	OrderStatusPending        OrderStatus = "pending"
	OrderStatusProcessing     OrderStatus = "processing"
	OrderStatusOnHold         OrderStatus = "on_hold"
	OrderStatusInPreparation  OrderStatus = "in_preparation"
	OrderStatusReadyForPickup OrderStatus = "ready_for_pickup"
	OrderStatusShipped        OrderStatus = "shipped"
	OrderStatusDelivered      OrderStatus = "delivered"
	OrderStatusCompleted      OrderStatus = "completed"
	OrderStatusCancelled      OrderStatus = "cancelled"
	OrderStatusRefunded       OrderStatus = "refunded"
	OrderStatusFailed         OrderStatus = "failed"
)

// AllOrderStatuses en orden estable (útil para validación y tests exhaustivos).
func AllOrderStatuses() []OrderStatus {
	return []OrderStatus{
		OrderStatusPending, OrderStatusProcessing, OrderStatusOnHold,
		OrderStatusInPreparation, OrderStatusReadyForPickup, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCompleted, OrderStatusCancelled,
		OrderStatusRefunded, OrderStatusFailed,
	}
}

// ParseOrderStatus valida un string externo contra los estados conocidos.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	st := OrderStatus(s)
	for _, known := range AllOrderStatuses() {
		if st == known {
			return st, true
		}
	}
	return "", false
}

// validNext: tabla central de transiciones permitidas.
// delivered es cuasi-terminal: solo admite completed/refunded.
// cancelled y refunded son terminales duros. failed solo permite reintento.
var validNext = map[OrderStatus]map[OrderStatus]bool{
	OrderStatusPending: {
		OrderStatusProcessing: true, OrderStatusOnHold: true,
		OrderStatusCancelled: true, OrderStatusFailed: true,
	},
	OrderStatusProcessing: {
		OrderStatusInPreparation: true, OrderStatusReadyForPickup: true,
		OrderStatusShipped: true, OrderStatusCompleted: true,
		OrderStatusOnHold: true, OrderStatusCancelled: true, OrderStatusRefunded: true,
	},
	OrderStatusOnHold: {
		OrderStatusPending: true, OrderStatusProcessing: true, OrderStatusCancelled: true,
	},
	OrderStatusInPreparation: {
		OrderStatusReadyForPickup: true, OrderStatusShipped: true,
		OrderStatusOnHold: true, OrderStatusCancelled: true,
	},
	OrderStatusReadyForPickup: {
		OrderStatusDelivered: true, OrderStatusCompleted: true, OrderStatusCancelled: true,
	},
	OrderStatusShipped: {
		OrderStatusDelivered: true, OrderStatusCompleted: true, OrderStatusRefunded: true,
	},
	OrderStatusDelivered: {
		OrderStatusCompleted: true, OrderStatusRefunded: true,
	},
	OrderStatusCompleted: {
		OrderStatusRefunded: true, // reembolso post-completado; única salida
	},
	OrderStatusCancelled: {},
	OrderStatusRefunded:  {},
	OrderStatusFailed: {
		OrderStatusPending: true, // solo la ruta de reintento
	},
}

// CanTransition responde si el cambio from → to está permitido.
// Toda mutación de estado de pedido debe consultarla.
func CanTransition(from, to OrderStatus) bool {
	return validNext[from][to]
}

// IsFinal: el pedido terminó su ciclo de pago/cumplimiento. delivered cuenta
// como final aunque la tabla aún permita completed/refunded desde ahí.
func (s OrderStatus) IsFinal() bool {
	switch s {
	case OrderStatusCompleted, OrderStatusCancelled, OrderStatusRefunded,
		OrderStatusDelivered, OrderStatusFailed:
		return true
	}
	return false
}

// IsActive: el pedido sigue avanzando hacia el cumplimiento.
func (s OrderStatus) IsActive() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusOnHold,
		OrderStatusInPreparation, OrderStatusReadyForPickup, OrderStatusShipped:
		return true
	}
	return false
}

// RequiresPayment: solo pending espera captura de pago.
func (s OrderStatus) RequiresPayment() bool {
	return s == OrderStatusPending
}

// IsPaid: estados en o después de la captura exitosa del pago.
// on_hold puede volver a pending, así que no se asume capturado.
func (s OrderStatus) IsPaid() bool {
	switch s {
	case OrderStatusProcessing, OrderStatusInPreparation, OrderStatusReadyForPickup,
		OrderStatusShipped, OrderStatusDelivered, OrderStatusCompleted, OrderStatusRefunded:
		return true
	}
	return false
}
