package entity

import "time"

// MovementType clasifica un movimiento de stock. El signo del efecto físico
// lo implica el tipo, salvo en adjustment donde la cantidad va con signo.
type MovementType string

const (
	MovementTypeIncrease    MovementType = "increase"    // entrada de stock
	MovementTypeDecrease    MovementType = "decrease"    // salida directa
	MovementTypeReturn      MovementType = "return"      // devolución de cliente
	MovementTypeReservation MovementType = "reservation" // reclamo pendiente contra el stock
	MovementTypeAdjustment  MovementType = "adjustment"  // ajuste manual (cantidad con signo)
	MovementTypeSale        MovementType = "sale"        // consumo definitivo (reserva finalizada)
	MovementTypeRelease     MovementType = "release"     // registro de liberación de una reserva (solo auditoría)
)

// MovementStatus es el ciclo de vida de un movimiento: pending pasa a exactamente
// un estado terminal y nunca retrocede ni cambia de terminal.
type MovementStatus string

const (
	MovementStatusPending   MovementStatus = "pending"
	MovementStatusCompleted MovementStatus = "completed"
	MovementStatusCancelled MovementStatus = "cancelled"
	MovementStatusExpired   MovementStatus = "expired"
)

// IsTerminal indica si el estado no admite más transiciones.
func (s MovementStatus) IsTerminal() bool {
	return s == MovementStatusCompleted || s == MovementStatusCancelled || s == MovementStatusExpired
}

// CanBecome valida la única transición permitida: pending → terminal.
func (s MovementStatus) CanBecome(to MovementStatus) bool {
	return s == MovementStatusPending && to.IsTerminal()
}

// Tipos de referencia débil de un movimiento hacia lo que lo causó.
// Es solo para lookup: la vida del referenciado es independiente.
const (
	RefTypeCartItem    = "cart_item"
	RefTypeOrderLine   = "order_line"
	RefTypeReservation = "reservation" // un sale/release apunta a la reserva que lo originó
)

// StockMovement es una entrada del ledger append-only de stock.
// Una vez terminal es un hecho inmutable: solo el status muta (pending → terminal),
// nunca cantidad, tipo ni producto.
type StockMovement struct {
	ID          string
	ProductID   string
	Type        MovementType
	Quantity    int64 // con signo solo en adjustment; en el resto el tipo implica el signo
	Status      MovementStatus
	ExpiresAt   *time.Time // solo significativo mientras Status = pending
	RefType     string
	RefID       string
	CreatedAt   time.Time
	CompletedAt *time.Time
	CancelledAt *time.Time
}

// PhysicalDelta devuelve el efecto del movimiento sobre el stock físico.
// Solo los movimientos completed afectan: increase/return suman, decrease/sale
// restan, adjustment aporta su cantidad con signo. reservation y release valen 0
// (la reserva solo cuenta como "reservado" mientras está pending; release es auditoría).
func (m *StockMovement) PhysicalDelta() int64 {
	if m.Status != MovementStatusCompleted {
		return 0
	}
	switch m.Type {
	case MovementTypeIncrease, MovementTypeReturn:
		return m.Quantity
	case MovementTypeDecrease, MovementTypeSale:
		return -m.Quantity
	case MovementTypeAdjustment:
		return m.Quantity
	default:
		return 0
	}
}

// ReservedDelta devuelve lo que el movimiento aporta al stock reservado:
// solo reservas pending cuentan.
func (m *StockMovement) ReservedDelta() int64 {
	if m.Type == MovementTypeReservation && m.Status == MovementStatusPending {
		return m.Quantity
	}
	return 0
}

// StockSummary es el resumen derivado (nunca almacenado) del stock de un producto.
type StockSummary struct {
	ProductID string
	Physical  int64
	Reserved  int64
	Available int64 // Physical - Reserved; el ledger lo recorta a ≥ 0 si no hay backorders
}
