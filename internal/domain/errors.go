package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	// Validación de entrada: se rechazan síncronos, nunca se aplican parcialmente.
	ErrInvalidQuantity = errors.New("cantidad inválida")
	ErrUnknownProduct  = errors.New("producto no encontrado")
	ErrUnknownMovement = errors.New("movimiento no encontrado")
	ErrUnknownOrder    = errors.New("pedido no encontrado")
	ErrUnknownCart     = errors.New("carrito no encontrado")

	// ErrInsufficientStock es un resultado de negocio esperado, no un bug del caller.
	ErrInsufficientStock = errors.New("stock insuficiente")

	// ErrInvalidTransition: el cambio de estado (movimiento o pedido) no está
	// permitido desde el estado actual. Nunca se corrige al estado válido más cercano.
	ErrInvalidTransition = errors.New("transición de estado no permitida")

	// ErrConcurrentModification: conflicto de lock/versión durante una transición.
	// El núcleo reintenta un número acotado de veces antes de propagarlo;
	// para el caller significa "reintentar la operación completa".
	ErrConcurrentModification = errors.New("modificación concurrente")

	// ErrConfiguration: colaborador mal configurado (ej. reloj ausente).
	ErrConfiguration = errors.New("configuración inválida")
)
