package http

import "github.com/jhoicas/commerce-core/internal/domain/entity"

// statusMeta metadatos de presentación de cada estado de pedido. Son datos de
// la capa de interfaz: el dominio solo conoce la tabla de transiciones.
type statusMeta struct {
	Label string
	Color string
}

var orderStatusMeta = map[entity.OrderStatus]statusMeta{
	entity.OrderStatusPending:        {Label: "Pendiente", Color: "#f0ad4e"},
	entity.OrderStatusProcessing:     {Label: "Procesando", Color: "#5bc0de"},
	entity.OrderStatusOnHold:         {Label: "En espera", Color: "#aaaaaa"},
	entity.OrderStatusInPreparation:  {Label: "En preparación", Color: "#337ab7"},
	entity.OrderStatusReadyForPickup: {Label: "Listo para retiro", Color: "#9370db"},
	entity.OrderStatusShipped:        {Label: "Enviado", Color: "#0275d8"},
	entity.OrderStatusDelivered:      {Label: "Entregado", Color: "#5cb85c"},
	entity.OrderStatusCompleted:      {Label: "Completado", Color: "#449d44"},
	entity.OrderStatusCancelled:      {Label: "Cancelado", Color: "#d9534f"},
	entity.OrderStatusRefunded:       {Label: "Reembolsado", Color: "#c9302c"},
	entity.OrderStatusFailed:         {Label: "Fallido", Color: "#292b2c"},
}

// metaFor devuelve los metadatos del estado; un estado desconocido cae al crudo.
func metaFor(s entity.OrderStatus) statusMeta {
	if m, ok := orderStatusMeta[s]; ok {
		return m
	}
	return statusMeta{Label: string(s), Color: "#777777"}
}
