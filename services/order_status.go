package services

import "storefront-service/models"

// orderTransitions lists the statuses reachable from each status in one step.
// Cancelled and Completed are terminal.
var orderTransitions = map[models.OrderStatus][]models.OrderStatus{
	models.OrderStatusProcessing: {models.OrderStatusShipped, models.OrderStatusCancelled},
	models.OrderStatusShipped:    {models.OrderStatusDelivered, models.OrderStatusCancelled},
	models.OrderStatusDelivered:  {models.OrderStatusCompleted},
	models.OrderStatusCancelled:  {},
	models.OrderStatusCompleted:  {},
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to models.OrderStatus) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// AllowedTransitions returns the statuses reachable from s.
func AllowedTransitions(s models.OrderStatus) []models.OrderStatus {
	return append([]models.OrderStatus(nil), orderTransitions[s]...)
}
