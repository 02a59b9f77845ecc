package services

import (
	"context"

	"jewelstock/models"

	"go.uber.org/zap"
)

// OpenOrderSource lists pending and partial orders oldest first with
// line items attached.
type OpenOrderSource interface {
	FindOpen(ctx context.Context) ([]models.Order, error)
}

// PendingAggregator computes outstanding (ordered but not received)
// quantities per product and weight in one pass over the open orders.
// It shares the outstanding definition with the allocation engine:
// qtyOrdered - qtyReceived, floored at zero per line before summing.
type PendingAggregator struct {
	orders OpenOrderSource
	log    *zap.Logger
}

func NewPendingAggregator(orders OpenOrderSource, log *zap.Logger) *PendingAggregator {
	return &PendingAggregator{orders: orders, log: log}
}

// PendingFor returns product -> weight -> outstanding qty. A nil
// product set means all products; an empty non-nil set returns nothing.
func (p *PendingAggregator) PendingFor(ctx context.Context, products map[models.ProductKey]bool) (map[models.ProductKey]map[string]int, error) {
	open, err := p.orders.FindOpen(ctx)
	if err != nil {
		return nil, err
	}

	out := map[models.ProductKey]map[string]int{}
	for _, order := range open {
		for _, line := range order.Items {
			key := line.Product()
			if products != nil && !products[key] {
				continue
			}
			outstanding := line.Outstanding()
			if outstanding == 0 {
				continue
			}
			if out[key] == nil {
				out[key] = map[string]int{}
			}
			out[key][line.WeightKey] += outstanding
		}
	}
	return out, nil
}
