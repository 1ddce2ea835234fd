package cart

import (
	"context"
	"time"

	"eato/internal/domain"
	"go.opentelemetry.io/otel/attribute"
)

const (
	// TaxRatePercent is applied to the subtotal.
	TaxRatePercent = 7
	// DeliveryFeeCents is the flat delivery charge.
	DeliveryFeeCents int64 = 299
)

// Totals is the priced summary of a cart, in cents.
type Totals struct {
	SubtotalCents int64 `json:"subtotalCents"`
	TaxCents      int64 `json:"taxCents"`
	DeliveryCents int64 `json:"deliveryCents"`
	TotalCents    int64 `json:"totalCents"`
}

// Price computes subtotal, tax (rounded half-up to the cent), delivery and total.
func Price(entries []domain.CartEntry) Totals {
	var subtotal int64
	for _, e := range entries {
		subtotal += e.UnitPriceCents * int64(e.Quantity)
	}
	tax := (subtotal*TaxRatePercent + 50) / 100
	return Totals{
		SubtotalCents: subtotal,
		TaxCents:      tax,
		DeliveryCents: DeliveryFeeCents,
		TotalCents:    subtotal + tax + DeliveryFeeCents,
	}
}

// snapshot copies entries into order items and collects every line id they cover.
func snapshot(entries []domain.CartEntry) ([]domain.OrderItem, []string) {
	items := make([]domain.OrderItem, 0, len(entries))
	var lineIDs []string
	for _, e := range entries {
		items = append(items, domain.OrderItem{
			MenuItemID:     e.MenuItemID,
			MenuItemName:   e.Name,
			UnitPriceCents: e.UnitPriceCents,
			Quantity:       e.Quantity,
		})
		lineIDs = append(lineIDs, e.SourceLineIDs...)
	}
	return items, lineIDs
}

// Checkout turns the user's current cart into a placed order and returns its id.
//
// The order is written first, carrying the ids of the lines it consumes and
// an incomplete sync state. The lines are then flipped to placed. If every
// flip succeeds the order is marked complete; otherwise a *CheckoutIncomplete
// is returned and the next Load finishes the job.
func (s *Service) Checkout(ctx context.Context) (orderID string, err error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "cart.Checkout")
	defer func() {
		endSpan(span, err)
		s.metrics.Since("checkout", start)
	}()

	u, err := s.currentUser(ctx)
	if err != nil {
		s.metrics.Checkout("unauthenticated")
		return "", err
	}
	release := s.locks.lock(u.ID)
	defer release()

	entries, err := s.load(ctx, u.ID)
	if err != nil {
		s.metrics.Checkout("failed")
		return "", err
	}
	if len(entries) == 0 {
		s.metrics.Checkout("empty")
		return "", ErrEmptyCart
	}

	totals := Price(entries)
	items, lineIDs := snapshot(entries)
	created, err := s.orders.Create(ctx, domain.Order{
		UserID:        u.ID,
		Items:         items,
		LineIDs:       lineIDs,
		SubtotalCents: totals.SubtotalCents,
		TaxCents:      totals.TaxCents,
		DeliveryCents: totals.DeliveryCents,
		TotalCents:    totals.TotalCents,
		Status:        domain.OrderStatusPlaced,
		PaymentStatus: domain.PaymentStatusPending,
		SyncState:     domain.SyncStateIncomplete,
	})
	if err != nil {
		s.logger.Printf("cart: checkout uid=%s create order error=%v", u.ID, err)
		s.metrics.Checkout("failed")
		return "", unavailable(err)
	}
	span.SetAttributes(
		attribute.String("order.id", created.ID),
		attribute.Int("order.lines", len(lineIDs)),
		attribute.Int64("order.total_cents", totals.TotalCents),
	)

	failed, flipErr := s.placeLines(ctx, lineIDs, false)
	if len(failed) > 0 {
		s.logger.Printf("cart: checkout order=%s unplaced=%d", created.ID, len(failed))
		s.metrics.Checkout("incomplete")
		return "", &CheckoutIncomplete{OrderID: created.ID, UnplacedLineIDs: failed, Err: unavailable(flipErr)}
	}
	if err := s.orders.SetSyncState(ctx, created.ID, domain.SyncStateComplete); err != nil {
		// Every line is placed; a later Load marks the order complete.
		s.logger.Printf("cart: checkout order=%s mark complete error=%v", created.ID, err)
	}
	s.logger.Printf("cart: checkout uid=%s order=%s total=%d", u.ID, created.ID, totals.TotalCents)
	s.metrics.Checkout("ok")
	return created.ID, nil
}
