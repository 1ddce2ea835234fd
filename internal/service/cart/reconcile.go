package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"eato/internal/domain"
	"eato/internal/repository/orderline"
	"go.opentelemetry.io/otel/attribute"
)

type lineQty struct {
	ID       string
	Quantity int
}

// mutation is one store write produced by planAdjustment.
type mutation struct {
	LineID   string
	Delete   bool
	Quantity int
}

// planAdjustment computes the writes that move lines to a total of target.
// Shrinking deletes whole lines from the front while they fit in the
// remaining delta and trims the next one. Growing only touches the first line.
func planAdjustment(lines []lineQty, target int) ([]mutation, error) {
	if !validQuantity(target) {
		return nil, ErrInvalidQuantity
	}
	original := 0
	for _, l := range lines {
		original += l.Quantity
	}

	switch {
	case target == original:
		return nil, nil
	case target > original:
		if len(lines) == 0 {
			return nil, fmt.Errorf("no line left to grow: %w", domain.ErrNotFound)
		}
		first := lines[0]
		return []mutation{{LineID: first.ID, Quantity: first.Quantity + target - original}}, nil
	}

	delta := original - target
	var plan []mutation
	for _, l := range lines {
		if delta == 0 {
			break
		}
		if l.Quantity <= delta {
			plan = append(plan, mutation{LineID: l.ID, Delete: true})
			delta -= l.Quantity
			continue
		}
		plan = append(plan, mutation{LineID: l.ID, Quantity: l.Quantity - delta})
		delta = 0
	}
	return plan, nil
}

// Reconcile brings the store in line with the quantities the client holds.
// Each entry's Quantity is its target; SourceLineIDs name the lines it covers.
// Entries are applied one after another and a failing entry does not stop the
// rest. All failures are returned joined.
func (s *Service) Reconcile(ctx context.Context, entries []domain.CartEntry) (err error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "cart.Reconcile")
	defer func() {
		endSpan(span, err)
		s.metrics.Since("reconcile", start)
	}()

	u, err := s.currentUser(ctx)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if !validQuantity(e.Quantity) {
			return fmt.Errorf("entry %q: %w", e.Name, ErrInvalidQuantity)
		}
	}
	span.SetAttributes(attribute.String("user.id", u.ID), attribute.Int("cart.entries", len(entries)))

	release := s.locks.lock(u.ID)
	defer release()

	claimed, err := s.claimedLines(ctx, u.ID)
	if err != nil {
		return err
	}

	var errs []error
	for _, e := range entries {
		if err := s.reconcileEntry(ctx, u.ID, e, claimed); err != nil {
			s.logger.Printf("cart: reconcile uid=%s entry=%q error=%v", u.ID, e.Name, err)
			errs = append(errs, fmt.Errorf("entry %q: %w", e.Name, err))
		}
	}
	return errors.Join(errs...)
}

func (s *Service) reconcileEntry(ctx context.Context, uid string, e domain.CartEntry, claimed map[string]struct{}) error {
	current, err := s.readLines(ctx, uid, unclaimed(e.SourceLineIDs, claimed))
	if err != nil {
		return err
	}
	plan, err := planAdjustment(current, e.Quantity)
	if err != nil || len(plan) == 0 {
		return err
	}

	ids := make([]string, len(plan))
	errs := s.fanOut(len(plan), func(i int) error {
		m := plan[i]
		ids[i] = m.LineID
		if m.Delete {
			err := s.lines.Delete(ctx, m.LineID)
			s.metrics.Mutation("delete", outcome(err))
			return unavailable(err)
		}
		qty := m.Quantity
		err := s.lines.Update(ctx, m.LineID, orderline.Patch{Quantity: &qty})
		s.metrics.Mutation("update", outcome(err))
		return unavailable(err)
	})
	_, err = collectFailures(ids, errs)
	return err
}

// readLines re-reads the current quantities of ids in their given order.
// Lines that are gone, placed, or owned by someone else contribute nothing.
func (s *Service) readLines(ctx context.Context, uid string, ids []string) ([]lineQty, error) {
	found := make([]*domain.OrderLine, len(ids))
	errs := s.fanOut(len(ids), func(i int) error {
		l, err := s.lines.Get(ctx, ids[i])
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		if err != nil {
			return unavailable(err)
		}
		if l.UserID == uid && l.Status == domain.LineStatusPending {
			found[i] = l
		}
		return nil
	})
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	out := make([]lineQty, 0, len(ids))
	for _, l := range found {
		if l != nil {
			out = append(out, lineQty{ID: l.ID, Quantity: l.Quantity})
		}
	}
	return out, nil
}

// RemoveEntry deletes every line behind an entry. Deletes run independently;
// if some fail the rest stay deleted and a *PartialDeleteFailure lists the
// survivors. Lines already recorded on an unfinished order are left alone.
func (s *Service) RemoveEntry(ctx context.Context, e domain.CartEntry) (err error) {
	ctx, span := s.tracer.Start(ctx, "cart.RemoveEntry")
	defer func() { endSpan(span, err) }()

	u, err := s.currentUser(ctx)
	if err != nil {
		return err
	}
	release := s.locks.lock(u.ID)
	defer release()

	claimed, err := s.claimedLines(ctx, u.ID)
	if err != nil {
		return err
	}
	ids := unclaimed(e.SourceLineIDs, claimed)
	errs := s.fanOut(len(ids), func(i int) error {
		l, err := s.lines.Get(ctx, ids[i])
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		if err != nil {
			return unavailable(err)
		}
		if l.UserID != u.ID || l.Status != domain.LineStatusPending {
			return nil
		}
		err = s.lines.Delete(ctx, ids[i])
		s.metrics.Mutation("delete", outcome(err))
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return unavailable(err)
	})
	failed, joined := collectFailures(ids, errs)
	if len(failed) > 0 {
		s.logger.Printf("cart: remove entry uid=%s name=%q failed=%d", u.ID, e.Name, len(failed))
		return &PartialDeleteFailure{FailedLineIDs: failed, Err: joined}
	}
	return nil
}

// unclaimed drops blanks, duplicates and ids present in claimed, keeping order.
func unclaimed(ids []string, claimed map[string]struct{}) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok || id == "" {
			continue
		}
		seen[id] = struct{}{}
		if _, ok := claimed[id]; ok {
			continue
		}
		out = append(out, id)
	}
	return out
}
