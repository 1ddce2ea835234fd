package cart

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"eato/internal/domain"
	"eato/internal/metrics"
	orderrepo "eato/internal/repository/order"
	"eato/internal/repository/orderline"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const defaultConcurrency = 8

// Identity resolves the signed-in user for a request.
type Identity interface {
	CurrentUser(ctx context.Context) (*domain.User, bool)
}

type menuLookup interface {
	GetRaw(ctx context.Context, id string) (*domain.MenuItem, error)
}

// Backend bundles the collaborators the cart works against.
type Backend struct {
	Lines    orderline.Repository
	Orders   orderrepo.Repository
	Identity Identity
}

type Options struct {
	// MaxConcurrency bounds in-flight store writes per pass. Zero means 8.
	MaxConcurrency int
	Metrics        *metrics.Cart
}

// Service aggregates, reconciles and checks out carts.
type Service struct {
	lines    orderline.Repository
	orders   orderrepo.Repository
	identity Identity
	menu     menuLookup
	logger   *log.Logger
	metrics  *metrics.Cart
	tracer   trace.Tracer
	limit    int
	loads    singleflight.Group
	locks    *userLocks
}

func New(b Backend, menu menuLookup, logger *log.Logger, opts Options) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	limit := opts.MaxConcurrency
	if limit <= 0 {
		limit = defaultConcurrency
	}
	return &Service{
		lines:    b.Lines,
		orders:   b.Orders,
		identity: b.Identity,
		menu:     menu,
		logger:   logger,
		metrics:  opts.Metrics,
		tracer:   otel.Tracer("eato/internal/service/cart"),
		limit:    limit,
		locks:    newUserLocks(),
	}
}

// Load returns the consolidated cart of the current user. Concurrent loads for
// the same user share one store round trip.
func (s *Service) Load(ctx context.Context) (entries []domain.CartEntry, err error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "cart.Load")
	defer func() {
		endSpan(span, err)
		s.metrics.Since("load", start)
		s.metrics.Load(outcome(err))
	}()

	u, err := s.currentUser(ctx)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("user.id", u.ID))

	v, err, shared := s.loads.Do(u.ID, func() (any, error) {
		return s.load(context.WithoutCancel(ctx), u.ID)
	})
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Bool("cart.shared_load", shared))
	return cloneEntries(v.([]domain.CartEntry)), nil
}

// load repairs unfinished checkouts and then aggregates the pending lines that
// do not belong to any order.
func (s *Service) load(ctx context.Context, uid string) ([]domain.CartEntry, error) {
	claimed, err := s.repairIncomplete(ctx, uid)
	if err != nil {
		return nil, err
	}
	lines, err := s.lines.Query(ctx, orderline.Filter{UserID: uid, Status: domain.LineStatusPending})
	if err != nil {
		s.logger.Printf("cart: load uid=%s error=%v", uid, err)
		return nil, unavailable(err)
	}
	if len(claimed) > 0 {
		kept := lines[:0:0]
		for _, l := range lines {
			if _, ok := claimed[l.ID]; !ok {
				kept = append(kept, l)
			}
		}
		lines = kept
	}
	return Aggregate(lines), nil
}

// repairIncomplete re-flips the lines of the user's incomplete orders. It
// returns every line id those orders claim, whether or not the repair worked.
func (s *Service) repairIncomplete(ctx context.Context, uid string) (map[string]struct{}, error) {
	pending, err := s.orders.ListIncomplete(ctx, uid)
	if err != nil {
		s.logger.Printf("cart: list incomplete orders uid=%s error=%v", uid, err)
		return nil, unavailable(err)
	}
	if len(pending) == 0 {
		return nil, nil
	}
	claimed := make(map[string]struct{})
	for _, o := range pending {
		for _, id := range o.LineIDs {
			claimed[id] = struct{}{}
		}
		failed, _ := s.placeLines(ctx, o.LineIDs, true)
		if len(failed) > 0 {
			s.logger.Printf("cart: repair order=%s unplaced=%d", o.ID, len(failed))
			s.metrics.Repair("failed")
			continue
		}
		if err := s.orders.SetSyncState(ctx, o.ID, domain.SyncStateComplete); err != nil {
			s.logger.Printf("cart: repair order=%s mark complete error=%v", o.ID, err)
			s.metrics.Repair("failed")
			continue
		}
		s.logger.Printf("cart: repaired order=%s lines=%d", o.ID, len(o.LineIDs))
		s.metrics.Repair("ok")
	}
	return claimed, nil
}

// claimedLines returns the ids recorded on the user's incomplete orders. Those
// lines belong to an order and must not be edited through the cart.
func (s *Service) claimedLines(ctx context.Context, uid string) (map[string]struct{}, error) {
	pending, err := s.orders.ListIncomplete(ctx, uid)
	if err != nil {
		s.logger.Printf("cart: list incomplete orders uid=%s error=%v", uid, err)
		return nil, unavailable(err)
	}
	claimed := make(map[string]struct{})
	for _, o := range pending {
		for _, id := range o.LineIDs {
			claimed[id] = struct{}{}
		}
	}
	return claimed, nil
}

// AddItem records one add-to-cart action. A zero quantity means one.
func (s *Service) AddItem(ctx context.Context, menuItemID string, quantity int) (line *domain.OrderLine, err error) {
	ctx, span := s.tracer.Start(ctx, "cart.AddItem")
	defer func() { endSpan(span, err) }()

	u, err := s.currentUser(ctx)
	if err != nil {
		return nil, err
	}
	if !validQuantity(quantity) {
		return nil, ErrInvalidQuantity
	}
	if quantity == 0 {
		quantity = 1
	}
	item, err := s.menu.GetRaw(ctx, menuItemID)
	if err != nil {
		return nil, unavailable(err)
	}

	release := s.locks.lock(u.ID)
	defer release()

	created, err := s.lines.Create(ctx, domain.OrderLine{
		UserID:         u.ID,
		MenuItemID:     item.ID,
		MenuItemName:   item.Name,
		UnitPriceCents: item.PriceCents,
		Quantity:       quantity,
		Status:         domain.LineStatusPending,
	})
	s.metrics.Mutation("create", outcome(err))
	if err != nil {
		s.logger.Printf("cart: add item uid=%s item=%s error=%v", u.ID, menuItemID, err)
		return nil, unavailable(err)
	}
	return created, nil
}

// Orders lists the current user's orders, newest first.
func (s *Service) Orders(ctx context.Context) ([]domain.Order, error) {
	u, err := s.currentUser(ctx)
	if err != nil {
		return nil, err
	}
	orders, err := s.orders.ListByUser(ctx, u.ID)
	if err != nil {
		return nil, unavailable(err)
	}
	return orders, nil
}

// Order returns one of the current user's orders.
func (s *Service) Order(ctx context.Context, id string) (*domain.Order, error) {
	u, err := s.currentUser(ctx)
	if err != nil {
		return nil, err
	}
	o, err := s.orders.Get(ctx, u.ID, id)
	if err != nil {
		return nil, unavailable(err)
	}
	return o, nil
}

func (s *Service) currentUser(ctx context.Context) (*domain.User, error) {
	if s.identity == nil {
		return nil, domain.ErrAuthenticationRequired
	}
	u, ok := s.identity.CurrentUser(ctx)
	if !ok || u == nil || u.ID == "" {
		return nil, domain.ErrAuthenticationRequired
	}
	return u, nil
}

// fanOut calls fn for 0..n-1 with at most s.limit calls in flight and
// returns each call's error by index. Every call runs; none cancels another.
func (s *Service) fanOut(n int, fn func(i int) error) []error {
	errs := make([]error, n)
	var g errgroup.Group
	g.SetLimit(s.limit)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			errs[i] = fn(i)
			return nil
		})
	}
	_ = g.Wait()
	return errs
}

// placeLines flips every line to placed. Lines that no longer exist count as
// failed unless missingOK is set.
func (s *Service) placeLines(ctx context.Context, ids []string, missingOK bool) ([]string, error) {
	placed := domain.LineStatusPlaced
	errs := s.fanOut(len(ids), func(i int) error {
		err := s.lines.Update(ctx, ids[i], orderline.Patch{Status: &placed})
		s.metrics.Mutation("place", outcome(err))
		if missingOK && errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	})
	return collectFailures(ids, errs)
}

func collectFailures(ids []string, errs []error) ([]string, error) {
	var failed []string
	var joined []error
	for i, err := range errs {
		if err == nil {
			continue
		}
		failed = append(failed, ids[i])
		joined = append(joined, fmt.Errorf("line %s: %w", ids[i], err))
	}
	return failed, errors.Join(joined...)
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
