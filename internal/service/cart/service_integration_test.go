package cart

import (
	"context"
	"testing"

	"eato/internal/domain"
	menurepo "eato/internal/repository/menu"
	orderrepo "eato/internal/repository/order"
	"eato/internal/repository/orderline"
	authsvc "eato/internal/service/auth"
	menusvc "eato/internal/service/menu"
	"eato/internal/testutil/pgtest"
)

func TestCartRoundTripAgainstPostgres(t *testing.T) {
	ctx := context.Background()
	pool := pgtest.Pool(ctx, t)

	items := menurepo.NewPostgres(pool, nil)
	padThai, err := items.Upsert(ctx, domain.MenuItem{Key: "pad-thai", Name: "Pad Thai", Category: "Noodles", PriceCents: 1250})
	if err != nil {
		t.Fatalf("seed menu: %v", err)
	}

	lines := orderline.NewPostgres(pool, nil)
	orders := orderrepo.NewPostgres(pool, nil)
	svc := New(Backend{
		Lines:    lines,
		Orders:   orders,
		Identity: authsvc.ContextIdentity{},
	}, menusvc.New(items, nil, nil), nil, Options{MaxConcurrency: 2})

	uid := pgtest.InsertUser(ctx, t, pool, "erin@example.com")
	ctx = authsvc.WithUser(ctx, &domain.User{ID: uid, Email: "erin@example.com"})

	for i := 0; i < 2; i++ {
		if _, err := svc.AddItem(ctx, padThai.ID, 2); err != nil {
			t.Fatalf("add item: %v", err)
		}
	}

	entries, err := svc.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(entries) != 1 || entries[0].Quantity != 4 || len(entries[0].SourceLineIDs) != 2 {
		t.Fatalf("expected one entry of 4 over 2 lines, got %+v", entries)
	}

	entries[0].Quantity = 3
	if err := svc.Reconcile(ctx, entries); err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	entries, err = svc.Load(ctx)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(entries) != 1 || entries[0].Quantity != 3 {
		t.Fatalf("expected quantity 3 after reconcile, got %+v", entries)
	}

	orderID, err := svc.Checkout(ctx)
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}

	placed, err := svc.Order(ctx, orderID)
	if err != nil {
		t.Fatalf("order: %v", err)
	}
	if placed.SubtotalCents != 3750 || placed.TaxCents != 263 || placed.DeliveryCents != 299 || placed.TotalCents != 4312 {
		t.Fatalf("unexpected totals: %+v", placed)
	}
	if placed.SyncState != domain.SyncStateComplete {
		t.Fatalf("expected complete sync state, got %q", placed.SyncState)
	}

	entries, err = svc.Load(ctx)
	if err != nil {
		t.Fatalf("load after checkout: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty cart after checkout, got %+v", entries)
	}

	stored, err := lines.Query(ctx, orderline.Filter{UserID: uid, Status: domain.LineStatusPlaced})
	if err != nil {
		t.Fatalf("query placed lines: %v", err)
	}
	if len(stored) != 2 {
		t.Fatalf("expected 2 placed lines, got %d", len(stored))
	}
}
