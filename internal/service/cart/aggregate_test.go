package cart

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"eato/internal/domain"
	"eato/internal/repository/orderline"
)

func TestAggregate_GroupsByNameInEncounterOrder(t *testing.T) {
	lines := []domain.OrderLine{
		{ID: "a1", MenuItemID: "m1", MenuItemName: "Pad Thai", UnitPriceCents: 1250, Quantity: 2},
		{ID: "b1", MenuItemID: "m2", MenuItemName: "Spring Rolls", UnitPriceCents: 500, Quantity: 1},
		{ID: "a2", MenuItemID: "m1-old", MenuItemName: "Pad Thai", UnitPriceCents: 1100, Quantity: 3},
	}
	got := Aggregate(lines)
	want := []domain.CartEntry{
		{MenuItemID: "m1", Name: "Pad Thai", UnitPriceCents: 1250, Quantity: 5, SourceLineIDs: []string{"a1", "a2"}},
		{MenuItemID: "m2", Name: "Spring Rolls", UnitPriceCents: 500, Quantity: 1, SourceLineIDs: []string{"b1"}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected aggregation\n got %+v\nwant %+v", got, want)
	}
}

func TestAggregate_NoLines(t *testing.T) {
	got := Aggregate(nil)
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
}

func TestLoad_ZeroPendingLinesIsEmptyCart(t *testing.T) {
	f := newFixture()
	id := f.lines.seed(f.uid, "Pad Thai", 1250, 1)
	placed := domain.LineStatusPlaced
	if err := f.lines.Update(context.Background(), id, orderline.Patch{Status: &placed}); err != nil {
		t.Fatalf("update: %v", err)
	}

	entries, err := f.svc.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if entries == nil || len(entries) != 0 {
		t.Fatalf("expected empty cart, got %#v", entries)
	}
}

func TestLoad_OnlyCurrentUsersPendingLines(t *testing.T) {
	f := newFixture()
	mine := f.lines.seed(f.uid, "Pad Thai", 1250, 2)
	f.lines.seed("someone-else", "Pad Thai", 1250, 7)

	entries, err := f.svc.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(entries) != 1 || entries[0].Quantity != 2 || entries[0].SourceLineIDs[0] != mine {
		t.Fatalf("unexpected entries %+v", entries)
	}
}

func TestLoad_RequiresUser(t *testing.T) {
	f := newFixture()
	if _, err := anonymous(f).Load(context.Background()); !errors.Is(err, domain.ErrAuthenticationRequired) {
		t.Fatalf("expected ErrAuthenticationRequired, got %v", err)
	}
	if f.lines.queries != 0 {
		t.Fatalf("store should not be queried without a user")
	}
}

func TestLoad_StoreFailure(t *testing.T) {
	f := newFixture()
	f.lines.seed(f.uid, "Pad Thai", 1250, 1)
	f.lines.failQuery = errBoom

	entries, err := f.svc.Load(context.Background())
	if !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
	if !errors.Is(err, errBoom) {
		t.Fatalf("expected cause to be preserved, got %v", err)
	}
	if entries != nil {
		t.Fatalf("expected no partial result, got %+v", entries)
	}
}

func TestLoad_ReturnsIndependentCopies(t *testing.T) {
	f := newFixture()
	f.lines.seed(f.uid, "Pad Thai", 1250, 1)

	first, err := f.svc.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	first[0].Quantity = 99
	first[0].SourceLineIDs[0] = "tampered"

	second, err := f.svc.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if second[0].Quantity != 1 || second[0].SourceLineIDs[0] == "tampered" {
		t.Fatalf("second load affected by caller mutation: %+v", second[0])
	}
}

func TestLoad_ConcurrentCallers(t *testing.T) {
	f := newFixture()
	f.lines.seed(f.uid, "Pad Thai", 1250, 2)
	f.lines.seed(f.uid, "Spring Rolls", 500, 1)

	results := make(chan []domain.CartEntry, 16)
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		go func() {
			entries, err := f.svc.Load(context.Background())
			results <- entries
			errs <- err
		}()
	}
	for i := 0; i < 16; i++ {
		if err := <-errs; err != nil {
			t.Fatalf("load: %v", err)
		}
		if got := <-results; len(got) != 2 || got[0].Quantity != 2 {
			t.Fatalf("unexpected entries %+v", got)
		}
	}
}
