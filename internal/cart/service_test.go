package cart

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeMC777/markethub/internal/apperr"
)

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

// memRepo is an in-memory cart with the same line-identity semantics as
// the unique index: one row per (product, variant) pair per user.
type memRepo struct {
	lines map[string][]Line // by user
}

func newMemRepo() *memRepo { return &memRepo{lines: map[string][]Line{}} }

func (r *memRepo) Lines(ctx context.Context, userID string) ([]Line, error) {
	return append([]Line(nil), r.lines[userID]...), nil
}

func (r *memRepo) SelectedLines(ctx context.Context, userID string, keys []LineKey) ([]Line, error) {
	var out []Line
	for _, l := range r.lines[userID] {
		for _, k := range keys {
			if k.Matches(l.ProductID, l.VariantID) {
				out = append(out, l)
			}
		}
	}
	return out, nil
}

func (r *memRepo) Upsert(ctx context.Context, userID string, key LineKey, quantity int) error {
	for i, l := range r.lines[userID] {
		if key.Matches(l.ProductID, l.VariantID) {
			r.lines[userID][i].Quantity += quantity
			return nil
		}
	}
	r.lines[userID] = append(r.lines[userID], Line{
		ProductID:    key.ProductID,
		ProductName:  key.ProductID,
		ProductPrice: dec("10.00"),
		ShopID:       "shop-1",
		ShopName:     "Shop One",
		VariantID:    key.VariantID,
		Quantity:     quantity,
	})
	return nil
}

func (r *memRepo) SetQuantity(ctx context.Context, userID string, key LineKey, quantity int) error {
	for i, l := range r.lines[userID] {
		if key.Matches(l.ProductID, l.VariantID) {
			r.lines[userID][i].Quantity = quantity
			return nil
		}
	}
	return apperr.NotFoundf("cart line not found")
}

func (r *memRepo) Remove(ctx context.Context, userID string, key LineKey) error {
	kept := r.lines[userID][:0]
	for _, l := range r.lines[userID] {
		if !key.Matches(l.ProductID, l.VariantID) {
			kept = append(kept, l)
		}
	}
	r.lines[userID] = kept
	return nil
}

func (r *memRepo) RemoveKeys(ctx context.Context, userID string, keys []LineKey) error {
	for _, k := range keys {
		if err := r.Remove(ctx, userID, k); err != nil {
			return err
		}
	}
	return nil
}

func (r *memRepo) Clear(ctx context.Context, userID string) error {
	r.lines[userID] = nil
	return nil
}

type stubImages struct{ byProduct map[string]string }

func (s *stubImages) FirstImages(ctx context.Context, ids []string) (map[string]string, error) {
	return s.byProduct, nil
}

func TestAdd_SamePairIncrementsOneLine(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo, &stubImages{byProduct: map[string]string{}})

	key := LineKey{ProductID: "p1"}
	_, err := svc.Add(context.Background(), "u1", key, 2)
	require.NoError(t, err)
	view, err := svc.Add(context.Background(), "u1", key, 3)
	require.NoError(t, err)

	require.Len(t, view.GroupedItems, 1)
	require.Len(t, view.GroupedItems[0].Items, 1, "same pair must not append a second line")
	assert.Equal(t, 5, view.GroupedItems[0].Items[0].Quantity)
	assert.Equal(t, 5, view.TotalQuantity)
}

func TestAdd_DifferentVariantIsDifferentLine(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo, &stubImages{byProduct: map[string]string{}})

	varA := "var-a"
	_, err := svc.Add(context.Background(), "u1", LineKey{ProductID: "p1"}, 1)
	require.NoError(t, err)
	view, err := svc.Add(context.Background(), "u1", LineKey{ProductID: "p1", VariantID: &varA}, 1)
	require.NoError(t, err)

	require.Len(t, view.GroupedItems, 1)
	assert.Len(t, view.GroupedItems[0].Items, 2)
}

func TestAdd_RejectsBadQuantity(t *testing.T) {
	svc := NewService(newMemRepo(), &stubImages{})

	_, err := svc.Add(context.Background(), "u1", LineKey{ProductID: "p1"}, 0)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	_, err = svc.Add(context.Background(), "u1", LineKey{ProductID: "p1"}, -2)
	require.Error(t, err)
}

func TestGet_GroupsByShopWithTotals(t *testing.T) {
	repo := newMemRepo()
	repo.lines["u1"] = []Line{
		{ProductID: "p1", ProductName: "Tea", ProductPrice: dec("20.00"), ShopID: "shop-a", ShopName: "A", Quantity: 2},
		{ProductID: "p2", ProductName: "Cup", ProductPrice: dec("5.00"), ShopID: "shop-b", ShopName: "B", Quantity: 1},
	}
	svc := NewService(repo, &stubImages{byProduct: map[string]string{"p1": "/img/tea.jpg"}})

	view, err := svc.Get(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, view.GroupedItems, 2)
	assert.Equal(t, "/img/tea.jpg", view.GroupedItems[0].Items[0].Image)
	assert.Equal(t, "/placeholder.jpg", view.GroupedItems[1].Items[0].Image, "missing image falls back to placeholder")
	assert.True(t, view.TotalPrice.Equal(dec("45.00")), "got %s", view.TotalPrice)
	assert.Equal(t, 3, view.TotalQuantity)
}

func TestGet_VariantPriceWinsInView(t *testing.T) {
	repo := newMemRepo()
	varID := "var-1"
	repo.lines["u1"] = []Line{{
		ProductID: "p1", ProductName: "Tee", ProductPrice: dec("90.00"),
		ShopID: "shop-a", ShopName: "A",
		VariantID: &varID, VariantName: "Tee / XL", VariantPrice: dec("110.00"),
		Quantity: 1,
	}}
	svc := NewService(repo, &stubImages{byProduct: map[string]string{}})

	view, err := svc.Get(context.Background(), "u1")
	require.NoError(t, err)
	item := view.GroupedItems[0].Items[0]
	assert.True(t, item.UnitPrice.Equal(dec("110.00")), "got %s", item.UnitPrice)
	assert.True(t, view.TotalPrice.Equal(dec("110.00")))
}

func TestUpdate_MissingLineIsNotFound(t *testing.T) {
	svc := NewService(newMemRepo(), &stubImages{})
	_, err := svc.Update(context.Background(), "u1", LineKey{ProductID: "ghost"}, 2)
	require.Error(t, err)
	assert.True(t, apperr.IsNotFound(err))
}

func TestRemove_IsIdempotent(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo, &stubImages{byProduct: map[string]string{}})

	_, err := svc.Add(context.Background(), "u1", LineKey{ProductID: "p1"}, 1)
	require.NoError(t, err)
	_, err = svc.Remove(context.Background(), "u1", LineKey{ProductID: "p1"})
	require.NoError(t, err)
	view, err := svc.Remove(context.Background(), "u1", LineKey{ProductID: "p1"})
	require.NoError(t, err, "removing an absent line is not an error")
	assert.Empty(t, view.GroupedItems)
}

func TestClear_EmptiesCart(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo, &stubImages{byProduct: map[string]string{}})
	_, _ = svc.Add(context.Background(), "u1", LineKey{ProductID: "p1"}, 4)

	view, err := svc.Clear(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, view.GroupedItems)
	assert.Equal(t, 0, view.TotalQuantity)
}
