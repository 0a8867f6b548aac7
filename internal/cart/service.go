package cart

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/MikeMC777/markethub/internal/apperr"
)

// ImageSource supplies the first image per product for cart views.
type ImageSource interface {
	FirstImages(ctx context.Context, productIDs []string) (map[string]string, error)
}

const placeholderImage = "/placeholder.jpg"

type Service struct {
	repo   Repository
	images ImageSource
}

func NewService(repo Repository, images ImageSource) *Service {
	return &Service{repo: repo, images: images}
}

// Get returns the cart grouped by shop with per-line and cart totals.
func (s *Service) Get(ctx context.Context, userID string) (*View, error) {
	lines, err := s.repo.Lines(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.buildView(ctx, lines)
}

func (s *Service) buildView(ctx context.Context, lines []Line) (*View, error) {
	view := &View{GroupedItems: []ShopGroup{}, TotalPrice: decimal.Zero}
	if len(lines) == 0 {
		return view, nil
	}
	ids := make([]string, 0, len(lines))
	seen := map[string]bool{}
	for _, l := range lines {
		if !seen[l.ProductID] {
			seen[l.ProductID] = true
			ids = append(ids, l.ProductID)
		}
	}
	images, err := s.images.FirstImages(ctx, ids)
	if err != nil {
		return nil, err
	}

	groupIdx := map[string]int{}
	for _, l := range lines {
		img := images[l.ProductID]
		if img == "" {
			img = placeholderImage
		}
		unit := l.UnitPrice()
		item := ViewItem{
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			Image:       img,
			VariantID:   l.VariantID,
			VariantName: l.VariantName,
			UnitPrice:   unit,
			Quantity:    l.Quantity,
			LineTotal:   unit.Mul(decimal.NewFromInt(int64(l.Quantity))),
		}
		idx, ok := groupIdx[l.ShopID]
		if !ok {
			view.GroupedItems = append(view.GroupedItems, ShopGroup{ShopID: l.ShopID, ShopName: l.ShopName})
			idx = len(view.GroupedItems) - 1
			groupIdx[l.ShopID] = idx
		}
		view.GroupedItems[idx].Items = append(view.GroupedItems[idx].Items, item)
		view.TotalPrice = view.TotalPrice.Add(item.LineTotal)
		view.TotalQuantity += l.Quantity
	}
	return view, nil
}

// Add appends a line or increments the existing (product, variant) line.
func (s *Service) Add(ctx context.Context, userID string, key LineKey, quantity int) (*View, error) {
	if quantity < 1 {
		return nil, apperr.Validationf("quantity must be at least 1")
	}
	if key.ProductID == "" {
		return nil, apperr.Validationf("productId is required")
	}
	if err := s.repo.Upsert(ctx, userID, key, quantity); err != nil {
		return nil, err
	}
	return s.Get(ctx, userID)
}

// Update sets a line's quantity directly.
func (s *Service) Update(ctx context.Context, userID string, key LineKey, quantity int) (*View, error) {
	if quantity < 1 {
		return nil, apperr.Validationf("quantity must be at least 1")
	}
	if err := s.repo.SetQuantity(ctx, userID, key, quantity); err != nil {
		return nil, err
	}
	return s.Get(ctx, userID)
}

func (s *Service) Remove(ctx context.Context, userID string, key LineKey) (*View, error) {
	if err := s.repo.Remove(ctx, userID, key); err != nil {
		return nil, err
	}
	return s.Get(ctx, userID)
}

func (s *Service) Clear(ctx context.Context, userID string) (*View, error) {
	if err := s.repo.Clear(ctx, userID); err != nil {
		return nil, err
	}
	return s.Get(ctx, userID)
}
