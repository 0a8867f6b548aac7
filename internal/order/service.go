package order

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/MikeMC777/markethub/internal/apperr"
	"github.com/MikeMC777/markethub/internal/cart"
	"github.com/MikeMC777/markethub/internal/catalog"
	"github.com/MikeMC777/markethub/internal/user"
	"github.com/MikeMC777/markethub/internal/voucher"
)

type CatalogSource interface {
	GetProduct(ctx context.Context, id string) (*catalog.Product, error)
	GetVariant(ctx context.Context, id string) (*catalog.Variant, error)
}

type VoucherSource interface {
	GetByID(ctx context.Context, id string) (*voucher.Voucher, error)
}

type CartSource interface {
	SelectedLines(ctx context.Context, userID string, keys []cart.LineKey) ([]cart.Line, error)
	RemoveKeys(ctx context.Context, userID string, keys []cart.LineKey) error
}

type AddressSource interface {
	GetAddress(ctx context.Context, id string) (*user.ShippingAddress, error)
}

// Notifier is the mail/push collaborator. Failures are the notifier's
// problem; the pipeline never fails on them.
type Notifier interface {
	OrderPlaced(ctx context.Context, userID, orderID string)
	OrderStatusChanged(ctx context.Context, userID, orderID, status string)
}

type Service struct {
	repo      Repository
	catalog   CatalogSource
	vouchers  VoucherSource
	carts     CartSource
	addresses AddressSource
	notifier  Notifier
	now       func() time.Time
}

func NewService(repo Repository, cat CatalogSource, vs VoucherSource, cs CartSource, as AddressSource, n Notifier) *Service {
	return &Service{repo: repo, catalog: cat, vouchers: vs, carts: cs, addresses: as, notifier: n, now: time.Now}
}

// pipelineLine is a resolved checkout line: authoritative unit price and
// the names used in failure messages.
type pipelineLine struct {
	ShopID      string
	ProductID   string
	ProductName string
	VariantID   *string
	VariantName string
	UnitPrice   decimal.Decimal
	Quantity    int
}

type CheckoutRequest struct {
	ShippingAddressID string         `json:"shipping_address_id"`
	SelectedItems     []cart.LineKey `json:"selectedItems"`
	VoucherID         *string        `json:"voucher_id,omitempty"`
}

type DirectItem struct {
	ProductID string  `json:"product_id"`
	VariantID *string `json:"variant_id,omitempty"`
	Quantity  int     `json:"quantity"`
}

type DirectCheckoutRequest struct {
	ShippingAddressID string       `json:"shipping_address_id"`
	Items             []DirectItem `json:"items"`
	VoucherID         *string      `json:"voucher_id,omitempty"`
}

// CheckoutResult reports every order that committed plus the first
// partition failure, if any. Partitions are independent units: earlier
// orders are never rolled back by a later shop's failure.
type CheckoutResult struct {
	OrderIDs []string `json:"order_ids"`
	Err      error    `json:"-"`
}

// CheckoutFromCart converts the selected cart lines into one order per
// shop, then drops the consumed lines from the cart.
func (s *Service) CheckoutFromCart(ctx context.Context, userID string, req CheckoutRequest) (*CheckoutResult, error) {
	if len(req.SelectedItems) == 0 {
		return nil, apperr.Validationf("no items selected")
	}
	if err := s.checkAddress(ctx, userID, req.ShippingAddressID); err != nil {
		return nil, err
	}
	lines, err := s.carts.SelectedLines(ctx, userID, req.SelectedItems)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, apperr.Validationf("selected items not found in cart")
	}
	pls := make([]pipelineLine, 0, len(lines))
	for _, l := range lines {
		pls = append(pls, pipelineLine{
			ShopID:      l.ShopID,
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			VariantID:   l.VariantID,
			VariantName: l.VariantName,
			UnitPrice:   l.UnitPrice(),
			Quantity:    l.Quantity,
		})
	}
	res := s.runPipeline(ctx, userID, req.ShippingAddressID, req.VoucherID, pls, func(partition []pipelineLine) {
		keys := make([]cart.LineKey, 0, len(partition))
		for _, pl := range partition {
			keys = append(keys, cart.LineKey{ProductID: pl.ProductID, VariantID: pl.VariantID})
		}
		if err := s.carts.RemoveKeys(ctx, userID, keys); err != nil {
			log.Error().Err(err).Str("user_id", userID).Msg("failed to drop consumed cart lines")
		}
	})
	return res, nil
}

// CheckoutDirect places orders from an explicit item list, no cart.
func (s *Service) CheckoutDirect(ctx context.Context, userID string, req DirectCheckoutRequest) (*CheckoutResult, error) {
	if len(req.Items) == 0 {
		return nil, apperr.Validationf("items are required")
	}
	if err := s.checkAddress(ctx, userID, req.ShippingAddressID); err != nil {
		return nil, err
	}
	pls := make([]pipelineLine, 0, len(req.Items))
	for _, it := range req.Items {
		if it.Quantity < 1 {
			return nil, apperr.Validationf("quantity must be at least 1")
		}
		p, err := s.catalog.GetProduct(ctx, it.ProductID)
		if err != nil {
			return nil, err
		}
		pl := pipelineLine{
			ShopID:      p.ShopID,
			ProductID:   p.ID,
			ProductName: p.Name,
			UnitPrice:   p.Price,
			Quantity:    it.Quantity,
		}
		if it.VariantID != nil {
			v, err := s.catalog.GetVariant(ctx, *it.VariantID)
			if err != nil {
				return nil, err
			}
			if v.ProductID != p.ID {
				return nil, apperr.Validationf("variant does not belong to product %q", p.Name)
			}
			pl.VariantID = it.VariantID
			pl.VariantName = v.Name
			pl.UnitPrice = v.Price
		}
		pls = append(pls, pl)
	}
	return s.runPipeline(ctx, userID, req.ShippingAddressID, req.VoucherID, pls, nil), nil
}

func (s *Service) checkAddress(ctx context.Context, userID, addressID string) error {
	if addressID == "" {
		return apperr.Validationf("shipping_address_id is required")
	}
	a, err := s.addresses.GetAddress(ctx, addressID)
	if err != nil {
		return err
	}
	if a.UserID != userID {
		return apperr.Forbiddenf("shipping address belongs to another user")
	}
	return nil
}

// runPipeline partitions lines by shop and commits each partition in its
// own transaction. onCommitted runs per successful partition (the cart
// path uses it to drop consumed lines). The first failing partition
// stops the pipeline; committed partitions stay.
func (s *Service) runPipeline(ctx context.Context, userID, addressID string, voucherID *string, lines []pipelineLine, onCommitted func([]pipelineLine)) *CheckoutResult {
	var shopOrder []string
	partitions := map[string][]pipelineLine{}
	for _, l := range lines {
		if _, ok := partitions[l.ShopID]; !ok {
			shopOrder = append(shopOrder, l.ShopID)
		}
		partitions[l.ShopID] = append(partitions[l.ShopID], l)
	}

	var v *voucher.Voucher
	if voucherID != nil {
		var err error
		v, err = s.vouchers.GetByID(ctx, *voucherID)
		if err != nil {
			return &CheckoutResult{Err: err}
		}
		if v.ShopID != nil {
			applies := false
			for _, shopID := range shopOrder {
				if *v.ShopID == shopID {
					applies = true
					break
				}
			}
			if !applies {
				return &CheckoutResult{Err: apperr.Conflictf("voucher %q is not valid for this shop", v.Code)}
			}
		}
	}

	res := &CheckoutResult{}
	for _, shopID := range shopOrder {
		partition := partitions[shopID]
		o, items, ops, err := s.buildPartition(userID, addressID, shopID, partition, v)
		if err != nil {
			res.Err = err
			return res
		}
		if err := s.repo.CreateWithStock(ctx, o, items, ops); err != nil {
			res.Err = err
			return res
		}
		res.OrderIDs = append(res.OrderIDs, o.ID)
		if onCommitted != nil {
			onCommitted(partition)
		}
		s.notifier.OrderPlaced(ctx, userID, o.ID)
	}
	return res
}

// buildPartition prices one shop's lines and applies the voucher. All
// validation happens here, before any write for the partition.
func (s *Service) buildPartition(userID, addressID, shopID string, lines []pipelineLine, v *voucher.Voucher) (*Order, []Item, []StockOp, error) {
	orderID := uuid.NewString()
	subtotal := decimal.Zero
	items := make([]Item, 0, len(lines))
	ops := make([]StockOp, 0, len(lines))
	for _, l := range lines {
		subtotal = subtotal.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
		items = append(items, Item{
			ID:        uuid.NewString(),
			OrderID:   orderID,
			ProductID: l.ProductID,
			VariantID: l.VariantID,
			Quantity:  l.Quantity,
			Price:     l.UnitPrice,
		})
		name := l.ProductName
		if l.VariantID != nil {
			name = l.VariantName
		}
		ops = append(ops, StockOp{ProductID: l.ProductID, VariantID: l.VariantID, Quantity: l.Quantity, Name: name})
	}

	o := &Order{
		ID:                orderID,
		UserID:            userID,
		ShopID:            shopID,
		ShippingAddressID: addressID,
		Status:            StatusPending,
		TotalPrice:        subtotal,
	}
	if v != nil && (v.ShopID == nil || *v.ShopID == shopID) {
		if err := v.ValidateFor(subtotal, shopID, s.now()); err != nil {
			return nil, nil, nil, err
		}
		o.TotalPrice = subtotal.Sub(v.DiscountFor(subtotal))
		id := v.ID
		o.VoucherID = &id
	}
	return o, items, ops, nil
}

func (s *Service) Get(ctx context.Context, orderID string) (*Order, error) {
	return s.repo.GetByID(ctx, orderID)
}

type Detail struct {
	Order Order      `json:"order"`
	Items []ItemView `json:"items"`
}

func (s *Service) GetDetail(ctx context.Context, userID, orderID string) (*Detail, error) {
	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if userID != "" && o.UserID != userID {
		return nil, apperr.NotFoundf("order not found")
	}
	items, err := s.repo.GetItemViews(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return &Detail{Order: *o, Items: items}, nil
}

func (s *Service) ListMine(ctx context.Context, userID string) ([]Order, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *Service) ListByShop(ctx context.Context, shopID string) ([]Order, error) {
	return s.repo.ListByShop(ctx, shopID)
}

func (s *Service) ListAll(ctx context.Context, limit, offset int) ([]Order, error) {
	return s.repo.ListAll(ctx, limit, offset)
}

type EditRequest struct {
	ShippingAddressID *string `json:"shipping_address_id,omitempty"`
	VoucherID         *string `json:"voucher_id,omitempty"`
	RemoveVoucher     bool    `json:"remove_voucher,omitempty"`
}

// Edit changes address and/or voucher while the order is still pending.
// A voucher change recomputes the total from the stored item snapshots
// and settles both voucher quantities in the same transaction.
func (s *Service) Edit(ctx context.Context, userID, orderID string, req EditRequest) (*Order, error) {
	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, apperr.NotFoundf("order not found")
	}
	if o.Status != StatusPending {
		return nil, apperr.Conflictf("only pending orders can be edited")
	}

	if req.ShippingAddressID != nil {
		if err := s.checkAddress(ctx, userID, *req.ShippingAddressID); err != nil {
			return nil, err
		}
		o.ShippingAddressID = *req.ShippingAddressID
	}

	var restoreID, redeemID *string
	voucherChanged := req.RemoveVoucher || req.VoucherID != nil
	if voucherChanged {
		items, err := s.repo.GetItems(ctx, orderID)
		if err != nil {
			return nil, err
		}
		subtotal := decimal.Zero
		for _, it := range items {
			subtotal = subtotal.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
		}

		oldID := o.VoucherID
		switch {
		case req.RemoveVoucher:
			o.VoucherID = nil
			o.TotalPrice = subtotal
		default:
			v, err := s.vouchers.GetByID(ctx, *req.VoucherID)
			if err != nil {
				return nil, err
			}
			if err := v.ValidateFor(subtotal, o.ShopID, s.now()); err != nil {
				return nil, err
			}
			o.TotalPrice = subtotal.Sub(v.DiscountFor(subtotal))
			id := v.ID
			o.VoucherID = &id
		}
		if oldID != nil && (o.VoucherID == nil || *oldID != *o.VoucherID) {
			restoreID = oldID
		}
		if o.VoucherID != nil && (oldID == nil || *oldID != *o.VoucherID) {
			redeemID = o.VoucherID
		}
	}

	if err := s.repo.EditPending(ctx, o, restoreID, redeemID); err != nil {
		return nil, err
	}
	return o, nil
}

// Cancel voids a pending order: stock goes back, sold floors at zero,
// the voucher use is returned.
func (s *Service) Cancel(ctx context.Context, userID, orderID string) error {
	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return err
	}
	if userID != "" && o.UserID != userID {
		return apperr.NotFoundf("order not found")
	}
	if o.Status != StatusPending {
		return apperr.Conflictf("only pending orders can be cancelled")
	}
	items, err := s.repo.GetItems(ctx, orderID)
	if err != nil {
		return err
	}
	if err := s.repo.Cancel(ctx, o, items); err != nil {
		return err
	}
	s.notifier.OrderStatusChanged(ctx, o.UserID, o.ID, StatusCancelled)
	return nil
}

// UpdateStatus drives the forward machine on behalf of sellers/admins.
// cancelled routes through the full cancel flow so stock and voucher
// restoration always happen.
func (s *Service) UpdateStatus(ctx context.Context, orderID, status string) error {
	if !ValidStatus(status) {
		return apperr.Validationf("invalid status %q", status)
	}
	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return err
	}
	if !CanTransition(o.Status, status) {
		return apperr.Conflictf("order cannot move from %s to %s", o.Status, status)
	}
	switch status {
	case StatusCancelled:
		return s.Cancel(ctx, "", orderID)
	case StatusCompleted:
		if err := s.repo.Complete(ctx, orderID); err != nil {
			return err
		}
	default:
		if err := s.repo.Transition(ctx, orderID, []string{o.Status}, status); err != nil {
			return err
		}
	}
	s.notifier.OrderStatusChanged(ctx, o.UserID, o.ID, status)
	return nil
}

// AdvancePaid moves a pending order forward after a confirmed payment.
func (s *Service) AdvancePaid(ctx context.Context, orderID string) error {
	if err := s.repo.Transition(ctx, orderID, []string{StatusPending}, StatusProcessing); err != nil {
		return err
	}
	if o, err := s.repo.GetByID(ctx, orderID); err == nil {
		s.notifier.OrderStatusChanged(ctx, o.UserID, o.ID, StatusProcessing)
	}
	return nil
}
