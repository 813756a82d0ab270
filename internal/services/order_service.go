package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"grocerly/internal/domain"
	"grocerly/internal/repos"
	"grocerly/internal/validate"
)

// ErrOrderReload means the order was committed but could not be read back.
var ErrOrderReload = errors.New("order placed but could not be reloaded")

const numberAttempts = 3

// OrderStore is the persistence the order flow needs. *repos.OrderRepo implements it.
type OrderStore interface {
	Create(ctx context.Context, o *domain.Order, items []domain.OrderItem, nextNumber func() string, attempts int) (int64, error)
	Get(ctx context.Context, orderID int64) (domain.Order, error)
	GetOwned(ctx context.Context, orderID, userID int64) (domain.Order, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.Order, error)
	Cancel(ctx context.Context, orderID, userID int64, fee decimal.Decimal) error
	UpdateStatus(ctx context.Context, orderID int64, from, to domain.OrderStatus) error
}

// CartLine is one line of a checkout as the storefront sends it.
type CartLine struct {
	ID           int64            `json:"id" validate:"gt=0"`
	Name         string           `json:"name" validate:"required"`
	Price        *decimal.Decimal `json:"price" validate:"required"`
	Quantity     string           `json:"quantity" validate:"max=50"`
	CartQuantity *int             `json:"cartQuantity" validate:"omitempty,min=1,max=100"`
	Images       []string         `json:"images" validate:"max=10"`
}

// Count is the cart quantity, 1 when the line does not say.
func (l CartLine) Count() int {
	if l.CartQuantity == nil {
		return 1
	}
	return *l.CartQuantity
}

type UserData struct {
	Address       string `json:"address"`
	Username      string `json:"username"`
	Email         string `json:"email"`
	ContactNumber string `json:"contact_number"`
}

type CreateOrderInput struct {
	Items       []CartLine      `json:"items" validate:"dive"`
	ItemTotal   decimal.Decimal `json:"itemTotal"`
	DeliveryFee decimal.Decimal `json:"deliveryFee"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	UserData    *UserData       `json:"userData"`
}

// LineSum is the item total recomputed from the lines.
func (in CreateOrderInput) LineSum() decimal.Decimal {
	sum := decimal.Zero
	for _, l := range in.Items {
		if l.Price != nil {
			sum = sum.Add(l.Price.Mul(decimal.NewFromInt(int64(l.Count()))))
		}
	}
	return sum
}

// CancelledOrder is a cancelled order with its derived refund.
type CancelledOrder struct {
	domain.Order
	RefundAmount decimal.Decimal `json:"refundAmount"`
}

type OrderService struct {
	Orders OrderStore
	Users  *repos.UserRepo
	Fee    decimal.Decimal
	// NewNumber generates order numbers; nil uses OrderNumber.
	NewNumber func() string
}

func NewOrderService(orders OrderStore, users *repos.UserRepo, fee decimal.Decimal) *OrderService {
	return &OrderService{Orders: orders, Users: users, Fee: fee}
}

// OrderNumber is "ORD" + unix millis + a random suffix below 10000.
func OrderNumber() string {
	return fmt.Sprintf("ORD%d%d", time.Now().UnixMilli(), rand.Intn(10000))
}

func (s *OrderService) nextNumber() string {
	if s.NewNumber != nil {
		return s.NewNumber()
	}
	return OrderNumber()
}

func checkOrder(in CreateOrderInput) error {
	if len(in.Items) == 0 {
		return invalid("Order items are required")
	}
	if in.ItemTotal.IsZero() || in.TotalAmount.IsZero() {
		return invalid("Order totals are required")
	}
	if err := validate.Struct(in); err != nil {
		return invalid(err.Error())
	}
	for i, l := range in.Items {
		if l.Price.IsNegative() {
			return invalid(fmt.Sprintf("items[%d].price must be at least 0", i))
		}
	}
	switch {
	case in.ItemTotal.IsNegative():
		return invalid("itemTotal must be at least 0")
	case in.TotalAmount.IsNegative():
		return invalid("totalAmount must be at least 0")
	case in.DeliveryFee.IsNegative():
		return invalid("deliveryFee must be at least 0")
	}
	return nil
}

// snapshot fills the customer fields from userData, or from the stored profile when none was sent.
func (s *OrderService) snapshot(ctx context.Context, who *domain.Identity, data *UserData, o *domain.Order) error {
	if data != nil {
		o.DeliveryAddress = strings.TrimSpace(data.Address)
		o.CustomerName = strings.TrimSpace(data.Username)
		o.CustomerEmail = strings.TrimSpace(data.Email)
		o.CustomerContact = strings.TrimSpace(data.ContactNumber)
		return nil
	}
	o.CustomerName, o.CustomerEmail, o.CustomerContact = who.Username, who.Email, who.ContactNo
	if s.Users == nil {
		return nil
	}
	u, err := s.Users.ByID(ctx, who.UserID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return failed("Could not load profile", err)
	}
	o.DeliveryAddress = u.Address
	o.CustomerName, o.CustomerEmail, o.CustomerContact = u.Username, u.Email, u.ContactNumber
	return nil
}

// Create persists the header and all lines atomically and returns the reloaded order.
// On ErrOrderReload the returned order still carries the committed id and order number.
func (s *OrderService) Create(ctx context.Context, who *domain.Identity, in CreateOrderInput) (domain.Order, error) {
	if who == nil {
		return domain.Order{}, unauth("User not authenticated")
	}
	if err := checkOrder(in); err != nil {
		return domain.Order{}, err
	}

	o := domain.Order{
		UserID:      who.UserID,
		ItemTotal:   in.ItemTotal,
		DeliveryFee: in.DeliveryFee,
		TotalAmount: in.TotalAmount,
	}
	if err := s.snapshot(ctx, who, in.UserData, &o); err != nil {
		return domain.Order{}, err
	}

	items := make([]domain.OrderItem, len(in.Items))
	for i, l := range in.Items {
		n := l.Count()
		items[i] = domain.OrderItem{
			ProductID:       l.ID,
			ProductName:     strings.TrimSpace(l.Name),
			ProductQuantity: strings.TrimSpace(l.Quantity),
			ProductPrice:    *l.Price,
			CartQuantity:    n,
			ItemTotal:       l.Price.Mul(decimal.NewFromInt(int64(n))),
			ProductImages:   domain.ImageList(l.Images),
		}
	}

	id, err := s.Orders.Create(ctx, &o, items, s.nextNumber, numberAttempts)
	if err != nil {
		return domain.Order{}, failed("Could not place order", err)
	}

	placed, err := s.Orders.Get(ctx, id)
	if err != nil {
		return o, fmt.Errorf("%w: %s: %v", ErrOrderReload, o.OrderNumber, err)
	}
	return placed, nil
}

// History lists the caller's orders newest first.
func (s *OrderService) History(ctx context.Context, who *domain.Identity) ([]domain.Order, error) {
	if who == nil {
		return nil, unauth("User not authenticated")
	}
	out, err := s.Orders.ListByUser(ctx, who.UserID)
	if err != nil {
		return nil, failed("Could not load orders", err)
	}
	return out, nil
}

func cancellable(st domain.OrderStatus) error {
	switch st {
	case domain.StatusCancelled:
		return badState("Order is already cancelled")
	case domain.StatusDelivered:
		return badState("Cannot cancel delivered order")
	}
	return nil
}

func (s *OrderService) owned(ctx context.Context, orderID, userID int64) (domain.Order, error) {
	o, err := s.Orders.GetOwned(ctx, orderID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Order{}, notFound("Order not found")
	}
	if err != nil {
		return domain.Order{}, failed("Could not load order", err)
	}
	return o, nil
}

// Cancel charges the configured fee and returns the order with its refund and a confirmation message.
func (s *OrderService) Cancel(ctx context.Context, who *domain.Identity, orderID int64) (CancelledOrder, string, error) {
	if who == nil {
		return CancelledOrder{}, "", unauth("User not authenticated")
	}
	o, err := s.owned(ctx, orderID, who.UserID)
	if err != nil {
		return CancelledOrder{}, "", err
	}
	if err := cancellable(o.Status); err != nil {
		return CancelledOrder{}, "", err
	}

	if err := s.Orders.Cancel(ctx, orderID, who.UserID, s.Fee); err != nil {
		if !errors.Is(err, repos.ErrOrderStatusChanged) {
			return CancelledOrder{}, "", failed("Could not cancel order", err)
		}
		// Another request moved the order first.
		cur, gerr := s.owned(ctx, orderID, who.UserID)
		if gerr != nil {
			return CancelledOrder{}, "", gerr
		}
		if err := cancellable(cur.Status); err != nil {
			return CancelledOrder{}, "", err
		}
		return CancelledOrder{}, "", badState("Order can no longer be cancelled")
	}

	o, err = s.owned(ctx, orderID, who.UserID)
	if err != nil {
		return CancelledOrder{}, "", err
	}
	out := CancelledOrder{Order: o, RefundAmount: o.Refund()}
	msg := fmt.Sprintf("Order cancelled successfully. Cancellation fee: ₹%s. Refund amount: ₹%s",
		o.CancellationFee.String(), out.RefundAmount.String())
	return out, msg, nil
}

// Advance moves an order one fulfillment step forward.
func (s *OrderService) Advance(ctx context.Context, orderID int64, to domain.OrderStatus) (domain.Order, error) {
	if !to.Valid() {
		return domain.Order{}, invalid(fmt.Sprintf("Unknown status %q", to))
	}
	o, err := s.Orders.Get(ctx, orderID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Order{}, notFound("Order not found")
	}
	if err != nil {
		return domain.Order{}, failed("Could not load order", err)
	}
	if !o.Status.CanAdvanceTo(to) {
		return domain.Order{}, badState(fmt.Sprintf("Cannot move order from %s to %s", o.Status, to))
	}
	if err := s.Orders.UpdateStatus(ctx, orderID, o.Status, to); err != nil {
		if errors.Is(err, repos.ErrOrderStatusChanged) {
			return domain.Order{}, badState("Order status changed, reload and retry")
		}
		return domain.Order{}, failed("Could not update order", err)
	}
	o, err = s.Orders.Get(ctx, orderID)
	if err != nil {
		return domain.Order{}, failed("Could not load order", err)
	}
	return o, nil
}
