package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

func init() {
	// Money goes over the wire as plain JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// ImageList is an ordered list of stored image filenames, persisted as a JSON array.
type ImageList []string

// Scan decodes the JSON column. Malformed content yields an empty list.
func (l *ImageList) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*l = ImageList{}
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("images: unsupported column type %T", src)
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		*l = ImageList{}
		return nil
	}
	*l = out
	return nil
}

func (l ImageList) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

type Product struct {
	ID        int64           `db:"id" json:"id"`
	Name      string          `db:"name" json:"name"`
	Category  string          `db:"category" json:"category"`
	Quantity  string          `db:"quantity" json:"quantity"` // display string, e.g. "500 ml"
	Price     decimal.Decimal `db:"price" json:"price"`
	Images    ImageList       `db:"images" json:"images"`
	ImageURLs []string        `db:"-" json:"imageUrls"`
	Details   string          `db:"details" json:"details"`
}

type OrderStatus string

const (
	StatusConfirmed      OrderStatus = "confirmed"
	StatusPreparing      OrderStatus = "preparing"
	StatusOutForDelivery OrderStatus = "out_for_delivery"
	StatusDelivered      OrderStatus = "delivered"
	StatusCancelled      OrderStatus = "cancelled"
)

// fulfillment is the only forward path; cancellation is handled separately.
var fulfillment = map[OrderStatus]OrderStatus{
	StatusConfirmed:      StatusPreparing,
	StatusPreparing:      StatusOutForDelivery,
	StatusOutForDelivery: StatusDelivered,
}

func (s OrderStatus) Valid() bool {
	switch s {
	case StatusConfirmed, StatusPreparing, StatusOutForDelivery, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

func (s OrderStatus) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// CanAdvanceTo reports whether to is the next fulfillment step after s.
func (s OrderStatus) CanAdvanceTo(to OrderStatus) bool {
	next, ok := fulfillment[s]
	return ok && next == to
}

type Order struct {
	ID              int64           `db:"order_id" json:"order_id"`
	UserID          int64           `db:"user_id" json:"user_id"`
	OrderNumber     string          `db:"order_number" json:"order_number"`
	ItemTotal       decimal.Decimal `db:"item_total" json:"item_total"`
	DeliveryFee     decimal.Decimal `db:"delivery_fee" json:"delivery_fee"`
	TotalAmount     decimal.Decimal `db:"total_amount" json:"total_amount"`
	Status          OrderStatus     `db:"status" json:"status"`
	DeliveryAddress string          `db:"delivery_address" json:"delivery_address"`
	CustomerName    string          `db:"customer_name" json:"customer_name"`
	CustomerEmail   string          `db:"customer_email" json:"customer_email"`
	CustomerContact string          `db:"customer_contact" json:"customer_contact"`
	CancellationFee decimal.Decimal `db:"cancellation_fee" json:"cancellation_fee"`
	CreatedAt       string          `db:"created_at" json:"created_at"`
	UpdatedAt       string          `db:"updated_at" json:"updated_at"`
	ItemCount       int             `db:"item_count" json:"item_count"`
	Items           []OrderItem     `db:"-" json:"items"`
}

// Refund is derived on every read and never stored. It does not go below zero.
func (o Order) Refund() decimal.Decimal {
	r := o.TotalAmount.Sub(o.CancellationFee)
	if r.IsNegative() {
		return decimal.Zero
	}
	return r
}

type OrderItem struct {
	ID              int64           `db:"item_id" json:"item_id"`
	OrderID         int64           `db:"order_id" json:"order_id"`
	ProductID       int64           `db:"product_id" json:"product_id"`
	ProductName     string          `db:"product_name" json:"product_name"`
	ProductQuantity string          `db:"product_quantity" json:"product_quantity"`
	ProductPrice    decimal.Decimal `db:"product_price" json:"product_price"`
	CartQuantity    int             `db:"cart_quantity" json:"cart_quantity"`
	ItemTotal       decimal.Decimal `db:"item_total" json:"item_total"`
	ProductImages   ImageList       `db:"product_images" json:"product_images"`
}
