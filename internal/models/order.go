package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderStatus string

type ShippingStatus string

type PaymentMethod string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusConfirmed  OrderStatus = "CONFIRMED"
	OrderStatusProcessing OrderStatus = "PROCESSING"
	OrderStatusShipped    OrderStatus = "SHIPPED"
	OrderStatusDelivered  OrderStatus = "DELIVERED"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
	OrderStatusRefunded   OrderStatus = "REFUNDED"

	ShippingStatusPreparing ShippingStatus = "PREPARING"
	ShippingStatusShipped   ShippingStatus = "SHIPPED"
	ShippingStatusDelivered ShippingStatus = "DELIVERED"
	ShippingStatusCancelled ShippingStatus = "CANCELLED"

	PaymentMethodCard           PaymentMethod = "CARD"
	PaymentMethodCashOnDelivery PaymentMethod = "CASH_ON_DELIVERY"
	PaymentMethodBankTransfer   PaymentMethod = "BANK_TRANSFER"
)

type OrderLine struct {
	ID        uuid.UUID       `json:"id"`
	OrderID   uuid.UUID       `json:"order_id"`
	ProductID uuid.UUID       `json:"product_id"`
	SellerID  uuid.UUID       `json:"seller_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	CreatedAt time.Time       `json:"created_at"`
}

type Order struct {
	ID              uuid.UUID       `json:"id"`
	BuyerID         uuid.UUID       `json:"buyer_id"`
	SellerID        uuid.UUID       `json:"seller_id"`
	Lines           []OrderLine     `json:"lines"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	Status          OrderStatus     `json:"status"`
	ShippingStatus  ShippingStatus  `json:"shipping_status"`
	ShippingAddress string          `json:"shipping_address"`
	PaymentMethod   PaymentMethod   `json:"payment_method"`
	TrackingNumber  string          `json:"tracking_number"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	// ReleaseFailures lists lines whose stock could not be returned when the
	// order was cancelled. It is only set on the cancelling response.
	ReleaseFailures []string `json:"release_failures,omitempty"`
}

// HasSellerLine reports whether any line of the order was sold by sellerID.
func (o *Order) HasSellerLine(sellerID uuid.UUID) bool {
	for _, line := range o.Lines {
		if line.SellerID == sellerID {
			return true
		}
	}

	return false
}

type PlaceOrderRequest struct {
	ShippingAddress string        `json:"shipping_address" validate:"max=500"`
	PaymentMethod   PaymentMethod `json:"payment_method" validate:"omitempty,oneof=CARD CASH_ON_DELIVERY BANK_TRANSFER"`
}

type UpdateOrderStatusRequest struct {
	Status OrderStatus `json:"status" validate:"required,oneof=PENDING CONFIRMED PROCESSING SHIPPED DELIVERED CANCELLED REFUNDED"`
}

type UpdateShippingStatusRequest struct {
	ShippingStatus ShippingStatus `json:"shipping_status" validate:"required,oneof=PREPARING SHIPPED DELIVERED CANCELLED"`
}

// OrderEventType names the lifecycle events published after commit.
type OrderEventType string

const (
	OrderEventPlaced        OrderEventType = "order.placed"
	OrderEventCancelled     OrderEventType = "order.cancelled"
	OrderEventStatusChanged OrderEventType = "order.status_changed"
)

type OrderEvent struct {
	Type           OrderEventType  `json:"type"`
	OrderID        uuid.UUID       `json:"order_id"`
	BuyerID        uuid.UUID       `json:"buyer_id"`
	SellerID       uuid.UUID       `json:"seller_id"`
	Status         OrderStatus     `json:"status"`
	ShippingStatus ShippingStatus  `json:"shipping_status"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	OccurredAt     time.Time       `json:"occurred_at"`
}

func NewOrderEvent(eventType OrderEventType, order *Order) OrderEvent {
	return OrderEvent{
		Type:           eventType,
		OrderID:        order.ID,
		BuyerID:        order.BuyerID,
		SellerID:       order.SellerID,
		Status:         order.Status,
		ShippingStatus: order.ShippingStatus,
		TotalAmount:    order.TotalAmount,
		OccurredAt:     time.Now().UTC(),
	}
}
