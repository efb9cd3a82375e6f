package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CartOwnerKind string

const (
	CartOwnerUser      CartOwnerKind = "USER"
	CartOwnerAnonymous CartOwnerKind = "ANONYMOUS"
)

// CartOwner identifies who a cart belongs to: either an authenticated user
// or an anonymous session, never both.
type CartOwner struct {
	kind      CartOwnerKind
	userID    uuid.UUID
	sessionID string
}

func UserOwner(userID uuid.UUID) CartOwner {
	return CartOwner{kind: CartOwnerUser, userID: userID}
}

func AnonymousOwner(sessionID string) CartOwner {
	return CartOwner{kind: CartOwnerAnonymous, sessionID: sessionID}
}

func (o CartOwner) Kind() CartOwnerKind {
	return o.kind
}

func (o CartOwner) UserID() (uuid.UUID, bool) {
	return o.userID, o.kind == CartOwnerUser
}

func (o CartOwner) SessionID() (string, bool) {
	return o.sessionID, o.kind == CartOwnerAnonymous
}

func (o CartOwner) String() string {
	if o.kind == CartOwnerUser {
		return "user:" + o.userID.String()
	}

	return "session:" + o.sessionID
}

func (o CartOwner) MarshalJSON() ([]byte, error) {
	payload := struct {
		Kind      CartOwnerKind `json:"kind"`
		UserID    *uuid.UUID    `json:"user_id,omitempty"`
		SessionID string        `json:"session_id,omitempty"`
	}{Kind: o.kind, SessionID: o.sessionID}

	if o.kind == CartOwnerUser {
		payload.UserID = &o.userID
	}

	return json.Marshal(payload)
}

// MaxSessionIDLength bounds the guest session id; carts.session_id is
// VARCHAR(128).
const MaxSessionIDLength = 128

// CartIdentity is what a caller presents when asking for its cart. UserID is
// uuid.Nil for anonymous callers.
type CartIdentity struct {
	UserID    uuid.UUID
	SessionID string
}

func (i CartIdentity) IsAuthenticated() bool {
	return i.UserID != uuid.Nil
}

type CartLine struct {
	ID        uuid.UUID       `json:"id"`
	CartID    uuid.UUID       `json:"cart_id"`
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	CreatedAt time.Time       `json:"created_at"`
}

func (l CartLine) LineTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type Cart struct {
	ID        uuid.UUID  `json:"id"`
	Owner     CartOwner  `json:"owner"`
	Lines     []CartLine `json:"lines"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (c *Cart) TotalQuantity() int {
	total := 0
	for _, line := range c.Lines {
		total += line.Quantity
	}

	return total
}

func (c *Cart) TotalAmount() decimal.Decimal {
	total := decimal.Zero
	for _, line := range c.Lines {
		total = total.Add(line.LineTotal())
	}

	return total
}

func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

func (c *Cart) LineForProduct(productID uuid.UUID) (*CartLine, bool) {
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			return &c.Lines[i], true
		}
	}

	return nil, false
}

type CartLineView struct {
	CartLine
	LineTotal decimal.Decimal `json:"line_total"`
}

// CartView is the read model returned to callers, with totals derived from
// the current lines.
type CartView struct {
	ID            uuid.UUID       `json:"id"`
	Owner         CartOwner       `json:"owner"`
	Lines         []CartLineView  `json:"lines"`
	TotalQuantity int             `json:"total_quantity"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func (c *Cart) View() *CartView {
	lines := make([]CartLineView, 0, len(c.Lines))
	for _, line := range c.Lines {
		lines = append(lines, CartLineView{CartLine: line, LineTotal: line.LineTotal()})
	}

	return &CartView{
		ID:            c.ID,
		Owner:         c.Owner,
		Lines:         lines,
		TotalQuantity: c.TotalQuantity(),
		TotalAmount:   c.TotalAmount(),
		UpdatedAt:     c.UpdatedAt,
	}
}

type AddCartLineRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,min=1"`
}

type UpdateCartLineRequest struct {
	Quantity *int `json:"quantity" validate:"required,gte=0"`
}
