// Package lifecycle holds the order status rules: how status and shipping
// status keep each other in sync, and which moves between them are allowed.
// Everything here is pure; persistence and authorization live in the order
// service.
package lifecycle

import (
	"fmt"
	"slices"

	"github.com/aaravmahajanofficial/ekommerce-marketplace/internal/errors"
	"github.com/aaravmahajanofficial/ekommerce-marketplace/internal/models"
)

// State is the pair of status fields an order carries.
type State struct {
	Status   models.OrderStatus
	Shipping models.ShippingStatus
}

func StateOf(order *models.Order) State {
	return State{Status: order.Status, Shipping: order.ShippingStatus}
}

// Initial is the state of every freshly placed order.
var Initial = State{Status: models.OrderStatusPending, Shipping: models.ShippingStatusPreparing}

var statusSync = map[models.OrderStatus]models.ShippingStatus{
	models.OrderStatusConfirmed: models.ShippingStatusPreparing,
	models.OrderStatusShipped:   models.ShippingStatusShipped,
	models.OrderStatusDelivered: models.ShippingStatusDelivered,
	models.OrderStatusCancelled: models.ShippingStatusCancelled,
	models.OrderStatusRefunded:  models.ShippingStatusCancelled,
}

var shippingSync = map[models.ShippingStatus]models.OrderStatus{
	models.ShippingStatusPreparing: models.OrderStatusConfirmed,
	models.ShippingStatusShipped:   models.OrderStatusShipped,
	models.ShippingStatusDelivered: models.OrderStatusDelivered,
	models.ShippingStatusCancelled: models.OrderStatusCancelled,
}

var statusEdges = map[models.OrderStatus][]models.OrderStatus{
	models.OrderStatusPending:    {models.OrderStatusConfirmed, models.OrderStatusCancelled},
	models.OrderStatusConfirmed:  {models.OrderStatusProcessing, models.OrderStatusShipped, models.OrderStatusCancelled, models.OrderStatusRefunded},
	models.OrderStatusProcessing: {models.OrderStatusShipped, models.OrderStatusCancelled, models.OrderStatusRefunded},
	models.OrderStatusShipped:    {models.OrderStatusDelivered, models.OrderStatusRefunded},
	models.OrderStatusDelivered:  {models.OrderStatusRefunded},
}

var shippingEdges = map[models.ShippingStatus][]models.ShippingStatus{
	models.ShippingStatusPreparing: {models.ShippingStatusShipped, models.ShippingStatusCancelled},
	models.ShippingStatusShipped:   {models.ShippingStatusDelivered},
}

// ShippingFor returns the shipping status implied by status. PENDING and
// PROCESSING imply nothing and report false.
func ShippingFor(status models.OrderStatus) (models.ShippingStatus, bool) {
	shipping, ok := statusSync[status]

	return shipping, ok
}

// StatusFor returns the order status implied by a shipping status.
func StatusFor(shipping models.ShippingStatus) (models.OrderStatus, bool) {
	status, ok := shippingSync[shipping]

	return status, ok
}

// SyncStatus computes the state after a status request.
func SyncStatus(current State, status models.OrderStatus) State {
	next := State{Status: status, Shipping: current.Shipping}
	if shipping, ok := ShippingFor(status); ok {
		next.Shipping = shipping
	}

	return next
}

// SyncShipping computes the state after a shipping-status request.
func SyncShipping(current State, shipping models.ShippingStatus) State {
	next := State{Status: current.Status, Shipping: shipping}
	if status, ok := StatusFor(shipping); ok {
		next.Status = status
	}

	return next
}

func IsTerminal(status models.OrderStatus) bool {
	return status == models.OrderStatusCancelled || status == models.OrderStatusRefunded
}

// Cancellable reports whether a buyer or admin may still cancel the order.
func Cancellable(status models.OrderStatus) bool {
	return status == models.OrderStatusPending || status == models.OrderStatusConfirmed
}

// EntersCancellation reports whether moving from current to next puts the
// order into CANCELLED, which is when reserved stock goes back.
func EntersCancellation(current, next State) bool {
	return current.Status != models.OrderStatusCancelled && next.Status == models.OrderStatusCancelled
}

// leavesCancellation reports a move out of CANCELLED. Stock was already
// returned on the way in and is never reserved again, so no machine allows it.
func leavesCancellation(current, next State) bool {
	return current.Status == models.OrderStatusCancelled && next.Status != models.OrderStatusCancelled
}

// Machine validates transitions. A permissive machine accepts any request
// that does not leave CANCELLED and only applies the sync tables.
type Machine struct {
	permissive bool
}

func NewMachine(permissive bool) *Machine {
	return &Machine{permissive: permissive}
}

func (m *Machine) Permissive() bool {
	return m.permissive
}

func (m *Machine) RequestStatus(current State, status models.OrderStatus) (State, error) {
	if _, known := statusEdgesOrTerminal(status); !known {
		return current, errors.ValidationError(fmt.Sprintf("Unknown order status %q", status))
	}

	next := SyncStatus(current, status)
	if leavesCancellation(current, next) {
		return current, invalidStatusMove(current.Status, next.Status)
	}

	if m.permissive {
		return next, nil
	}

	if !slices.Contains(statusEdges[current.Status], status) {
		return current, invalidStatusMove(current.Status, status)
	}

	return next, nil
}

func (m *Machine) RequestShipping(current State, shipping models.ShippingStatus) (State, error) {
	if _, ok := StatusFor(shipping); !ok {
		return current, errors.ValidationError(fmt.Sprintf("Unknown shipping status %q", shipping))
	}

	next := SyncShipping(current, shipping)
	if leavesCancellation(current, next) {
		return current, invalidStatusMove(current.Status, next.Status)
	}

	if m.permissive {
		return next, nil
	}

	if next == current {
		return current, errors.InvalidTransitionError(fmt.Sprintf("Order is already %s/%s", current.Status, current.Shipping))
	}

	if next.Shipping != current.Shipping && !slices.Contains(shippingEdges[current.Shipping], next.Shipping) {
		return current, errors.InvalidTransitionError(
			fmt.Sprintf("Cannot move shipping status from %s to %s", current.Shipping, next.Shipping))
	}

	if next.Status != current.Status && !slices.Contains(statusEdges[current.Status], next.Status) {
		return current, invalidStatusMove(current.Status, next.Status)
	}

	return next, nil
}

// Cancel applies a buyer or admin cancellation. Only PENDING and CONFIRMED
// orders can be cancelled this way, whatever the machine's mode.
func (m *Machine) Cancel(current State) (State, error) {
	if !Cancellable(current.Status) {
		return current, errors.InvalidTransitionError(
			fmt.Sprintf("Order in status %s can no longer be cancelled", current.Status))
	}

	return State{Status: models.OrderStatusCancelled, Shipping: models.ShippingStatusCancelled}, nil
}

func statusEdgesOrTerminal(status models.OrderStatus) ([]models.OrderStatus, bool) {
	if edges, ok := statusEdges[status]; ok {
		return edges, true
	}

	return nil, IsTerminal(status)
}

func invalidStatusMove(from, to models.OrderStatus) *errors.AppError {
	return errors.InvalidTransitionError(fmt.Sprintf("Cannot move order from %s to %s", from, to))
}
