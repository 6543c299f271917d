package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"mach-lagbe/apperrors"
	"mach-lagbe/models"
	"mach-lagbe/policy"
	"mach-lagbe/repository"
)

// CreateOrderInput is the checkout payload. User is only honoured for admins
// placing an order on behalf of another user.
type CreateOrderInput struct {
	Items []models.OrderItem `json:"items"`
	Total *float64           `json:"total"`
	User  *OrderUserInput    `json:"user"`
}

type OrderUserInput struct {
	ID    string `json:"id"`
	OID   string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (u *OrderUserInput) userID() string {
	if u.ID != "" {
		return u.ID
	}
	return u.OID
}

// OrderQuery carries the optional list and bulk delete filters.
type OrderQuery struct {
	UserID string
	All    bool
}

type OrderOptions struct {
	DeliveryFee float64
	// PriceCheck resolves every item against the live catalog and snapshots
	// its current name and price.
	PriceCheck bool
}

type IOrderService interface {
	Create(ctx context.Context, actor *models.Identity, in CreateOrderInput) (*models.Order, error)
	List(ctx context.Context, actor *models.Identity, q OrderQuery) ([]*models.Order, error)
	Get(ctx context.Context, actor *models.Identity, id primitive.ObjectID) (*models.Order, error)
	DeleteMany(ctx context.Context, actor *models.Identity, q OrderQuery) (int64, error)
	UpdateStatus(ctx context.Context, actor *models.Identity, id primitive.ObjectID, status models.OrderStatus) (*models.Order, error)
	Delete(ctx context.Context, actor *models.Identity, id primitive.ObjectID) error
}

type OrderService struct {
	orders repository.IOrderRepository
	users  repository.IUserRepository
	fish   repository.IFishRepository
	events IEventPublisher
	opts   OrderOptions
	log    logrus.FieldLogger
}

func NewOrderService(store repository.Store, events IEventPublisher, opts OrderOptions, log logrus.FieldLogger) *OrderService {
	if events == nil {
		events = NopPublisher{}
	}
	return &OrderService{
		orders: store.Orders(),
		users:  store.Users(),
		fish:   store.Fish(),
		events: events,
		opts:   opts,
		log:    log,
	}
}

var errOrderNotFound = apperrors.NotFound("Order not found")

func (s *OrderService) publish(ctx context.Context, event models.OrderEvent) {
	if err := s.events.PublishOrderEvent(ctx, event); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"event":    event.Type,
			"order_id": event.OrderID,
		}).Warn("Failed to publish order event")
	}
}

// owner resolves whose snapshot goes on a new order.
func (s *OrderService) owner(ctx context.Context, actor *models.Identity, requested *OrderUserInput) (models.UserSnapshot, error) {
	self := models.UserSnapshot{ID: actor.UserID, Name: actor.Name, Email: actor.Email}
	if requested == nil || requested.userID() == "" {
		return self, nil
	}
	if !actor.IsAdmin() {
		s.log.WithField("user_id", actor.UserID.Hex()).Debug("Ignoring client supplied order user")
		return self, nil
	}
	if err := policy.Authorize(actor, policy.OrderCreateOnBehalf, primitive.NilObjectID); err != nil {
		return models.UserSnapshot{}, err
	}
	uid, err := primitive.ObjectIDFromHex(requested.userID())
	if err != nil {
		return models.UserSnapshot{}, apperrors.Validation("Invalid user id")
	}
	if uid == actor.UserID {
		return self, nil
	}
	u, err := s.users.FindUserByID(ctx, uid)
	if errors.Is(err, apperrors.ErrNotFound) {
		return models.UserSnapshot{}, apperrors.Validation("Order user not found")
	}
	if err != nil {
		return models.UserSnapshot{}, apperrors.Internal("Failed to create order", err)
	}
	s.log.WithFields(logrus.Fields{
		"audit":    "order_on_behalf",
		"admin_id": actor.UserID.Hex(),
		"user_id":  u.ID.Hex(),
	}).Info("Admin placing order on behalf of user")
	return u.Snapshot(), nil
}

func (s *OrderService) snapshotPrices(ctx context.Context, items []models.OrderItem) error {
	for i := range items {
		f, err := s.fish.FindFishByID(ctx, items[i].FishID)
		if errors.Is(err, apperrors.ErrNotFound) || (err == nil && !f.IsActive) {
			return apperrors.Validation(fmt.Sprintf("item %d: fish is not available", i+1))
		}
		if err != nil {
			return apperrors.Internal("Failed to create order", err)
		}
		items[i].Name = f.Name
		items[i].PricePerKg = f.PricePerKg
	}
	return nil
}

func (s *OrderService) Create(ctx context.Context, actor *models.Identity, in CreateOrderInput) (*models.Order, error) {
	if err := policy.Authorize(actor, policy.OrderCreate, primitive.NilObjectID); err != nil {
		return nil, err
	}
	items := append([]models.OrderItem(nil), in.Items...)
	for i := range items {
		items[i].Name = strings.TrimSpace(items[i].Name)
	}
	if err := models.ValidateItems(items); err != nil {
		return nil, apperrors.Validation(err.Error())
	}
	user, err := s.owner(ctx, actor, in.User)
	if err != nil {
		return nil, err
	}
	if s.opts.PriceCheck {
		if err := s.snapshotPrices(ctx, items); err != nil {
			return nil, err
		}
	}
	for i := range items {
		items[i].Subtotal = models.Subtotal(items[i].PricePerKg, items[i].Quantity)
	}
	total := models.OrderTotal(items, s.opts.DeliveryFee)
	if in.Total != nil && !models.TotalsMatch(*in.Total, total) {
		return nil, apperrors.Validation(fmt.Sprintf("Order total %.2f does not match computed total %.2f", *in.Total, total))
	}

	order := &models.Order{
		Items:  items,
		Total:  total,
		User:   user,
		Status: models.OrderStatusPending,
	}
	if err := s.orders.CreateOrder(ctx, order); err != nil {
		return nil, apperrors.Internal("Failed to create order", err)
	}
	s.log.WithFields(logrus.Fields{
		"order_id": order.ID.Hex(),
		"user_id":  user.ID.Hex(),
		"total":    order.Total,
	}).Info("Order created")
	s.publish(ctx, models.NewOrderEvent(models.OrderEventCreated, order, actor.UserID.Hex()))
	return order, nil
}

// requestedUser parses the userId filter. Only admins may use it, so a
// malformed value from anyone else is ignored along with the filter.
func requestedUser(actor *models.Identity, raw string) (*primitive.ObjectID, error) {
	if raw == "" || !actor.IsAdmin() {
		return nil, nil
	}
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return nil, apperrors.Validation("Invalid userId")
	}
	return &id, nil
}

func (s *OrderService) scope(actor *models.Identity, q OrderQuery, listAllByDefault bool) (models.OrderFilter, error) {
	if actor == nil {
		return models.OrderFilter{}, apperrors.Unauthenticated("Not authorized")
	}
	requested, err := requestedUser(actor, q.UserID)
	if err != nil {
		return models.OrderFilter{}, err
	}
	return policy.OrderScope(actor, requested, q.All, listAllByDefault)
}

// List returns orders newest first. Admins see every order unless they
// filter by userId; everyone else sees only their own.
func (s *OrderService) List(ctx context.Context, actor *models.Identity, q OrderQuery) ([]*models.Order, error) {
	filter, err := s.scope(actor, q, true)
	if err != nil {
		return nil, err
	}
	orders, err := s.orders.ListOrders(ctx, filter)
	if err != nil {
		return nil, apperrors.Internal("Failed to fetch orders", err)
	}
	return orders, nil
}

// Get returns one order to its owner or to an admin.
func (s *OrderService) Get(ctx context.Context, actor *models.Identity, id primitive.ObjectID) (*models.Order, error) {
	if actor == nil {
		return nil, apperrors.Unauthenticated("Not authorized")
	}
	order, err := s.orders.FindOrderByID(ctx, id)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, errOrderNotFound
	}
	if err != nil {
		return nil, apperrors.Internal("Failed to fetch order", err)
	}
	if err := policy.Authorize(actor, policy.OrderList, order.User.ID); err != nil {
		return nil, err
	}
	return order, nil
}

// DeleteMany removes the caller's orders. Admins may widen the scope with
// all or userId.
func (s *OrderService) DeleteMany(ctx context.Context, actor *models.Identity, q OrderQuery) (int64, error) {
	filter, err := s.scope(actor, q, false)
	if err != nil {
		return 0, err
	}
	n, err := s.orders.DeleteOrders(ctx, filter)
	if err != nil {
		return 0, apperrors.Internal("Failed to delete orders", err)
	}
	event := models.OrderEvent{
		Type:     models.OrderEventBulkDeleted,
		Count:    n,
		Actor:    actor.UserID.Hex(),
		Occurred: time.Now().UTC(),
	}
	if filter.UserID != nil {
		event.UserID = filter.UserID.Hex()
	}
	s.log.WithFields(logrus.Fields{
		"actor":   event.Actor,
		"user_id": event.UserID,
		"deleted": n,
	}).Info("Orders deleted")
	s.publish(ctx, event)
	return n, nil
}

func (s *OrderService) UpdateStatus(ctx context.Context, actor *models.Identity, id primitive.ObjectID, status models.OrderStatus) (*models.Order, error) {
	if err := policy.Authorize(actor, policy.OrderUpdate, primitive.NilObjectID); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, apperrors.Validation("Invalid status. Must be one of: pending, processing, completed, cancelled")
	}
	order, err := s.orders.UpdateOrderStatus(ctx, id, status)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, errOrderNotFound
	}
	if err != nil {
		return nil, apperrors.Internal("Failed to update order", err)
	}
	s.publish(ctx, models.NewOrderEvent(models.OrderEventStatusUpdated, order, actor.UserID.Hex()))
	return order, nil
}

func (s *OrderService) Delete(ctx context.Context, actor *models.Identity, id primitive.ObjectID) error {
	if err := policy.Authorize(actor, policy.OrderDelete, primitive.NilObjectID); err != nil {
		return err
	}
	order, err := s.orders.FindOrderByID(ctx, id)
	if err == nil {
		err = s.orders.DeleteOrder(ctx, id)
	}
	if errors.Is(err, apperrors.ErrNotFound) {
		return errOrderNotFound
	}
	if err != nil {
		return apperrors.Internal("Failed to delete order", err)
	}
	s.publish(ctx, models.NewOrderEvent(models.OrderEventDeleted, order, actor.UserID.Hex()))
	return nil
}
