// Package memstore is an in-process repository.Store used by tests and by
// STORE_DRIVER=memory for local development.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"mach-lagbe/apperrors"
	"mach-lagbe/models"
	"mach-lagbe/repository"
)

type Store struct {
	mu     sync.RWMutex
	users  map[primitive.ObjectID]models.User
	fish   map[primitive.ObjectID]models.Fish
	orders map[primitive.ObjectID]models.Order
	// seq breaks creation-time ties so newest-first ordering is stable.
	seq      int64
	createdN map[primitive.ObjectID]int64
	now      func() time.Time
}

var _ repository.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		users:    make(map[primitive.ObjectID]models.User),
		fish:     make(map[primitive.ObjectID]models.Fish),
		orders:   make(map[primitive.ObjectID]models.Order),
		createdN: make(map[primitive.ObjectID]int64),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) Users() repository.IUserRepository   { return userRepo{s} }
func (s *Store) Fish() repository.IFishRepository    { return fishRepo{s} }
func (s *Store) Orders() repository.IOrderRepository { return orderRepo{s} }

func (s *Store) Ping(context.Context) error  { return nil }
func (s *Store) Close(context.Context) error { return nil }

func (s *Store) stamp(id primitive.ObjectID) {
	s.seq++
	s.createdN[id] = s.seq
}

type userRepo struct{ s *Store }

func (r userRepo) CreateUser(_ context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == user.Email {
			return apperrors.ErrDuplicateKey
		}
	}
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	now := r.s.now()
	user.CreatedAt, user.UpdatedAt = now, now
	r.s.users[user.ID] = *user
	return nil
}

func (r userRepo) FindUserByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &u, nil
}

func (r userRepo) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if u.Email == email {
			found := u
			return &found, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r userRepo) UpdateUser(_ context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[user.ID]; !ok {
		return apperrors.ErrNotFound
	}
	user.UpdatedAt = r.s.now()
	r.s.users[user.ID] = *user
	return nil
}

type fishRepo struct{ s *Store }

func (r fishRepo) nameTaken(name string, except primitive.ObjectID) bool {
	for id, f := range r.s.fish {
		if id != except && f.Name == name {
			return true
		}
	}
	return false
}

func (r fishRepo) CreateFish(_ context.Context, fish *models.Fish) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.nameTaken(fish.Name, primitive.NilObjectID) {
		return apperrors.ErrDuplicateKey
	}
	if fish.ID.IsZero() {
		fish.ID = primitive.NewObjectID()
	}
	now := r.s.now()
	fish.CreatedAt, fish.UpdatedAt = now, now
	r.s.fish[fish.ID] = *fish
	r.s.stamp(fish.ID)
	return nil
}

func (r fishRepo) FindFishByID(_ context.Context, id primitive.ObjectID) (*models.Fish, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	f, ok := r.s.fish[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &f, nil
}

func (r fishRepo) ListFish(_ context.Context, filter models.FishFilter) ([]*models.Fish, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	search := strings.ToLower(filter.Search)
	out := make([]*models.Fish, 0, len(r.s.fish))
	for _, f := range r.s.fish {
		if !filter.IncludeInactive && !f.IsActive {
			continue
		}
		if filter.Category != "" && f.Category != filter.Category {
			continue
		}
		if filter.Availability != "" && f.Availability != filter.Availability {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(f.Name), search) &&
			!strings.Contains(strings.ToLower(f.Description), search) {
			continue
		}
		found := f
		out = append(out, &found)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return r.s.createdN[out[i].ID] > r.s.createdN[out[j].ID]
	})
	return out, nil
}

func (r fishRepo) UpdateFish(_ context.Context, fish *models.Fish) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.fish[fish.ID]; !ok {
		return apperrors.ErrNotFound
	}
	if r.nameTaken(fish.Name, fish.ID) {
		return apperrors.ErrDuplicateKey
	}
	fish.UpdatedAt = r.s.now()
	r.s.fish[fish.ID] = *fish
	return nil
}

type orderRepo struct{ s *Store }

func matchesOrder(o models.Order, filter models.OrderFilter) bool {
	return filter.UserID == nil || o.User.ID == *filter.UserID
}

func copyOrder(o models.Order) *models.Order {
	o.Items = append([]models.OrderItem(nil), o.Items...)
	return &o
}

func (r orderRepo) CreateOrder(_ context.Context, order *models.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if order.ID.IsZero() {
		order.ID = primitive.NewObjectID()
	}
	now := r.s.now()
	order.CreatedAt, order.UpdatedAt = now, now
	r.s.orders[order.ID] = *copyOrder(*order)
	r.s.stamp(order.ID)
	return nil
}

func (r orderRepo) FindOrderByID(_ context.Context, id primitive.ObjectID) (*models.Order, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	o, ok := r.s.orders[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return copyOrder(o), nil
}

func (r orderRepo) ListOrders(_ context.Context, filter models.OrderFilter) ([]*models.Order, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*models.Order, 0)
	for _, o := range r.s.orders {
		if matchesOrder(o, filter) {
			out = append(out, copyOrder(o))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return r.s.createdN[out[i].ID] > r.s.createdN[out[j].ID]
	})
	return out, nil
}

func (r orderRepo) UpdateOrderStatus(_ context.Context, id primitive.ObjectID, status models.OrderStatus) (*models.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.orders[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	o.Status = status
	o.UpdatedAt = r.s.now()
	r.s.orders[id] = o
	return copyOrder(o), nil
}

func (r orderRepo) DeleteOrder(_ context.Context, id primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.orders[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(r.s.orders, id)
	delete(r.s.createdN, id)
	return nil
}

func (r orderRepo) DeleteOrders(_ context.Context, filter models.OrderFilter) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, o := range r.s.orders {
		if matchesOrder(o, filter) {
			delete(r.s.orders, id)
			delete(r.s.createdN, id)
			n++
		}
	}
	return n, nil
}
