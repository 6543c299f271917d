package services

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"mach-lagbe/models"
	"mach-lagbe/repository/memstore"
	"mach-lagbe/sessions"
	"mach-lagbe/utils"
)

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishOrderEvent(ctx context.Context, event models.OrderEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

type fixture struct {
	store   *memstore.Store
	auth    *AuthService
	fish    *FishService
	orders  *OrderService
	events  *MockPublisher
	revoker *sessions.MemoryRevoker
	logs    *test.Hook
}

func newFixture(t *testing.T, opts OrderOptions) *fixture {
	t.Helper()
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)

	store := memstore.New()
	events := new(MockPublisher)
	events.On("PublishOrderEvent", mock.Anything, mock.Anything).Return(nil).Maybe()
	revoker := sessions.NewMemoryRevoker()
	tokens := utils.NewTokenManager("test-secret", 7*24*time.Hour)

	return &fixture{
		store:   store,
		auth:    NewAuthService(store.Users(), tokens, revoker, log),
		fish:    NewFishService(store.Fish(), log),
		orders:  NewOrderService(store, events, opts, log),
		events:  events,
		revoker: revoker,
		logs:    hook,
	}
}

func defaultOpts() OrderOptions {
	return OrderOptions{DeliveryFee: models.DefaultDeliveryFee}
}

// register creates a user through the auth service and resolves its session.
func (f *fixture) register(t *testing.T, name, email string) *models.Identity {
	t.Helper()
	res, err := f.auth.Register(context.Background(), RegisterInput{Name: name, Email: email, Password: "password123"})
	require.NoError(t, err)
	id, err := f.auth.ResolveSession(context.Background(), res.Token)
	require.NoError(t, err)
	return id
}

// admin registers a user and promotes it in the store.
func (f *fixture) admin(t *testing.T) *models.Identity {
	t.Helper()
	id := f.register(t, "Admin", "admin@example.com")
	u, err := f.store.Users().FindUserByID(context.Background(), id.UserID)
	require.NoError(t, err)
	u.Role = models.RoleAdmin
	require.NoError(t, f.store.Users().UpdateUser(context.Background(), u))
	id.Role = models.RoleAdmin
	return id
}

func ptr[T any](v T) *T { return &v }
