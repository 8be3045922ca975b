package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"tastycheckout/internal/domain"
	"tastycheckout/internal/dto"
	apperrors "tastycheckout/internal/errors"
)

type mockMenuResolver struct {
	GetMenuAndDeliveryPriceFunc func(ctx context.Context, restaurantID string) (*domain.Restaurant, error)
}

func (m *mockMenuResolver) GetMenuAndDeliveryPrice(ctx context.Context, restaurantID string) (*domain.Restaurant, error) {
	return m.GetMenuAndDeliveryPriceFunc(ctx, restaurantID)
}

type mockPaymentGateway struct {
	CreateSessionFunc func(ctx context.Context, req dto.SessionRequest) (string, error)
	calls             int
}

func (m *mockPaymentGateway) CreateSession(ctx context.Context, req dto.SessionRequest) (string, error) {
	m.calls++
	return m.CreateSessionFunc(ctx, req)
}

type mockOrderStore struct {
	CreateFunc   func(ctx context.Context, order *domain.Order) error
	FindByIDFunc func(ctx context.Context, id string) (*domain.Order, error)
	MarkPaidFunc func(ctx context.Context, id string, amountMinor int64, at time.Time) (bool, error)
}

func (m *mockOrderStore) Create(ctx context.Context, order *domain.Order) error {
	return m.CreateFunc(ctx, order)
}

func (m *mockOrderStore) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	return m.FindByIDFunc(ctx, id)
}

func (m *mockOrderStore) MarkPaid(ctx context.Context, id string, amountMinor int64, at time.Time) (bool, error) {
	return m.MarkPaidFunc(ctx, id, amountMinor, at)
}

// memoryOrderStore behaves like the SQL store: creates are visible only once
// they return and MarkPaid is a conditional update.
type memoryOrderStore struct {
	mu          sync.Mutex
	orders      map[string]domain.Order
	createDelay time.Duration
	writes      int
	created     map[string]bool
}

func newMemoryOrderStore() *memoryOrderStore {
	return &memoryOrderStore{
		orders:  map[string]domain.Order{},
		created: map[string]bool{},
	}
}

func (s *memoryOrderStore) Create(ctx context.Context, order *domain.Order) error {
	if s.createDelay > 0 {
		select {
		case <-time.After(s.createDelay):
		case <-ctx.Done():
			return apperrors.NewPersistenceError("inserting order", ctx.Err())
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.orders[order.ID]; exists {
		return apperrors.NewPersistenceError("inserting order", fmt.Errorf("duplicate id %s", order.ID))
	}
	s.orders[order.ID] = *order
	s.created[order.ID] = true
	return nil
}

func (s *memoryOrderStore) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[id]
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("order with id %s not found", id))
	}
	return &order, nil
}

func (s *memoryOrderStore) MarkPaid(ctx context.Context, id string, amountMinor int64, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[id]
	if !ok || order.Status != domain.OrderStatusPlaced {
		return false, nil
	}
	if err := order.MarkPaid(amountMinor, at); err != nil {
		return false, err
	}
	s.orders[id] = order
	s.writes++
	return true, nil
}

func (s *memoryOrderStore) isCreated(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.created[id]
}

func (s *memoryOrderStore) writeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}
