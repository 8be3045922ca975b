package usecase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"tastycheckout/internal/domain"
	"tastycheckout/internal/dto"
	apperrors "tastycheckout/internal/errors"
)

func completedEvent(orderID string, amount int64) dto.VerifiedEvent {
	return dto.VerifiedEvent{
		ID:          "evt_1",
		Type:        dto.EventTypeCheckoutSessionCompleted,
		OrderID:     orderID,
		AmountTotal: amount,
		HasAmount:   true,
	}
}

func storeWithPlacedOrder(t *testing.T, id string) *memoryOrderStore {
	t.Helper()
	store := newMemoryOrderStore()
	order := domain.NewPlacedOrder(id, "r1", "u1",
		[]domain.CartItem{{MenuItemID: "i1", Name: "Pizza", Quantity: 2}},
		domain.DeliveryDetails{Email: "john@example.com"},
		time.Now())
	require.NoError(t, store.Create(context.Background(), order))
	return store
}

func TestProcess_MarksPlacedOrderPaid(t *testing.T) {
	store := storeWithPlacedOrder(t, "o1")
	processor := NewPaymentWebhookProcessor(store, zap.NewNop(), time.Second)

	outcome, err := processor.Process(context.Background(), completedEvent("o1", 2900))
	require.NoError(t, err)
	assert.Equal(t, dto.WebhookPaid, outcome)

	order, err := store.FindByID(context.Background(), "o1")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPaid, order.Status)
	assert.Equal(t, int64(2900), *order.TotalAmount)
}

func TestProcess_DuplicateDeliveryIsNoop(t *testing.T) {
	store := storeWithPlacedOrder(t, "o1")
	processor := NewPaymentWebhookProcessor(store, zap.NewNop(), time.Second)

	first, err := processor.Process(context.Background(), completedEvent("o1", 2900))
	require.NoError(t, err)
	second, err := processor.Process(context.Background(), completedEvent("o1", 2900))
	require.NoError(t, err)

	assert.Equal(t, dto.WebhookPaid, first)
	assert.Equal(t, dto.WebhookAlreadyPaid, second)
	assert.Equal(t, 1, store.writeCount())

	order, err := store.FindByID(context.Background(), "o1")
	require.NoError(t, err)
	assert.Equal(t, "o1", order.ID)
	assert.Equal(t, domain.OrderStatusPaid, order.Status)
	assert.Equal(t, int64(2900), *order.TotalAmount)
}

func TestProcess_LaterEventCannotChangeAmount(t *testing.T) {
	store := storeWithPlacedOrder(t, "o1")
	processor := NewPaymentWebhookProcessor(store, zap.NewNop(), time.Second)

	_, err := processor.Process(context.Background(), completedEvent("o1", 2900))
	require.NoError(t, err)
	outcome, err := processor.Process(context.Background(), completedEvent("o1", 1))
	require.NoError(t, err)

	assert.Equal(t, dto.WebhookAlreadyPaid, outcome)
	order, _ := store.FindByID(context.Background(), "o1")
	assert.Equal(t, int64(2900), *order.TotalAmount)
}

func TestProcess_ConcurrentDeliveries(t *testing.T) {
	store := storeWithPlacedOrder(t, "o1")
	processor := NewPaymentWebhookProcessor(store, zap.NewNop(), time.Second)

	var wg sync.WaitGroup
	outcomes := make([]dto.WebhookOutcome, 20)
	for i := range outcomes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			outcome, err := processor.Process(context.Background(), completedEvent("o1", 2900))
			assert.NoError(t, err)
			outcomes[i] = outcome
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, store.writeCount())
	for _, outcome := range outcomes {
		assert.Contains(t, []dto.WebhookOutcome{dto.WebhookPaid, dto.WebhookAlreadyPaid}, outcome)
	}
}

func TestProcess_IgnoresOtherEventTypes(t *testing.T) {
	orders := &mockOrderStore{}
	processor := NewPaymentWebhookProcessor(orders, zap.NewNop(), time.Second)

	outcome, err := processor.Process(context.Background(), dto.VerifiedEvent{ID: "evt_2", Type: "payment_intent.created"})
	require.NoError(t, err)
	assert.Equal(t, dto.WebhookIgnored, outcome)
}

func TestProcess_UnknownOrderIsTolerated(t *testing.T) {
	store := newMemoryOrderStore()
	processor := NewPaymentWebhookProcessor(store, zap.NewNop(), time.Second)

	outcome, err := processor.Process(context.Background(), completedEvent("ghost", 2900))
	require.NoError(t, err)
	assert.Equal(t, dto.WebhookUnknownOrder, outcome)
	assert.Equal(t, 0, store.writeCount())
}

func TestProcess_MissingOrderID(t *testing.T) {
	orders := &mockOrderStore{}
	processor := NewPaymentWebhookProcessor(orders, zap.NewNop(), time.Second)

	_, err := processor.Process(context.Background(), completedEvent("", 2900))

	_, ok := apperrors.IsValidationError(err)
	assert.True(t, ok)
}

func TestProcess_MissingAmount(t *testing.T) {
	orders := &mockOrderStore{}
	processor := NewPaymentWebhookProcessor(orders, zap.NewNop(), time.Second)

	event := completedEvent("o1", 0)
	event.HasAmount = false
	_, err := processor.Process(context.Background(), event)

	_, ok := apperrors.IsValidationError(err)
	assert.True(t, ok)
}

func TestProcess_LookupFailure(t *testing.T) {
	orders := &mockOrderStore{
		FindByIDFunc: func(ctx context.Context, id string) (*domain.Order, error) {
			return nil, errors.New("connection refused")
		},
	}
	processor := NewPaymentWebhookProcessor(orders, zap.NewNop(), time.Second)

	_, err := processor.Process(context.Background(), completedEvent("o1", 2900))

	_, ok := apperrors.IsPersistenceError(err)
	assert.True(t, ok)
}

func TestProcess_MarkPaidFailure(t *testing.T) {
	orders := &mockOrderStore{
		FindByIDFunc: func(ctx context.Context, id string) (*domain.Order, error) {
			return &domain.Order{ID: id, Status: domain.OrderStatusPlaced}, nil
		},
		MarkPaidFunc: func(ctx context.Context, id string, amountMinor int64, at time.Time) (bool, error) {
			return false, apperrors.NewPersistenceError("marking order paid", errors.New("deadlock"))
		},
	}
	processor := NewPaymentWebhookProcessor(orders, zap.NewNop(), time.Second)

	_, err := processor.Process(context.Background(), completedEvent("o1", 2900))

	pe, ok := apperrors.IsPersistenceError(err)
	require.True(t, ok)
	assert.Equal(t, "marking order paid", pe.Message)
}

func TestProcess_LostRaceReportsAlreadyPaid(t *testing.T) {
	orders := &mockOrderStore{
		FindByIDFunc: func(ctx context.Context, id string) (*domain.Order, error) {
			return &domain.Order{ID: id, Status: domain.OrderStatusPlaced}, nil
		},
		MarkPaidFunc: func(ctx context.Context, id string, amountMinor int64, at time.Time) (bool, error) {
			return false, nil
		},
	}
	processor := NewPaymentWebhookProcessor(orders, zap.NewNop(), time.Second)

	outcome, err := processor.Process(context.Background(), completedEvent("o1", 2900))
	require.NoError(t, err)
	assert.Equal(t, dto.WebhookAlreadyPaid, outcome)
}

func TestProcess_CancelledDeliveryDoesNotFailConcurrentOne(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var lookups int32
	orders := &mockOrderStore{
		FindByIDFunc: func(ctx context.Context, id string) (*domain.Order, error) {
			if atomic.AddInt32(&lookups, 1) == 1 {
				close(started)
			}
			select {
			case <-release:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			return &domain.Order{ID: id, Status: domain.OrderStatusPlaced}, nil
		},
		MarkPaidFunc: func(ctx context.Context, id string, amountMinor int64, at time.Time) (bool, error) {
			if err := ctx.Err(); err != nil {
				return false, err
			}
			return true, nil
		},
	}
	processor := NewPaymentWebhookProcessor(orders, zap.NewNop(), time.Second)

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstDone := make(chan error, 1)
	go func() {
		_, err := processor.Process(firstCtx, completedEvent("o1", 2900))
		firstDone <- err
	}()
	<-started

	type result struct {
		outcome dto.WebhookOutcome
		err     error
	}
	secondDone := make(chan result, 1)
	go func() {
		outcome, err := processor.Process(context.Background(), completedEvent("o1", 2900))
		secondDone <- result{outcome: outcome, err: err}
	}()

	// let the second delivery join the in-flight update before the first goes away
	time.Sleep(20 * time.Millisecond)
	cancelFirst()
	assert.Error(t, <-firstDone)

	time.Sleep(20 * time.Millisecond)
	close(release)

	second := <-secondDone
	require.NoError(t, second.err)
	assert.Equal(t, dto.WebhookPaid, second.outcome)
}

func TestProcess_RejectsNegativeAmountWithoutWrite(t *testing.T) {
	orders := &mockOrderStore{}
	processor := NewPaymentWebhookProcessor(orders, zap.NewNop(), time.Second)

	_, err := processor.Process(context.Background(), completedEvent("o1", -1))

	_, ok := apperrors.IsValidationError(err)
	assert.True(t, ok)
}
