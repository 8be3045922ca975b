package order

import (
	"database/sql"

	"go.uber.org/zap"

	"tastycheckout/internal/config"
	"tastycheckout/internal/order/controller"
	orderrepo "tastycheckout/internal/order/repository"
	"tastycheckout/internal/order/service"
	"tastycheckout/internal/order/usecase"
	restaurantrepo "tastycheckout/internal/restaurant/repository"
)

// Gateway is the payment provider surface the order module needs. One
// instance is created at startup and shared by both checkout endpoints.
type Gateway interface {
	usecase.PaymentGateway
	controller.SignatureVerifier
}

type Module struct {
	Checkout *controller.CheckoutController
	Webhook  *controller.WebhookController
	Orders   *controller.OrderController
}

func NewModule(db *sql.DB, cfg *config.Config, gateway Gateway, logger *zap.Logger) *Module {
	orderRepo := orderrepo.NewMySQLOrderRepository(db)
	restaurantRepo := restaurantrepo.NewMySQLRepository(db)

	builder := service.NewCheckoutSessionBuilder(
		service.PriceConvention(cfg.Checkout.PriceConvention),
		service.UnmatchedItemPolicy(cfg.Checkout.UnmatchedItemPolicy),
		logger,
	)

	checkoutUC := usecase.NewCreateCheckoutSessionUseCase(
		restaurantRepo,
		builder,
		orderRepo,
		gateway,
		logger,
		cfg.Frontend.URL,
		cfg.Order.StoreTimeout,
	)
	processor := usecase.NewPaymentWebhookProcessor(orderRepo, logger, cfg.Order.StoreTimeout)
	getOrderUC := usecase.NewGetOrderUseCase(orderRepo, cfg.Order.StoreTimeout)

	return &Module{
		Checkout: controller.NewCheckoutController(checkoutUC, logger),
		Webhook:  controller.NewWebhookController(gateway, processor, logger),
		Orders:   controller.NewOrderController(getOrderUC, logger),
	}
}
