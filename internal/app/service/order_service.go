package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/thriftshop/storefront/internal/app/model"
	"github.com/thriftshop/storefront/internal/app/repository"
	"github.com/thriftshop/storefront/pkg/logger"
	"github.com/thriftshop/storefront/pkg/mailer"
	"github.com/thriftshop/storefront/pkg/payment/razorpay"
	"github.com/thriftshop/storefront/pkg/util"
	"gorm.io/gorm"
)

var (
	ErrOrderNotFound         = errors.New("order not found")
	ErrOrderAlreadyPaid      = errors.New("order already paid")
	ErrSignatureMismatch     = errors.New("payment signature mismatch")
	ErrPaymentGateway        = errors.New("payment gateway error")
	ErrGuestEmailRequired    = errors.New("email is required for guest checkout")
	ErrOrderStockUnavailable = errors.New("an item sold out before payment completed")
)

// PaymentGateway creates hosted payment orders and checks their callbacks.
type PaymentGateway interface {
	KeyID() string
	Currency() string
	CreateOrder(ctx context.Context, req razorpay.CreateOrderRequest) (*razorpay.Order, error)
	VerifySignature(orderID, paymentID, signature string) bool
}

type CheckoutInput struct {
	Address          model.Address
	ShippingMethodID uint
}

type GuestCheckoutInput struct {
	Email            string
	Name             string
	Items            []ItemQuantity
	Address          model.Address
	ShippingMethodID uint
}

// PaymentOrder is handed to the gateway checkout widget. Amount is in the
// currency's smallest unit.
type PaymentOrder struct {
	OrderNumber    string `json:"order_number"`
	GatewayOrderID string `json:"gateway_order_id"`
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
	KeyID          string `json:"key_id"`
}

type VerifyPaymentInput struct {
	GatewayOrderID   string
	GatewayPaymentID string
	Signature        string
}

type OrderService interface {
	CreatePaymentOrder(ctx context.Context, userID uint, input CheckoutInput) (*PaymentOrder, error)
	CreateGuestOrder(ctx context.Context, input GuestCheckoutInput) (*PaymentOrder, error)
	VerifyPayment(ctx context.Context, input VerifyPaymentInput) (*model.Order, error)
	GetPendingOrder(orderNumber, email string) (*model.Order, error)
	ListUserOrders(userID uint) ([]model.Order, error)
}

type orderService struct {
	orderRepo   repository.OrderRepository
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	userRepo    repository.UserRepository
	shipping    ShippingService
	gateway     PaymentGateway
	mail        mailer.Mailer
	events      EventPublisher
	now         func() time.Time
}

func NewOrderService(
	orderRepo repository.OrderRepository,
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
	userRepo repository.UserRepository,
	shipping ShippingService,
	gateway PaymentGateway,
	mail mailer.Mailer,
	events EventPublisher,
) OrderService {
	if mail == nil {
		mail = mailer.LogMailer{}
	}
	return &orderService{
		orderRepo:   orderRepo,
		cartRepo:    cartRepo,
		productRepo: productRepo,
		userRepo:    userRepo,
		shipping:    shipping,
		gateway:     gateway,
		mail:        mail,
		events:      publisherOrNop(events),
		now:         time.Now,
	}
}

func minorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func (s *orderService) CreatePaymentOrder(ctx context.Context, userID uint, input CheckoutInput) (*PaymentOrder, error) {
	logger.Info("Creating payment order", map[string]interface{}{
		"user_id":            userID,
		"shipping_method_id": input.ShippingMethodID,
	})

	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	cartItems, err := s.cartRepo.FindByUserID(userID)
	if err != nil {
		logger.Error("Failed to load cart for checkout", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}
	if len(cartItems) == 0 {
		return nil, ErrCartEmpty
	}
	items := make([]ItemQuantity, 0, len(cartItems))
	for _, ci := range cartItems {
		items = append(items, ItemQuantity{ProductID: ci.ProductID, Quantity: ci.Quantity})
	}

	order := &model.Order{UserID: &user.ID, Email: user.Email, Name: user.Name}
	return s.placeOrder(ctx, order, items, input.Address, input.ShippingMethodID)
}

func (s *orderService) CreateGuestOrder(ctx context.Context, input GuestCheckoutInput) (*PaymentOrder, error) {
	email := normalizeEmail(input.Email)
	if email == "" {
		return nil, ErrGuestEmailRequired
	}
	logger.Info("Creating guest payment order", map[string]interface{}{
		"email": email,
		"lines": len(input.Items),
	})

	name := strings.TrimSpace(input.Name)
	if name == "" {
		name = input.Address.Name
	}
	order := &model.Order{Email: email, Name: name}
	return s.placeOrder(ctx, order, input.Items, input.Address, input.ShippingMethodID)
}

// placeOrder prices the items, opens a gateway order for the total and
// stores the pending order.
func (s *orderService) placeOrder(ctx context.Context, order *model.Order, items []ItemQuantity, addr model.Address, methodID uint) (*PaymentOrder, error) {
	lines, subtotal, err := priceItems(s.productRepo, items)
	if err != nil {
		return nil, err
	}
	quote, err := s.shipping.Quote(subtotal, addr.State, methodID)
	if err != nil {
		return nil, err
	}

	order.OrderNumber = util.NewOrderNumber(s.now())
	order.Status = model.OrderStatusPending
	order.Subtotal = quote.Subtotal
	order.ShippingCost = quote.ShippingCost
	order.Total = quote.Total
	order.Currency = s.gateway.Currency()
	order.ShippingAddress = addr
	order.ShippingMethodID = methodID
	order.Items = lines

	gwOrder, err := s.gateway.CreateOrder(ctx, razorpay.CreateOrderRequest{
		Amount:   minorUnits(order.Total),
		Currency: order.Currency,
		Receipt:  order.OrderNumber,
		Notes:    map[string]string{"email": order.Email},
	})
	if err != nil {
		logger.Error("Failed to create gateway order", err, map[string]interface{}{
			"order_number": order.OrderNumber,
		})
		return nil, fmt.Errorf("%w: %v", ErrPaymentGateway, err)
	}
	order.GatewayOrderID = gwOrder.ID

	if err := s.orderRepo.Create(order); err != nil {
		logger.Error("Failed to store order", err, map[string]interface{}{
			"order_number":     order.OrderNumber,
			"gateway_order_id": gwOrder.ID,
		})
		return nil, err
	}

	logger.Info("Payment order created", map[string]interface{}{
		"order_id":         order.ID,
		"order_number":     order.OrderNumber,
		"gateway_order_id": gwOrder.ID,
		"total":            order.Total,
	})

	return &PaymentOrder{
		OrderNumber:    order.OrderNumber,
		GatewayOrderID: gwOrder.ID,
		Amount:         minorUnits(order.Total),
		Currency:       order.Currency,
		KeyID:          s.gateway.KeyID(),
	}, nil
}

// VerifyPayment confirms a gateway callback. Repeating a callback that was
// already applied returns the paid order unchanged.
func (s *orderService) VerifyPayment(ctx context.Context, input VerifyPaymentInput) (*model.Order, error) {
	logger.Info("Verifying payment", map[string]interface{}{
		"gateway_order_id":   input.GatewayOrderID,
		"gateway_payment_id": input.GatewayPaymentID,
	})

	order, err := s.orderRepo.FindByGatewayOrderID(input.GatewayOrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	if !s.gateway.VerifySignature(input.GatewayOrderID, input.GatewayPaymentID, input.Signature) {
		logger.Warn("Payment signature mismatch", map[string]interface{}{
			"order_id":         order.ID,
			"gateway_order_id": input.GatewayOrderID,
		})
		return nil, ErrSignatureMismatch
	}

	if order.Status != model.OrderStatusPending {
		if order.GatewayPaymentID == input.GatewayPaymentID && input.GatewayPaymentID != "" {
			return order, nil
		}
		logger.Warn("Payment for settled order", map[string]interface{}{
			"order_id": order.ID,
			"status":   order.Status,
		})
		return nil, ErrOrderAlreadyPaid
	}

	changes, err := s.orderRepo.MarkPaid(order, input.GatewayPaymentID, s.now())
	if err != nil {
		if errors.Is(err, repository.ErrStockConflict) {
			return nil, ErrOrderStockUnavailable
		}
		return nil, err
	}

	if order.UserID != nil {
		s.events.PublishCartUpdated(*order.UserID)
	}
	for _, change := range changes {
		holders, err := s.cartRepo.FindUserIDsByProduct(change.ProductID)
		if err != nil {
			logger.Warn("Failed to find cart holders for stock event", map[string]interface{}{
				"product_id": change.ProductID,
				"error":      err.Error(),
			})
			continue
		}
		if len(holders) > 0 {
			s.events.PublishStockChanged(change.ProductID, change.Remaining, holders)
		}
	}

	s.sendReceipt(ctx, order)

	logger.Info("Payment verified", map[string]interface{}{
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
	})
	return order, nil
}

func (s *orderService) sendReceipt(ctx context.Context, order *model.Order) {
	lines := make([]mailer.Line, 0, len(order.Items))
	for _, it := range order.Items {
		lines = append(lines, mailer.Line{Title: it.Title, Quantity: it.Quantity, Price: it.Price})
	}
	msg, err := mailer.OrderReceiptMessage(order.Email, mailer.OrderReceipt{
		Name:         order.Name,
		OrderNumber:  order.OrderNumber,
		Lines:        lines,
		Subtotal:     order.Subtotal,
		ShippingCost: order.ShippingCost,
		Total:        order.Total,
		Currency:     order.Currency,
	})
	if err == nil {
		err = s.mail.Send(ctx, msg)
	}
	if err != nil {
		logger.Warn("Failed to send order confirmation", map[string]interface{}{
			"order_number": order.OrderNumber,
			"error":        err.Error(),
		})
	}
}

func (s *orderService) GetPendingOrder(orderNumber, email string) (*model.Order, error) {
	order, err := s.orderRepo.FindByOrderNumber(orderNumber)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if !strings.EqualFold(order.Email, strings.TrimSpace(email)) {
		logger.Warn("Order lookup with mismatched email", map[string]interface{}{
			"order_number": orderNumber,
		})
		return nil, ErrOrderNotFound
	}
	return order, nil
}

func (s *orderService) ListUserOrders(userID uint) ([]model.Order, error) {
	orders, err := s.orderRepo.FindByUserID(userID)
	if err != nil {
		logger.Error("Failed to list orders", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}
	if orders == nil {
		orders = []model.Order{}
	}
	return orders, nil
}
