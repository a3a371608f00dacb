package service

import (
	"errors"
	"sort"

	"github.com/thriftshop/storefront/internal/app/model"
	"github.com/thriftshop/storefront/internal/app/repository"
	"github.com/thriftshop/storefront/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrShippingMethodNotFound = errors.New("shipping method not found")
	ErrShippingZoneNotFound   = errors.New("no shipping zone covers this address")
)

type ItemQuantity struct {
	ProductID uint
	Quantity  int
}

type ShippingQuote struct {
	Zone         string  `json:"zone"`
	Method       string  `json:"method"`
	Subtotal     float64 `json:"subtotal"`
	ShippingCost float64 `json:"shipping_cost"`
	FreeShipping bool    `json:"free_shipping"`
	Total        float64 `json:"total"`
}

type ShippingService interface {
	ListMethods() ([]model.ShippingMethod, error)
	ResolveZone(state string) (*model.ShippingZone, error)
	Quote(subtotal float64, state string, methodID uint) (*ShippingQuote, error)
	QuoteItems(items []ItemQuantity, state string, methodID uint) (*ShippingQuote, error)
}

type shippingService struct {
	shippingRepo repository.ShippingRepository
	productRepo  repository.ProductRepository
}

func NewShippingService(shippingRepo repository.ShippingRepository, productRepo repository.ProductRepository) ShippingService {
	return &shippingService{
		shippingRepo: shippingRepo,
		productRepo:  productRepo,
	}
}

func (s *shippingService) ListMethods() ([]model.ShippingMethod, error) {
	methods, err := s.shippingRepo.ListActiveMethods()
	if err != nil {
		logger.Error("Failed to list shipping methods", err)
		return nil, err
	}
	return methods, nil
}

// ResolveZone picks the first zone listing the state, then the default zone.
func (s *shippingService) ResolveZone(state string) (*model.ShippingZone, error) {
	zones, err := s.shippingRepo.ListZones()
	if err != nil {
		logger.Error("Failed to list shipping zones", err)
		return nil, err
	}

	var fallback *model.ShippingZone
	for i := range zones {
		if state != "" && zones[i].Covers(state) {
			return &zones[i], nil
		}
		if zones[i].IsDefault && fallback == nil {
			fallback = &zones[i]
		}
	}
	if fallback != nil {
		return fallback, nil
	}

	logger.Warn("No shipping zone for state", map[string]interface{}{
		"state": state,
	})
	return nil, ErrShippingZoneNotFound
}

func (s *shippingService) Quote(subtotal float64, state string, methodID uint) (*ShippingQuote, error) {
	method, err := s.shippingRepo.FindMethodByID(methodID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrShippingMethodNotFound
		}
		return nil, err
	}
	zone, err := s.ResolveZone(state)
	if err != nil {
		return nil, err
	}

	subtotal = roundCents(subtotal)
	quote := &ShippingQuote{
		Zone:     zone.Name,
		Method:   method.Name,
		Subtotal: subtotal,
	}
	if zone.FreeShippingThreshold > 0 && subtotal >= zone.FreeShippingThreshold {
		quote.FreeShipping = true
	} else {
		quote.ShippingCost = roundCents(zone.BaseCost * method.CostMultiplier)
	}
	quote.Total = roundCents(quote.Subtotal + quote.ShippingCost)

	logger.Debug("Shipping quoted", map[string]interface{}{
		"zone":          zone.Name,
		"method":        method.Name,
		"subtotal":      quote.Subtotal,
		"shipping_cost": quote.ShippingCost,
	})
	return quote, nil
}

func (s *shippingService) QuoteItems(items []ItemQuantity, state string, methodID uint) (*ShippingQuote, error) {
	_, subtotal, err := priceItems(s.productRepo, items)
	if err != nil {
		return nil, err
	}
	return s.Quote(subtotal, state, methodID)
}

// priceItems snapshots current prices for the requested products. Repeated
// product ids are summed. Every line must be available in full.
func priceItems(productRepo repository.ProductRepository, items []ItemQuantity) ([]model.OrderItem, float64, error) {
	wanted := make(map[uint]int)
	for _, it := range items {
		if it.ProductID == 0 || !validQuantity(it.Quantity) {
			return nil, 0, ErrInvalidQuantity
		}
		wanted[it.ProductID] += it.Quantity
	}
	if len(wanted) == 0 {
		return nil, 0, ErrCartEmpty
	}

	ids := make([]uint, 0, len(wanted))
	for id := range wanted {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	products, err := productRepo.FindByIDs(ids)
	if err != nil {
		return nil, 0, err
	}
	byID := make(map[uint]*model.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	lines := make([]model.OrderItem, 0, len(ids))
	subtotal := 0.0
	for _, id := range ids {
		p, ok := byID[id]
		if !ok {
			return nil, 0, ErrProductNotFound
		}
		qty := wanted[id]
		if !p.InStock(qty) {
			return nil, 0, insufficient(p)
		}
		lines = append(lines, model.OrderItem{
			ProductID: p.ID,
			Title:     p.Title,
			Size:      p.Size,
			Price:     p.Price,
			Quantity:  qty,
		})
		subtotal += p.Price * float64(qty)
	}
	return lines, roundCents(subtotal), nil
}
