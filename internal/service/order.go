package service

import (
	"context"
	"errors"
	"fmt"
	"printroom-fulfillment/internal/dto"
	"printroom-fulfillment/internal/model"
	"printroom-fulfillment/internal/repository"

	"gorm.io/gorm"
)

// OrderService is the seller-facing read side of the ledger.
type OrderService interface {
	ListOrders(ctx context.Context, sellerID string) ([]*dto.OrderResponse, error)
	GetOrder(ctx context.Context, sellerID, orderID string) (*dto.OrderResponse, error)
}

type orderServiceImpl struct {
	orderRepo repository.OrderRepository
}

func NewOrderService(orderRepo repository.OrderRepository) OrderService {
	return &orderServiceImpl{
		orderRepo: orderRepo,
	}
}

func (s *orderServiceImpl) ListOrders(ctx context.Context, sellerID string) ([]*dto.OrderResponse, error) {
	orders, err := s.orderRepo.ListBySeller(ctx, sellerID)
	if err != nil {
		return nil, fmt.Errorf("list seller orders: %w", err)
	}

	resp := make([]*dto.OrderResponse, len(orders))
	for i, order := range orders {
		resp[i] = OrderToResponse(order, nil)
	}

	return resp, nil
}

func (s *orderServiceImpl) GetOrder(ctx context.Context, sellerID, orderID string) (*dto.OrderResponse, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("find order: %w", err)
	}
	if order.SellerID != sellerID {
		return nil, ErrOrderNotFound
	}

	items, err := s.orderRepo.GetOrderItems(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("load order items: %w", err)
	}

	return OrderToResponse(order, items), nil
}

func OrderToResponse(order *model.Order, items []*model.OrderItem) *dto.OrderResponse {
	resp := &dto.OrderResponse{
		OrderID:        order.ID,
		Status:         string(order.Status),
		CustomerName:   order.CustomerName,
		CustomerEmail:  order.CustomerEmail,
		Currency:       order.Currency,
		Subtotal:       FormatCents(order.SubtotalCents),
		Shipping:       FormatCents(order.ShippingCents),
		Tax:            FormatCents(order.TaxCents),
		Total:          FormatCents(order.TotalCents),
		Profit:         FormatCents(order.ProfitCents),
		TrackingNumber: order.TrackingNumber,
		TrackingURL:    order.TrackingURL,
	}
	if order.FailureReason != nil {
		resp.FailureReason = *order.FailureReason
	}

	for _, item := range items {
		resp.Items = append(resp.Items, &dto.OrderItemResponse{
			PhotoID:     item.PhotoID,
			Sku:         item.SKU,
			ProductName: item.ProductName,
			ProductSize: item.ProductSize,
			Quantity:    item.Quantity,
			UnitPrice:   FormatCents(item.UnitPriceCents),
			LineTotal:   FormatCents(item.LineTotalCents),
		})
	}

	return resp
}
