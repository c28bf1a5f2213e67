package service

import (
	"context"
	"fmt"
	"printroom-fulfillment/internal/dto"
	"printroom-fulfillment/internal/model"
	"printroom-fulfillment/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PriceSheetService interface {
	CreateSheet(ctx context.Context, sellerID string, req *dto.CreatePriceSheetRequest) (*dto.PriceSheetResponse, error)
	ListSheets(ctx context.Context, sellerID string) ([]*dto.PriceSheetResponse, error)
}

type priceSheetServiceImpl struct {
	priceSheetRepo repository.PriceSheetRepository
}

func NewPriceSheetService(priceSheetRepo repository.PriceSheetRepository) PriceSheetService {
	return &priceSheetServiceImpl{
		priceSheetRepo: priceSheetRepo,
	}
}

func (s *priceSheetServiceImpl) CreateSheet(ctx context.Context, sellerID string, req *dto.CreatePriceSheetRequest) (*dto.PriceSheetResponse, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("price sheet name is required")
	}

	items := make([]*model.PriceSheetItem, len(req.Items))
	for i, item := range req.Items {
		retail, err := decimal.NewFromString(item.RetailPrice)
		if err != nil {
			return nil, fmt.Errorf("invalid retail price for sku %s: %w", item.Sku, err)
		}
		cents := retail.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
		if cents <= 0 {
			return nil, fmt.Errorf("retail price for sku %s must be positive", item.Sku)
		}

		items[i] = &model.PriceSheetItem{
			SKU:              item.Sku,
			ProductName:      item.ProductName,
			ProductSize:      item.ProductSize,
			RetailPriceCents: cents,
		}
	}

	sheet := &model.PriceSheet{
		ID:        "ps_" + uuid.NewString(),
		SellerID:  sellerID,
		Name:      req.Name,
		IsDefault: req.IsDefault,
	}

	if err := s.priceSheetRepo.CreateSheet(ctx, sheet, items); err != nil {
		return nil, fmt.Errorf("store price sheet: %w", err)
	}

	return &dto.PriceSheetResponse{
		ID:        sheet.ID,
		Name:      sheet.Name,
		IsDefault: sheet.IsDefault,
	}, nil
}

func (s *priceSheetServiceImpl) ListSheets(ctx context.Context, sellerID string) ([]*dto.PriceSheetResponse, error) {
	sheets, err := s.priceSheetRepo.ListSheets(ctx, sellerID)
	if err != nil {
		return nil, fmt.Errorf("list price sheets: %w", err)
	}

	resp := make([]*dto.PriceSheetResponse, len(sheets))
	for i, sheet := range sheets {
		resp[i] = &dto.PriceSheetResponse{
			ID:        sheet.ID,
			Name:      sheet.Name,
			IsDefault: sheet.IsDefault,
		}
	}

	return resp, nil
}
