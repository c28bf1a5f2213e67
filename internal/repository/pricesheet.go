package repository

import (
	"context"
	"printroom-fulfillment/internal/model"

	"gorm.io/gorm"
)

type PriceSheetRepository interface {
	CreateSheet(ctx context.Context, sheet *model.PriceSheet, items []*model.PriceSheetItem) error
	FindSheet(ctx context.Context, sellerID, sheetID string) (*model.PriceSheet, error)
	FindDefaultSheet(ctx context.Context, sellerID string) (*model.PriceSheet, error)
	ListSheets(ctx context.Context, sellerID string) ([]*model.PriceSheet, error)
	FindItemsBySKUs(ctx context.Context, sheetID string, skus []string) ([]*model.PriceSheetItem, error)
}

type priceSheetRepoImpl struct {
	db *gorm.DB
}

func NewPriceSheetRepository(db *gorm.DB) PriceSheetRepository {
	return &priceSheetRepoImpl{
		db: db,
	}
}

func (r *priceSheetRepoImpl) CreateSheet(ctx context.Context, sheet *model.PriceSheet, items []*model.PriceSheetItem) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if sheet.IsDefault {
			// demote any existing default so the seller keeps exactly one
			err := tx.Model(&model.PriceSheet{}).
				Where("seller_id = ? AND is_default = ?", sheet.SellerID, true).
				Update("is_default", false).Error
			if err != nil {
				return err
			}
		}

		if err := tx.Create(sheet).Error; err != nil {
			return err
		}

		if len(items) == 0 {
			return nil
		}

		for _, item := range items {
			item.PriceSheetID = sheet.ID
		}
		return tx.Create(&items).Error
	})
}

func (r *priceSheetRepoImpl) FindSheet(ctx context.Context, sellerID, sheetID string) (*model.PriceSheet, error) {
	var sheet model.PriceSheet
	err := r.db.WithContext(ctx).
		Where("id = ? AND seller_id = ?", sheetID, sellerID).
		First(&sheet).Error

	if err != nil {
		return nil, err
	}

	return &sheet, nil
}

func (r *priceSheetRepoImpl) FindDefaultSheet(ctx context.Context, sellerID string) (*model.PriceSheet, error) {
	var sheet model.PriceSheet
	err := r.db.WithContext(ctx).
		Where("seller_id = ? AND is_default = ?", sellerID, true).
		First(&sheet).Error

	if err != nil {
		return nil, err
	}

	return &sheet, nil
}

func (r *priceSheetRepoImpl) ListSheets(ctx context.Context, sellerID string) ([]*model.PriceSheet, error) {
	var sheets []*model.PriceSheet
	err := r.db.WithContext(ctx).
		Where("seller_id = ?", sellerID).
		Find(&sheets).Error

	if err != nil {
		return nil, err
	}

	return sheets, nil
}

func (r *priceSheetRepoImpl) FindItemsBySKUs(ctx context.Context, sheetID string, skus []string) ([]*model.PriceSheetItem, error) {
	var items []*model.PriceSheetItem
	err := r.db.WithContext(ctx).
		Where("price_sheet_id = ? AND sku IN ?", sheetID, skus).
		Find(&items).Error

	if err != nil {
		return nil, err
	}

	return items, nil
}
