package repository

import (
	"errors"

	"github.com/loyalty-next/internal/models"

	"gorm.io/gorm"
)

// ShopRepository 门店仓储接口
type ShopRepository interface {
	Create(shop *models.Shop) error
	GetByID(id uint) (*models.Shop, error)
	IncrementSold(id uint) error
	IncrementRedeemed(id uint, points int64) error
	WithTx(tx *gorm.DB) *GormShopRepository
}

// GormShopRepository GORM 门店仓储实现
type GormShopRepository struct {
	db *gorm.DB
}

// NewShopRepository 创建门店仓储
func NewShopRepository(db *gorm.DB) *GormShopRepository {
	return &GormShopRepository{db: db}
}

// WithTx 绑定事务
func (r *GormShopRepository) WithTx(tx *gorm.DB) *GormShopRepository {
	if tx == nil {
		return r
	}
	return &GormShopRepository{db: tx}
}

// Create 创建门店
func (r *GormShopRepository) Create(shop *models.Shop) error {
	if shop == nil {
		return errors.New("invalid shop")
	}
	return r.db.Create(shop).Error
}

// GetByID 根据 ID 查询门店
func (r *GormShopRepository) GetByID(id uint) (*models.Shop, error) {
	if id == 0 {
		return nil, nil
	}
	var shop models.Shop
	if err := r.db.First(&shop, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &shop, nil
}

// IncrementSold 门店售出计数自增
func (r *GormShopRepository) IncrementSold(id uint) error {
	if id == 0 {
		return errors.New("invalid shop id")
	}
	return r.db.Model(&models.Shop{}).Where("id = ?", id).
		Update("sold_count", gorm.Expr("sold_count + 1")).Error
}

// IncrementRedeemed 门店核销计数与结算余额自增
func (r *GormShopRepository) IncrementRedeemed(id uint, points int64) error {
	if id == 0 {
		return errors.New("invalid shop id")
	}
	return r.db.Model(&models.Shop{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"redeemed_count": gorm.Expr("redeemed_count + 1"),
			"balance_points": gorm.Expr("balance_points + ?", points),
		}).Error
}
