package repository

import (
	"errors"
	"strings"

	"github.com/loyalty-next/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OfferRepository 兑换项目仓储接口
type OfferRepository interface {
	Create(offer *models.Offer) error
	GetByID(id uint) (*models.Offer, error)
	GetByIDForUpdate(id uint) (*models.Offer, error)
	List(filter OfferListFilter) ([]models.Offer, int64, error)
	Update(offer *models.Offer) error
	IncrementSold(id uint) error
	IncrementRedeemed(id uint) error
	WithTx(tx *gorm.DB) *GormOfferRepository
}

// GormOfferRepository GORM 兑换项目仓储实现
type GormOfferRepository struct {
	db *gorm.DB
}

// NewOfferRepository 创建兑换项目仓储
func NewOfferRepository(db *gorm.DB) *GormOfferRepository {
	return &GormOfferRepository{db: db}
}

// WithTx 绑定事务
func (r *GormOfferRepository) WithTx(tx *gorm.DB) *GormOfferRepository {
	if tx == nil {
		return r
	}
	return &GormOfferRepository{db: tx}
}

// Create 创建兑换项目
func (r *GormOfferRepository) Create(offer *models.Offer) error {
	if offer == nil {
		return errors.New("invalid offer")
	}
	return r.db.Create(offer).Error
}

// GetByID 根据 ID 查询兑换项目
func (r *GormOfferRepository) GetByID(id uint) (*models.Offer, error) {
	if id == 0 {
		return nil, nil
	}
	var offer models.Offer
	if err := r.db.Preload("Shop").First(&offer, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &offer, nil
}

// GetByIDForUpdate 根据 ID 加锁查询兑换项目（限量校验期间防并发超卖）
func (r *GormOfferRepository) GetByIDForUpdate(id uint) (*models.Offer, error) {
	if id == 0 {
		return nil, nil
	}
	var offer models.Offer
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&offer, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &offer, nil
}

// List 查询兑换项目列表
func (r *GormOfferRepository) List(filter OfferListFilter) ([]models.Offer, int64, error) {
	query := r.db.Model(&models.Offer{}).Preload("Shop")
	if filter.ShopID > 0 {
		query = query.Where("shop_id = ?", filter.ShopID)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		query = query.Where("title LIKE ?", "%"+search+"%")
	}
	if filter.OnlyActive {
		query = query.Where("is_active = ?", true)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Limit(filter.PageSize).Offset(offset)
	}

	var offers []models.Offer
	if err := query.Order("id desc").Find(&offers).Error; err != nil {
		return nil, 0, err
	}
	return offers, total, nil
}

// Update 更新兑换项目
func (r *GormOfferRepository) Update(offer *models.Offer) error {
	if offer == nil {
		return errors.New("invalid offer")
	}
	return r.db.Save(offer).Error
}

// IncrementSold 售出计数自增
func (r *GormOfferRepository) IncrementSold(id uint) error {
	if id == 0 {
		return errors.New("invalid offer id")
	}
	return r.db.Model(&models.Offer{}).Where("id = ?", id).
		Update("sold_count", gorm.Expr("sold_count + 1")).Error
}

// IncrementRedeemed 核销计数自增
func (r *GormOfferRepository) IncrementRedeemed(id uint) error {
	if id == 0 {
		return errors.New("invalid offer id")
	}
	return r.db.Model(&models.Offer{}).Where("id = ?", id).
		Update("redeemed_count", gorm.Expr("redeemed_count + 1")).Error
}
