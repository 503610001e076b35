package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/loyalty-next/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// VoucherRepository 卡券仓储接口
type VoucherRepository interface {
	Create(voucher *models.Voucher) error
	GetByID(id uint) (*models.Voucher, error)
	GetByIDForUpdate(id uint) (*models.Voucher, error)
	GetByActivePinForUpdate(pin string) (*models.Voucher, error)
	GetByActivePin(pin string) (*models.Voucher, error)
	GetByExternalPaymentRef(ref string) (*models.Voucher, error)
	ExistsActivePin(pin string) (bool, error)
	List(filter VoucherListFilter) ([]models.Voucher, int64, error)
	Update(voucher *models.Voucher) error
	ListOverdue(now time.Time, limit int) ([]models.Voucher, error)
	WithTx(tx *gorm.DB) *GormVoucherRepository
}

// GormVoucherRepository GORM 卡券仓储实现
type GormVoucherRepository struct {
	db *gorm.DB
}

// NewVoucherRepository 创建卡券仓储
func NewVoucherRepository(db *gorm.DB) *GormVoucherRepository {
	return &GormVoucherRepository{db: db}
}

// WithTx 绑定事务
func (r *GormVoucherRepository) WithTx(tx *gorm.DB) *GormVoucherRepository {
	if tx == nil {
		return r
	}
	return &GormVoucherRepository{db: tx}
}

// Create 创建卡券
// active_pin 唯一索引冲突由调用方识别（IsDuplicatePinError）并重新采样
func (r *GormVoucherRepository) Create(voucher *models.Voucher) error {
	if voucher == nil {
		return errors.New("invalid voucher")
	}
	return r.db.Create(voucher).Error
}

// IsDuplicatePinError 判断错误是否为激活 PIN 唯一索引冲突
func IsDuplicatePinError(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

// GetByID 根据 ID 查询卡券
func (r *GormVoucherRepository) GetByID(id uint) (*models.Voucher, error) {
	if id == 0 {
		return nil, nil
	}
	var voucher models.Voucher
	if err := r.db.Preload("Offer").Preload("Member").First(&voucher, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &voucher, nil
}

// GetByIDForUpdate 根据 ID 加锁查询卡券
func (r *GormVoucherRepository) GetByIDForUpdate(id uint) (*models.Voucher, error) {
	if id == 0 {
		return nil, nil
	}
	var voucher models.Voucher
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("Offer").
		First(&voucher, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &voucher, nil
}

// GetByActivePinForUpdate 根据激活 PIN 加锁查询卡券
func (r *GormVoucherRepository) GetByActivePinForUpdate(pin string) (*models.Voucher, error) {
	pin = strings.TrimSpace(pin)
	if pin == "" {
		return nil, nil
	}
	var voucher models.Voucher
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("Offer").
		Where("active_pin = ?", pin).
		First(&voucher).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &voucher, nil
}

// GetByActivePin 根据激活 PIN 查询卡券（只读，无行锁）
func (r *GormVoucherRepository) GetByActivePin(pin string) (*models.Voucher, error) {
	pin = strings.TrimSpace(pin)
	if pin == "" {
		return nil, nil
	}
	var voucher models.Voucher
	if err := r.db.Preload("Offer").Where("active_pin = ?", pin).First(&voucher).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &voucher, nil
}

// GetByExternalPaymentRef 根据外部支付参考号查询卡券
func (r *GormVoucherRepository) GetByExternalPaymentRef(ref string) (*models.Voucher, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, nil
	}
	var voucher models.Voucher
	if err := r.db.Preload("Offer").Where("external_payment_ref = ?", ref).First(&voucher).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &voucher, nil
}

// ExistsActivePin 判断 PIN 是否已被激活态卡券占用
func (r *GormVoucherRepository) ExistsActivePin(pin string) (bool, error) {
	pin = strings.TrimSpace(pin)
	if pin == "" {
		return false, nil
	}
	var count int64
	if err := r.db.Model(&models.Voucher{}).Where("active_pin = ?", pin).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// List 查询卡券列表
func (r *GormVoucherRepository) List(filter VoucherListFilter) ([]models.Voucher, int64, error) {
	query := r.db.Model(&models.Voucher{}).Preload("Offer")
	if filter.MemberID > 0 {
		query = query.Where("member_id = ?", filter.MemberID)
	}
	if filter.OfferID > 0 {
		query = query.Where("offer_id = ?", filter.OfferID)
	}
	if status := strings.TrimSpace(filter.Status); status != "" {
		query = query.Where("status = ?", status)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Limit(filter.PageSize).Offset(offset)
	}

	var vouchers []models.Voucher
	if err := query.Order("id desc").Find(&vouchers).Error; err != nil {
		return nil, 0, err
	}
	return vouchers, total, nil
}

// Update 更新卡券
func (r *GormVoucherRepository) Update(voucher *models.Voucher) error {
	if voucher == nil {
		return errors.New("invalid voucher")
	}
	return r.db.Save(voucher).Error
}

// ListOverdue 查询已过有效期但仍占用激活 PIN 的卡券
// purchased 与 redeemed 状态的卡券在有效期内都持有 active_pin
func (r *GormVoucherRepository) ListOverdue(now time.Time, limit int) ([]models.Voucher, error) {
	if limit <= 0 {
		limit = 100
	}
	var vouchers []models.Voucher
	if err := r.db.Where("active_pin IS NOT NULL AND expires_at < ?", now).
		Order("expires_at asc").
		Limit(limit).
		Find(&vouchers).Error; err != nil {
		return nil, err
	}
	return vouchers, nil
}
