package repository

import (
	"errors"

	"github.com/loyalty-next/internal/models"

	"gorm.io/gorm"
)

// RedemptionLogRepository 核销审计日志仓储接口
// 追加型：只提供写入与查询，无更新和删除
type RedemptionLogRepository interface {
	Create(log *models.RedemptionLog) error
	List(filter RedemptionLogListFilter) ([]models.RedemptionLog, int64, error)
	WithTx(tx *gorm.DB) *GormRedemptionLogRepository
}

// GormRedemptionLogRepository GORM 核销审计日志仓储实现
type GormRedemptionLogRepository struct {
	db *gorm.DB
}

// NewRedemptionLogRepository 创建核销审计日志仓储
func NewRedemptionLogRepository(db *gorm.DB) *GormRedemptionLogRepository {
	return &GormRedemptionLogRepository{db: db}
}

// WithTx 绑定事务
func (r *GormRedemptionLogRepository) WithTx(tx *gorm.DB) *GormRedemptionLogRepository {
	if tx == nil {
		return r
	}
	return &GormRedemptionLogRepository{db: tx}
}

// Create 写入核销日志
func (r *GormRedemptionLogRepository) Create(log *models.RedemptionLog) error {
	if log == nil {
		return errors.New("invalid redemption log")
	}
	return r.db.Create(log).Error
}

// List 查询核销日志列表
func (r *GormRedemptionLogRepository) List(filter RedemptionLogListFilter) ([]models.RedemptionLog, int64, error) {
	query := r.db.Model(&models.RedemptionLog{})
	if filter.ShopID > 0 {
		query = query.Where("shop_id = ?", filter.ShopID)
	}
	if filter.EmployeeID > 0 {
		query = query.Where("employee_id = ?", filter.EmployeeID)
	}
	if filter.VoucherID > 0 {
		query = query.Where("voucher_id = ?", filter.VoucherID)
	}
	if filter.Success != nil {
		query = query.Where("success = ?", *filter.Success)
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

	var logs []models.RedemptionLog
	if err := query.Order("id desc").Find(&logs).Error; err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}
