package repository

import (
	"errors"
	"time"

	"github.com/loyalty-next/internal/models"

	"gorm.io/gorm"
)

// PinAttemptRepository 员工 PIN 校验记录仓储接口
type PinAttemptRepository interface {
	Create(attempt *models.PinAttempt) error
	GetLatest(employeeID uint) (*models.PinAttempt, error)
	CountRecentFailures(employeeID uint, since time.Time) (int64, error)
	WithTx(tx *gorm.DB) *GormPinAttemptRepository
}

// GormPinAttemptRepository GORM 员工 PIN 校验记录仓储实现
type GormPinAttemptRepository struct {
	db *gorm.DB
}

// NewPinAttemptRepository 创建员工 PIN 校验记录仓储
func NewPinAttemptRepository(db *gorm.DB) *GormPinAttemptRepository {
	return &GormPinAttemptRepository{db: db}
}

// WithTx 绑定事务
func (r *GormPinAttemptRepository) WithTx(tx *gorm.DB) *GormPinAttemptRepository {
	if tx == nil {
		return r
	}
	return &GormPinAttemptRepository{db: tx}
}

// Create 写入校验记录（记录不可变，无更新路径）
func (r *GormPinAttemptRepository) Create(attempt *models.PinAttempt) error {
	if attempt == nil {
		return errors.New("invalid pin attempt")
	}
	return r.db.Create(attempt).Error
}

// GetLatest 查询员工最近一条校验记录
func (r *GormPinAttemptRepository) GetLatest(employeeID uint) (*models.PinAttempt, error) {
	if employeeID == 0 {
		return nil, nil
	}
	var attempt models.PinAttempt
	if err := r.db.Where("employee_id = ?", employeeID).
		Order("id desc").
		First(&attempt).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &attempt, nil
}

// CountRecentFailures 统计时间窗内的失败次数
func (r *GormPinAttemptRepository) CountRecentFailures(employeeID uint, since time.Time) (int64, error) {
	if employeeID == 0 {
		return 0, nil
	}
	var count int64
	if err := r.db.Model(&models.PinAttempt{}).
		Where("employee_id = ? AND success = ? AND created_at >= ?", employeeID, false, since).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
