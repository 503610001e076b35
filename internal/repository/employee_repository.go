package repository

import (
	"errors"
	"time"

	"github.com/loyalty-next/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EmployeeRepository 员工仓储接口
type EmployeeRepository interface {
	Create(employee *models.Employee) error
	GetByID(id uint) (*models.Employee, error)
	GetByIDForUpdate(id uint) (*models.Employee, error)
	Update(employee *models.Employee) error
	MarkRedemption(id uint, at time.Time) error
	WithTx(tx *gorm.DB) *GormEmployeeRepository
}

// GormEmployeeRepository GORM 员工仓储实现
type GormEmployeeRepository struct {
	db *gorm.DB
}

// NewEmployeeRepository 创建员工仓储
func NewEmployeeRepository(db *gorm.DB) *GormEmployeeRepository {
	return &GormEmployeeRepository{db: db}
}

// WithTx 绑定事务
func (r *GormEmployeeRepository) WithTx(tx *gorm.DB) *GormEmployeeRepository {
	if tx == nil {
		return r
	}
	return &GormEmployeeRepository{db: tx}
}

// Create 创建员工
func (r *GormEmployeeRepository) Create(employee *models.Employee) error {
	if employee == nil {
		return errors.New("invalid employee")
	}
	return r.db.Create(employee).Error
}

// GetByID 根据 ID 查询员工
func (r *GormEmployeeRepository) GetByID(id uint) (*models.Employee, error) {
	if id == 0 {
		return nil, nil
	}
	var employee models.Employee
	if err := r.db.First(&employee, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &employee, nil
}

// GetByIDForUpdate 根据 ID 加锁查询员工
// 锁定窗口内的失败计数与新记录写入需要串行化并发校验请求
func (r *GormEmployeeRepository) GetByIDForUpdate(id uint) (*models.Employee, error) {
	if id == 0 {
		return nil, nil
	}
	var employee models.Employee
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&employee, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &employee, nil
}

// Update 更新员工
func (r *GormEmployeeRepository) Update(employee *models.Employee) error {
	if employee == nil {
		return errors.New("invalid employee")
	}
	return r.db.Save(employee).Error
}

// MarkRedemption 核销成功后累计次数并刷新活跃时间
func (r *GormEmployeeRepository) MarkRedemption(id uint, at time.Time) error {
	if id == 0 {
		return errors.New("invalid employee id")
	}
	return r.db.Model(&models.Employee{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"total_redemptions": gorm.Expr("total_redemptions + 1"),
			"last_active_at":    at,
		}).Error
}
