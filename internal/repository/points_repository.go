package repository

import (
	"errors"

	"github.com/loyalty-next/internal/constants"
	"github.com/loyalty-next/internal/models"

	"gorm.io/gorm"
)

// PointsRepository 积分流水仓储接口
// 流水追加型，余额按流水聚合得出
type PointsRepository interface {
	Create(txn *models.PointsTransaction) error
	SumBalance(memberID uint) (int64, error)
	ListByMember(memberID uint, page, pageSize int) ([]models.PointsTransaction, int64, error)
	WithTx(tx *gorm.DB) *GormPointsRepository
}

// GormPointsRepository GORM 积分流水仓储实现
type GormPointsRepository struct {
	db *gorm.DB
}

// NewPointsRepository 创建积分流水仓储
func NewPointsRepository(db *gorm.DB) *GormPointsRepository {
	return &GormPointsRepository{db: db}
}

// WithTx 绑定事务
func (r *GormPointsRepository) WithTx(tx *gorm.DB) *GormPointsRepository {
	if tx == nil {
		return r
	}
	return &GormPointsRepository{db: tx}
}

// Create 写入一条积分流水
func (r *GormPointsRepository) Create(txn *models.PointsTransaction) error {
	if txn == nil || txn.MemberID == 0 || txn.Amount <= 0 {
		return errors.New("invalid points transaction")
	}
	return r.db.Create(txn).Error
}

// SumBalance 聚合计算会员当前积分余额（收入减支出）
func (r *GormPointsRepository) SumBalance(memberID uint) (int64, error) {
	var balance *int64
	err := r.db.Model(&models.PointsTransaction{}).
		Where("member_id = ?", memberID).
		Select("SUM(CASE WHEN direction = ? THEN amount ELSE -amount END)",
			constants.PointsTxnDirectionIn).
		Scan(&balance).Error
	if err != nil {
		return 0, err
	}
	if balance == nil {
		return 0, nil
	}
	return *balance, nil
}

// ListByMember 查询会员积分流水
func (r *GormPointsRepository) ListByMember(memberID uint, page, pageSize int) ([]models.PointsTransaction, int64, error) {
	query := r.db.Model(&models.PointsTransaction{}).Where("member_id = ?", memberID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if pageSize > 0 {
		if page < 1 {
			page = 1
		}
		query = query.Limit(pageSize).Offset((page - 1) * pageSize)
	}

	var txns []models.PointsTransaction
	if err := query.Order("id desc").Find(&txns).Error; err != nil {
		return nil, 0, err
	}
	return txns, total, nil
}
