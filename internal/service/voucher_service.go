package service

import (
	"time"

	"github.com/loyalty-next/internal/constants"
	"github.com/loyalty-next/internal/logger"
	"github.com/loyalty-next/internal/models"
	"github.com/loyalty-next/internal/repository"

	"gorm.io/gorm"
)

// 单次清扫的批量上限，避免长事务
const expireSweepBatchSize = 500

// VoucherService 卡券查询与过期清扫服务
type VoucherService struct {
	voucherRepo repository.VoucherRepository
}

// NewVoucherService 创建卡券服务
func NewVoucherService(voucherRepo repository.VoucherRepository) *VoucherService {
	return &VoucherService{voucherRepo: voucherRepo}
}

// GetVoucher 获取卡券详情
func (s *VoucherService) GetVoucher(id uint) (*models.Voucher, error) {
	if s == nil || s.voucherRepo == nil || id == 0 {
		return nil, ErrVoucherNotFound
	}
	voucher, err := s.voucherRepo.GetByID(id)
	if err != nil {
		return nil, ErrRedeemFailed
	}
	if voucher == nil {
		return nil, ErrVoucherNotFound
	}
	return voucher, nil
}

// ListMemberVouchers 查询会员持有的卡券
func (s *VoucherService) ListMemberVouchers(memberID uint, status string, page, pageSize int) ([]models.Voucher, int64, error) {
	if s == nil || s.voucherRepo == nil || memberID == 0 {
		return nil, 0, ErrVoucherNotFound
	}
	return s.voucherRepo.List(repository.VoucherListFilter{
		MemberID: memberID,
		Status:   status,
		Page:     page,
		PageSize: pageSize,
	})
}

// ExpireOverdue 清扫已过有效期仍占用激活 PIN 的卡券
// purchased 卡券流转为 expired；redeemed 卡券状态不变，仅释放 PIN
// 状态流转只有 purchased→expired 一条路径；返回本次处理的卡券数
func (s *VoucherService) ExpireOverdue(now time.Time) (int, error) {
	if s == nil || s.voucherRepo == nil {
		return 0, ErrRedeemFailed
	}

	swept := 0
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		repo := s.voucherRepo.WithTx(tx)
		overdue, err := repo.ListOverdue(now, expireSweepBatchSize)
		if err != nil {
			return err
		}
		for i := range overdue {
			voucher := &overdue[i]
			switch voucher.Status {
			case constants.VoucherStatusPurchased:
				voucher.Status = constants.VoucherStatusExpired
			case constants.VoucherStatusRedeemed:
				// 已核销卡券过期后仅回收 PIN 号段
			default:
				continue
			}
			voucher.ActivePin = nil
			voucher.UpdatedAt = now
			if err := repo.Update(voucher); err != nil {
				return err
			}
			swept++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if swept > 0 {
		logger.Infow("voucher_expire_sweep", "swept", swept)
	}
	return swept, nil
}
