package service

import (
	"strings"

	"github.com/loyalty-next/internal/constants"
	"github.com/loyalty-next/internal/models"
	"github.com/loyalty-next/internal/repository"
)

// PointsService 会员积分服务
// 余额不落物化字段，始终由流水实时求和得出
type PointsService struct {
	pointsRepo repository.PointsRepository
	memberRepo repository.MemberRepository
}

// NewPointsService 创建积分服务
func NewPointsService(pointsRepo repository.PointsRepository, memberRepo repository.MemberRepository) *PointsService {
	return &PointsService{
		pointsRepo: pointsRepo,
		memberRepo: memberRepo,
	}
}

// GetBalance 查询会员积分余额
func (s *PointsService) GetBalance(memberID uint) (int64, error) {
	if s == nil || s.pointsRepo == nil || memberID == 0 {
		return 0, ErrMemberNotFound
	}
	balance, err := s.pointsRepo.SumBalance(memberID)
	if err != nil {
		return 0, ErrPointsFetchFailed
	}
	return balance, nil
}

// CreditPoints 为会员充入积分（活动发放、人工调整）
func (s *PointsService) CreditPoints(memberID uint, amount int64, txnType, reference, remark string) (*models.PointsTransaction, error) {
	if s == nil || s.pointsRepo == nil {
		return nil, ErrInvalidInput
	}
	if memberID == 0 || amount <= 0 {
		return nil, ErrInvalidInput
	}
	if s.memberRepo != nil {
		member, err := s.memberRepo.GetByID(memberID)
		if err != nil {
			return nil, ErrMemberNotFound
		}
		if member == nil {
			return nil, ErrMemberNotFound
		}
		if member.Status != constants.MemberStatusActive {
			return nil, ErrMemberDisabled
		}
	}
	normalizedType := strings.TrimSpace(strings.ToLower(txnType))
	if normalizedType == "" {
		normalizedType = constants.PointsTxnTypeEarn
	}

	txn := &models.PointsTransaction{
		MemberID:  memberID,
		Direction: constants.PointsTxnDirectionIn,
		Amount:    amount,
		Type:      normalizedType,
		Reference: strings.TrimSpace(reference),
		Remark:    strings.TrimSpace(remark),
	}
	if err := s.pointsRepo.Create(txn); err != nil {
		return nil, ErrInvalidInput
	}
	return txn, nil
}

// ListTransactions 查询会员积分流水
func (s *PointsService) ListTransactions(memberID uint, page, pageSize int) ([]models.PointsTransaction, int64, error) {
	if s == nil || s.pointsRepo == nil || memberID == 0 {
		return nil, 0, ErrMemberNotFound
	}
	return s.pointsRepo.ListByMember(memberID, page, pageSize)
}
