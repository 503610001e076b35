package service

import (
	"time"

	"github.com/loyalty-next/internal/models"
	"github.com/loyalty-next/internal/repository"
)

// AuditService 核销审计查询服务
// 日志只增不改：本服务只暴露查询，写入全部发生在核销路径内
type AuditService struct {
	logRepo repository.RedemptionLogRepository
}

// NewAuditService 创建审计查询服务
func NewAuditService(logRepo repository.RedemptionLogRepository) *AuditService {
	return &AuditService{logRepo: logRepo}
}

// RedemptionLogListInput 核销日志查询输入
type RedemptionLogListInput struct {
	ShopID      uint
	EmployeeID  uint
	VoucherID   uint
	Success     *bool
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Page        int
	PageSize    int
}

// ListRedemptionLogs 查询核销日志
func (s *AuditService) ListRedemptionLogs(input RedemptionLogListInput) ([]models.RedemptionLog, int64, error) {
	if s == nil || s.logRepo == nil {
		return nil, 0, ErrAuditFetchFailed
	}
	logs, total, err := s.logRepo.List(repository.RedemptionLogListFilter{
		ShopID:      input.ShopID,
		EmployeeID:  input.EmployeeID,
		VoucherID:   input.VoucherID,
		Success:     input.Success,
		CreatedFrom: input.CreatedFrom,
		CreatedTo:   input.CreatedTo,
		Page:        input.Page,
		PageSize:    input.PageSize,
	})
	if err != nil {
		return nil, 0, ErrAuditFetchFailed
	}
	return logs, total, nil
}
