package service

import (
	"errors"
	"strings"
	"time"

	"github.com/loyalty-next/internal/constants"
	"github.com/loyalty-next/internal/credential"
	"github.com/loyalty-next/internal/logger"
	"github.com/loyalty-next/internal/models"
	"github.com/loyalty-next/internal/queue"
	"github.com/loyalty-next/internal/repository"

	"gorm.io/gorm"
)

// RedemptionService 核销引擎
// 核销成功是一条事务：卡券状态流转、项目与门店计数、员工累计、成功日志
// 同生同灭；卡券行锁串行化并发核销，输家得到"已核销"且零副作用
type RedemptionService struct {
	voucherRepo  repository.VoucherRepository
	offerRepo    repository.OfferRepository
	shopRepo     repository.ShopRepository
	employeeRepo repository.EmployeeRepository
	logRepo      repository.RedemptionLogRepository
	generator    *credential.Generator
	queueClient  *queue.Client
}

// NewRedemptionService 创建核销引擎
func NewRedemptionService(
	voucherRepo repository.VoucherRepository,
	offerRepo repository.OfferRepository,
	shopRepo repository.ShopRepository,
	employeeRepo repository.EmployeeRepository,
	logRepo repository.RedemptionLogRepository,
	generator *credential.Generator,
	queueClient *queue.Client,
) *RedemptionService {
	return &RedemptionService{
		voucherRepo:  voucherRepo,
		offerRepo:    offerRepo,
		shopRepo:     shopRepo,
		employeeRepo: employeeRepo,
		logRepo:      logRepo,
		generator:    generator,
		queueClient:  queueClient,
	}
}

// RedeemInput 核销输入
// Identifier 按 Method 解释：pin 为裸 PIN，qr 为加密载荷
type RedeemInput struct {
	Identifier string
	Method     string
	Employee   *models.Employee
}

// RedemptionOutcome 核销结果
// 卡券已被核销时携带此前核销的时间与员工，便于店员当面解释
type RedemptionOutcome struct {
	Voucher         *models.Voucher
	PriorRedeemedAt *time.Time
	PriorEmployeeID *uint
}

// Redeem 执行核销
// 前置校验失败会尽力补写一条失败审计日志，但日志写入失败不掩盖原错误
func (s *RedemptionService) Redeem(input RedeemInput) (*RedemptionOutcome, error) {
	if s == nil || s.voucherRepo == nil || s.logRepo == nil {
		return nil, ErrRedeemFailed
	}
	if input.Employee == nil || input.Employee.ID == 0 {
		return nil, ErrEmployeeNotFound
	}
	method := normalizeRedemptionMethod(input.Method)
	if method == "" {
		return nil, ErrInvalidInput
	}

	outcome := &RedemptionOutcome{}
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		voucherRepo := s.voucherRepo.WithTx(tx)

		voucher, err := s.lookupForUpdate(voucherRepo, input.Identifier, method)
		if err != nil {
			return err
		}
		if err := checkRedeemable(voucher, input.Employee, time.Now(), outcome); err != nil {
			return err
		}

		now := time.Now()
		voucher.Status = constants.VoucherStatusRedeemed
		voucher.RedeemedAt = &now
		voucher.RedeemedByEmployeeID = &input.Employee.ID
		voucher.UpdatedAt = now
		if err := voucherRepo.Update(voucher); err != nil {
			return ErrRedeemFailed
		}

		if err := s.offerRepo.WithTx(tx).IncrementRedeemed(voucher.OfferID); err != nil {
			return ErrRedeemFailed
		}
		if err := s.shopRepo.WithTx(tx).IncrementRedeemed(input.Employee.ShopID, voucher.PricePaid); err != nil {
			return ErrRedeemFailed
		}
		if err := s.employeeRepo.WithTx(tx).MarkRedemption(input.Employee.ID, now); err != nil {
			return ErrRedeemFailed
		}
		if err := s.logRepo.WithTx(tx).Create(&models.RedemptionLog{
			VoucherID:  voucher.ID,
			OfferID:    voucher.OfferID,
			MemberID:   voucher.MemberID,
			EmployeeID: input.Employee.ID,
			ShopID:     input.Employee.ShopID,
			Method:     method,
			Success:    true,
			CreatedAt:  now,
		}); err != nil {
			return ErrRedeemFailed
		}

		outcome.Voucher = voucher
		return nil
	})
	if err != nil {
		s.logFailure(input, method, outcome, err)
		return outcome, err
	}

	if s.queueClient != nil && outcome.Voucher != nil {
		// 通知任务尽力投递，失败不回滚已完成的核销
		if err := s.queueClient.EnqueueRedemptionNotify(outcome.Voucher.ID); err != nil {
			logger.Warnw("redemption_notify_enqueue_failed",
				"voucher_id", outcome.Voucher.ID,
				"error", err,
			)
		}
	}
	return outcome, nil
}

// Validate 核销前置校验的只读试算，不产生任何写入
func (s *RedemptionService) Validate(input RedeemInput) (*RedemptionOutcome, error) {
	if s == nil || s.voucherRepo == nil {
		return nil, ErrRedeemFailed
	}
	if input.Employee == nil || input.Employee.ID == 0 {
		return nil, ErrEmployeeNotFound
	}
	method := normalizeRedemptionMethod(input.Method)
	if method == "" {
		return nil, ErrInvalidInput
	}

	voucher, err := s.lookup(input.Identifier, method)
	if err != nil {
		return nil, err
	}
	outcome := &RedemptionOutcome{}
	if err := checkRedeemable(voucher, input.Employee, time.Now(), outcome); err != nil {
		return outcome, err
	}
	outcome.Voucher = voucher
	return outcome, nil
}

// lookupForUpdate 按核销方式定位卡券并加行锁
func (s *RedemptionService) lookupForUpdate(voucherRepo *repository.GormVoucherRepository, identifier, method string) (*models.Voucher, error) {
	switch method {
	case constants.RedemptionMethodPin:
		pin := strings.TrimSpace(identifier)
		if pin == "" {
			return nil, ErrVoucherNotFound
		}
		voucher, err := voucherRepo.GetByActivePinForUpdate(pin)
		if err != nil {
			return nil, ErrRedeemFailed
		}
		if voucher == nil {
			return nil, ErrVoucherNotFound
		}
		return voucher, nil
	case constants.RedemptionMethodQR:
		payload, err := s.generator.DecryptPayload(identifier)
		if err != nil {
			return nil, ErrPayloadMismatch
		}
		voucher, err := voucherRepo.GetByIDForUpdate(payload.VoucherID)
		if err != nil {
			return nil, ErrRedeemFailed
		}
		if voucher == nil {
			return nil, ErrVoucherNotFound
		}
		// 载荷自带的卡券ID与 PIN 必须与库内记录逐一吻合
		if payload.VoucherID != voucher.ID || payload.Pin != voucher.PinCode {
			return nil, ErrPayloadMismatch
		}
		return voucher, nil
	default:
		return nil, ErrInvalidInput
	}
}

// lookup 只读定位卡券（Validate 用，无行锁）
func (s *RedemptionService) lookup(identifier, method string) (*models.Voucher, error) {
	switch method {
	case constants.RedemptionMethodPin:
		pin := strings.TrimSpace(identifier)
		if pin == "" {
			return nil, ErrVoucherNotFound
		}
		voucher, err := s.voucherRepo.GetByActivePin(pin)
		if err != nil {
			return nil, ErrRedeemFailed
		}
		if voucher == nil {
			return nil, ErrVoucherNotFound
		}
		return voucher, nil
	case constants.RedemptionMethodQR:
		payload, err := s.generator.DecryptPayload(identifier)
		if err != nil {
			return nil, ErrPayloadMismatch
		}
		voucher, err := s.voucherRepo.GetByID(payload.VoucherID)
		if err != nil {
			return nil, ErrRedeemFailed
		}
		if voucher == nil {
			return nil, ErrVoucherNotFound
		}
		if payload.VoucherID != voucher.ID || payload.Pin != voucher.PinCode {
			return nil, ErrPayloadMismatch
		}
		return voucher, nil
	default:
		return nil, ErrInvalidInput
	}
}

// checkRedeemable 核销前置校验
// 状态闸门是 status == purchased 的精确判断，未知状态一律不可核销
func checkRedeemable(voucher *models.Voucher, employee *models.Employee, now time.Time, outcome *RedemptionOutcome) error {
	if voucher == nil {
		return ErrVoucherNotFound
	}
	shopID := voucherShopID(voucher)
	if shopID != 0 && employee != nil && shopID != employee.ShopID {
		return ErrVoucherWrongShop
	}
	switch voucher.Status {
	case constants.VoucherStatusRedeemed:
		if outcome != nil {
			outcome.Voucher = voucher
			outcome.PriorRedeemedAt = voucher.RedeemedAt
			outcome.PriorEmployeeID = voucher.RedeemedByEmployeeID
		}
		return ErrVoucherRedeemed
	case constants.VoucherStatusExpired:
		return ErrVoucherExpired
	case constants.VoucherStatusPurchased:
		// 清扫任务可能尚未跑到，过期判断以时刻为准
		if !voucher.ExpiresAt.IsZero() && voucher.ExpiresAt.Before(now) {
			return ErrVoucherExpired
		}
		return nil
	default:
		return ErrVoucherNotRedeemable
	}
}

func voucherShopID(voucher *models.Voucher) uint {
	if voucher == nil || voucher.Offer == nil {
		return 0
	}
	return voucher.Offer.ShopID
}

// logFailure 补写失败审计日志，写入失败仅记录，不改变返回给调用方的错误
func (s *RedemptionService) logFailure(input RedeemInput, method string, outcome *RedemptionOutcome, cause error) {
	if s == nil || s.logRepo == nil || input.Employee == nil {
		return
	}
	reason := failureReason(cause)
	entry := &models.RedemptionLog{
		EmployeeID:    input.Employee.ID,
		ShopID:        input.Employee.ShopID,
		Method:        method,
		Success:       false,
		FailureReason: &reason,
		CreatedAt:     time.Now(),
	}
	if outcome != nil && outcome.Voucher != nil {
		entry.VoucherID = outcome.Voucher.ID
		entry.OfferID = outcome.Voucher.OfferID
		entry.MemberID = outcome.Voucher.MemberID
	}
	if err := s.logRepo.Create(entry); err != nil {
		logger.Warnw("redemption_failure_log_write_failed",
			"employee_id", input.Employee.ID,
			"reason", reason,
			"error", err,
		)
	}
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, ErrVoucherNotFound):
		return constants.RedemptionFailReasonNotFound
	case errors.Is(err, ErrVoucherWrongShop):
		return constants.RedemptionFailReasonWrongShop
	case errors.Is(err, ErrVoucherRedeemed):
		return constants.RedemptionFailReasonAlreadyRedeemed
	case errors.Is(err, ErrVoucherExpired):
		return constants.RedemptionFailReasonExpired
	case errors.Is(err, ErrVoucherNotRedeemable):
		return constants.RedemptionFailReasonNotRedeemable
	case errors.Is(err, ErrPayloadMismatch):
		return constants.RedemptionFailReasonPayloadMismatch
	default:
		return constants.RedemptionFailReasonInternalError
	}
}

func normalizeRedemptionMethod(method string) string {
	switch strings.ToLower(strings.TrimSpace(method)) {
	case constants.RedemptionMethodPin:
		return constants.RedemptionMethodPin
	case constants.RedemptionMethodQR:
		return constants.RedemptionMethodQR
	default:
		return ""
	}
}
