package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/loyalty-next/internal/config"
	"github.com/loyalty-next/internal/constants"
	"github.com/loyalty-next/internal/credential"
	"github.com/loyalty-next/internal/logger"
	"github.com/loyalty-next/internal/models"
	"github.com/loyalty-next/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// 激活 PIN 唯一索引冲突时的整单重试上限
// 冲突只可能来自并发购买窗口内撞出同一 PIN，重试一次基本必然换到新 PIN
const purchaseDuplicatePinRetries = 3

// PurchaseService 购买发卡服务
// 支付确认与积分扣减两条路径共用同一套发卡事务
type PurchaseService struct {
	cfg         *config.Config
	voucherRepo repository.VoucherRepository
	offerRepo   repository.OfferRepository
	shopRepo    repository.ShopRepository
	memberRepo  repository.MemberRepository
	pointsRepo  repository.PointsRepository
	generator   *credential.Generator
}

// NewPurchaseService 创建购买发卡服务
func NewPurchaseService(
	cfg *config.Config,
	voucherRepo repository.VoucherRepository,
	offerRepo repository.OfferRepository,
	shopRepo repository.ShopRepository,
	memberRepo repository.MemberRepository,
	pointsRepo repository.PointsRepository,
	generator *credential.Generator,
) *PurchaseService {
	return &PurchaseService{
		cfg:         cfg,
		voucherRepo: voucherRepo,
		offerRepo:   offerRepo,
		shopRepo:    shopRepo,
		memberRepo:  memberRepo,
		pointsRepo:  pointsRepo,
		generator:   generator,
	}
}

// PaymentConfirmationInput 支付确认发卡输入
type PaymentConfirmationInput struct {
	ExternalPaymentRef string
	MemberID           uint
	OfferID            uint
	AmountPaid         models.Money
}

// PointsPurchaseInput 积分购买输入
type PointsPurchaseInput struct {
	MemberID uint
	OfferID  uint
}

// ConfirmPayment 处理支付网关的支付确认，签发卡券
// 以 external_payment_ref 幂等：重复确认返回首次签发的卡券
func (s *PurchaseService) ConfirmPayment(input PaymentConfirmationInput) (*models.Voucher, error) {
	if s == nil || s.voucherRepo == nil || s.offerRepo == nil {
		return nil, ErrVoucherIssueFailed
	}
	ref := strings.TrimSpace(input.ExternalPaymentRef)
	if ref == "" {
		return nil, ErrPaymentRefRequired
	}
	if input.MemberID == 0 || input.OfferID == 0 {
		return nil, ErrInvalidInput
	}
	if input.AmountPaid.Decimal.LessThanOrEqual(decimal.Zero) {
		return nil, ErrPaymentAmountInvalid
	}

	// 先查后插：唯一索引兜底并发窗口内的重复确认
	existing, err := s.voucherRepo.GetByExternalPaymentRef(ref)
	if err != nil {
		return nil, ErrVoucherIssueFailed
	}
	if existing != nil {
		return existing, nil
	}

	amount := models.NewMoneyFromDecimal(input.AmountPaid.Decimal.Round(2))
	voucher, err := s.issueVoucher(issueVoucherInput{
		MemberID:           input.MemberID,
		OfferID:            input.OfferID,
		Settlement:         constants.VoucherSettlementPayment,
		ExternalPaymentRef: &ref,
		AmountPaid:         &amount,
	})
	if err != nil {
		return nil, err
	}
	return voucher, nil
}

// PurchaseWithPoints 会员积分购买，扣减积分并签发卡券
func (s *PurchaseService) PurchaseWithPoints(input PointsPurchaseInput) (*models.Voucher, error) {
	if s == nil || s.voucherRepo == nil || s.offerRepo == nil || s.pointsRepo == nil {
		return nil, ErrVoucherIssueFailed
	}
	if input.MemberID == 0 || input.OfferID == 0 {
		return nil, ErrInvalidInput
	}

	if s.memberRepo != nil {
		member, err := s.memberRepo.GetByID(input.MemberID)
		if err != nil {
			return nil, ErrVoucherIssueFailed
		}
		if member == nil {
			return nil, ErrMemberNotFound
		}
		if member.Status != constants.MemberStatusActive {
			return nil, ErrMemberDisabled
		}
	}

	return s.issueVoucher(issueVoucherInput{
		MemberID:    input.MemberID,
		OfferID:     input.OfferID,
		Settlement:  constants.VoucherSettlementPoints,
		DebitPoints: true,
	})
}

type issueVoucherInput struct {
	MemberID           uint
	OfferID            uint
	Settlement         string
	ExternalPaymentRef *string
	AmountPaid         *models.Money
	DebitPoints        bool
}

// issueVoucher 发卡事务：校验项目、生成凭证、写卡并累加售出计数
// 积分路径在同一事务内校验余额并追加支出流水
func (s *PurchaseService) issueVoucher(input issueVoucherInput) (*models.Voucher, error) {
	var issued *models.Voucher

	issueOnce := func() error {
		return models.DB.Transaction(func(tx *gorm.DB) error {
			offerRepo := s.offerRepo.WithTx(tx)
			voucherRepo := s.voucherRepo.WithTx(tx)

			// 行锁串行化限量项目的并发购买，防止超卖
			offer, err := offerRepo.GetByIDForUpdate(input.OfferID)
			if err != nil {
				return ErrVoucherIssueFailed
			}
			if offer == nil {
				return ErrOfferNotFound
			}
			now := time.Now()
			if !isOfferPurchasable(offer, now) {
				return ErrOfferUnavailable
			}

			if input.DebitPoints {
				// 锁会员行串行化同一会员的并发积分购买
				// 不同项目的并发扣减仅靠项目行锁无法互斥，余额可能被扣穿
				if s.memberRepo != nil {
					member, err := s.memberRepo.WithTx(tx).GetByIDForUpdate(input.MemberID)
					if err != nil {
						return ErrVoucherIssueFailed
					}
					if member == nil {
						return ErrMemberNotFound
					}
				}
				pointsRepo := s.pointsRepo.WithTx(tx)
				balance, err := pointsRepo.SumBalance(input.MemberID)
				if err != nil {
					return ErrVoucherIssueFailed
				}
				if balance < offer.PricePoints {
					return ErrInsufficientBalance
				}
			}

			pin, err := s.generator.GenerateUniquePin(voucherRepo.ExistsActivePin)
			if err != nil {
				return err
			}

			activePin := pin
			voucher := &models.Voucher{
				MemberID:           input.MemberID,
				OfferID:            input.OfferID,
				Status:             constants.VoucherStatusPurchased,
				Settlement:         input.Settlement,
				PricePaid:          offer.PricePoints,
				AmountPaid:         input.AmountPaid,
				PinCode:            pin,
				ActivePin:          &activePin,
				ExternalPaymentRef: input.ExternalPaymentRef,
				PurchasedAt:        now,
				ExpiresAt:          now.AddDate(0, s.resolveValidityMonths(), 0),
				CreatedAt:          now,
				UpdatedAt:          now,
			}
			if err := voucherRepo.Create(voucher); err != nil {
				return err
			}

			payload, err := s.generator.EncryptPayload(credential.Payload{
				VoucherID: voucher.ID,
				MemberID:  voucher.MemberID,
				Pin:       pin,
				IssuedAt:  now.Unix(),
				Purpose:   constants.CredentialPurposeVoucher,
			})
			if err != nil {
				return ErrVoucherIssueFailed
			}
			voucher.EncryptedPayload = payload
			if err := voucherRepo.Update(voucher); err != nil {
				return ErrVoucherIssueFailed
			}

			if input.DebitPoints {
				pointsRepo := s.pointsRepo.WithTx(tx)
				if err := pointsRepo.Create(&models.PointsTransaction{
					MemberID:  input.MemberID,
					Direction: constants.PointsTxnDirectionOut,
					Amount:    offer.PricePoints,
					Type:      constants.PointsTxnTypeVoucherPurchase,
					Reference: fmt.Sprintf("voucher:%d", voucher.ID),
					Remark:    fmt.Sprintf("积分购买：%s", offer.Title),
					CreatedAt: now,
				}); err != nil {
					return ErrVoucherIssueFailed
				}
			}

			if err := offerRepo.IncrementSold(offer.ID); err != nil {
				return ErrVoucherIssueFailed
			}
			if s.shopRepo != nil {
				if err := s.shopRepo.WithTx(tx).IncrementSold(offer.ShopID); err != nil {
					return ErrVoucherIssueFailed
				}
			}

			voucher.Offer = offer
			issued = voucher
			return nil
		})
	}

	var err error
	for i := 0; i <= purchaseDuplicatePinRetries; i++ {
		err = issueOnce()
		if err == nil {
			return issued, nil
		}
		if !repository.IsDuplicatePinError(err) {
			return nil, err
		}
		// 唯一索引冲突也可能来自并发的重复支付确认，此时返回已签发的卡券
		if input.ExternalPaymentRef != nil {
			existing, lookupErr := s.voucherRepo.GetByExternalPaymentRef(*input.ExternalPaymentRef)
			if lookupErr == nil && existing != nil {
				return existing, nil
			}
		}
		logger.Warnw("voucher_pin_collision_retry",
			"offer_id", input.OfferID,
			"member_id", input.MemberID,
			"attempt", i+1,
		)
	}
	return nil, credential.ErrPinSpaceExhausted
}

func (s *PurchaseService) resolveValidityMonths() int {
	if s == nil || s.cfg == nil || s.cfg.Voucher.ValidityMonths <= 0 {
		return 12
	}
	return s.cfg.Voucher.ValidityMonths
}

// isOfferPurchasable 校验兑换项目是否处于可售状态（上架、窗口内、额度未满）
func isOfferPurchasable(offer *models.Offer, now time.Time) bool {
	if offer == nil || !offer.IsActive {
		return false
	}
	if offer.ValidFrom != nil && now.Before(*offer.ValidFrom) {
		return false
	}
	if offer.ValidUntil != nil && now.After(*offer.ValidUntil) {
		return false
	}
	if offer.Quota != nil && offer.SoldCount >= *offer.Quota {
		return false
	}
	return true
}
