package public

import (
	"crypto/subtle"
	"errors"
	"strings"

	"github.com/loyalty-next/internal/http/response"
	"github.com/loyalty-next/internal/models"
	"github.com/loyalty-next/internal/service"

	"github.com/gin-gonic/gin"
)

const webhookSecretHeader = "X-Webhook-Secret"

// PaymentConfirmationRequest 支付网关确认回调请求
type PaymentConfirmationRequest struct {
	ExternalPaymentRef string       `json:"external_payment_ref" binding:"required"`
	MemberID           uint         `json:"member_id" binding:"required"`
	OfferID            uint         `json:"offer_id" binding:"required"`
	AmountPaid         models.Money `json:"amount_paid"`
}

// PaymentConfirmation 支付网关确认回调，签发卡券
// 共享密钥头校验之外不做签名验签：支付渠道本身在系统边界之外
func (h *Handler) PaymentConfirmation(c *gin.Context) {
	secret := strings.TrimSpace(h.Config.Payment.WebhookSecret)
	if secret == "" {
		respondError(c, response.CodeInternal, "支付回调未配置", nil)
		return
	}
	provided := strings.TrimSpace(c.GetHeader(webhookSecretHeader))
	if subtle.ConstantTimeCompare([]byte(provided), []byte(secret)) != 1 {
		respondError(c, response.CodeUnauthorized, "回调密钥无效", nil)
		return
	}

	var req PaymentConfirmationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数无效", err)
		return
	}

	voucher, err := h.PurchaseService.ConfirmPayment(service.PaymentConfirmationInput{
		ExternalPaymentRef: req.ExternalPaymentRef,
		MemberID:           req.MemberID,
		OfferID:            req.OfferID,
		AmountPaid:         req.AmountPaid,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPaymentRefRequired):
			respondError(c, response.CodeBadRequest, "缺少外部支付参考号", nil)
		case errors.Is(err, service.ErrPaymentAmountInvalid):
			respondError(c, response.CodeBadRequest, "支付金额无效", nil)
		case errors.Is(err, service.ErrInvalidInput):
			respondError(c, response.CodeBadRequest, "请求参数无效", nil)
		case errors.Is(err, service.ErrOfferNotFound):
			respondError(c, response.CodeNotFound, "兑换项目不存在", nil)
		case errors.Is(err, service.ErrOfferUnavailable):
			respondError(c, response.CodeConflict, "兑换项目不可购买", nil)
		default:
			respondError(c, response.CodeInternal, "卡券签发失败", err)
		}
		return
	}

	response.Success(c, gin.H{
		"voucher_id":        voucher.ID,
		"status":            voucher.Status,
		"pin_code":          voucher.PinCode,
		"encrypted_payload": voucher.EncryptedPayload,
		"purchased_at":      voucher.PurchasedAt,
		"expires_at":        voucher.ExpiresAt,
	})
}
