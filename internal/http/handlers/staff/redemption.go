package staff

import (
	"errors"

	handlershared "github.com/loyalty-next/internal/http/handlers/shared"
	"github.com/loyalty-next/internal/http/response"
	"github.com/loyalty-next/internal/service"

	"github.com/gin-gonic/gin"
)

// RedeemRequest 核销请求
// VoucherIdentifier 按 Method 解释：pin 为裸核销码，qr 为扫码得到的加密载荷
type RedeemRequest struct {
	VoucherIdentifier string `json:"voucher_identifier" binding:"required"`
	Method            string `json:"method" binding:"required"`
	EmployeeID        uint   `json:"employee_id" binding:"required"`
	EmployeePin       string `json:"employee_pin" binding:"required"`
}

// Redeem 员工核销卡券
func (h *Handler) Redeem(c *gin.Context) {
	var req RedeemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数无效", err)
		return
	}
	employee, ok := h.verifyEmployee(c, req.EmployeeID, req.EmployeePin)
	if !ok {
		return
	}

	outcome, err := h.RedemptionService.Redeem(service.RedeemInput{
		Identifier: req.VoucherIdentifier,
		Method:     req.Method,
		Employee:   employee,
	})
	if err != nil {
		respondRedemptionError(c, outcome, err)
		return
	}

	voucher := outcome.Voucher
	offerTitle := ""
	if voucher.Offer != nil {
		offerTitle = voucher.Offer.Title
	}
	response.Success(c, gin.H{
		"voucher_id":  voucher.ID,
		"offer_title": offerTitle,
		"member_id":   voucher.MemberID,
		"status":      voucher.Status,
		"redeemed_at": voucher.RedeemedAt,
		"redeemed_by": voucher.RedeemedByEmployeeID,
	})
}

// Validate 核销前的只读校验（店员先验后核对流程）
func (h *Handler) Validate(c *gin.Context) {
	var req RedeemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数无效", err)
		return
	}
	employee, ok := h.verifyEmployee(c, req.EmployeeID, req.EmployeePin)
	if !ok {
		return
	}

	outcome, err := h.RedemptionService.Validate(service.RedeemInput{
		Identifier: req.VoucherIdentifier,
		Method:     req.Method,
		Employee:   employee,
	})
	if err != nil {
		respondRedemptionError(c, outcome, err)
		return
	}

	voucher := outcome.Voucher
	offerTitle := ""
	if voucher.Offer != nil {
		offerTitle = voucher.Offer.Title
	}
	response.Success(c, gin.H{
		"redeemable":  true,
		"voucher_id":  voucher.ID,
		"offer_title": offerTitle,
		"member_id":   voucher.MemberID,
		"expires_at":  voucher.ExpiresAt,
	})
}

// respondRedemptionError 核销失败的统一出口
// 已核销的卡券附带此前核销的时间与员工，便于柜台解释
func respondRedemptionError(c *gin.Context, outcome *service.RedemptionOutcome, err error) {
	switch {
	case errors.Is(err, service.ErrVoucherNotFound):
		respondError(c, response.CodeNotFound, "卡券不存在", nil)
	case errors.Is(err, service.ErrPayloadMismatch):
		respondError(c, response.CodeBadRequest, "凭证无效", nil)
	case errors.Is(err, service.ErrVoucherWrongShop):
		respondError(c, response.CodeForbidden, "卡券不属于本门店", nil)
	case errors.Is(err, service.ErrVoucherRedeemed):
		data := gin.H{}
		if outcome != nil {
			data["redeemed_at"] = outcome.PriorRedeemedAt
			data["redeemed_by"] = outcome.PriorEmployeeID
		}
		handlershared.RespondErrorWithData(c, response.CodeConflict, "卡券已被核销", data, nil)
	case errors.Is(err, service.ErrVoucherExpired):
		respondError(c, response.CodeConflict, "卡券已过期", nil)
	case errors.Is(err, service.ErrVoucherNotRedeemable):
		respondError(c, response.CodeConflict, "卡券当前不可核销", nil)
	case errors.Is(err, service.ErrInvalidInput):
		respondError(c, response.CodeBadRequest, "核销方式无效", nil)
	default:
		respondError(c, response.CodeInternal, "核销失败", err)
	}
}
