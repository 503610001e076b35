package public

import (
	"errors"
	"strconv"

	"github.com/loyalty-next/internal/credential"
	handlershared "github.com/loyalty-next/internal/http/handlers/shared"
	"github.com/loyalty-next/internal/http/response"
	"github.com/loyalty-next/internal/service"

	"github.com/gin-gonic/gin"
)

// PointsPurchaseRequest 积分购买请求
type PointsPurchaseRequest struct {
	OfferID uint `json:"offer_id" binding:"required"`
}

// PurchaseWithPoints 会员用积分购买兑换项目
func (h *Handler) PurchaseWithPoints(c *gin.Context) {
	memberID, ok := getMemberID(c)
	if !ok {
		return
	}
	var req PointsPurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数无效", err)
		return
	}

	voucher, err := h.PurchaseService.PurchaseWithPoints(service.PointsPurchaseInput{
		MemberID: memberID,
		OfferID:  req.OfferID,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOfferNotFound):
			respondError(c, response.CodeNotFound, "兑换项目不存在", nil)
		case errors.Is(err, service.ErrOfferUnavailable):
			respondError(c, response.CodeConflict, "兑换项目不可购买", nil)
		case errors.Is(err, service.ErrInsufficientBalance):
			respondError(c, response.CodeBadRequest, "积分余额不足", nil)
		case errors.Is(err, service.ErrMemberNotFound):
			respondError(c, response.CodeNotFound, "会员不存在", nil)
		case errors.Is(err, service.ErrMemberDisabled):
			respondError(c, response.CodeForbidden, "会员已禁用", nil)
		case errors.Is(err, credential.ErrPinSpaceExhausted):
			respondError(c, response.CodeInternal, "核销码空间耗尽", err)
		default:
			respondError(c, response.CodeInternal, "卡券签发失败", err)
		}
		return
	}

	response.Success(c, gin.H{
		"voucher_id":        voucher.ID,
		"status":            voucher.Status,
		"price_paid":        voucher.PricePaid,
		"pin_code":          voucher.PinCode,
		"encrypted_payload": voucher.EncryptedPayload,
		"purchased_at":      voucher.PurchasedAt,
		"expires_at":        voucher.ExpiresAt,
	})
}

// ListMemberVouchers 会员持有卡券列表
func (h *Handler) ListMemberVouchers(c *gin.Context) {
	memberID, ok := getMemberID(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = handlershared.NormalizePagination(page, pageSize)

	vouchers, total, err := h.VoucherService.ListMemberVouchers(memberID, c.Query("status"), page, pageSize)
	if err != nil {
		respondError(c, response.CodeInternal, "获取卡券列表失败", err)
		return
	}
	totalPage := (total + int64(pageSize) - 1) / int64(pageSize)
	response.SuccessWithPage(c, vouchers, response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: totalPage,
	})
}

// ListMemberPoints 会员积分流水
func (h *Handler) ListMemberPoints(c *gin.Context) {
	memberID, ok := getMemberID(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = handlershared.NormalizePagination(page, pageSize)

	txns, total, err := h.PointsService.ListTransactions(memberID, page, pageSize)
	if err != nil {
		respondError(c, response.CodeInternal, "获取积分流水失败", err)
		return
	}
	balance, err := h.PointsService.GetBalance(memberID)
	if err != nil {
		respondError(c, response.CodeInternal, "获取积分余额失败", err)
		return
	}
	totalPage := (total + int64(pageSize) - 1) / int64(pageSize)
	response.SuccessWithPage(c, gin.H{
		"balance":      balance,
		"transactions": txns,
	}, response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: totalPage,
	})
}
