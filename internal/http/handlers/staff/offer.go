package staff

import (
	"errors"
	"time"

	"github.com/loyalty-next/internal/http/response"
	"github.com/loyalty-next/internal/models"
	"github.com/loyalty-next/internal/service"

	"github.com/gin-gonic/gin"
)

// CreateOfferRequest 创建兑换项目请求
type CreateOfferRequest struct {
	Title         string        `json:"title" binding:"required"`
	Description   string        `json:"description"`
	PricePoints   int64         `json:"price_points" binding:"required"`
	OriginalPrice *models.Money `json:"original_price"`
	Quota         *int64        `json:"quota"`
	ValidFrom     *time.Time    `json:"valid_from"`
	ValidUntil    *time.Time    `json:"valid_until"`
}

// CreateOffer 员工创建本门店兑换项目
func (h *Handler) CreateOffer(c *gin.Context) {
	employee, ok := h.verifyEmployeeFromHeader(c)
	if !ok {
		return
	}
	var req CreateOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数无效", err)
		return
	}

	offer, err := h.OfferService.CreateOffer(service.CreateOfferInput{
		EmployeeID:    employee.ID,
		Title:         req.Title,
		Description:   req.Description,
		PricePoints:   req.PricePoints,
		OriginalPrice: req.OriginalPrice,
		Quota:         req.Quota,
		ValidFrom:     req.ValidFrom,
		ValidUntil:    req.ValidUntil,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmployeeUnauthorized):
			respondError(c, response.CodeForbidden, "员工无创建项目权限", nil)
		case errors.Is(err, service.ErrInvalidInput):
			respondError(c, response.CodeBadRequest, "项目参数无效", nil)
		default:
			respondError(c, response.CodeInternal, "创建兑换项目失败", err)
		}
		return
	}
	response.Success(c, offer)
}
