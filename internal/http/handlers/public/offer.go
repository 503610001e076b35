package public

import (
	"errors"
	"strconv"

	handlershared "github.com/loyalty-next/internal/http/handlers/shared"
	"github.com/loyalty-next/internal/http/response"
	"github.com/loyalty-next/internal/service"

	"github.com/gin-gonic/gin"
)

// ListOffers 公开兑换项目目录
func (h *Handler) ListOffers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = handlershared.NormalizePagination(page, pageSize)
	shopID, _ := strconv.ParseUint(c.Query("shop_id"), 10, 64)

	offers, total, err := h.OfferService.ListOffers(service.OfferListInput{
		ShopID:     uint(shopID),
		Search:     c.Query("search"),
		OnlyActive: true,
		Page:       page,
		PageSize:   pageSize,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "获取兑换项目列表失败", err)
		return
	}

	totalPage := (total + int64(pageSize) - 1) / int64(pageSize)
	response.SuccessWithPage(c, offers, response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: totalPage,
	})
}

// GetOffer 公开兑换项目详情
func (h *Handler) GetOffer(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "兑换项目标识无效", nil)
		return
	}
	offer, err := h.OfferService.GetOffer(uint(id))
	if err != nil {
		if errors.Is(err, service.ErrOfferNotFound) {
			respondError(c, response.CodeNotFound, "兑换项目不存在", nil)
			return
		}
		respondError(c, response.CodeInternal, "获取兑换项目失败", err)
		return
	}
	response.Success(c, offer)
}
