package staff

import (
	"strconv"
	"time"

	handlershared "github.com/loyalty-next/internal/http/handlers/shared"
	"github.com/loyalty-next/internal/http/response"
	"github.com/loyalty-next/internal/service"

	"github.com/gin-gonic/gin"
)

// ListRedemptionLogs 查询本门店核销日志
// 日志查询强制限定在认证员工所属门店内
func (h *Handler) ListRedemptionLogs(c *gin.Context) {
	employee, ok := h.verifyEmployeeFromHeader(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = handlershared.NormalizePagination(page, pageSize)

	input := service.RedemptionLogListInput{
		ShopID:   employee.ShopID,
		Page:     page,
		PageSize: pageSize,
	}
	if raw := c.Query("employee_id"); raw != "" {
		if id, err := strconv.ParseUint(raw, 10, 64); err == nil {
			input.EmployeeID = uint(id)
		}
	}
	if raw := c.Query("voucher_id"); raw != "" {
		if id, err := strconv.ParseUint(raw, 10, 64); err == nil {
			input.VoucherID = uint(id)
		}
	}
	if raw := c.Query("success"); raw != "" {
		if success, err := strconv.ParseBool(raw); err == nil {
			input.Success = &success
		}
	}
	if raw := c.Query("created_from"); raw != "" {
		if ts, err := time.Parse(time.RFC3339, raw); err == nil {
			input.CreatedFrom = &ts
		}
	}
	if raw := c.Query("created_to"); raw != "" {
		if ts, err := time.Parse(time.RFC3339, raw); err == nil {
			input.CreatedTo = &ts
		}
	}

	logs, total, err := h.AuditService.ListRedemptionLogs(input)
	if err != nil {
		respondError(c, response.CodeInternal, "获取核销日志失败", err)
		return
	}
	totalPage := (total + int64(pageSize) - 1) / int64(pageSize)
	response.SuccessWithPage(c, logs, response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: totalPage,
	})
}
