package staff

import (
	"errors"
	"strconv"
	"strings"

	"github.com/loyalty-next/internal/constants"
	handlershared "github.com/loyalty-next/internal/http/handlers/shared"
	"github.com/loyalty-next/internal/http/response"
	"github.com/loyalty-next/internal/models"
	"github.com/loyalty-next/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	employeeIDHeader  = "X-Employee-Id"
	employeePinHeader = "X-Employee-Pin"
)

func respondError(c *gin.Context, code int, msg string, err error) {
	handlershared.RespondError(c, code, msg, err)
}

// verifyEmployee 执行员工 PIN 认证并统一写出失败响应
// 返回的员工仅在认证通过时非空
func (h *Handler) verifyEmployee(c *gin.Context, employeeID uint, pin string) (*models.Employee, bool) {
	result, err := h.EmployeeAuthService.VerifyPin(employeeID, pin)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmployeeNotFound):
			respondError(c, response.CodeNotFound, "员工不存在", nil)
		case errors.Is(err, service.ErrEmployeeInactive):
			respondError(c, response.CodeForbidden, "员工已停用", nil)
		case errors.Is(err, service.ErrEmployeeUnauthorized):
			respondError(c, response.CodeForbidden, "员工无核销权限", nil)
		default:
			respondError(c, response.CodeInternal, "员工认证失败", err)
		}
		return nil, false
	}

	switch result.Result {
	case constants.PinVerifyResultOK:
		return result.Employee, true
	case constants.PinVerifyResultLockedOut:
		handlershared.RespondErrorWithData(c, response.CodeTooManyRequests, "员工已被锁定", gin.H{
			"locked_until": result.LockedUntil,
		}, nil)
		return nil, false
	default:
		handlershared.RespondErrorWithData(c, response.CodeUnauthorized, "员工 PIN 错误", gin.H{
			"attempts_remaining": result.AttemptsRemaining,
		}, nil)
		return nil, false
	}
}

// verifyEmployeeFromHeader 从请求头认证员工（只读接口用）
func (h *Handler) verifyEmployeeFromHeader(c *gin.Context) (*models.Employee, bool) {
	rawID := strings.TrimSpace(c.GetHeader(employeeIDHeader))
	pin := strings.TrimSpace(c.GetHeader(employeePinHeader))
	if rawID == "" || pin == "" {
		respondError(c, response.CodeUnauthorized, "缺少员工认证信息", nil)
		return nil, false
	}
	id, err := strconv.ParseUint(rawID, 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "员工标识无效", nil)
		return nil, false
	}
	return h.verifyEmployee(c, uint(id), pin)
}
