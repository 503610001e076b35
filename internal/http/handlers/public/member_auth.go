package public

import (
	"errors"

	"github.com/loyalty-next/internal/http/response"
	"github.com/loyalty-next/internal/service"

	"github.com/gin-gonic/gin"
)

// MemberRegisterRequest 会员注册请求
type MemberRegisterRequest struct {
	Email       string `json:"email" binding:"required"`
	DisplayName string `json:"display_name"`
}

// RegisterMember 会员注册并签发访问令牌
// 邮箱已存在时按登录处理，直接返回新令牌
func (h *Handler) RegisterMember(c *gin.Context) {
	var req MemberRegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数无效", err)
		return
	}

	member, err := h.MemberAuthService.RegisterMember(req.Email, req.DisplayName)
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			respondError(c, response.CodeBadRequest, "邮箱格式无效", nil)
			return
		}
		respondError(c, response.CodeInternal, "会员注册失败", err)
		return
	}

	token, expiresAt, err := h.MemberAuthService.GenerateMemberJWT(member)
	if err != nil {
		respondError(c, response.CodeInternal, "令牌签发失败", err)
		return
	}

	response.Success(c, gin.H{
		"member":     member,
		"token":      token,
		"expires_at": expiresAt,
	})
}

// GetMemberProfile 当前会员信息与积分余额
func (h *Handler) GetMemberProfile(c *gin.Context) {
	memberID, ok := getMemberID(c)
	if !ok {
		return
	}
	member, err := h.MemberAuthService.GetMemberByID(memberID)
	if err != nil {
		if errors.Is(err, service.ErrMemberNotFound) {
			respondError(c, response.CodeNotFound, "会员不存在", nil)
			return
		}
		respondError(c, response.CodeInternal, "获取会员信息失败", err)
		return
	}
	balance, err := h.PointsService.GetBalance(memberID)
	if err != nil {
		respondError(c, response.CodeInternal, "获取积分余额失败", err)
		return
	}
	response.Success(c, gin.H{
		"member":         member,
		"points_balance": balance,
	})
}
