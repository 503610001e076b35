package public

import (
	handlershared "github.com/loyalty-next/internal/http/handlers/shared"

	"github.com/gin-gonic/gin"
)

func respondError(c *gin.Context, code int, msg string, err error) {
	handlershared.RespondError(c, code, msg, err)
}

func getMemberID(c *gin.Context) (uint, bool) {
	return handlershared.GetContextUintWithKeys(c, "member_id", "会员标识无效", "会员标识类型无效")
}
