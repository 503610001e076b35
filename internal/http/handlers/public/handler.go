package public

import "github.com/loyalty-next/internal/provider"

// Handler 公开/会员侧接口处理器入口
// 说明：该处理器承载商品目录、会员购买与支付网关回调 API。
type Handler struct {
	*provider.Container
}

// New 创建公开侧处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
