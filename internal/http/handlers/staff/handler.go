package staff

import "github.com/loyalty-next/internal/provider"

// Handler 门店员工侧接口处理器入口
// 员工无会话态：每次请求携带员工号与核销 PIN，逐次认证
type Handler struct {
	*provider.Container
}

// New 创建员工侧处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
