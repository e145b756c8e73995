package public

import "github.com/cafe-next/internal/provider"

// Handler 门店/点单端接口处理器入口
// 说明：该处理器服务单台点单设备的当前会话。
type Handler struct {
	*provider.Container
}

// New 创建点单端处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
