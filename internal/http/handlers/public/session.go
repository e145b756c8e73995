package public

import (
	"github.com/cafe-next/internal/http/response"
	"github.com/cafe-next/internal/service"

	"github.com/gin-gonic/gin"
)

// StartGuestSession 开启游客会话
// 身份切换由守卫处理：原购物车被清空并重新绑定到新身份
func (h *Handler) StartGuestSession(c *gin.Context) {
	identity := service.GuestIdentity()
	h.IdentityProvider.Set(&identity)
	response.Success(c, identity)
}

// SessionLoginRequest 会员登录请求
type SessionLoginRequest struct {
	Token string `json:"token" binding:"required"`
}

// SessionLogin 以会话 JWT 登录为会员身份
func (h *Handler) SessionLogin(c *gin.Context) {
	var req SessionLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数无效", err)
		return
	}
	identity, err := h.IdentityProvider.ResolveToken(req.Token)
	if err != nil {
		respondError(c, response.CodeBadRequest, "无效的 token", nil)
		return
	}
	h.IdentityProvider.Set(identity)
	response.Success(c, identity)
}

// SessionLogout 登出，回落为新的游客会话
func (h *Handler) SessionLogout(c *gin.Context) {
	identity := service.GuestIdentity()
	h.IdentityProvider.Set(&identity)
	response.Success(c, identity)
}

// GetSession 查询当前会话身份
func (h *Handler) GetSession(c *gin.Context) {
	response.Success(c, gin.H{"identity": h.IdentityProvider.Current()})
}
