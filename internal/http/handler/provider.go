package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"classhub.app/api-server/internal/http/dto"
	"classhub.app/api-server/internal/http/middleware"
	"classhub.app/api-server/internal/service"
	"github.com/gin-gonic/gin"
)

type ProviderHandler struct {
	authService service.AuthService
}

func NewProviderHandler(authService service.AuthService) *ProviderHandler {
	return &ProviderHandler{authService: authService}
}

// Connect validates a GitLab personal access token and attaches it to the
// current user.
func (h *ProviderHandler) Connect(c *gin.Context) {
	ctx := c.Request.Context()
	user := middleware.CurrentUser(c)

	var req dto.ConnectProviderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token is required"})
		return
	}

	identity, err := h.authService.ConnectProvider(ctx, user.ID, req.Token)
	if err != nil {
		if errors.Is(err, service.ErrInvalidToken) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "token was rejected by the provider"})
			return
		}
		slog.ErrorContext(ctx, "failed to connect provider", "error", err, "user_id", user.ID)
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to validate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"provider_user_id": strconv.FormatInt(identity.UserID, 10),
		"username":         identity.Username,
	})
}
