package router

import (
	"classhub.app/api-server/internal/http/handler"
	"github.com/gin-gonic/gin"
)

func ProviderRouter(rg *gin.RouterGroup, h *handler.ProviderHandler) {
	rg.POST("/connect", h.Connect)
}
