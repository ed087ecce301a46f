package router

import (
	"classhub.app/api-server/internal/http/handler"
	"github.com/gin-gonic/gin"
)

func ClassroomRouter(rg *gin.RouterGroup, h *handler.ClassroomHandler) {
	rg.GET("", h.Index)
	rg.GET("/new", h.New)
	rg.POST("", h.Create)
	rg.GET("/:slug", h.Show)
	rg.GET("/:slug/edit", h.Edit)
	rg.PATCH("/:slug", h.Update)
	rg.DELETE("/:slug", h.Destroy)
	rg.GET("/:slug/invitation", h.Invitation)
	rg.GET("/:slug/invite", h.Invite)
	rg.GET("/:slug/setup", h.Setup)
	rg.GET("/:slug/groupings", h.Groupings)
	rg.DELETE("/:slug/members/:user_id", h.RemoveMember)
}
