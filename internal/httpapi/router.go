package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/notsoai/dashboard/internal/common"
	"github.com/notsoai/dashboard/internal/httpapi/handlers"
	"github.com/notsoai/dashboard/internal/httpapi/middleware"
)

func NewRouter(h *handlers.Handler) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())

	r.NoRoute(func(c *gin.Context) {
		common.Fail(c, http.StatusNotFound, common.CodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		common.Fail(c, http.StatusMethodNotAllowed, common.CodeBadRequest, "method not allowed")
	})

	r.GET("/ping", h.Ping)

	api := r.Group("/api")
	{
		api.POST("/auth/login", h.Login)
		api.POST("/auth/logout", h.Logout)
		api.GET("/auth/session", h.CurrentSession)

		api.GET("/clients/:clientId", h.GetClient)
		api.GET("/analytics", h.GetAnalytics)
		api.GET("/chat-sessions", h.ListChatSessions)
		api.GET("/chat-sessions/:id", h.GetChatSession)
		api.GET("/conversations", h.ListConversations)
		api.GET("/workspaces", h.ListWorkspaces)
		api.GET("/assistants", h.ListAssistants)
		api.POST("/assistants", h.CreateAssistant)
		api.GET("/billing", h.GetBilling)

		api.POST("/ingest/chat-sessions", middleware.IngestAuth(h.Cfg.Ingest.Secret), h.IngestChatSession)
	}

	pages := r.Group("/")
	pages.Use(middleware.EdgeGuard(h.Sessions))
	{
		pages.GET("/", h.Page)
		pages.GET("/login", h.Page)
		pages.GET("/app", h.Page)
		pages.GET("/app/*rest", h.Page)
		pages.GET("/profile", h.Page)
		pages.GET("/profile/*rest", h.Page)
	}
	r.GET("/assets/*filepath", h.Asset)

	return r
}
