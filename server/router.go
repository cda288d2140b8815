package server

import (
	"fmt"
	"os"
	"time"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	errs "github.com/koinoniahq/koinonia/errors"
)

func (s *Server) setupRouter() *gin.Engine {
	ginMode := os.Getenv("GIN_MODE")
	if ginMode == "test" {
		r := gin.New()
		s.defineRoutes(r)
		return r
	}

	r := gin.New()

	r.Use(gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
			param.ClientIP,
			param.TimeStamp.Format(time.RFC1123),
			param.Method,
			param.Path,
			param.Request.Proto,
			param.StatusCode,
			param.Latency,
			param.Request.UserAgent(),
			param.ErrorMessage,
		)
	}))
	r.Use(gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowAllOrigins:  true,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.MaxMultipartMemory = 32 << 20
	s.defineRoutes(r)

	return r
}

func (s *Server) defineRoutes(router *gin.Engine) {
	store := ratelimit.InMemoryStore(&ratelimit.InMemoryOptions{Rate: time.Second, Limit: 10})
	limitSendRate := ratelimit.RateLimiter(store, &ratelimit.Options{
		ErrorHandler: errs.ErrorHandler,
		KeyFunc:      keyFuncUserID,
	})

	apirouter := router.Group("/api/v1")
	apirouter.GET("/ws", s.handleWebSocket())

	authorized := apirouter.Group("/")
	authorized.Use(s.Authorize())
	authorized.POST("/messages", limitSendRate, s.handleSendMessage())
	authorized.DELETE("/messages/:messageID", s.handleDeleteMessage())
	authorized.POST("/messages/:messageID/reactions", s.handleToggleReaction())
	authorized.GET("/messages/:messageID/reactions", s.handleListReactions())
	authorized.GET("/conversations", s.handleListConversations())
	authorized.GET("/conversations/:userID/messages", s.handleListMessages())
	authorized.POST("/conversations/:userID/read", s.handleMarkRead())
	authorized.GET("/unread/count", s.handleUnreadCount())
	authorized.POST("/groups", s.handleCreateGroup())
	authorized.GET("/groups", s.handleListGroups())
	authorized.PUT("/groups/:groupID", s.handleUpdateGroup())
	authorized.DELETE("/groups/:groupID", s.handleDeactivateGroup())
	authorized.POST("/groups/:groupID/members", s.handleAddMember())
	authorized.DELETE("/groups/:groupID/members/:userID", s.handleRemoveMember())
	authorized.GET("/groups/:groupID/messages", s.handleListGroupMessages())
	authorized.POST("/groups/:groupID/messages", s.handlePostGroupMessage())
	authorized.POST("/upload", s.handleUploadAttachment())
	authorized.GET("/users/online", s.handleGetOnlineUsers())
}

// keyFuncUserID scopes the send rate limit to the authenticated caller.
func keyFuncUserID(c *gin.Context) string {
	if id, ok := currentUserID(c); ok {
		return fmt.Sprintf("user:%d", id)
	}
	return c.ClientIP()
}
