package server

import (
	"fmt"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func (s *Server) setupRouter() *gin.Engine {
	ginMode := os.Getenv("GIN_MODE")
	if ginMode == "test" {
		r := gin.New()
		s.defineRoutes(r)
		return r
	}

	r := gin.New()

	// LoggerWithFormatter middleware will write the logs to gin.DefaultWriter
	// By default gin.DefaultWriter = os.Stdout
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
	s.defineRoutes(r)

	return r
}

func (s *Server) defineRoutes(router *gin.Engine) {
	apirouter := router.Group("/api")

	chat := apirouter.Group("/chat")
	chat.Use(s.Authorize())
	chat.GET("/conversation", s.handleGetConversations())
	chat.GET("/conversation/with/:userId", s.handleGetConversationWith())
	chat.POST("/conversation/with/:userId", s.handleAddConversation())
	chat.GET("/conversation/:id/messages", s.handleGetMessages())
	chat.POST("/conversation/:id/messages", s.handleSendMessage())
	chat.GET("/users/:userId/online", s.handleGetUserPresence())

	// websocket handshake carries its own token, no Authorize middleware
	router.GET("/ws", s.handleSocket())
}
