package router

import (
	"inspector/internal/handler"

	"github.com/gin-gonic/gin"
)

type InspectorRouter struct {
	streamHandler *handler.StreamHandler
	testHandler   *handler.TestHandler
	staticHandler *handler.StaticHandler
}

func NewInspectorRouter(
	streamHandler *handler.StreamHandler,
	testHandler *handler.TestHandler,
	staticHandler *handler.StaticHandler,
) *InspectorRouter {
	return &InspectorRouter{
		streamHandler: streamHandler,
		testHandler:   testHandler,
		staticHandler: staticHandler,
	}
}

func (r *InspectorRouter) RegisterRoutes(engine *gin.Engine) {
	engine.GET("/", r.staticHandler.Index)
	engine.GET("/stream", r.streamHandler.Stream)

	api := engine.Group("/api")
	{
		api.GET("/test-get", r.testHandler.TestGet)
		api.POST("/test-post", r.testHandler.TestPost)
	}
}
