package http

import (
	"fmt"

	"github.com/gin-gonic/gin"
)

type Server struct {
	Engine *gin.Engine
}

func NewServer(cfg RouterConfig) *Server {
	return &Server{Engine: NewRouter(cfg)}
}

func (s *Server) Run(address string) error {
	if s.Engine == nil {
		return fmt.Errorf("server not initialized")
	}
	return s.Engine.Run(address)
}
