package statusz

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pulseboard/pkg/logging"
)

const shutdownTimeout = 5 * time.Second

// Server 封装标准 `http.Server` 运行状态页引擎，提供优雅启停.
type Server struct {
	server *http.Server
	addr   string
	logger *logging.Logger
}

// NewServer 创建状态页服务器.
func NewServer(engine *gin.Engine, addr string, logger *logging.Logger) *Server {
	if logger == nil {
		logger = logging.Default()
	}
	return &Server{
		server: &http.Server{
			Addr:    addr,
			Handler: engine,
		},
		addr:   addr,
		logger: logger,
	}
}

// Start 启动服务器并阻塞，ctx 结束时触发优雅关闭.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("status server starting", "addr", s.addr)

	errChan := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		s.logger.Info("status server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	}
}
