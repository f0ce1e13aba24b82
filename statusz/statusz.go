// Package statusz 提供守护取数注册表的运维状态页与指标暴露.
// 页面只读展示各 Breaker 的诊断快照，供"数据可能过期"类 UI 指示与排障使用，
// 不参与任何取数控制流.
package statusz

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pulseboard/pkg/guard"
	"github.com/pulseboard/pkg/metrics"
)

// NewEngine 构建状态页路由；m 为 nil 时不挂载 /metrics.
func NewEngine(reg *guard.Registry, m *metrics.Metrics) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	engine.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	engine.GET("/statusz", func(c *gin.Context) {
		c.JSON(http.StatusOK, reg.Snapshot())
	})

	engine.GET("/statusz/:name", func(c *gin.Context) {
		status, ok := reg.Status(c.Param("name"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown breaker"})
			return
		}
		c.JSON(http.StatusOK, status)
	})

	if m != nil {
		engine.GET("/metrics", gin.WrapH(m.Handler()))
	}

	return engine
}
