package api

import "github.com/gin-gonic/gin"

func RegisterRoutes(router *gin.Engine, handlers *Handlers) {
	router.GET("/api/status", handlers.GetStatus)
	router.GET("/api/stats", handlers.GetStats)
	router.POST("/api/stats/reset", RequireRole(roleOps), handlers.ResetStats)
	router.POST("/api/probe", RequireRole(roleOps), handlers.Probe)
	router.POST("/api/stress", RequireRole(roleOps), handlers.Stress)
	router.POST("/api/latency", RequireRole(roleOps), handlers.MeasureLatency)
	router.GET("/api/interfaces", handlers.GetInterfaces)
	router.GET("/api/presets", handlers.GetPresets)
	router.GET("/api/presets/:id", handlers.GetPreset)
	router.POST("/api/presets", RequireRole(roleAdmin), handlers.CreatePreset)
	router.POST("/api/presets/:id/stress", RequireRole(roleOps), handlers.StressPreset)
	router.GET("/api/observability/traces", handlers.GetTraces)
	router.GET("/api/observability/alerts", handlers.GetAlerts)
}
