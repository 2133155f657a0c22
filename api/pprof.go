package api

import (
	"net/http/pprof"
	"strings"

	"github.com/gin-gonic/gin"
)

// Profiles worth a route when chasing probe-path latency or a leaked
// receive buffer. symbol, cmdline and threadcreate stay unmounted, they
// carry nothing for a single-socket binary.
var pprofProfiles = []string{"heap", "allocs", "goroutine", "block", "mutex"}

func RegisterPprof(router *gin.Engine, basePath string) {
	if basePath == "" {
		basePath = "/debug/pprof"
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	group := router.Group(basePath)
	group.GET("/", gin.WrapF(pprof.Index))
	group.GET("/profile", gin.WrapF(pprof.Profile))
	group.GET("/trace", gin.WrapF(pprof.Trace))
	for _, name := range pprofProfiles {
		group.GET("/"+name, gin.WrapH(pprof.Handler(name)))
	}
}
