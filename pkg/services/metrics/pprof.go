package metrics

import (
	"net/http"
	"net/http/pprof"

	"github.com/nspcc-dev/assetdb/pkg/config"
	"go.uber.org/zap"
)

var pprofRoutes = map[string]http.HandlerFunc{
	"/debug/pprof/":        pprof.Index,
	"/debug/pprof/cmdline": pprof.Cmdline,
	"/debug/pprof/profile": pprof.Profile,
	"/debug/pprof/symbol":  pprof.Symbol,
	"/debug/pprof/trace":   pprof.Trace,
}

// NewPprofService creates a service with runtime profiling endpoints under
// /debug/pprof/.
func NewPprofService(cfg config.BasicService, log *zap.Logger) *Service {
	if log == nil {
		return nil
	}

	mux := http.NewServeMux()
	for path, h := range pprofRoutes {
		mux.HandleFunc(path, h)
	}
	return NewService("Pprof", newServers(cfg, mux), cfg, log)
}
