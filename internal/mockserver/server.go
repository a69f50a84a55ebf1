// Package mockserver is a local stand-in for the recommender service. It
// decodes transactions the way the service does, ranks a small catalog and
// answers with the columnar response format and the tracking cookie.
package mockserver

import (
	"net/http"
	"time"

	"github.com/actuallystonmai/predict-client/internal/logging"
)

type Options struct {
	Merchants   []string
	Cohort      string
	Latency     time.Duration
	FailureRate float64
	Log         *logging.Logger
}

// Server bundles the handler and its routes.
type Server struct {
	*Handler
	routes http.Handler
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.routes.ServeHTTP(w, r)
}

func New(products []Product, opts Options) *Server {
	log := opts.Log
	if log == nil {
		log = logging.Nop()
	}
	cohort := opts.Cohort
	if cohort == "" {
		cohort = "AAAA"
	}
	svc := NewService(NewCatalog(products), NewRanker(opts.Latency, opts.FailureRate), cohort, log.Sub("service"))
	h := NewHandler(svc, opts.Merchants, log.Sub("handler"))
	return &Server{Handler: h, routes: Setup(h, log.Sub("http"))}
}
