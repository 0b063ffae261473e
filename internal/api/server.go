// Package api serves chart views, balance reads and transaction lookups over HTTP.
package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"index-dashboard/internal/chain"
	"index-dashboard/internal/chart"
	"index-dashboard/internal/observability"
	"index-dashboard/internal/storage"
)

// Options configures a Server.
type Options struct {
	Chain        *chain.Client
	Series       storage.PriceSeriesStore
	Transactions storage.TransactionStore
	Theme        chart.Theme
	CacheTTL     time.Duration // zero disables read caching
	Logger       zerolog.Logger
}

// Server holds the HTTP handlers.
type Server struct {
	chain  *chain.Client
	series storage.PriceSeriesStore
	txs    storage.TransactionStore
	theme  chart.Theme
	cache  *cache.Cache
	ttl    time.Duration
	logger zerolog.Logger

	mu      sync.Mutex
	started time.Time
	served  int64
}

// NewServer creates a Server.
func NewServer(opts Options) *Server {
	s := &Server{
		chain:   opts.Chain,
		series:  opts.Series,
		txs:     opts.Transactions,
		theme:   opts.Theme,
		ttl:     opts.CacheTTL,
		logger:  opts.Logger,
		started: time.Now(),
	}
	if s.ttl > 0 {
		s.cache = cache.New(s.ttl, 2*s.ttl)
	}
	return s
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("GET /metrics", observability.Handler())

	s.route(mux, "GET /status", s.handleStatus)

	s.route(mux, "GET /chart", s.handleListSeries)
	s.route(mux, "GET /chart/{series}", s.handleChart)
	s.route(mux, "GET /chart/{series}/render", s.handleRender)
	s.route(mux, "POST /chart/{series}/points", s.handleAddPoints)

	s.route(mux, "GET /balance/eth/{address}", s.handleEthBalance)
	s.route(mux, "GET /balance/{token}/{address}", s.handleBalance)
	s.route(mux, "GET /allowance/{token}/{owner}/{spender}", s.handleAllowance)

	s.route(mux, "GET /tx", s.handleListTransactions)
	s.route(mux, "GET /tx/{hash}", s.handleTransaction)

	return mux
}

// route registers h under pattern and counts its responses by status class.
func (s *Server) route(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		h(rec, r)
		observability.RecordHTTPRequest(pattern, rec.code)

		s.mu.Lock()
		s.served++
		s.mu.Unlock()
	})
}

type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

// StatusResponse is the JSON response for /status endpoint.
type StatusResponse struct {
	Status   string `json:"status"`
	Uptime   string `json:"uptime"`
	Network  string `json:"network"`
	Explorer string `json:"explorer"`
	Requests int64  `json:"requests"`
	Cached   int    `json:"cached_reads"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	resp := StatusResponse{
		Status:   "running",
		Uptime:   time.Since(s.started).Truncate(time.Second).String(),
		Requests: s.served,
	}
	s.mu.Unlock()

	if s.chain != nil {
		resp.Network = s.chain.Network().Name
		resp.Explorer = s.chain.Network().ExplorerURL
	}
	if s.cache != nil {
		resp.Cached = s.cache.ItemCount()
	}
	writeJSON(w, http.StatusOK, resp)
}

// errorResponse is the body of every non-2xx JSON response.
type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, errorResponse{Error: msg})
}
