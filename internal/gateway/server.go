// Package gateway maps the HTTP surface onto the entity repositories: it
// parses anchors and limits, invokes the cursor engine, and formats
// results. All routes are GET; the service is strictly read-only.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/haasonsaas/chaingate/internal/chain"
	"github.com/haasonsaas/chaingate/internal/config"
	"github.com/haasonsaas/chaingate/internal/cursor"
	"github.com/haasonsaas/chaingate/internal/keys"
	"github.com/haasonsaas/chaingate/internal/observability"
	"github.com/haasonsaas/chaingate/internal/peer"
)

// Server wires the repositories to the HTTP listener.
type Server struct {
	config  *config.Config
	logger  *observability.Logger
	metrics *observability.Metrics
	network keys.Network

	chain        *chain.Chain
	blocks       *chain.Blocks
	transactions *chain.Transactions
	mosaics      *chain.Mosaics
	namespaces   *chain.Namespaces
	accounts     *chain.Accounts
	peer         *peer.Client

	httpServer   *http.Server
	httpListener net.Listener
}

// Deps carries the constructed collaborators into the server.
type Deps struct {
	Config  *config.Config
	Logger  *observability.Logger
	Metrics *observability.Metrics

	Chain        *chain.Chain
	Blocks       *chain.Blocks
	Transactions *chain.Transactions
	Mosaics      *chain.Mosaics
	Namespaces   *chain.Namespaces
	Accounts     *chain.Accounts
	Peer         *peer.Client
}

// NewServer builds the gateway server.
func NewServer(deps Deps) (*Server, error) {
	network, err := keys.NetworkByName(deps.Config.Network.Name)
	if err != nil {
		return nil, fmt.Errorf("network config: %w", err)
	}
	return &Server{
		config:       deps.Config,
		logger:       deps.Logger,
		metrics:      deps.Metrics,
		network:      network,
		chain:        deps.Chain,
		blocks:       deps.Blocks,
		transactions: deps.Transactions,
		mosaics:      deps.Mosaics,
		namespaces:   deps.Namespaces,
		accounts:     deps.Accounts,
		peer:         deps.Peer,
	}, nil
}

// Router assembles the route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.requestID, s.recovered, s.logged)

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", s.handleHealthz)

	r.Get("/chain/info", s.handleChainInfo)

	r.Get("/block/{height}", s.handleBlock)
	r.Get("/block/{height}/transactions", s.handleBlockTransactions)
	r.Get("/block/{height}/transaction/{hash}/merkle", s.handleTransactionMerkle)
	r.Get("/blocks/{height}/limit/{limit}", s.handleBlockRange)

	r.Get("/transaction/{id}", s.handleTransaction)
	r.Get("/mosaic/{id}", s.handleMosaic)
	r.Get("/namespace/{id}", s.handleNamespace)
	r.Get("/account/{account}", s.handleAccount)

	// Cursor pages register one concrete route per direction so unknown
	// durations simply do not match.
	for _, d := range []direction{
		{"from", cursor.From},
		{"since", cursor.Since},
	} {
		r.Get("/blocks/"+d.name+"/{anchor}/limit/{limit}", s.blocksPage(d))
		r.Get("/transactions/"+d.name+"/{anchor}/limit/{limit}", s.groupPage(chain.Confirmed, "/transactions", d))
		r.Get("/transactions/unconfirmed/"+d.name+"/{anchor}/limit/{limit}", s.groupPage(chain.Unconfirmed, "/transactions/unconfirmed", d))
		r.Get("/transactions/partial/"+d.name+"/{anchor}/limit/{limit}", s.groupPage(chain.Partial, "/transactions/partial", d))
		r.Get("/transactions/"+d.name+"/{anchor}/type/{type}/limit/{limit}", s.transactionsByType(d))
		r.Get("/transactions/"+d.name+"/{anchor}/type/{type}/filter/{filter}/limit/{limit}", s.transactionsByTypeFiltered(d))
		r.Get("/mosaics/"+d.name+"/{anchor}/limit/{limit}", s.mosaicsPage(d))
		r.Get("/namespaces/"+d.name+"/{anchor}/limit/{limit}", s.namespacesPage(d))
		r.Get("/accounts/importance/"+d.name+"/{account}/limit/{limit}", s.accountPage(chain.ViewImportance, "/accounts/importance", d))
		r.Get("/accounts/harvested/blocks/"+d.name+"/{account}/limit/{limit}", s.accountPage(chain.ViewHarvestedBlocks, "/accounts/harvested/blocks", d))
		r.Get("/accounts/harvested/fees/"+d.name+"/{account}/limit/{limit}", s.accountPage(chain.ViewHarvestedFees, "/accounts/harvested/fees", d))
		r.Get("/accounts/balance/currency/"+d.name+"/{account}/limit/{limit}", s.accountPage(chain.ViewCurrencyBalance, "/accounts/balance/currency", d))
		r.Get("/accounts/balance/harvest/"+d.name+"/{account}/limit/{limit}", s.accountPage(chain.ViewHarvestBalance, "/accounts/balance/harvest", d))
	}

	return r
}

// direction pairs a routed path literal with its engine direction.
type direction struct {
	name string
	dir  cursor.Direction
}

// Start binds the listener and serves in the background.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.HTTP.Host, s.config.HTTP.Port)

	server := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("http listen: %w", err)
	}

	s.httpServer = server
	s.httpListener = listener

	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error(ctx, "http server error", "error", err)
		}
	}()

	s.logger.Info(ctx, "starting http server", "addr", addr)
	return nil
}

// Stop drains in-flight requests and closes the listener.
func (s *Server) Stop(ctx context.Context) {
	if s.httpServer == nil {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn(ctx, "http server shutdown error", "error", err)
	}
	s.httpServer = nil
	s.httpListener = nil
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if _, err := s.chain.Height(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "degraded"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) handleChainInfo(w http.ResponseWriter, r *http.Request) {
	info, err := s.chain.Statistic(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}
