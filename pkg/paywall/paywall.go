// Package paywall serves priced HTTP endpoints behind the x402 protocol.
// Requests without payment proof receive a 402 requirements envelope;
// requests carrying a valid payment token or transaction hash reach the
// endpoint handler.
package paywall

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/DeBrosOfficial/agentpay/pkg/errors"
	"github.com/DeBrosOfficial/agentpay/pkg/httputil"
	"github.com/DeBrosOfficial/agentpay/pkg/logging"
	"github.com/DeBrosOfficial/agentpay/pkg/networks"
	"github.com/DeBrosOfficial/agentpay/pkg/payments"
	"github.com/DeBrosOfficial/agentpay/pkg/x402"
)

// Verifier validates payment proof. *payments.Client satisfies it.
type Verifier interface {
	VerifyToken(tokenString string) (*payments.PaymentClaims, error)
	VerifyPaymentTx(ctx context.Context, txHash string) (bool, error)
	Network() networks.Network
}

// Handler produces the data served once payment is proven. A returned
// error becomes a 500 response.
type Handler func(r *http.Request) (any, error)

// Endpoint prices one exact request path.
type Endpoint struct {
	Path        string
	Amount      string
	Currency    string
	Description string
	Handler     Handler
}

// Server is the paywall HTTP server.
type Server struct {
	verifier  Verifier
	recipient string
	endpoints map[string]Endpoint
	router    chi.Router
	logger    *logging.ColoredLogger
	httpSrv   *http.Server
}

// Options configures a paywall server.
type Options struct {
	// Recipient is the address payments should be sent to. It is echoed
	// in every requirements envelope.
	Recipient string
}

// NewServer builds a paywall over a payment verifier.
func NewServer(verifier Verifier, opts Options, logger *logging.ColoredLogger) (*Server, error) {
	if opts.Recipient == "" {
		return nil, errors.NewConfigError("recipient", "paywall requires a payment recipient address")
	}
	if !httputil.ValidateWalletAddress(opts.Recipient) {
		return nil, errors.NewConfigError("recipient", "recipient is not a wallet address")
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteError(w, http.StatusNotFound, "unknown endpoint")
	})

	return &Server{
		verifier:  verifier,
		recipient: opts.Recipient,
		endpoints: make(map[string]Endpoint),
		router:    router,
		logger:    logger,
	}, nil
}

// Register prices an endpoint at an exact path. Registering the same path
// twice is an error.
func (s *Server) Register(e Endpoint) error {
	if e.Path == "" || e.Path[0] != '/' {
		return errors.NewValidationError("path", "path must start with /", e.Path)
	}
	if !httputil.ValidateAmount(e.Amount) {
		return errors.NewValidationError("amount", "amount must be a decimal string", e.Amount)
	}
	if _, err := payments.LookupCurrency(e.Currency); err != nil {
		return err
	}
	if e.Handler == nil {
		return errors.NewValidationError("handler", "endpoint requires a handler", nil)
	}
	if _, exists := s.endpoints[e.Path]; exists {
		return errors.NewValidationError("path", "path already registered", e.Path)
	}

	s.endpoints[e.Path] = e
	s.router.HandleFunc(e.Path, s.serve(e))

	if s.logger != nil {
		s.logger.ComponentInfo(logging.ComponentPaywall, "endpoint registered",
			zap.String("path", e.Path),
			zap.String("amount", e.Amount),
			zap.String("currency", e.Currency),
		)
	}
	return nil
}

// Endpoints returns the registered endpoints keyed by path.
func (s *Server) Endpoints() map[string]Endpoint {
	out := make(map[string]Endpoint, len(s.endpoints))
	for k, v := range s.endpoints {
		out[k] = v
	}
	return out
}

// Router exposes the underlying handler for mounting or testing.
func (s *Server) Router() http.Handler {
	return s.router
}

// Requirements builds the 402 envelope for an endpoint.
func (s *Server) Requirements(e Endpoint) x402.Requirements {
	return x402.NewRequirements(e.Amount, e.Currency, s.recipient, e.Description, s.verifier.Network().Name)
}

// serve wraps an endpoint handler with payment enforcement.
func (s *Server) serve(e Endpoint) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.paid(r) {
			s.requirePayment(w, r, e)
			return
		}

		data, err := e.Handler(r)
		if err != nil {
			if s.logger != nil {
				s.logger.ComponentError(logging.ComponentPaywall, "endpoint handler failed",
					zap.String("path", e.Path),
					zap.Error(err),
				)
			}
			httputil.WriteError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		httputil.WriteSuccessData(w, data)
	}
}

// paid reports whether the request carries valid payment proof.
func (s *Server) paid(r *http.Request) bool {
	if token := httputil.ExtractPaymentToken(r); token != "" {
		if _, err := s.verifier.VerifyToken(token); err == nil {
			return true
		}
		return false
	}

	if tx := httputil.ExtractPaymentTx(r); tx != "" {
		if !httputil.ValidateTxHash(tx) {
			return false
		}
		ok, err := s.verifier.VerifyPaymentTx(r.Context(), tx)
		return err == nil && ok
	}

	return false
}

// requirePayment writes the 402 envelope. A present-but-invalid proof gets
// a different error message than a missing one.
func (s *Server) requirePayment(w http.ResponseWriter, r *http.Request, e Endpoint) {
	req := s.Requirements(e)
	if httputil.HasPaymentProof(r) {
		req.Body.Error = "Invalid payment proof"
	}
	req.Write(w)
}

// ListenAndServe runs the paywall until the context is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	s.httpSrv = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpSrv.ListenAndServe()
	}()

	if s.logger != nil {
		s.logger.ComponentInfo(logging.ComponentPaywall, "paywall listening", zap.String("addr", addr))
	}

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpSrv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("paywall shutdown failed: %w", err)
		}
		return nil
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("paywall server failed: %w", err)
		}
		return nil
	}
}
