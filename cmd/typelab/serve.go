package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"typelab/pkg/conformance"
	"typelab/pkg/typeexpr"
	"typelab/pkg/typeset"
)

var flagAddr string

var (
	metricChecks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "typelab",
		Name:      "check_requests_total",
		Help:      "Relation queries served, by relation and verdict.",
	}, []string{"relation", "verdict"})
	metricLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "typelab",
		Name:      "request_duration_seconds",
		Help:      "Request latency by endpoint.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"endpoint"})
	metricRegistrySize = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "typelab",
		Name:      "registry_classes",
		Help:      "Classes in the working registry.",
	})
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the algebra as a JSON HTTP API with Prometheus metrics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		checker, err := buildChecker()
		if err != nil {
			return err
		}
		metricRegistrySize.Set(float64(checker.Registry().Len()))

		server := &http.Server{
			Addr:              flagAddr,
			Handler:           newServeMux(checker, logger),
			ReadHeaderTimeout: 5 * time.Second,
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() {
			logger.Info("serving", zap.String("addr", flagAddr))
			errCh <- server.ListenAndServe()
		}()
		select {
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		logger.Info("shutting down")
		return server.Shutdown(shutdownCtx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&flagAddr, "addr", ":8750", "listen address")
}

type checkRequest struct {
	Left     string `json:"left"`
	Relation string `json:"relation"`
	Right    string `json:"right"`
	Explain  bool   `json:"explain,omitempty"`
}

type checkResponse struct {
	Left     string `json:"left"`
	Relation string `json:"relation"`
	Right    string `json:"right"`
	Verdict  bool   `json:"verdict"`
	Trace    string `json:"trace,omitempty"`
}

type simplifyRequest struct {
	Expr string `json:"expr"`
}

type simplifyResponse struct {
	Display string `json:"display"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func newServeMux(checker *typeset.Checker, log *zap.Logger) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok\n"))
	})
	mux.HandleFunc("/v1/check", func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		defer func() { metricLatency.WithLabelValues("check").Observe(time.Since(start).Seconds()) }()
		handleCheck(w, r, checker, log)
	})
	mux.HandleFunc("/v1/simplify", func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		defer func() { metricLatency.WithLabelValues("simplify").Observe(time.Since(start).Seconds()) }()
		handleSimplify(w, r, checker, log)
	})
	return mux
}

func handleCheck(w http.ResponseWriter, r *http.Request, checker *typeset.Checker, log *zap.Logger) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "POST required"})
		return
	}
	requestID := uuid.NewString()
	var req checkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON: " + err.Error()})
		return
	}
	relation, err := canonicalRelation(req.Relation)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	left, err := typeexpr.Parse(checker, req.Left)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "left: " + err.Error()})
		return
	}
	right, err := typeexpr.Parse(checker, req.Right)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "right: " + err.Error()})
		return
	}

	var verdict bool
	var trace *typeset.Trace
	switch relation {
	case conformance.RelationSubtype:
		verdict, trace = checker.ExplainSubtype(left, right)
	case conformance.RelationAssignable:
		verdict, trace = checker.ExplainAssignable(left, right)
	case conformance.RelationDisjoint:
		verdict, trace = checker.ExplainDisjoint(left, right)
	case conformance.RelationEquivalent:
		verdict, trace = checker.ExplainEquivalent(left, right)
	}
	metricChecks.WithLabelValues(relation, boolLabel(verdict)).Inc()
	log.Debug("check",
		zap.String("request_id", requestID), zap.String("relation", relation),
		zap.String("left", req.Left), zap.String("right", req.Right), zap.Bool("verdict", verdict))

	resp := checkResponse{
		Left:     typeset.Display(left),
		Relation: relation,
		Right:    typeset.Display(right),
		Verdict:  verdict,
	}
	if req.Explain {
		resp.Trace = trace.Render()
	}
	writeJSON(w, http.StatusOK, resp)
}

func handleSimplify(w http.ResponseWriter, r *http.Request, checker *typeset.Checker, log *zap.Logger) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "POST required"})
		return
	}
	var req simplifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON: " + err.Error()})
		return
	}
	t, err := typeexpr.Parse(checker, req.Expr)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, simplifyResponse{Display: typeset.Display(t)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
