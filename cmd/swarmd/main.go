// Command swarmd is the swarm orchestration core's daemon: it bootstraps
// every subsystem, recovers in-flight graphs from the last persisted
// state, runs the periodic executor/supervisor sweeps, and serves a small
// HTTP surface for submitting and inspecting graphs. Grounded on the
// teacher's cmd/server/main.go bootstrap-and-signal-handling shape; its
// gRPC-decomposition handleExecute/convertProtoGraph logic is replaced by
// a direct call into internal/dag.Builder.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/swarmcore/orchestrator/internal/breaker"
	"github.com/swarmcore/orchestrator/internal/config"
	"github.com/swarmcore/orchestrator/internal/convo"
	"github.com/swarmcore/orchestrator/internal/dag"
	"github.com/swarmcore/orchestrator/internal/executor"
	"github.com/swarmcore/orchestrator/internal/logger"
	"github.com/swarmcore/orchestrator/internal/metrics"
	"github.com/swarmcore/orchestrator/internal/queue"
	"github.com/swarmcore/orchestrator/internal/store"
	"github.com/swarmcore/orchestrator/internal/supervisor"
)

func main() {
	configPath := flag.String("config", "", "Path to config.yaml")
	port := flag.Int("port", 8090, "HTTP server port")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "swarmd: config: %v\n", err)
		os.Exit(1)
	}

	st, err := store.New(cfg.DataDir())
	if err != nil {
		fmt.Fprintf(os.Stderr, "swarmd: store: %v\n", err)
		os.Exit(1)
	}

	runID := fmt.Sprintf("swarmd-%d", time.Now().UnixNano())
	log, err := logger.NewFile(filepath.Join(cfg.ProjectDir, "logs"), runID, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "swarmd: logger: %v\n", err)
		os.Exit(1)
	}

	breakers := breaker.NewRegistry(breaker.Config{
		FailureThreshold:  cfg.Breaker.FailureThreshold,
		ResetTimeout:      cfg.Breaker.ResetTimeout,
		HalfOpenSuccesses: cfg.Breaker.HalfOpenSuccessThreshold,
		RequestTimeout:    cfg.Breaker.RequestTimeout,
	})

	supCfg := supervisor.DefaultConfig()
	supCfg.ClaudePath = cfg.ClaudePath
	supCfg.GlobalMax = cfg.Supervisor.GlobalMaxConcurrent
	supCfg.ArchiveRetention = cfg.Retention.TaskRetention
	supCfg.ArchiveCap = cfg.Retention.TaskArchiveSize
	sup := supervisor.New(supCfg, log, st)

	ex := executor.New(st, sup, log)

	dq, err := queue.New(st)
	if err != nil {
		log.Error(context.Background(), "swarmd", "queue_init_failed", err.Error(), nil)
		os.Exit(1)
	}
	accum := convo.NewAccumulator()

	ex.OnNotify(func(g *dag.Graph, msg string) {
		if _, err := dq.Enqueue(g.Initiator, msg); err != nil {
			log.Error(context.Background(), "swarmd", "notify_enqueue_failed", err.Error(), map[string]any{"graphId": g.ID})
		}
	})

	if err := ex.Recover(); err != nil {
		log.Error(context.Background(), "swarmd", "recover_failed", err.Error(), nil)
	}

	c := cron.New(cron.WithSeconds())
	if _, err := c.AddFunc(cfg.Supervisor.SweepCron, func() {
		sup.Check()
		ex.TickAll()
		metrics.SetQueueDepth(dq.Depth())
		metrics.SetActiveGraphs(len(ex.List()))
		for _, issue := range breakers.HealthIssues() {
			log.Event(context.Background(), "swarmd", "breaker_degraded", map[string]any{"issue": issue})
		}
	}); err != nil {
		fmt.Fprintf(os.Stderr, "swarmd: cron: %v\n", err)
		os.Exit(1)
	}
	c.Start()
	defer c.Stop()

	mux := http.NewServeMux()
	mux.HandleFunc("/health", metrics.HealthHandler(breakers, func() int { return len(sup.RunningTasks()) }, func() int { return len(ex.List()) }))
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/graphs", handleGraphs(ex))
	mux.HandleFunc("/graphs/", handleGraphByID(ex))
	mux.HandleFunc("/conversations/", handleConversation(st, accum))

	addr := fmt.Sprintf(":%d", *port)
	server := &http.Server{Addr: addr, Handler: mux}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		<-sigCh
		log.Event(context.Background(), "swarmd", "shutdown_signal", nil)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			log.Error(context.Background(), "swarmd", "shutdown_error", err.Error(), nil)
		}
	}()

	log.Event(context.Background(), "swarmd", "startup", map[string]any{"addr": addr})
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		fmt.Fprintf(os.Stderr, "swarmd: server: %v\n", err)
		os.Exit(1)
	}
}

// graphRequest is the POST /graphs payload: a blueprint name plus a
// prompt, hydrated via dag.QuickPlan. A caller needing per-node prompts
// builds the NodeSpec list directly and calls internal/dag.Builder in
// process instead of going through this convenience endpoint.
type graphRequest struct {
	Blueprint string  `json:"blueprint"`
	Prompt    string  `json:"prompt"`
	Initiator string  `json:"initiator"`
	MaxCostUSD float64 `json:"maxCostUsd,omitempty"`
}

func handleGraphs(ex *executor.Executor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(ex.List())
		case http.MethodPost:
			var req graphRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, fmt.Sprintf("invalid request: %v", err), http.StatusBadRequest)
				return
			}
			if req.Blueprint == "" || req.Prompt == "" {
				http.Error(w, "blueprint and prompt are required", http.StatusBadRequest)
				return
			}
			budget := dag.Budget{MaxCostUSD: req.MaxCostUSD, MaxConcurrent: 3, MaxWallClock: 30 * time.Minute}
			if budget.MaxCostUSD <= 0 {
				budget.MaxCostUSD = 5
			}
			g, err := dag.QuickPlan(&dag.Builder{}, req.Blueprint, req.Prompt, req.Initiator, budget)
			if err != nil {
				http.Error(w, fmt.Sprintf("build failed: %v", err), http.StatusBadRequest)
				return
			}
			if err := ex.Start(g); err != nil {
				http.Error(w, fmt.Sprintf("start failed: %v", err), http.StatusInternalServerError)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusAccepted)
			json.NewEncoder(w).Encode(map[string]string{"id": g.ID})
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

// conversationRequest appends one user message to a session's ring
// buffer. If the caller marks the session busy (Busy is supplied in the
// request body), the message is accumulated instead of triggering new
// work, per spec.md §4.6's "buffer messages that arrive mid-turn".
type conversationRequest struct {
	Text string `json:"text"`
	Busy bool   `json:"busy"`
}

func handleConversation(st *store.FileStore, accum *convo.Accumulator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionKey := strings.TrimPrefix(r.URL.Path, "/conversations/")
		if sessionKey == "" {
			http.NotFound(w, r)
			return
		}

		switch r.Method {
		case http.MethodGet:
			ring, err := convo.LoadRing(st, sessionKey)
			if err != nil {
				http.Error(w, fmt.Sprintf("load failed: %v", err), http.StatusInternalServerError)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(ring.Messages())
		case http.MethodPost:
			var req conversationRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, fmt.Sprintf("invalid request: %v", err), http.StatusBadRequest)
				return
			}
			if req.Busy {
				accum.Accumulate(sessionKey, req.Text)
				w.WriteHeader(http.StatusAccepted)
				return
			}
			ring, err := convo.LoadRing(st, sessionKey)
			if err != nil {
				http.Error(w, fmt.Sprintf("load failed: %v", err), http.StatusInternalServerError)
				return
			}
			if err := ring.Append(convo.RoleUser, req.Text, convo.TypeText); err != nil {
				http.Error(w, fmt.Sprintf("append failed: %v", err), http.StatusInternalServerError)
				return
			}
			pending := accum.Drain(sessionKey)
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]string{"pendingContext": convo.Format(pending)})
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

func handleGraphByID(ex *executor.Executor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/graphs/")
		if id == "" {
			http.NotFound(w, r)
			return
		}
		g := ex.Get(id)
		if g == nil {
			http.Error(w, fmt.Sprintf("graph %s not found", id), http.StatusNotFound)
			return
		}
		g.Lock()
		defer g.Unlock()
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(g)
	}
}
