// Command swarmctl is the one-shot CLI for standing up a graph from a
// free-text request: pick a blueprint, hydrate it, and either submit it
// to a running swarmd over HTTP or run it to completion in-process.
// Grounded on the teacher's cmd/planner/main.go "parse -> generate ->
// validate -> log plan -> print JSON" shape; the gRPC-era TemplateGenerator
// it drove is replaced by internal/dag.QuickPlan/StandardBlueprints.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"sort"
	"time"

	"github.com/swarmcore/orchestrator/internal/config"
	"github.com/swarmcore/orchestrator/internal/dag"
	"github.com/swarmcore/orchestrator/internal/executor"
	"github.com/swarmcore/orchestrator/internal/logger"
	"github.com/swarmcore/orchestrator/internal/store"
	"github.com/swarmcore/orchestrator/internal/supervisor"
)

func main() {
	blueprint := flag.String("blueprint", "research", "Blueprint name (see -list)")
	prompt := flag.String("prompt", "", "The task prompt to hydrate into every node")
	initiator := flag.String("initiator", "cli", "Identity recorded as the graph's initiator")
	maxCost := flag.Float64("max-cost", 5.0, "Graph cost ceiling in USD")
	swarmdAddr := flag.String("swarmd", "", "Base URL of a running swarmd (e.g. http://localhost:8090); empty builds and prints the plan, and runs it only with -local")
	local := flag.Bool("local", false, "Run the graph to completion in-process instead of submitting to swarmd")
	list := flag.Bool("list", false, "List available blueprints and exit")
	configPath := flag.String("config", "", "Path to config.yaml")
	flag.Parse()

	if *list {
		names := make([]string, 0, len(dag.StandardBlueprints()))
		for name := range dag.StandardBlueprints() {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, n := range names {
			fmt.Println(n)
		}
		return
	}

	if *prompt == "" {
		fmt.Fprintln(os.Stderr, "swarmctl: -prompt is required")
		os.Exit(1)
	}

	budget := dag.Budget{MaxCostUSD: *maxCost, MaxConcurrent: 3, MaxWallClock: 30 * time.Minute}

	if *swarmdAddr != "" {
		if err := submitRemote(*swarmdAddr, *blueprint, *prompt, *initiator); err != nil {
			fmt.Fprintf(os.Stderr, "swarmctl: %v\n", err)
			os.Exit(1)
		}
		return
	}

	g, err := dag.QuickPlan(&dag.Builder{}, *blueprint, *prompt, *initiator, budget)
	if err != nil {
		fmt.Fprintf(os.Stderr, "swarmctl: build failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("=== PLAN ===")
	printJSON(g)

	if !*local {
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "swarmctl: config: %v\n", err)
		os.Exit(1)
	}
	st, err := store.New(cfg.DataDir())
	if err != nil {
		fmt.Fprintf(os.Stderr, "swarmctl: store: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(os.Stderr, nil)

	supCfg := supervisor.DefaultConfig()
	supCfg.ClaudePath = cfg.ClaudePath
	sup := supervisor.New(supCfg, log, st)
	ex := executor.New(st, sup, log)

	fmt.Println("\n=== RUNNING ===")
	if err := ex.Start(g); err != nil {
		fmt.Fprintf(os.Stderr, "swarmctl: start failed: %v\n", err)
		os.Exit(1)
	}

	deadline := time.Now().Add(budget.MaxWallClock + time.Minute)
	for time.Now().Before(deadline) {
		done := ex.Get(g.ID)
		done.Lock()
		status := done.Status
		done.Unlock()
		if status != dag.GraphRunning {
			break
		}
		sup.Check()
		time.Sleep(500 * time.Millisecond)
	}

	fmt.Println("\n=== RESULT ===")
	fmt.Println(ex.Status(g.ID))
}

func submitRemote(addr, blueprint, prompt, initiator string) error {
	body, err := json.Marshal(map[string]any{
		"blueprint": blueprint,
		"prompt":    prompt,
		"initiator": initiator,
	})
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, addr+"/graphs", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("submit to swarmd: %w", err)
	}
	defer resp.Body.Close()

	var out map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	fmt.Printf("submitted: %s\n", out["id"])
	return nil
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
