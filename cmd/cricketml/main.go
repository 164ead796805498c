// Entry point for the cricket prediction service CLI
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sanjib-agent/cricketml/pkg/api"
	"github.com/sanjib-agent/cricketml/pkg/config"
	"github.com/sanjib-agent/cricketml/pkg/pipeline"
	"github.com/sanjib-agent/cricketml/pkg/registry"
	"github.com/sanjib-agent/cricketml/pkg/schema"
	"github.com/sanjib-agent/cricketml/pkg/store"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.LogLevel == "debug" {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}

	switch os.Args[1] {
	case "train":
		runTrain(cfg, os.Args[2:])
	case "evaluate":
		runEvaluate(cfg, os.Args[2:])
	case "serve":
		runServe(cfg, os.Args[2:])
	case "-h", "--help", "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q. Use --help for usage.\n", os.Args[1])
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Usage: cricketml <command> [options]

Commands:
  train [-targets a,b] [-limit n]
                         Train models for all (or the listed) targets
  evaluate [-target t] [-out file]
                         Print trained model artifacts from the registry
  serve [-port n]        Serve predictions over HTTP

Configuration comes from environment variables (MONGODB_URI, MODELS_DIR,
PORT, RETRAIN_SCHEDULE, ...).`)
}

// openRegistry creates the registry's parent directory and opens it.
func openRegistry(cfg *config.Config) *registry.Registry {
	if err := os.MkdirAll(filepath.Dir(cfg.RegistryPath), 0755); err != nil {
		log.Fatalf("Failed to create registry directory: %v", err)
	}
	reg, err := registry.Open(cfg.RegistryPath)
	if err != nil {
		log.Fatalf("Failed to open model registry: %v", err)
	}
	return reg
}

func runTrain(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("train", flag.ExitOnError)
	targetsFlag := fs.String("targets", "", "comma-separated target names, empty trains all")
	limitFlag := fs.Int64("limit", 0, "maximum over documents to load, 0 loads all")
	fs.Parse(args)

	ctx := context.Background()

	db, err := store.Connect(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer db.Close(ctx)
	log.Printf("Connected to MongoDB at %s", cfg.MongoURI)

	reg := openRegistry(cfg)
	defer reg.Close()

	var targets []string
	if *targetsFlag != "" {
		targets = splitCommaList(*targetsFlag)
	}

	service := pipeline.New(cfg, db, reg)
	service.SampleLimit = *limitFlag
	summary, err := service.Run(ctx, targets)
	if err != nil {
		log.Fatalf("Training run failed: %v", err)
	}

	log.Printf("Training run %s finished: %d rows, %d targets in %s",
		summary.RunID, summary.Rows, len(summary.Targets), summary.FinishedAt.Sub(summary.StartedAt).Round(time.Second))
	for name, outcome := range summary.Targets {
		if outcome.Err != "" {
			log.Printf("  %s: FAILED: %s", name, outcome.Err)
			continue
		}
		log.Printf("  %s: best=%s report=%s", name, outcome.BestModel, outcome.ReportPath)
	}
}

func runEvaluate(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("evaluate", flag.ExitOnError)
	targetFlag := fs.String("target", "", "limit output to one target")
	outFlag := fs.String("out", "", "write JSON to a file instead of stdout")
	fs.Parse(args)

	reg := openRegistry(cfg)
	defer reg.Close()

	targetRegistry := schema.NewRegistry()
	targets := targetRegistry.TargetNames()
	if *targetFlag != "" {
		targets = []string{*targetFlag}
	}

	out := make(map[string]interface{}, len(targets))
	for _, name := range targets {
		artifacts, err := reg.ListArtifacts(name)
		if err != nil {
			log.Fatalf("Failed to list artifacts for %s: %v", name, err)
		}
		entry := map[string]interface{}{"artifacts": artifacts}
		if best, err := reg.BestModel(name); err == nil {
			entry["best_model"] = best
		}
		out[name] = entry
	}

	dst := os.Stdout
	if *outFlag != "" {
		f, err := os.Create(*outFlag)
		if err != nil {
			log.Fatalf("Failed to create output file: %v", err)
		}
		defer f.Close()
		dst = f
	}
	encoder := json.NewEncoder(dst)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(out); err != nil {
		log.Fatalf("Failed to encode evaluation output: %v", err)
	}
}

func runServe(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	portFlag := fs.String("port", "", "listen port, overrides PORT")
	fs.Parse(args)
	if *portFlag != "" {
		cfg.Port = *portFlag
	}
	reg := openRegistry(cfg)
	defer reg.Close()

	catalog, err := api.LoadCatalog(cfg, reg)
	if err != nil {
		log.Fatalf("Failed to load models: %v", err)
	}
	if len(catalog.Targets()) == 0 {
		log.Fatalf("No trained models found in %s, run `cricketml train` first", cfg.ModelsDir)
	}

	// Scheduled retraining needs a data connection; without a schedule the
	// server runs on the artifacts already on disk.
	var retrainer api.Retrainer
	if cfg.RetrainSchedule != "" {
		db, err := store.Connect(context.Background(), cfg)
		if err != nil {
			log.Fatalf("Failed to connect to MongoDB for scheduled retraining: %v", err)
		}
		defer db.Close(context.Background())
		retrainer = pipeline.New(cfg, db, reg)
	}

	server := api.NewServer(cfg, catalog, reg, retrainer)
	defer server.Stop()
	if err := server.Start(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func splitCommaList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
