// Entry point for the tableprep CLI
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rs/cors"
	"gopkg.in/yaml.v3"

	"github.com/tableprep/tableprep-go/pkg/compare"
	"github.com/tableprep/tableprep-go/pkg/config"
	"github.com/tableprep/tableprep-go/pkg/dataset"
	"github.com/tableprep/tableprep-go/pkg/profile"
	"github.com/tableprep/tableprep-go/pkg/report"
	"github.com/tableprep/tableprep-go/pkg/transform"
	"github.com/tableprep/tableprep-go/utils"
)

const tableprepVersion = "v0.2.0"

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		printHelp()
		return
	}

	switch args[0] {
	case "-h", "--help", "help":
		printHelp()
		return
	case "--version", "-v":
		fmt.Println("tableprep version:", tableprepVersion)
		return
	case "--server":
		port := ""
		if len(args) > 1 {
			port = args[1]
		}
		runServer(port)
		return
	case "--profile":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "Error: --profile requires a dataset file path")
			os.Exit(1)
		}
		runProfile(args[1])
		return
	case "--prepare":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "Error: --prepare requires a dataset file path")
			os.Exit(1)
		}
		runPrepare(args[1:])
		return
	default:
		fmt.Fprintln(os.Stderr, "Unknown argument. Use --help for usage.")
		os.Exit(1)
	}
}

func runServer(port string) {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}
	if port != "" {
		cfg.Port = port
	}

	utils.InitLogger(cfg.LogLevel, cfg.LogFormat)

	server, err := NewServer(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing server: %v\n", err)
		os.Exit(1)
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "http://localhost:8080", "*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	// WriteTimeout must cover synchronous model comparison requests
	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      c.Handler(server.router),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting tableprep server on port %s", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("Error starting server: %v", err)
			os.Exit(1)
		}
	}()

	// Block until interrupted, then drain
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	log.Println("Shutting down server...")

	// Give outstanding requests and running jobs 30 seconds to complete
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	if err := httpServer.Shutdown(ctx); err != nil {
		log.Printf("HTTP server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

// runProfile profiles a local dataset file and prints the column
// diagnostics as JSON.
func runProfile(path string) {
	ds, err := dataset.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading %s: %v\n", path, err)
		os.Exit(1)
	}

	diagnostics := profile.Describe(ds)
	out, err := json.MarshalIndent(map[string]any{
		"name":    ds.Name,
		"shape":   ds.Shape(),
		"columns": diagnostics,
	}, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding profile: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}

// runPrepare applies a step file to a local dataset and writes the
// processed CSV next to it, optionally comparing model scores before and
// after.
func runPrepare(args []string) {
	var (
		input      string
		stepsPath  string
		outPath    string
		target     string
		runCompare bool
	)
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--steps":
			i++
			if i >= len(args) {
				fmt.Fprintln(os.Stderr, "Error: --steps requires a file path")
				os.Exit(1)
			}
			stepsPath = args[i]
		case "--out":
			i++
			if i >= len(args) {
				fmt.Fprintln(os.Stderr, "Error: --out requires a file path")
				os.Exit(1)
			}
			outPath = args[i]
		case "--target":
			i++
			if i >= len(args) {
				fmt.Fprintln(os.Stderr, "Error: --target requires a column name")
				os.Exit(1)
			}
			target = args[i]
		case "--compare":
			runCompare = true
		default:
			if input != "" {
				fmt.Fprintf(os.Stderr, "Unknown argument %q. Use --help for usage.\n", args[i])
				os.Exit(1)
			}
			input = args[i]
		}
	}
	if input == "" {
		fmt.Fprintln(os.Stderr, "Error: --prepare requires a dataset file path")
		os.Exit(1)
	}

	ds, err := dataset.Load(input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading %s: %v\n", input, err)
		os.Exit(1)
	}

	var steps []transform.Step
	if stepsPath != "" {
		steps, err = loadSteps(stepsPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading steps: %v\n", err)
			os.Exit(1)
		}
	}

	engine := transform.NewEngine(ds)
	if err := engine.Apply(steps); err != nil {
		fmt.Fprintf(os.Stderr, "Error applying steps: %v\n", err)
		os.Exit(1)
	}
	final := engine.Dataset()

	if outPath == "" {
		outPath = strings.TrimSuffix(input, filepath.Ext(input)) + "_prepared.csv"
	}
	if err := dataset.SaveCSV(final, outPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", outPath, err)
		os.Exit(1)
	}

	rep := report.Build(engine.Original(), final, engine.Log())
	fmt.Printf("Prepared %s: %dx%d -> %dx%d\n", input,
		rep.OriginalShape.Rows, rep.OriginalShape.Columns,
		rep.FinalShape.Rows, rep.FinalShape.Columns)
	for _, step := range rep.Steps {
		fmt.Printf("  - %s\n", step.Details)
	}
	fmt.Printf("Output written to %s\n", outPath)

	if runCompare {
		comparison, err := compare.Compare(engine.Original(), final, target)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Model comparison failed: %v\n", err)
			os.Exit(1)
		}
		encoded, err := json.MarshalIndent(comparison, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error encoding comparison: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(encoded))
	}
}

// loadSteps reads an ordered preparation step list from a YAML file
func loadSteps(path string) ([]transform.Step, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f struct {
		Steps []transform.Step `yaml:"steps"`
	}
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return f.Steps, nil
}

func printHelp() {
	fmt.Println("Usage:")
	fmt.Println("  --server [port]                         Start HTTP server (default port: 8080)")
	fmt.Println("  --profile <file>                        Profile a dataset and print column diagnostics")
	fmt.Println("  --prepare <file> [--steps steps.yaml]   Apply preparation steps and write the processed CSV")
	fmt.Println("            [--out out.csv] [--target col] [--compare]")
	fmt.Println("  -h, --help, help                        Show this help message")
	fmt.Println("  -v, --version                           Show tableprep version")
}
