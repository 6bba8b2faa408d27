package main

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/Deividgaston/gastos-app/internal/capture"
	"github.com/Deividgaston/gastos-app/internal/expense"
	"github.com/Deividgaston/gastos-app/internal/extraction"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	// A local .env is convenient for the API key during development.
	_ = godotenv.Load()

	fs := ff.NewFlagSet("gastos")
	var (
		port         = fs.IntLong("port", 8080, "HTTP server port")
		dbPath       = fs.StringLong("db", "gastos.db", "Database file path")
		storagePath  = fs.StringLong("storage", "./tickets", "Evidence image storage directory")
		apiKey       = fs.StringLong("api-key", "", "Google AI (Gemini) API key (or set GASTOS_API_KEY)")
		modelTargets = fs.StringLong("model-targets", "gemini-2.0-flash,gemini-1.5-flash,gemini-1.5-pro", "Ordered model fallback list; items are 'model' or 'endpointBase|model'")
		ownerID      = fs.StringLong("owner", "local", "Owner ID expenses are recorded under")
		authUser     = fs.StringLong("auth-user", "", "Basic auth username (optional)")
		authPass     = fs.StringLong("auth-pass", "", "Basic auth password (optional)")
		scanFile     = fs.StringLong("scan", "", "Scan a single receipt file and exit instead of serving")
		showVersion  = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("GASTOS"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	if *apiKey == "" {
		slog.Error("Gemini API key is required. Set --api-key or GASTOS_API_KEY")
		os.Exit(1)
	}

	targets, err := extraction.ParseTargets(*modelTargets)
	if err != nil {
		slog.Error("Invalid model targets", "error", err)
		os.Exit(1)
	}

	slog.Info("Initializing database...")
	db, err := expense.NewBoltDB(*dbPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	slog.Info("Initializing storage...")
	store, err := expense.NewLocalStorage(*storagePath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}

	client, err := extraction.NewClient(*apiKey)
	if err != nil {
		slog.Error("Failed to initialize extraction client", "error", err)
		os.Exit(1)
	}

	service := expense.NewService(db, client, store, targets, *ownerID)

	if *scanFile != "" {
		if err := scanOnce(service, *scanFile); err != nil {
			slog.Error("Scan failed", "file", *scanFile, "error", err)
			os.Exit(1)
		}
		return
	}

	server := expense.NewServer(service, expense.BasicAuth{
		Username: *authUser,
		Password: *authPass,
	})

	addr := fmt.Sprintf(":%d", *port)
	go func() {
		if err := server.Start(addr); err != nil {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("Server started",
		"address", fmt.Sprintf("http://localhost%s", addr),
		"targets", *modelTargets,
	)
	if *authUser != "" || *authPass != "" {
		slog.Info("Basic auth enabled", "user", *authUser)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	slog.Info("Shutting down...")
}

// scanOnce runs the pipeline for a single file and prints the saved entry.
func scanOnce(service *expense.Service, path string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	source := capture.NewFileSource(path)
	cap, err := source.Acquire(ctx)
	if err != nil {
		return err
	}

	result, err := service.ScanCapture(ctx, cap)
	if err != nil {
		return err
	}

	for _, warning := range result.Warnings {
		slog.Warn("Review needed", "warning", warning)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result.Entry)
}
