// cmd/calorie-ledger/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"

	"mcp-calorie-ledger/internal/server"
)

var (
	transport = flag.String("transport", "http", "Transport mode: http")
	port      = flag.Int("port", 8012, "Port for HTTP transport")
	host      = flag.String("host", "0.0.0.0", "Host address")
	dbPath    = flag.String("db-path", "", "SQLite database path (empty = in-memory session state)")
	timezone  = flag.String("timezone", "", "Timezone for day bucketing (defaults to NUTRITION_TZ or Europe/Moscow)")
	version   = flag.Bool("version", false, "Show version")
)

func main() {
	godotenv.Load()
	flag.Parse()

	if *version {
		fmt.Println("mcp-calorie-ledger version 1.0.0")
		os.Exit(0)
	}

	portNum := *port
	if env := os.Getenv("PORT"); env != "" && !flagSet("port") {
		if p, err := strconv.Atoi(env); err == nil {
			portNum = p
		}
	}

	db := *dbPath
	if db == "" {
		db = os.Getenv("DB_PATH")
	}

	tz := *timezone
	if tz == "" {
		tz = os.Getenv("NUTRITION_TZ")
	}
	if tz == "" {
		tz = "Europe/Moscow"
	}

	config := &server.Config{
		Transport: *transport,
		Host:      *host,
		Port:      portNum,
		DBPath:    db,
		Timezone:  tz,
	}

	srv, err := server.NewTrackerServer(config)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting calorie ledger on %s:%d (tz=%s)", *host, portNum, tz)
		if err := srv.Start(ctx); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-sigCh:
		log.Println("Received shutdown signal")
	case err := <-errCh:
		log.Printf("Server error: %v", err)
	}

	log.Println("Shutting down...")
	cancel()
	if err := srv.Stop(); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}
}

func flagSet(name string) bool {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}
