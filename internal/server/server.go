// internal/server/server.go
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/ThinkInAIXYZ/go-mcp/protocol"
	"github.com/ThinkInAIXYZ/go-mcp/server"
	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"mcp-calorie-ledger/internal/ledger"
	"mcp-calorie-ledger/internal/nutrition"
	"mcp-calorie-ledger/internal/storage"
)

type Config struct {
	Transport string
	Host      string
	Port      int
	DBPath    string
	Timezone  string
}

// TrackerServer exposes the calorie ledger to the orchestrating agent
// layer as MCP tools over HTTP.
type TrackerServer struct {
	server     *server.Server
	httpServer *http.Server
	storage    storage.Store
	calculator *nutrition.Calculator
	ledger     *ledger.Ledger
	config     *Config
}

func NewTrackerServer(cfg *Config) (*TrackerServer, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", cfg.Timezone, err)
	}

	var store storage.Store
	if cfg.DBPath != "" {
		store, err = storage.NewSQLiteStore(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize storage: %w", err)
		}
	} else {
		store = storage.NewMemoryStore()
	}

	calc := nutrition.NewCalculator(nutrition.NewOpenFoodFactsClient())

	trackerServer := &TrackerServer{
		storage:    store,
		calculator: calc,
		ledger:     ledger.New(store, calc, loc),
		config:     cfg,
	}

	// Create MCP server (without transport, we handle HTTP manually)
	mcpServer, err := server.NewServer(
		nil,
		server.WithServerInfo(protocol.Implementation{
			Name:    "calorie-ledger",
			Version: "1.0.0",
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create MCP server: %w", err)
	}
	trackerServer.server = mcpServer

	if err := trackerServer.registerTools(); err != nil {
		return nil, fmt.Errorf("failed to register tools: %w", err)
	}

	router := mux.NewRouter()
	router.HandleFunc("/", trackerServer.handleToolCall).Methods(http.MethodPost)
	router.HandleFunc("/healthz", trackerServer.handleHealth).Methods(http.MethodGet)

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodPost, http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	})

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	trackerServer.httpServer = &http.Server{
		Addr:    addr,
		Handler: c.Handler(router),
	}

	return trackerServer, nil
}

func (s *TrackerServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *TrackerServer) handleToolCall(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var request protocol.CallToolRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, fmt.Sprintf("Invalid JSON: %v", err), http.StatusBadRequest)
		return
	}

	var result *protocol.CallToolResult
	var err error

	switch request.Name {
	case "calculate_macros":
		result, err = s.handleCalculateMacros(r.Context(), &request)
	case "add_food":
		result, err = s.handleAddFood(r.Context(), &request)
	case "remove_food":
		result, err = s.handleRemoveFood(r.Context(), &request)
	case "reset_totals":
		result, err = s.handleResetTotals(r.Context(), &request)
	case "get_totals":
		result, err = s.handleGetTotals(r.Context(), &request)
	default:
		http.Error(w, fmt.Sprintf("Unknown tool: %s", request.Name), http.StatusNotFound)
		return
	}

	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if err := json.NewEncoder(w).Encode(result); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

func (s *TrackerServer) Start(ctx context.Context) error {
	log.Printf("Starting calorie ledger server on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *TrackerServer) Stop() error {
	if s.storage != nil {
		s.storage.Close()
	}
	if s.httpServer != nil {
		return s.httpServer.Shutdown(context.Background())
	}
	return nil
}

func (s *TrackerServer) createJSONResponse(data interface{}) (*protocol.CallToolResult, error) {
	jsonBytes, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response: %w", err)
	}

	return &protocol.CallToolResult{
		Content: []protocol.Content{
			protocol.TextContent{
				Type: "text",
				Text: string(jsonBytes),
			},
		},
	}, nil
}
