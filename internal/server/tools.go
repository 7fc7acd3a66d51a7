// internal/server/tools.go
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/ThinkInAIXYZ/go-mcp/protocol"

	"mcp-calorie-ledger/internal/ledger"
	"mcp-calorie-ledger/internal/models"
)

type FoodTextParams struct {
	Text string `json:"text" description:"Free text describing the food, e.g. '200 g potatoes 100 g rice'"`
}

type GetTotalsParams struct {
	Date string `json:"date,omitempty" description:"Day to query: 'today' (default) or YYYY-MM-DD"`
}

// mealResult pairs the per-request macro delta with the updated day state,
// so the agent can show "this meal" and "today's totals" from one call.
type mealResult struct {
	Meal    models.MacroRecord `json:"meal"`
	Skipped []string           `json:"skipped,omitempty"`
	Day     *ledger.Result     `json:"day"`
}

// extractParams safely extracts parameters from the request arguments
func extractParams(req *protocol.CallToolRequest, target interface{}) error {
	jsonBytes, err := json.Marshal(req.Arguments)
	if err != nil {
		return fmt.Errorf("failed to marshal arguments: %w", err)
	}

	if err := json.Unmarshal(jsonBytes, target); err != nil {
		return fmt.Errorf("failed to unmarshal parameters: %w", err)
	}

	return nil
}

// handleCalculateMacros computes the macro delta for a food text without
// touching the ledger.
func (s *TrackerServer) handleCalculateMacros(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params FoodTextParams
	if err := extractParams(req, &params); err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}

	if params.Text == "" {
		return nil, fmt.Errorf("food text is required")
	}

	total, skipped := s.calculator.Compute(ctx, params.Text)
	return s.createJSONResponse(mealResult{Meal: total, Skipped: skipped})
}

// handleAddFood computes macros for the text and adds them to today's
// totals, recording the meal in history.
func (s *TrackerServer) handleAddFood(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params FoodTextParams
	if err := extractParams(req, &params); err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}

	if params.Text == "" {
		return nil, fmt.Errorf("food text is required")
	}

	delta, skipped := s.calculator.Compute(ctx, params.Text)
	day, err := s.ledger.Add(ctx, delta, params.Text)
	if err != nil {
		return nil, fmt.Errorf("failed to update totals: %w", err)
	}

	return s.createJSONResponse(mealResult{Meal: delta, Skipped: skipped, Day: day})
}

// handleRemoveFood subtracts the macros for the text from today's totals.
// History is left untouched; totals never go below zero.
func (s *TrackerServer) handleRemoveFood(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params FoodTextParams
	if err := extractParams(req, &params); err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}

	if params.Text == "" {
		return nil, fmt.Errorf("food text is required")
	}

	day, err := s.ledger.Remove(ctx, params.Text)
	if err != nil {
		return nil, fmt.Errorf("failed to update totals: %w", err)
	}

	return s.createJSONResponse(day)
}

// handleResetTotals zeroes today's totals and clears history.
func (s *TrackerServer) handleResetTotals(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	day, err := s.ledger.Reset(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to reset totals: %w", err)
	}

	return s.createJSONResponse(day)
}

// handleGetTotals returns totals and history for a day without mutating
// anything.
func (s *TrackerServer) handleGetTotals(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params GetTotalsParams
	if err := extractParams(req, &params); err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}

	day, err := s.ledger.Query(ctx, params.Date)
	if err != nil {
		return nil, fmt.Errorf("failed to query totals: %w", err)
	}

	return s.createJSONResponse(day)
}

// Register all tools - handled manually in the HTTP dispatcher, this just
// verifies the handler set at startup.
func (s *TrackerServer) registerTools() error {
	tools := map[string]func(context.Context, *protocol.CallToolRequest) (*protocol.CallToolResult, error){
		"calculate_macros": s.handleCalculateMacros,
		"add_food":         s.handleAddFood,
		"remove_food":      s.handleRemoveFood,
		"reset_totals":     s.handleResetTotals,
		"get_totals":       s.handleGetTotals,
	}

	for name := range tools {
		log.Printf("Registered tool: %s", name)
	}

	return nil
}
