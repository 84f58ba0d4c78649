package mcp

import (
	"context"
	"encoding/json"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
)

// parseDateRange resolves optional start/end strings (YYYY-MM-DD), defaulting
// to the last 30 days, into epoch milliseconds.
func parseDateRange(startStr, endStr string) (int64, int64, error) {
	end := time.Now()
	if endStr != "" {
		t, err := time.Parse("2006-01-02", endStr)
		if err != nil {
			return 0, 0, err
		}
		end = t.AddDate(0, 0, 1)
	}
	start := end.AddDate(0, 0, -30)
	if startStr != "" {
		t, err := time.Parse("2006-01-02", startStr)
		if err != nil {
			return 0, 0, err
		}
		start = t
	}
	return start.UnixMilli(), end.UnixMilli(), nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(data)), nil
}

// --- Tool definitions ---

var toolGetWorkoutHistory = mcp.NewTool("get_workout_history",
	mcp.WithDescription("List completed workout sessions in a date range, newest first, with performed exercises and logged sets (weights in kg)."),
	mcp.WithString("start", mcp.Description("Start date (YYYY-MM-DD). Defaults to 30 days ago.")),
	mcp.WithString("end", mcp.Description("End date (YYYY-MM-DD), inclusive. Defaults to today.")),
)

var toolGetSessionDetail = mcp.NewTool("get_session_detail",
	mcp.WithDescription("Get one workout session by id with its full exercise and set breakdown."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Session id")),
)

var toolSearchExercises = mcp.NewTool("search_exercises",
	mcp.WithDescription("Search the exercise catalog by name (case-insensitive substring). Empty query lists the whole catalog alphabetically."),
	mcp.WithString("query", mcp.Description("Name fragment to search for")),
)

var toolListTemplates = mcp.NewTool("list_templates",
	mcp.WithDescription("List workout templates with their planned exercises in order."),
	mcp.WithString("query", mcp.Description("Optional title fragment to filter by")),
)

// --- Tool handlers ---

func (h *handlers) getWorkoutHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start, end, err := parseDateRange(req.GetString("start", ""), req.GetString("end", ""))
	if err != nil {
		return mcp.NewToolResultError("invalid date: " + err.Error()), nil
	}
	sessions, err := h.db.ListSessionsByDateRange(ctx, start, end)
	if err != nil {
		return nil, err
	}
	return jsonResult(sessions)
}

func (h *handlers) getSessionDetail(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	sess, err := h.db.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return mcp.NewToolResultError("session not found: " + id), nil
	}
	return jsonResult(sess)
}

func (h *handlers) searchExercises(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := req.GetString("query", "")
	if query == "" {
		exercises, err := h.db.ListExercises(ctx)
		if err != nil {
			return nil, err
		}
		return jsonResult(exercises)
	}
	exercises, err := h.db.SearchExercises(ctx, query)
	if err != nil {
		return nil, err
	}
	return jsonResult(exercises)
}

func (h *handlers) listTemplates(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := req.GetString("query", "")
	if query == "" {
		templates, err := h.db.ListTemplates(ctx)
		if err != nil {
			return nil, err
		}
		return jsonResult(templates)
	}
	templates, err := h.db.SearchTemplates(ctx, query)
	if err != nil {
		return nil, err
	}
	return jsonResult(templates)
}
