package http

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"tracker/internal/core"
)

type errorResponse struct {
	Error string `json:"error"`
}

type expenseResponse struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Amount      float64   `json:"amount"`
	Category    string    `json:"category"`
	CreatedAt   time.Time `json:"created_at"`
	Details     string    `json:"details"`
}

type taskResponse struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Priority    string    `json:"priority"`
	CreatedAt   time.Time `json:"created_at"`
	Details     string    `json:"details"`
}

type summaryResponse struct {
	TotalSpent   float64 `json:"total_spent"`
	ExpenseCount int     `json:"expense_count"`
	TaskCount    int     `json:"task_count"`
	Text         string  `json:"text"`
}

type categoryResponse struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
}

type reportResponse struct {
	Period     string             `json:"period"`
	Since      *time.Time         `json:"since,omitempty"`
	Total      float64            `json:"total"`
	ByCategory []categoryResponse `json:"by_category"`
}

func respondJSON(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, code int, message string) {
	respondJSON(w, code, errorResponse{Error: message})
}

func toExpenseResponse(e core.Expense) expenseResponse {
	return expenseResponse{
		Title:       e.Title,
		Description: e.Description,
		Amount:      e.Amount,
		Category:    e.Category,
		CreatedAt:   e.CreatedAt,
		Details:     e.Details(),
	}
}

func toTaskResponse(t core.Task) taskResponse {
	return taskResponse{
		Title:       t.Title,
		Description: t.Description,
		Priority:    t.Priority.String(),
		CreatedAt:   t.CreatedAt,
		Details:     t.Details(),
	}
}

func toReportResponse(r core.Report) reportResponse {
	resp := reportResponse{
		Period:     core.PeriodName(r.Period),
		Total:      r.Total,
		ByCategory: make([]categoryResponse, 0, len(r.ByCategory)),
	}
	if r.Period != core.PeriodAll {
		since := r.Since
		resp.Since = &since
	}
	for _, c := range r.ByCategory {
		resp.ByCategory = append(resp.ByCategory, categoryResponse{Name: c.Name, Amount: c.Amount})
	}
	return resp
}

// sanitizeInput strips control characters other than tab and newlines, then
// trims whitespace.
func sanitizeInput(s string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s))
}
