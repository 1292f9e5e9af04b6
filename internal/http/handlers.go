package http

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"tracker/internal/core"
	"tracker/internal/log"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	expenses := s.tracker.Expenses()
	resp := make([]expenseResponse, 0, len(expenses))
	for _, e := range expenses {
		resp = append(resp, toExpenseResponse(e))
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		s.badBody(w, r, err)
		return
	}

	e, err := s.tracker.AddExpense(p.Get("title"), p.Get("description"), p.Get("amount"), p.Get("category"))
	if err != nil {
		if errors.Is(err, core.ErrInvalidAmount) {
			respondError(w, http.StatusUnprocessableEntity, "Invalid amount. Please enter a valid number.")
			return
		}
		log.FromContext(r.Context()).Error("Failed to add expense", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusCreated, toExpenseResponse(e))
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	tasks := s.tracker.Tasks()
	resp := make([]taskResponse, 0, len(tasks))
	for _, t := range tasks {
		resp = append(resp, toTaskResponse(t))
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		s.badBody(w, r, err)
		return
	}

	t := s.tracker.AddTask(p.Get("title"), p.Get("description"), core.ParsePriority(p.Get("priority")))
	respondJSON(w, http.StatusCreated, toTaskResponse(t))
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	sum := s.tracker.Summarize()
	respondJSON(w, http.StatusOK, summaryResponse{
		TotalSpent:   sum.TotalSpent,
		ExpenseCount: sum.ExpenseCount,
		TaskCount:    sum.TaskCount,
		Text:         sum.String(),
	})
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	period := core.ParsePeriod(sanitizeInput(r.URL.Query().Get("period")))

	report, err := s.tracker.Report(period)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, toReportResponse(report))
}

func (s *Server) badBody(w http.ResponseWriter, r *http.Request, err error) {
	log.FromContext(r.Context()).Warn("Rejected request body", zap.Error(err))
	if errors.Is(err, errBodyTooLarge) {
		respondError(w, http.StatusRequestEntityTooLarge, err.Error())
		return
	}
	respondError(w, http.StatusBadRequest, err.Error())
}
