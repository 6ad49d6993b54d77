package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/paydirt-network/paydirt/internal/domain"
)

// ─── Task handlers ──────────────────────────────────────────────────────────

type createTaskRequest struct {
	Description string `json:"description"`
	Reward      int64  `json:"reward"`
	Funding     int64  `json:"funding"`
	Deadline    string `json:"deadline,omitempty"` // RFC 3339
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	p, ok := caller(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "missing X-Principal header")
		return
	}

	var req createTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var deadline time.Time
	if req.Deadline != "" {
		var err error
		deadline, err = time.Parse(time.RFC3339, req.Deadline)
		if err != nil {
			writeError(w, http.StatusBadRequest, "deadline must be RFC 3339")
			return
		}
	}

	task, err := s.engine.CreateTask(p, req.Description, req.Reward, req.Funding, deadline)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	var tasks []domain.Task
	if r.URL.Query().Get("available") == "true" {
		tasks = s.engine.ListAvailableTasks()
	} else {
		tasks = s.engine.ListTasks()
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"tasks": tasks})
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	task, err := s.engine.GetTask(chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	escrow, _ := s.engine.EscrowBalance(task.ID)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"task":   task,
		"escrow": escrow,
	})
}

type assignRequest struct {
	Assignee string `json:"assignee"`
}

func (s *Server) handleAssign(w http.ResponseWriter, r *http.Request) {
	s.assignLike(w, r, s.engine.AssignTask)
}

func (s *Server) handleReassign(w http.ResponseWriter, r *http.Request) {
	s.assignLike(w, r, s.engine.ReassignTask)
}

func (s *Server) assignLike(w http.ResponseWriter, r *http.Request, op func(domain.Principal, string, domain.Principal) error) {
	p, ok := caller(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "missing X-Principal header")
		return
	}
	var req assignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id := chi.URLParam(r, "id")
	if err := op(p, id, domain.Principal(req.Assignee)); err != nil {
		writeDomainError(w, err)
		return
	}
	s.respondWithTask(w, id)
}

func (s *Server) handleComplete(w http.ResponseWriter, r *http.Request) {
	s.transition(w, r, s.engine.CompleteTask)
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	s.transition(w, r, s.engine.VerifyTaskCompletion)
}

func (s *Server) handleRelease(w http.ResponseWriter, r *http.Request) {
	s.transition(w, r, s.engine.ReleaseReward)
}

func (s *Server) handleDispute(w http.ResponseWriter, r *http.Request) {
	s.transition(w, r, s.engine.DisputeTask)
}

func (s *Server) handleRefund(w http.ResponseWriter, r *http.Request) {
	s.transition(w, r, s.engine.RequestRefund)
}

// transition runs a caller+id engine operation and returns the task.
func (s *Server) transition(w http.ResponseWriter, r *http.Request, op func(domain.Principal, string) error) {
	p, ok := caller(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "missing X-Principal header")
		return
	}
	id := chi.URLParam(r, "id")
	if err := op(p, id); err != nil {
		writeDomainError(w, err)
		return
	}
	s.respondWithTask(w, id)
}

type resolveRequest struct {
	Resolved bool `json:"resolved"`
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	p, ok := caller(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "missing X-Principal header")
		return
	}
	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id := chi.URLParam(r, "id")
	if err := s.engine.ResolveDispute(p, id, req.Resolved); err != nil {
		writeDomainError(w, err)
		return
	}
	s.respondWithTask(w, id)
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	p, ok := caller(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "missing X-Principal header")
		return
	}
	if err := s.engine.CancelTask(p, chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

func (s *Server) respondWithTask(w http.ResponseWriter, id string) {
	task, err := s.engine.GetTask(id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// ─── Rating handlers ────────────────────────────────────────────────────────

type rateRequest struct {
	Score int `json:"score"`
}

func (s *Server) handleRateTask(w http.ResponseWriter, r *http.Request) {
	p, ok := caller(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "missing X-Principal header")
		return
	}
	var req rateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	rating, err := s.engine.RateTask(p, chi.URLParam(r, "id"), req.Score)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rating)
}

func (s *Server) handleTaskRatings(w http.ResponseWriter, r *http.Request) {
	ratings := s.ratings.ForTask(chi.URLParam(r, "id"))
	writeJSON(w, http.StatusOK, map[string]interface{}{"ratings": ratings})
}

// ─── Training handlers ──────────────────────────────────────────────────────

type createTrainingRequest struct {
	Description string `json:"description"`
	Reward      int64  `json:"reward"`
	Funding     int64  `json:"funding"`
}

func (s *Server) handleCreateTraining(w http.ResponseWriter, r *http.Request) {
	p, ok := caller(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "missing X-Principal header")
		return
	}
	var req createTrainingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tr, err := s.trainings.Create(p, req.Description, req.Reward, req.Funding)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, tr)
}

func (s *Server) handleListTrainings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"trainings": s.trainings.List()})
}

func (s *Server) handleGetTraining(w http.ResponseWriter, r *http.Request) {
	tr, err := s.trainings.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tr)
}

func (s *Server) handleCompleteTraining(w http.ResponseWriter, r *http.Request) {
	p, ok := caller(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "missing X-Principal header")
		return
	}
	id := chi.URLParam(r, "id")
	if err := s.trainings.Complete(p, id); err != nil {
		writeDomainError(w, err)
		return
	}
	tr, _ := s.trainings.Get(id)
	writeJSON(w, http.StatusOK, tr)
}

type certifyRequest struct {
	User string `json:"user"`
}

func (s *Server) handleCertify(w http.ResponseWriter, r *http.Request) {
	p, ok := caller(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "missing X-Principal header")
		return
	}
	var req certifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id := chi.URLParam(r, "id")
	if err := s.trainings.Certify(p, id, domain.Principal(req.User)); err != nil {
		writeDomainError(w, err)
		return
	}
	tr, _ := s.trainings.Get(id)
	writeJSON(w, http.StatusOK, tr)
}

// ─── Account handlers ───────────────────────────────────────────────────────

func (s *Server) handleAccount(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"account": id,
		"balance": s.vault.Balance(id),
	})
}

func (s *Server) handleAccountLedger(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"account": id,
		"entries": s.vault.Entries(id, 100),
	})
}

func (s *Server) handleAccountRatings(w http.ResponseWriter, r *http.Request) {
	id := domain.Principal(chi.URLParam(r, "id"))
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ratings": s.ratings.ForRatee(id),
		"average": s.ratings.Average(id),
	})
}

type depositRequest struct {
	Amount int64 `json:"amount"`
}

func (s *Server) handleDeposit(w http.ResponseWriter, r *http.Request) {
	var req depositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Amount == 0 {
		req.Amount = s.defaultGrant
	}

	id := chi.URLParam(r, "id")
	if err := s.vault.Deposit(id, req.Amount, domain.TxDeposit, ""); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"account": id,
		"balance": s.vault.Balance(id),
	})
}
