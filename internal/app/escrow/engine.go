// Package escrow implements the task escrow engine: a financial state
// machine over {task record, held funds}. Every operation is a single
// guarded transition executed atomically under one lock — guards run
// first, the fund movement is the last fallible step, and the record
// mutates only after funds have moved. A guard failure leaves the task
// untouched.
//
// Custody invariants:
//   - Conservation: a task's escrow balance is always exactly the
//     reward or zero, never a dangling positive amount.
//   - Single drain: at most one of release / refund / cancel / dispute
//     resolution drains a given funding. Draining a spent escrow fails.
//   - Assignment exclusivity: exactly one worker is bound at a time.
package escrow

import (
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/paydirt-network/paydirt/internal/app/rating"
	"github.com/paydirt-network/paydirt/internal/domain"
	"github.com/paydirt-network/paydirt/internal/infra/metrics"
)

// Config tunes engine policy.
type Config struct {
	// CreatorOnlyAssignment gates assign_task to the task creator.
	// Off by default: historically anyone could assign an open task,
	// and some deployments depend on self-serve claiming.
	CreatorOnlyAssignment bool

	// MaxRating is the inclusive upper bound for rating scores.
	MaxRating int
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		CreatorOnlyAssignment: false,
		MaxRating:             domain.MaxRatingScore,
	}
}

// Engine owns all task records and their escrowed funds.
type Engine struct {
	mu      sync.RWMutex
	cfg     Config
	tasks   map[string]*domain.Task
	vault   domain.Vault
	store   domain.TaskStore // optional restart snapshot
	ratings *rating.Book
	clock   domain.Clock
}

// New creates an engine. store may be nil; clock defaults to time.Now.
func New(cfg Config, vault domain.Vault, store domain.TaskStore, ratings *rating.Book, clock domain.Clock) *Engine {
	if clock == nil {
		clock = time.Now
	}
	if cfg.MaxRating <= 0 {
		cfg.MaxRating = domain.MaxRatingScore
	}
	return &Engine{
		cfg:     cfg,
		tasks:   make(map[string]*domain.Task),
		vault:   vault,
		store:   store,
		ratings: ratings,
		clock:   clock,
	}
}

// ─── Creation & Assignment ──────────────────────────────────────────────────

// CreateTask posts a new task with its reward locked in escrow.
// funding is the value the caller attaches; exactly reward moves to the
// escrow account, the rest never leaves the creator.
func (e *Engine) CreateTask(caller domain.Principal, description string, reward, funding int64, deadline time.Time) (domain.Task, error) {
	if reward <= 0 {
		return domain.Task{}, e.fail("create", fmt.Errorf("reward %d: %w", reward, domain.ErrInvalidAmount))
	}
	if funding < reward {
		return domain.Task{}, e.fail("create", fmt.Errorf("funding %d < reward %d: %w", funding, reward, domain.ErrInsufficientFunding))
	}

	t := domain.Task{
		ID:          uuid.NewString(),
		Creator:     caller,
		Description: description,
		Reward:      reward,
		State:       domain.StateUnassigned,
		Deadline:    deadline,
		CreatedAt:   e.clock(),
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.vault.Transfer(string(caller), t.EscrowAccount(), reward, domain.TxFund, t.ID); err != nil {
		return domain.Task{}, e.fail("create", err)
	}

	e.tasks[t.ID] = &t
	metrics.TasksCreated.Inc()
	metrics.EscrowHeld.Add(float64(reward))
	e.persist(t)
	return t, nil
}

// AssignTask binds a worker to an unassigned task.
func (e *Engine) AssignTask(caller domain.Principal, id string, assignee domain.Principal) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	t, ok := e.tasks[id]
	if !ok {
		return e.fail("assign", domain.ErrTaskNotFound)
	}
	if e.cfg.CreatorOnlyAssignment && caller != t.Creator {
		return e.fail("assign", domain.ErrNotAuthorized)
	}
	if assignee == domain.None {
		return e.fail("assign", fmt.Errorf("empty assignee: %w", domain.ErrInvalidAssignment))
	}
	if t.State != domain.StateUnassigned {
		return e.fail("assign", domain.ErrInvalidAssignment)
	}

	t.Assignee = assignee
	t.State = domain.StateAssigned
	metrics.TaskAssignments.WithLabelValues("assign").Inc()
	e.persist(*t)
	return nil
}

// ReassignTask rebinds an expired task to a new worker. Only the
// creator may reassign, only after the completion deadline, and only
// while no work has been submitted.
func (e *Engine) ReassignTask(caller domain.Principal, id string, assignee domain.Principal) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	t, ok := e.tasks[id]
	if !ok {
		return e.fail("reassign", domain.ErrTaskNotFound)
	}
	if caller != t.Creator {
		return e.fail("reassign", domain.ErrNotAuthorized)
	}
	if assignee == domain.None {
		return e.fail("reassign", fmt.Errorf("empty assignee: %w", domain.ErrInvalidAssignment))
	}
	if !e.clock().After(t.Deadline) {
		return e.fail("reassign", domain.ErrDeadlineNotReached)
	}
	if t.WorkSubmitted() {
		return e.fail("reassign", domain.ErrInvalidAssignment)
	}

	t.Assignee = assignee
	t.State = domain.StateAssigned
	metrics.TaskAssignments.WithLabelValues("reassign").Inc()
	e.persist(*t)
	return nil
}

// ─── Progress ───────────────────────────────────────────────────────────────

// CompleteTask records work submission by the assignee.
func (e *Engine) CompleteTask(caller domain.Principal, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	t, ok := e.tasks[id]
	if !ok {
		return e.fail("complete", domain.ErrTaskNotFound)
	}
	if t.State != domain.StateAssigned || caller != t.Assignee {
		return e.fail("complete", domain.ErrInvalidCompletion)
	}

	t.State = domain.StateSubmitted
	metrics.TaskSubmissions.Inc()
	e.persist(*t)
	return nil
}

// VerifyTaskCompletion records the creator's sign-off on submitted
// work. Verification is advisory: it does not gate release.
func (e *Engine) VerifyTaskCompletion(caller domain.Principal, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	t, ok := e.tasks[id]
	if !ok {
		return e.fail("verify", domain.ErrTaskNotFound)
	}
	if caller != t.Creator {
		return e.fail("verify", domain.ErrNotAuthorized)
	}
	if t.State != domain.StateSubmitted {
		return e.fail("verify", domain.ErrInvalidCompletion)
	}

	t.State = domain.StateVerified
	e.persist(*t)
	return nil
}

// ─── Terminal payouts ───────────────────────────────────────────────────────
// Each drains the escrow to zero exactly once and resets the task to
// an unassigned record. A second draining call fails.

// ReleaseReward pays the full escrow to the assignee. Requires
// submitted (verified or not) work and no open dispute.
func (e *Engine) ReleaseReward(caller domain.Principal, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	t, ok := e.tasks[id]
	if !ok {
		return e.fail("release", domain.ErrTaskNotFound)
	}
	if caller != t.Creator {
		return e.fail("release", domain.ErrNotAuthorized)
	}
	if t.State != domain.StateSubmitted && t.State != domain.StateVerified {
		return e.fail("release", domain.ErrInvalidCompletion)
	}

	if err := e.drain(t, t.Assignee, domain.TxRelease); err != nil {
		return e.fail("release", err)
	}

	e.resetLocked(t)
	metrics.Payouts.WithLabelValues("release").Inc()
	return nil
}

// DisputeTask freezes an assigned task pending arbitration.
func (e *Engine) DisputeTask(caller domain.Principal, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	t, ok := e.tasks[id]
	if !ok {
		return e.fail("dispute", domain.ErrTaskNotFound)
	}
	if caller != t.Creator {
		return e.fail("dispute", domain.ErrDisputeAuthorization)
	}
	switch t.State {
	case domain.StateDisputed:
		return e.fail("dispute", domain.ErrAlreadyResolved)
	case domain.StateUnassigned:
		return e.fail("dispute", domain.ErrNotAssigned)
	}

	t.State = domain.StateDisputed
	metrics.DisputesOpen.Inc()
	e.persist(*t)
	return nil
}

// ResolveDispute settles arbitration: the full escrow goes to the
// assignee when resolved is true, back to the creator otherwise.
func (e *Engine) ResolveDispute(caller domain.Principal, id string, resolved bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	t, ok := e.tasks[id]
	if !ok {
		return e.fail("resolve", domain.ErrTaskNotFound)
	}
	if caller != t.Creator {
		return e.fail("resolve", domain.ErrDisputeAuthorization)
	}
	if t.State != domain.StateDisputed {
		return e.fail("resolve", domain.ErrAlreadyResolved)
	}

	recipient := t.Creator
	kind := "resolve_creator"
	if resolved {
		recipient = t.Assignee
		kind = "resolve_assignee"
	}
	if err := e.drain(t, recipient, domain.TxResolve); err != nil {
		return e.fail("resolve", err)
	}

	metrics.DisputesOpen.Dec()
	e.resetLocked(t)
	metrics.Payouts.WithLabelValues(kind).Inc()
	return nil
}

// CancelTask refunds the escrow to the creator and deletes the task.
// Only possible before assignment.
func (e *Engine) CancelTask(caller domain.Principal, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	t, ok := e.tasks[id]
	if !ok {
		return e.fail("cancel", domain.ErrTaskNotFound)
	}
	if caller != t.Creator || t.State != domain.StateUnassigned {
		return e.fail("cancel", domain.ErrCancellationNotAllowed)
	}

	if err := e.drain(t, t.Creator, domain.TxCancel); err != nil {
		return e.fail("cancel", err)
	}

	delete(e.tasks, t.ID)
	metrics.Payouts.WithLabelValues("cancel").Inc()
	if e.store != nil {
		if err := e.store.DeleteTask(t.ID); err != nil {
			log.Printf("[escrow] delete task %s: %v", t.ID, err)
		}
	}
	return nil
}

// RequestRefund returns the escrow to the creator while work is still
// outstanding. Fails once work has been submitted.
func (e *Engine) RequestRefund(caller domain.Principal, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	t, ok := e.tasks[id]
	if !ok {
		return e.fail("refund", domain.ErrTaskNotFound)
	}
	if caller != t.Creator {
		return e.fail("refund", domain.ErrNotAuthorized)
	}
	if t.WorkSubmitted() {
		return e.fail("refund", domain.ErrInvalidWithdrawal)
	}

	if err := e.drain(t, t.Creator, domain.TxRefund); err != nil {
		return e.fail("refund", err)
	}

	e.resetLocked(t)
	metrics.Payouts.WithLabelValues("refund").Inc()
	return nil
}

// ─── Ratings ────────────────────────────────────────────────────────────────

// RateTask appends a rating between the two parties of a task. The
// caller must be the creator or the assignee; the other party is rated.
func (e *Engine) RateTask(caller domain.Principal, id string, score int) (domain.Rating, error) {
	e.mu.RLock()
	t, ok := e.tasks[id]
	if !ok {
		e.mu.RUnlock()
		return domain.Rating{}, e.fail("rate", domain.ErrTaskNotFound)
	}
	if caller != t.Creator && caller != t.Assignee {
		e.mu.RUnlock()
		return domain.Rating{}, e.fail("rate", domain.ErrInvalidCompletion)
	}
	if !t.Assigned() {
		e.mu.RUnlock()
		return domain.Rating{}, e.fail("rate", domain.ErrNotAssigned)
	}
	ratee := t.Assignee
	if caller == t.Assignee {
		ratee = t.Creator
	}
	e.mu.RUnlock()

	if score < 0 || score > e.cfg.MaxRating {
		return domain.Rating{}, e.fail("rate", fmt.Errorf("score %d outside 0..%d: %w", score, e.cfg.MaxRating, domain.ErrInvalidRating))
	}

	r := domain.Rating{
		ID:        uuid.NewString(),
		TaskID:    id,
		Rater:     caller,
		Ratee:     ratee,
		Score:     score,
		CreatedAt: e.clock(),
	}
	if err := e.ratings.Append(r); err != nil {
		return domain.Rating{}, e.fail("rate", err)
	}
	metrics.RatingsRecorded.Inc()
	return r, nil
}

// ─── Queries ────────────────────────────────────────────────────────────────

// GetTask returns a copy of a task record.
func (e *Engine) GetTask(id string) (domain.Task, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	t, ok := e.tasks[id]
	if !ok {
		return domain.Task{}, domain.ErrTaskNotFound
	}
	return *t, nil
}

// EscrowBalance returns the funds currently held for a task.
func (e *Engine) EscrowBalance(id string) (int64, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	t, ok := e.tasks[id]
	if !ok {
		return 0, domain.ErrTaskNotFound
	}
	return e.vault.Balance(t.EscrowAccount()), nil
}

// ListTasks returns copies of all tasks, oldest first.
func (e *Engine) ListTasks() []domain.Task {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]domain.Task, 0, len(e.tasks))
	for _, t := range e.tasks {
		out = append(out, *t)
	}
	sortByCreation(out)
	return out
}

// ListAvailableTasks is a pure projection of unassigned, still-funded
// tasks. The returned copies are read-only views; no new identities are
// fabricated.
func (e *Engine) ListAvailableTasks() []domain.Task {
	e.mu.RLock()
	defer e.mu.RUnlock()

	var out []domain.Task
	for _, t := range e.tasks {
		if t.State == domain.StateUnassigned && e.vault.Balance(t.EscrowAccount()) > 0 {
			out = append(out, *t)
		}
	}
	sortByCreation(out)
	return out
}

// Restore loads persisted task snapshots (daemon start).
func (e *Engine) Restore(tasks []domain.Task) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var held int64
	for i := range tasks {
		t := tasks[i]
		e.tasks[t.ID] = &t
		held += e.vault.Balance(t.EscrowAccount())
		if t.State == domain.StateDisputed {
			metrics.DisputesOpen.Inc()
		}
	}
	metrics.EscrowHeld.Add(float64(held))
}

// ─── Internals ──────────────────────────────────────────────────────────────

// drain moves the task's entire current escrow balance to recipient.
// Caller holds the write lock. An already-empty escrow fails the
// operation so a spent husk can never "pay out" a second time.
func (e *Engine) drain(t *domain.Task, recipient domain.Principal, tx domain.TxType) error {
	balance := e.vault.Balance(t.EscrowAccount())
	if balance == 0 {
		return domain.ErrEscrowDrained
	}
	if err := e.vault.Transfer(t.EscrowAccount(), string(recipient), balance, tx, t.ID); err != nil {
		return err
	}
	metrics.EscrowHeld.Sub(float64(balance))
	return nil
}

// resetLocked returns a paid-out task to the unassigned record state.
func (e *Engine) resetLocked(t *domain.Task) {
	t.Assignee = domain.None
	t.State = domain.StateUnassigned
	e.persist(*t)
}

func (e *Engine) persist(t domain.Task) {
	if e.store == nil {
		return
	}
	if err := e.store.UpsertTask(t); err != nil {
		log.Printf("[escrow] persist task %s: %v", t.ID, err)
	}
}

func (e *Engine) fail(op string, err error) error {
	metrics.GuardFailures.WithLabelValues(op).Inc()
	return err
}

func sortByCreation(tasks []domain.Task) {
	sort.Slice(tasks, func(i, j int) bool {
		if tasks[i].CreatedAt.Equal(tasks[j].CreatedAt) {
			return tasks[i].ID < tasks[j].ID
		}
		return tasks[i].CreatedAt.Before(tasks[j].CreatedAt)
	})
}
