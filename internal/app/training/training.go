// Package training implements certification records. A training is
// funded once at creation; whoever completes it (never the creator)
// receives the escrow, and the creator certifies users onto an
// append-only list. There is no dispute or refund path.
package training

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/paydirt-network/paydirt/internal/domain"
	"github.com/paydirt-network/paydirt/internal/infra/metrics"
)

// Registry holds all training records.
type Registry struct {
	mu        sync.RWMutex
	trainings map[string]*domain.Training
	vault     domain.Vault
	store     domain.TrainingStore
	clock     domain.Clock
}

// NewRegistry creates a training registry. store may be nil.
func NewRegistry(vault domain.Vault, store domain.TrainingStore, clock domain.Clock) *Registry {
	if clock == nil {
		clock = time.Now
	}
	return &Registry{
		trainings: make(map[string]*domain.Training),
		vault:     vault,
		store:     store,
		clock:     clock,
	}
}

// Create posts a new training with its reward moved into escrow.
// funding is the value attached by the caller; only reward is escrowed.
func (r *Registry) Create(caller domain.Principal, description string, reward, funding int64) (domain.Training, error) {
	if reward <= 0 {
		return domain.Training{}, fmt.Errorf("training reward %d: %w", reward, domain.ErrInvalidAmount)
	}
	if funding < reward {
		return domain.Training{}, fmt.Errorf("funding %d < reward %d: %w", funding, reward, domain.ErrInsufficientFunding)
	}

	tr := domain.Training{
		ID:          uuid.NewString(),
		Creator:     caller,
		Description: description,
		Reward:      reward,
		CreatedAt:   r.clock(),
	}

	if err := r.vault.Transfer(string(caller), tr.EscrowAccount(), reward, domain.TxFund, tr.ID); err != nil {
		return domain.Training{}, err
	}

	r.mu.Lock()
	r.trainings[tr.ID] = &tr
	r.mu.Unlock()

	r.persist(tr)
	return tr, nil
}

// Complete marks the training done and pays its escrow to the caller.
// Self-completion by the creator is rejected; certification, by
// contrast, is creator-only.
func (r *Registry) Complete(caller domain.Principal, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tr, ok := r.trainings[id]
	if !ok {
		return domain.ErrTrainingNotFound
	}
	if caller == tr.Creator {
		return domain.ErrSelfCompletion
	}
	if tr.Completed {
		return domain.ErrTrainingCompleted
	}

	balance := r.vault.Balance(tr.EscrowAccount())
	if balance == 0 {
		return domain.ErrEscrowDrained
	}
	if err := r.vault.Transfer(tr.EscrowAccount(), string(caller), balance, domain.TxPayout, tr.ID); err != nil {
		return err
	}

	tr.Completed = true
	metrics.TrainingsCompleted.Inc()
	r.persist(*tr)
	return nil
}

// Certify appends a user to the certified list. Creator-only.
func (r *Registry) Certify(caller domain.Principal, id string, user domain.Principal) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tr, ok := r.trainings[id]
	if !ok {
		return domain.ErrTrainingNotFound
	}
	if caller != tr.Creator {
		return domain.ErrNotAuthorized
	}
	if user == domain.None {
		return fmt.Errorf("certify empty principal: %w", domain.ErrNotAuthorized)
	}
	if tr.IsCertified(user) {
		return domain.ErrAlreadyCertified
	}

	tr.Certified = append(tr.Certified, user)
	r.persist(*tr)
	return nil
}

// Get returns a copy of a training record.
func (r *Registry) Get(id string) (domain.Training, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tr, ok := r.trainings[id]
	if !ok {
		return domain.Training{}, domain.ErrTrainingNotFound
	}
	return copyTraining(tr), nil
}

// List returns copies of all training records.
func (r *Registry) List() []domain.Training {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Training, 0, len(r.trainings))
	for _, tr := range r.trainings {
		out = append(out, copyTraining(tr))
	}
	return out
}

// Restore loads persisted records (daemon start).
func (r *Registry) Restore(trainings []domain.Training) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range trainings {
		tr := trainings[i]
		r.trainings[tr.ID] = &tr
	}
}

func (r *Registry) persist(tr domain.Training) {
	if r.store == nil {
		return
	}
	if err := r.store.UpsertTraining(tr); err != nil {
		log.Printf("[training] persist %s: %v", tr.ID, err)
	}
}

func copyTraining(tr *domain.Training) domain.Training {
	cp := *tr
	cp.Certified = append([]domain.Principal(nil), tr.Certified...)
	return cp
}
