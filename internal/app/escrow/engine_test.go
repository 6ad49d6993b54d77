package escrow

import (
	"errors"
	"testing"
	"time"

	"github.com/paydirt-network/paydirt/internal/app/rating"
	"github.com/paydirt-network/paydirt/internal/domain"
	"github.com/paydirt-network/paydirt/internal/infra/ledger"
)

const (
	creator = domain.Principal("alice")
	worker  = domain.Principal("bob")
	other   = domain.Principal("mallory")
)

// fakeClock lets tests move time past completion deadlines.
type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type fixture struct {
	engine *Engine
	vault  *ledger.Ledger
	book   *rating.Book
	clock  *fakeClock
}

func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	vault := ledger.New(nil)
	vault.Deposit(string(creator), 10000, domain.TxDeposit, "")
	vault.Deposit(string(worker), 10000, domain.TxDeposit, "")
	book := rating.NewBook(nil)
	return &fixture{
		engine: New(cfg, vault, nil, book, clock.Now),
		vault:  vault,
		book:   book,
		clock:  clock,
	}
}

func (f *fixture) mustCreate(t *testing.T, reward, funding int64, deadline time.Time) domain.Task {
	t.Helper()
	task, err := f.engine.CreateTask(creator, "paint the fence", reward, funding, deadline)
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	return task
}

func (f *fixture) escrowBalance(t *testing.T, id string) int64 {
	t.Helper()
	bal, err := f.engine.EscrowBalance(id)
	if err != nil {
		t.Fatalf("EscrowBalance: %v", err)
	}
	return bal
}

// ─── Creation ───────────────────────────────────────────────────────────────

func TestCreateTask_FundsEscrow(t *testing.T) {
	f := newFixture(t, DefaultConfig())

	task := f.mustCreate(t, 100, 100, time.Time{})
	if task.State != domain.StateUnassigned {
		t.Errorf("state = %s, want UNASSIGNED", task.State)
	}
	if bal := f.escrowBalance(t, task.ID); bal != 100 {
		t.Errorf("escrow = %d, want 100", bal)
	}
	if bal := f.vault.Balance(string(creator)); bal != 9900 {
		t.Errorf("creator = %d, want 9900", bal)
	}
}

func TestCreateTask_Underfunded(t *testing.T) {
	f := newFixture(t, DefaultConfig())

	_, err := f.engine.CreateTask(creator, "x", 100, 99, time.Time{})
	if !errors.Is(err, domain.ErrInsufficientFunding) {
		t.Errorf("err = %v, want ErrInsufficientFunding", err)
	}
}

func TestCreateTask_ExcessFundingStaysWithCreator(t *testing.T) {
	f := newFixture(t, DefaultConfig())

	task := f.mustCreate(t, 100, 500, time.Time{})
	if bal := f.escrowBalance(t, task.ID); bal != 100 {
		t.Errorf("escrow = %d, want exactly the reward", bal)
	}
	if bal := f.vault.Balance(string(creator)); bal != 9900 {
		t.Errorf("creator = %d, want 9900", bal)
	}
}

func TestCreateTask_CreatorCannotAfford(t *testing.T) {
	f := newFixture(t, DefaultConfig())

	_, err := f.engine.CreateTask(creator, "x", 50000, 50000, time.Time{})
	if !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Errorf("err = %v, want ErrInsufficientFunds", err)
	}
	if bal := f.vault.Balance(string(creator)); bal != 10000 {
		t.Errorf("creator = %d, want 10000 (no partial mutation)", bal)
	}
}

// ─── Assignment ─────────────────────────────────────────────────────────────

func TestAssignTask_AnyCallerByDefault(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	task := f.mustCreate(t, 100, 100, time.Time{})

	// Historical behavior: assignment is not creator-gated.
	if err := f.engine.AssignTask(other, task.ID, worker); err != nil {
		t.Fatalf("AssignTask by third party: %v", err)
	}

	got, _ := f.engine.GetTask(task.ID)
	if got.State != domain.StateAssigned || got.Assignee != worker {
		t.Errorf("got state=%s assignee=%s", got.State, got.Assignee)
	}
}

func TestAssignTask_CreatorOnlyFlag(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CreatorOnlyAssignment = true
	f := newFixture(t, cfg)
	task := f.mustCreate(t, 100, 100, time.Time{})

	if err := f.engine.AssignTask(other, task.ID, worker); !errors.Is(err, domain.ErrNotAuthorized) {
		t.Errorf("err = %v, want ErrNotAuthorized", err)
	}
	if err := f.engine.AssignTask(creator, task.ID, worker); err != nil {
		t.Errorf("creator assign: %v", err)
	}
}

func TestAssignTask_Exclusivity(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	task := f.mustCreate(t, 100, 100, time.Time{})

	f.engine.AssignTask(creator, task.ID, worker)
	err := f.engine.AssignTask(creator, task.ID, other)
	if !errors.Is(err, domain.ErrInvalidAssignment) {
		t.Errorf("err = %v, want ErrInvalidAssignment", err)
	}

	got, _ := f.engine.GetTask(task.ID)
	if got.Assignee != worker {
		t.Errorf("assignee = %s, want bob (unchanged)", got.Assignee)
	}
}

func TestAssignTask_EmptyAssignee(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	task := f.mustCreate(t, 100, 100, time.Time{})

	err := f.engine.AssignTask(creator, task.ID, domain.None)
	if !errors.Is(err, domain.ErrInvalidAssignment) {
		t.Errorf("err = %v, want ErrInvalidAssignment", err)
	}
}

// ─── Completion & verification ──────────────────────────────────────────────

func TestCompleteTask_OnlyAssignee(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	task := f.mustCreate(t, 100, 100, time.Time{})
	f.engine.AssignTask(creator, task.ID, worker)

	for _, caller := range []domain.Principal{creator, other} {
		if err := f.engine.CompleteTask(caller, task.ID); !errors.Is(err, domain.ErrInvalidCompletion) {
			t.Errorf("CompleteTask(%s) = %v, want ErrInvalidCompletion", caller, err)
		}
	}

	if err := f.engine.CompleteTask(worker, task.ID); err != nil {
		t.Fatalf("CompleteTask: %v", err)
	}
	got, _ := f.engine.GetTask(task.ID)
	if got.State != domain.StateSubmitted {
		t.Errorf("state = %s, want SUBMITTED", got.State)
	}
}

func TestCompleteTask_Unassigned(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	task := f.mustCreate(t, 100, 100, time.Time{})

	err := f.engine.CompleteTask(worker, task.ID)
	if !errors.Is(err, domain.ErrInvalidCompletion) {
		t.Errorf("err = %v, want ErrInvalidCompletion", err)
	}
}

func TestVerify_AdvisoryOnly(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	task := f.mustCreate(t, 100, 100, time.Time{})
	f.engine.AssignTask(creator, task.ID, worker)
	f.engine.CompleteTask(worker, task.ID)

	// Release works straight from SUBMITTED — verification does not gate it.
	if err := f.engine.ReleaseReward(creator, task.ID); err != nil {
		t.Fatalf("ReleaseReward without verify: %v", err)
	}
}

func TestVerify_CreatorOnlyAndFromSubmitted(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	task := f.mustCreate(t, 100, 100, time.Time{})
	f.engine.AssignTask(creator, task.ID, worker)

	// Not yet submitted
	if err := f.engine.VerifyTaskCompletion(creator, task.ID); !errors.Is(err, domain.ErrInvalidCompletion) {
		t.Errorf("verify before submit = %v, want ErrInvalidCompletion", err)
	}

	f.engine.CompleteTask(worker, task.ID)

	if err := f.engine.VerifyTaskCompletion(worker, task.ID); !errors.Is(err, domain.ErrNotAuthorized) {
		t.Errorf("verify by worker = %v, want ErrNotAuthorized", err)
	}
	if err := f.engine.VerifyTaskCompletion(creator, task.ID); err != nil {
		t.Fatalf("VerifyTaskCompletion: %v", err)
	}

	got, _ := f.engine.GetTask(task.ID)
	if got.State != domain.StateVerified {
		t.Errorf("state = %s, want VERIFIED", got.State)
	}

	// Release also works from VERIFIED.
	if err := f.engine.ReleaseReward(creator, task.ID); err != nil {
		t.Fatalf("ReleaseReward after verify: %v", err)
	}
}

// ─── Scenario A: full happy path ────────────────────────────────────────────

func TestScenario_ReleaseHappyPath(t *testing.T) {
	f := newFixture(t, DefaultConfig())

	task := f.mustCreate(t, 100, 100, time.Time{})
	if bal := f.escrowBalance(t, task.ID); bal != 100 {
		t.Fatalf("escrow = %d, want 100", bal)
	}

	f.engine.AssignTask(creator, task.ID, worker)
	f.engine.CompleteTask(worker, task.ID)

	if err := f.engine.ReleaseReward(creator, task.ID); err != nil {
		t.Fatalf("ReleaseReward: %v", err)
	}

	if bal := f.vault.Balance(string(worker)); bal != 10100 {
		t.Errorf("worker = %d, want 10100", bal)
	}
	if bal := f.escrowBalance(t, task.ID); bal != 0 {
		t.Errorf("escrow = %d, want 0", bal)
	}
	got, _ := f.engine.GetTask(task.ID)
	if got.State != domain.StateUnassigned || got.Assignee != domain.None {
		t.Errorf("after payout: state=%s assignee=%q", got.State, got.Assignee)
	}
}

// ─── Scenario B: dispute resolved against the worker ────────────────────────

func TestScenario_DisputeRefundsCreator(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	task := f.mustCreate(t, 100, 100, time.Time{})
	f.engine.AssignTask(creator, task.ID, worker)
	f.engine.CompleteTask(worker, task.ID)

	if err := f.engine.DisputeTask(creator, task.ID); err != nil {
		t.Fatalf("DisputeTask: %v", err)
	}

	// Release is blocked while disputed.
	if err := f.engine.ReleaseReward(creator, task.ID); !errors.Is(err, domain.ErrInvalidCompletion) {
		t.Errorf("release while disputed = %v, want ErrInvalidCompletion", err)
	}

	if err := f.engine.ResolveDispute(creator, task.ID, false); err != nil {
		t.Fatalf("ResolveDispute: %v", err)
	}

	if bal := f.vault.Balance(string(creator)); bal != 10000 {
		t.Errorf("creator = %d, want 10000 (refunded)", bal)
	}
	if bal := f.vault.Balance(string(worker)); bal != 10000 {
		t.Errorf("worker = %d, want 10000 (nothing paid)", bal)
	}
	if bal := f.escrowBalance(t, task.ID); bal != 0 {
		t.Errorf("escrow = %d, want 0", bal)
	}
}

func TestScenario_DisputeResolvedForWorker(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	task := f.mustCreate(t, 100, 100, time.Time{})
	f.engine.AssignTask(creator, task.ID, worker)
	f.engine.CompleteTask(worker, task.ID)
	f.engine.DisputeTask(creator, task.ID)

	if err := f.engine.ResolveDispute(creator, task.ID, true); err != nil {
		t.Fatalf("ResolveDispute: %v", err)
	}
	if bal := f.vault.Balance(string(worker)); bal != 10100 {
		t.Errorf("worker = %d, want 10100", bal)
	}
}

// ─── Scenario C: cancellation ───────────────────────────────────────────────

func TestScenario_CancelRefundsAndDeletes(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	task := f.mustCreate(t, 50, 50, time.Time{})

	if err := f.engine.CancelTask(creator, task.ID); err != nil {
		t.Fatalf("CancelTask: %v", err)
	}
	if bal := f.vault.Balance(string(creator)); bal != 10000 {
		t.Errorf("creator = %d, want 10000", bal)
	}
	if _, err := f.engine.GetTask(task.ID); !errors.Is(err, domain.ErrTaskNotFound) {
		t.Errorf("GetTask after cancel = %v, want ErrTaskNotFound", err)
	}
}

func TestCancelTask_Guards(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	task := f.mustCreate(t, 50, 50, time.Time{})

	if err := f.engine.CancelTask(other, task.ID); !errors.Is(err, domain.ErrCancellationNotAllowed) {
		t.Errorf("cancel by stranger = %v, want ErrCancellationNotAllowed", err)
	}

	f.engine.AssignTask(creator, task.ID, worker)
	if err := f.engine.CancelTask(creator, task.ID); !errors.Is(err, domain.ErrCancellationNotAllowed) {
		t.Errorf("cancel after assign = %v, want ErrCancellationNotAllowed", err)
	}
}

// ─── Scenario D: deadline reassignment ──────────────────────────────────────

func TestScenario_ReassignAfterDeadline(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	deadline := f.clock.Now().Add(24 * time.Hour)
	task := f.mustCreate(t, 100, 100, deadline)
	f.engine.AssignTask(creator, task.ID, worker)

	// Before the deadline reassignment fails.
	if err := f.engine.ReassignTask(creator, task.ID, other); !errors.Is(err, domain.ErrDeadlineNotReached) {
		t.Errorf("early reassign = %v, want ErrDeadlineNotReached", err)
	}

	f.clock.Advance(25 * time.Hour)

	if err := f.engine.ReassignTask(creator, task.ID, other); err != nil {
		t.Fatalf("ReassignTask: %v", err)
	}
	got, _ := f.engine.GetTask(task.ID)
	if got.Assignee != other || got.State != domain.StateAssigned {
		t.Errorf("after reassign: assignee=%s state=%s", got.Assignee, got.State)
	}
	// Escrow untouched by reassignment.
	if bal := f.escrowBalance(t, task.ID); bal != 100 {
		t.Errorf("escrow = %d, want 100", bal)
	}
}

func TestReassignTask_Guards(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	deadline := f.clock.Now().Add(time.Hour)
	task := f.mustCreate(t, 100, 100, deadline)
	f.engine.AssignTask(creator, task.ID, worker)
	f.clock.Advance(2 * time.Hour)

	if err := f.engine.ReassignTask(other, task.ID, other); !errors.Is(err, domain.ErrNotAuthorized) {
		t.Errorf("reassign by stranger = %v, want ErrNotAuthorized", err)
	}

	// Submitted work blocks reassignment even past the deadline.
	f.engine.CompleteTask(worker, task.ID)
	if err := f.engine.ReassignTask(creator, task.ID, other); !errors.Is(err, domain.ErrInvalidAssignment) {
		t.Errorf("reassign after submit = %v, want ErrInvalidAssignment", err)
	}
}

// ─── Scenario E: refund guard ───────────────────────────────────────────────

func TestScenario_RefundBlockedAfterSubmission(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	task := f.mustCreate(t, 50, 50, time.Time{})
	f.engine.AssignTask(creator, task.ID, worker)
	f.engine.CompleteTask(worker, task.ID)

	err := f.engine.RequestRefund(creator, task.ID)
	if !errors.Is(err, domain.ErrInvalidWithdrawal) {
		t.Errorf("err = %v, want ErrInvalidWithdrawal", err)
	}
	if bal := f.escrowBalance(t, task.ID); bal != 50 {
		t.Errorf("escrow = %d, want 50 (unchanged)", bal)
	}
}

func TestRequestRefund_BeforeSubmission(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	task := f.mustCreate(t, 50, 50, time.Time{})
	f.engine.AssignTask(creator, task.ID, worker)

	if err := f.engine.RequestRefund(creator, task.ID); err != nil {
		t.Fatalf("RequestRefund: %v", err)
	}
	if bal := f.vault.Balance(string(creator)); bal != 10000 {
		t.Errorf("creator = %d, want 10000", bal)
	}
	got, _ := f.engine.GetTask(task.ID)
	if got.State != domain.StateUnassigned || got.Assignee != domain.None {
		t.Errorf("after refund: state=%s assignee=%q", got.State, got.Assignee)
	}
}

// ─── Conservation & single drain ────────────────────────────────────────────

// Escrow balance must always read exactly reward or 0, at every step.
func TestConservation_ThroughFullLifecycle(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	task := f.mustCreate(t, 100, 100, time.Time{})

	check := func(stage string) {
		t.Helper()
		bal := f.escrowBalance(t, task.ID)
		if bal != 100 && bal != 0 {
			t.Fatalf("%s: escrow = %d, want 100 or 0", stage, bal)
		}
	}

	check("created")
	f.engine.AssignTask(creator, task.ID, worker)
	check("assigned")
	f.engine.CompleteTask(worker, task.ID)
	check("submitted")
	f.engine.VerifyTaskCompletion(creator, task.ID)
	check("verified")
	f.engine.ReleaseReward(creator, task.ID)
	check("released")
}

func TestSingleDrain_AllSecondDrainsFail(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	task := f.mustCreate(t, 100, 100, time.Time{})
	f.engine.AssignTask(creator, task.ID, worker)
	f.engine.CompleteTask(worker, task.ID)
	f.engine.ReleaseReward(creator, task.ID)

	// Every draining operation must now fail and leave balance at 0.
	if err := f.engine.ReleaseReward(creator, task.ID); err == nil {
		t.Error("second release should fail")
	}
	if err := f.engine.RequestRefund(creator, task.ID); !errors.Is(err, domain.ErrEscrowDrained) {
		t.Errorf("refund after drain = %v, want ErrEscrowDrained", err)
	}
	if err := f.engine.CancelTask(creator, task.ID); !errors.Is(err, domain.ErrEscrowDrained) {
		t.Errorf("cancel after drain = %v, want ErrEscrowDrained", err)
	}
	if err := f.engine.ResolveDispute(creator, task.ID, false); !errors.Is(err, domain.ErrAlreadyResolved) {
		t.Errorf("resolve after drain = %v, want ErrAlreadyResolved", err)
	}

	if bal := f.escrowBalance(t, task.ID); bal != 0 {
		t.Errorf("escrow = %d, want 0", bal)
	}
	if bal := f.vault.Balance(string(worker)); bal != 10100 {
		t.Errorf("worker = %d, want 10100 (paid exactly once)", bal)
	}
}

// ─── Dispute guards ─────────────────────────────────────────────────────────

func TestDispute_Guards(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	task := f.mustCreate(t, 100, 100, time.Time{})

	// No assignee yet — nothing to dispute.
	if err := f.engine.DisputeTask(creator, task.ID); !errors.Is(err, domain.ErrNotAssigned) {
		t.Errorf("dispute unassigned = %v, want ErrNotAssigned", err)
	}

	f.engine.AssignTask(creator, task.ID, worker)

	if err := f.engine.DisputeTask(worker, task.ID); !errors.Is(err, domain.ErrDisputeAuthorization) {
		t.Errorf("dispute by worker = %v, want ErrDisputeAuthorization", err)
	}
	if err := f.engine.DisputeTask(creator, task.ID); err != nil {
		t.Fatalf("DisputeTask: %v", err)
	}
	if err := f.engine.DisputeTask(creator, task.ID); !errors.Is(err, domain.ErrAlreadyResolved) {
		t.Errorf("double dispute = %v, want ErrAlreadyResolved", err)
	}
}

func TestResolveDispute_Idempotence(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	task := f.mustCreate(t, 100, 100, time.Time{})
	f.engine.AssignTask(creator, task.ID, worker)

	// Not disputed yet.
	if err := f.engine.ResolveDispute(creator, task.ID, true); !errors.Is(err, domain.ErrAlreadyResolved) {
		t.Errorf("resolve undisputed = %v, want ErrAlreadyResolved", err)
	}

	f.engine.DisputeTask(creator, task.ID)

	if err := f.engine.ResolveDispute(worker, task.ID, true); !errors.Is(err, domain.ErrDisputeAuthorization) {
		t.Errorf("resolve by worker = %v, want ErrDisputeAuthorization", err)
	}
	if err := f.engine.ResolveDispute(creator, task.ID, true); err != nil {
		t.Fatalf("ResolveDispute: %v", err)
	}

	// Second resolution fails.
	if err := f.engine.ResolveDispute(creator, task.ID, true); !errors.Is(err, domain.ErrAlreadyResolved) {
		t.Errorf("second resolve = %v, want ErrAlreadyResolved", err)
	}
}

// ─── Authorization matrix ───────────────────────────────────────────────────

func TestAuthorization_CreatorOnlyOps(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	task := f.mustCreate(t, 100, 100, time.Time{})
	f.engine.AssignTask(creator, task.ID, worker)
	f.engine.CompleteTask(worker, task.ID)

	ops := []struct {
		name string
		call func(domain.Principal) error
		want error
	}{
		{"verify", func(p domain.Principal) error { return f.engine.VerifyTaskCompletion(p, task.ID) }, domain.ErrNotAuthorized},
		{"release", func(p domain.Principal) error { return f.engine.ReleaseReward(p, task.ID) }, domain.ErrNotAuthorized},
		{"dispute", func(p domain.Principal) error { return f.engine.DisputeTask(p, task.ID) }, domain.ErrDisputeAuthorization},
		{"refund", func(p domain.Principal) error { return f.engine.RequestRefund(p, task.ID) }, domain.ErrNotAuthorized},
	}
	for _, op := range ops {
		for _, p := range []domain.Principal{worker, other} {
			if err := op.call(p); !errors.Is(err, op.want) {
				t.Errorf("%s by %s = %v, want %v", op.name, p, err, op.want)
			}
		}
	}

	// Everything still intact afterwards.
	got, _ := f.engine.GetTask(task.ID)
	if got.State != domain.StateSubmitted {
		t.Errorf("state = %s, want SUBMITTED (guards must not mutate)", got.State)
	}
	if bal := f.escrowBalance(t, task.ID); bal != 100 {
		t.Errorf("escrow = %d, want 100", bal)
	}
}

// ─── Ratings ────────────────────────────────────────────────────────────────

func TestRateTask_PartiesOnly(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	task := f.mustCreate(t, 100, 100, time.Time{})
	f.engine.AssignTask(creator, task.ID, worker)

	if _, err := f.engine.RateTask(other, task.ID, 5); !errors.Is(err, domain.ErrInvalidCompletion) {
		t.Errorf("rate by stranger = %v, want ErrInvalidCompletion", err)
	}

	r, err := f.engine.RateTask(creator, task.ID, 9)
	if err != nil {
		t.Fatalf("RateTask: %v", err)
	}
	if r.Ratee != worker {
		t.Errorf("ratee = %s, want worker", r.Ratee)
	}

	r, err = f.engine.RateTask(worker, task.ID, 7)
	if err != nil {
		t.Fatalf("RateTask by worker: %v", err)
	}
	if r.Ratee != creator {
		t.Errorf("ratee = %s, want creator", r.Ratee)
	}

	if got := f.book.ForTask(task.ID); len(got) != 2 {
		t.Errorf("ratings = %d, want 2", len(got))
	}
}

func TestRateTask_ScoreBounds(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	task := f.mustCreate(t, 100, 100, time.Time{})
	f.engine.AssignTask(creator, task.ID, worker)

	for _, score := range []int{-1, 11} {
		if _, err := f.engine.RateTask(creator, task.ID, score); !errors.Is(err, domain.ErrInvalidRating) {
			t.Errorf("RateTask(%d) = %v, want ErrInvalidRating", score, err)
		}
	}
	for _, score := range []int{0, 10} {
		if _, err := f.engine.RateTask(creator, task.ID, score); err != nil {
			t.Errorf("RateTask(%d) = %v, want nil", score, err)
		}
	}
}

func TestRateTask_Unassigned(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	task := f.mustCreate(t, 100, 100, time.Time{})

	if _, err := f.engine.RateTask(creator, task.ID, 5); !errors.Is(err, domain.ErrNotAssigned) {
		t.Errorf("err = %v, want ErrNotAssigned", err)
	}
}

// ─── Listing ────────────────────────────────────────────────────────────────

func TestListAvailableTasks_PureProjection(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	open := f.mustCreate(t, 100, 100, time.Time{})
	taken := f.mustCreate(t, 50, 50, time.Time{})
	f.engine.AssignTask(creator, taken.ID, worker)

	// Drained husk: refunded task stays unassigned but unfunded.
	husk := f.mustCreate(t, 30, 30, time.Time{})
	f.engine.RequestRefund(creator, husk.ID)

	got := f.engine.ListAvailableTasks()
	if len(got) != 1 {
		t.Fatalf("available = %d, want 1", len(got))
	}
	if got[0].ID != open.ID {
		t.Errorf("available[0] = %s, want %s (same identity, no copies minted)", got[0].ID, open.ID)
	}

	// Mutating the projection must not touch the engine's record.
	got[0].Assignee = other
	fresh, _ := f.engine.GetTask(open.ID)
	if fresh.Assignee != domain.None {
		t.Error("projection leaked a mutable reference")
	}
}

func TestListTasks_OldestFirst(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	first := f.mustCreate(t, 10, 10, time.Time{})
	f.clock.Advance(time.Second)
	second := f.mustCreate(t, 20, 20, time.Time{})

	got := f.engine.ListTasks()
	if len(got) != 2 || got[0].ID != first.ID || got[1].ID != second.ID {
		t.Errorf("order = %v, %v", got[0].ID, got[1].ID)
	}
}

// ─── Husk reuse ─────────────────────────────────────────────────────────────

// A paid-out task remains as an unfunded record: it can be re-assigned
// for bookkeeping but no draining operation can ever move funds again.
func TestDrainedHusk_NoSecondPayoutAcrossCycles(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	task := f.mustCreate(t, 100, 100, time.Time{})
	f.engine.AssignTask(creator, task.ID, worker)
	f.engine.CompleteTask(worker, task.ID)
	f.engine.ReleaseReward(creator, task.ID)

	// Second cycle on the spent record.
	if err := f.engine.AssignTask(creator, task.ID, other); err != nil {
		t.Fatalf("assign husk: %v", err)
	}
	if err := f.engine.CompleteTask(other, task.ID); err != nil {
		t.Fatalf("complete husk: %v", err)
	}
	if err := f.engine.ReleaseReward(creator, task.ID); !errors.Is(err, domain.ErrEscrowDrained) {
		t.Errorf("release husk = %v, want ErrEscrowDrained", err)
	}
	if bal := f.vault.Balance(string(other)); bal != 0 {
		t.Errorf("mallory = %d, want 0", bal)
	}
}

// ─── Restore ────────────────────────────────────────────────────────────────

func TestRestore_RebuildsEngineState(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	task := f.mustCreate(t, 100, 100, time.Time{})
	f.engine.AssignTask(creator, task.ID, worker)

	// Second engine sharing the same vault, as after a restart.
	fresh := New(DefaultConfig(), f.vault, nil, f.book, f.clock.Now)
	fresh.Restore(f.engine.ListTasks())

	got, err := fresh.GetTask(task.ID)
	if err != nil {
		t.Fatalf("GetTask after restore: %v", err)
	}
	if got.State != domain.StateAssigned || got.Assignee != worker {
		t.Errorf("restored: state=%s assignee=%s", got.State, got.Assignee)
	}

	// The lifecycle continues where it left off.
	if err := fresh.CompleteTask(worker, task.ID); err != nil {
		t.Fatalf("CompleteTask after restore: %v", err)
	}
	if err := fresh.ReleaseReward(creator, task.ID); err != nil {
		t.Fatalf("ReleaseReward after restore: %v", err)
	}
}

// ─── Unknown task ───────────────────────────────────────────────────────────

func TestUnknownTask(t *testing.T) {
	f := newFixture(t, DefaultConfig())

	calls := map[string]error{
		"assign":   f.engine.AssignTask(creator, "nope", worker),
		"complete": f.engine.CompleteTask(worker, "nope"),
		"verify":   f.engine.VerifyTaskCompletion(creator, "nope"),
		"release":  f.engine.ReleaseReward(creator, "nope"),
		"dispute":  f.engine.DisputeTask(creator, "nope"),
		"cancel":   f.engine.CancelTask(creator, "nope"),
		"refund":   f.engine.RequestRefund(creator, "nope"),
	}
	for op, err := range calls {
		if !errors.Is(err, domain.ErrTaskNotFound) {
			t.Errorf("%s = %v, want ErrTaskNotFound", op, err)
		}
	}
}
