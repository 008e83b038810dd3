package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/errandly/errandly/internal/consts"
	"github.com/errandly/errandly/internal/model"
)

func newFixture() (*memStore, *stubGateway, *TaskService) {
	m := newMemStore()
	gw := &stubGateway{}
	svc := NewTaskService(taskStore{m}, m, gw, "usd")
	return m, gw, svc
}

func mustSubmit(t *testing.T, svc *TaskService, requester *model.User, minPrice, maxPrice int64) int64 {
	t.Helper()
	id, err := svc.Submit(context.Background(), requester, "walk the dog", minPrice, maxPrice, "pm_123")
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	return id
}

func checkTimestampInvariant(t *testing.T, task *model.Task) {
	t.Helper()
	if task.CompletedTime != nil && task.CanceledTime != nil {
		t.Fatalf("task %d has both completed_time and canceled_time set", task.ID)
	}
}

func TestSubmitValidation(t *testing.T) {
	_, _, svc := newFixture()
	requester := &model.User{ID: 1}
	cases := []struct {
		name               string
		desc               string
		minPrice, maxPrice int64
		paymentMethod      string
	}{
		{"empty description", "", 10, 20, "pm_1"},
		{"inverted price range", "d", 30, 20, "pm_1"},
		{"negative min price", "d", -1, 20, "pm_1"},
		{"missing payment method", "d", 10, 20, ""},
	}
	for _, c := range cases {
		if _, err := svc.Submit(context.Background(), requester, c.desc, c.minPrice, c.maxPrice, c.paymentMethod); !errors.Is(err, ErrValidation) {
			t.Errorf("%s: expected ErrValidation, got %v", c.name, err)
		}
	}
}

// Price eligibility scenario: executor with a floor of 15 is denied a
// [10,20] task; an executor with a floor of 5 wins it.
func TestClaimPriceEligibility(t *testing.T) {
	m, _, svc := newFixture()
	requester := m.putUser(&model.User{Identity: "req"})
	picky := m.putUser(&model.User{Identity: "picky", MinTaskPrice: 15})
	cheap := m.putUser(&model.User{Identity: "cheap", MinTaskPrice: 5})
	taskID := mustSubmit(t, svc, requester, 10, 20)

	if _, err := svc.Claim(context.Background(), picky, taskID); !errors.Is(err, ErrEligibilityDenied) {
		t.Fatalf("expected ErrEligibilityDenied, got %v", err)
	}
	if _, err := svc.Claim(context.Background(), cheap, taskID); err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	got, _ := svc.Get(context.Background(), taskID)
	if got.Status() != consts.TaskAccepted {
		t.Fatalf("expected accepted, got %s", got.Status())
	}
	if got.ExecutedByID == nil || *got.ExecutedByID != cheap.ID {
		t.Fatal("executor not recorded on claim")
	}
}

func TestClaimBlockedRequesterDenied(t *testing.T) {
	m, _, svc := newFixture()
	requester := m.putUser(&model.User{Identity: "req"})
	executor := m.putUser(&model.User{Identity: "exec"})
	executor.BlockedUserIDs = "1"
	taskID := mustSubmit(t, svc, requester, 10, 20)

	if _, err := svc.Claim(context.Background(), executor, taskID); !errors.Is(err, ErrEligibilityDenied) {
		t.Fatalf("expected ErrEligibilityDenied, got %v", err)
	}
}

func TestClaimMissingTask(t *testing.T) {
	m, _, svc := newFixture()
	executor := m.putUser(&model.User{Identity: "exec"})
	if _, err := svc.Claim(context.Background(), executor, 999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// N simultaneous claims on one unassigned task: exactly one wins, the rest
// lose the conditional update.
func TestConcurrentClaimSingleWinner(t *testing.T) {
	m, _, svc := newFixture()
	requester := m.putUser(&model.User{Identity: "req"})
	taskID := mustSubmit(t, svc, requester, 10, 20)

	const n = 32
	executors := make([]*model.User, n)
	for i := range executors {
		executors[i] = m.putUser(&model.User{Identity: string(rune('a' + i))})
	}

	var wg sync.WaitGroup
	results := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = svc.Claim(context.Background(), executors[i], taskID)
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range results {
		switch {
		case err == nil:
			winners++
		case errors.Is(err, ErrInvalidTransition):
		default:
			t.Fatalf("unexpected claim error: %v", err)
		}
	}
	if winners != 1 {
		t.Fatalf("expected exactly 1 winner, got %d", winners)
	}
}

func TestCompleteCapturesMaxPrice(t *testing.T) {
	m, gw, svc := newFixture()
	requester := m.putUser(&model.User{Identity: "req", StripeCustomerID: "cus_42"})
	executor := m.putUser(&model.User{Identity: "exec"})
	taskID := mustSubmit(t, svc, requester, 10, 20)
	if _, err := svc.Claim(context.Background(), executor, taskID); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if _, err := svc.Complete(context.Background(), executor, taskID); err != nil {
		t.Fatalf("complete: %v", err)
	}
	got, _ := svc.Get(context.Background(), taskID)
	if got.Status() != consts.TaskCompleted {
		t.Fatalf("expected completed, got %s", got.Status())
	}
	checkTimestampInvariant(t, got)
	if len(gw.captures) != 1 {
		t.Fatalf("expected 1 capture, got %d", len(gw.captures))
	}
	cap := gw.captures[0]
	if cap.Amount != 20 || cap.CustomerRef != "cus_42" || cap.PaymentMethodRef != "pm_123" {
		t.Fatalf("unexpected capture request: %+v", cap)
	}
}

// Capture failure reports ErrPaymentCaptureFailed but the task stays
// completed; it is never reverted to accepted.
func TestCompletePaymentFailureDoesNotRollBack(t *testing.T) {
	m, gw, svc := newFixture()
	gw.err = errGatewayDeclined
	requester := m.putUser(&model.User{Identity: "req"})
	executor := m.putUser(&model.User{Identity: "exec"})
	taskID := mustSubmit(t, svc, requester, 10, 20)
	if _, err := svc.Claim(context.Background(), executor, taskID); err != nil {
		t.Fatalf("claim: %v", err)
	}

	id, err := svc.Complete(context.Background(), executor, taskID)
	if !errors.Is(err, ErrPaymentCaptureFailed) {
		t.Fatalf("expected ErrPaymentCaptureFailed, got %v", err)
	}
	if id != taskID {
		t.Fatalf("completed task id must be returned alongside the capture error, got %d", id)
	}
	got, _ := svc.Get(context.Background(), taskID)
	if got.Status() != consts.TaskCompleted {
		t.Fatalf("task must stay completed after capture failure, got %s", got.Status())
	}
	checkTimestampInvariant(t, got)
}

func TestCompleteAuthorization(t *testing.T) {
	m, _, svc := newFixture()
	requester := m.putUser(&model.User{Identity: "req"})
	executor := m.putUser(&model.User{Identity: "exec"})
	other := m.putUser(&model.User{Identity: "other"})
	taskID := mustSubmit(t, svc, requester, 10, 20)
	if _, err := svc.Claim(context.Background(), executor, taskID); err != nil {
		t.Fatalf("claim: %v", err)
	}

	if _, err := svc.Complete(context.Background(), other, taskID); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for non-executor, got %v", err)
	}
	if _, err := svc.Complete(context.Background(), requester, taskID); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for requester, got %v", err)
	}
}

func TestCompleteRequiresAccepted(t *testing.T) {
	m, _, svc := newFixture()
	requester := m.putUser(&model.User{Identity: "req"})
	executor := m.putUser(&model.User{Identity: "exec"})
	taskID := mustSubmit(t, svc, requester, 10, 20)

	if _, err := svc.Complete(context.Background(), executor, taskID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition on unassigned task, got %v", err)
	}
}

// Cancel on an unassigned task fails: cancel requires accepted.
func TestCancelRequiresAccepted(t *testing.T) {
	m, _, svc := newFixture()
	requester := m.putUser(&model.User{Identity: "req"})
	taskID := mustSubmit(t, svc, requester, 10, 20)

	if _, err := svc.Cancel(context.Background(), requester, taskID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestCancelAuthorization(t *testing.T) {
	m, _, svc := newFixture()
	requester := m.putUser(&model.User{Identity: "req"})
	executor := m.putUser(&model.User{Identity: "exec"})
	taskID := mustSubmit(t, svc, requester, 10, 20)
	if _, err := svc.Claim(context.Background(), executor, taskID); err != nil {
		t.Fatalf("claim: %v", err)
	}

	if _, err := svc.Cancel(context.Background(), executor, taskID); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for executor cancel, got %v", err)
	}
	if _, err := svc.Cancel(context.Background(), requester, taskID); err != nil {
		t.Fatalf("requester cancel failed: %v", err)
	}
	got, _ := svc.Get(context.Background(), taskID)
	if got.Status() != consts.TaskCanceled {
		t.Fatalf("expected canceled, got %s", got.Status())
	}
	checkTimestampInvariant(t, got)

	// terminal: cancel and complete both refuse now
	if _, err := svc.Cancel(context.Background(), requester, taskID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition on canceled task, got %v", err)
	}
	if _, err := svc.Complete(context.Background(), executor, taskID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition on canceled task, got %v", err)
	}
}

func TestListExcludesBlockedRequesters(t *testing.T) {
	m, _, svc := newFixture()
	friendly := m.putUser(&model.User{Identity: "friendly"})
	hostile := m.putUser(&model.User{Identity: "hostile"})
	caller := m.putUser(&model.User{Identity: "caller"})
	caller.BlockedUserIDs = "2"

	mustSubmit(t, svc, friendly, 1, 2)
	mustSubmit(t, svc, hostile, 1, 2)

	list, err := svc.List(context.Background(), caller, &model.TaskListFilters{Status: consts.TaskUnassigned}, 10, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 task, got %d", len(list))
	}
	if list[0].RequestedByID != friendly.ID {
		t.Fatalf("blocked requester's task leaked into listing")
	}
}

func TestClockInjection(t *testing.T) {
	m, _, svc := newFixture()
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	svc.SetClock(func() time.Time { return fixed })
	requester := m.putUser(&model.User{Identity: "req"})
	taskID := mustSubmit(t, svc, requester, 10, 20)
	got, _ := svc.Get(context.Background(), taskID)
	if got.SubmittedTime == nil || !got.SubmittedTime.Equal(fixed) {
		t.Fatalf("submitted_time not taken from injected clock: %v", got.SubmittedTime)
	}
}
