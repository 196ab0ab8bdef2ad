package plugin_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/xraph/fundme/plugin"
	"github.com/xraph/fundme/receipt"
	"github.com/xraph/fundme/types"
)

type recorder struct {
	name string

	mu       sync.Mutex
	accepted int
	rejected []error
	failed   []error
	inits    int
	fail     error
}

func (r *recorder) Name() string { return r.name }

func (r *recorder) OnInit(context.Context, any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inits++
	return r.fail
}

func (r *recorder) OnContributionAccepted(context.Context, *receipt.Contribution) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.accepted++
	return r.fail
}

func (r *recorder) OnContributionRejected(_ context.Context, _ types.Address, _ types.Amount, reason error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rejected = append(r.rejected, reason)
	return nil
}

func (r *recorder) OnWithdrawalFailed(_ context.Context, _ types.Address, _ types.Amount, reason error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed = append(r.failed, reason)
	return nil
}

type slow struct{}

func (slow) Name() string { return "slow" }

func (slow) OnWithdrawal(ctx context.Context, _ *receipt.Withdrawal) error {
	select {
	case <-time.After(time.Second):
	case <-ctx.Done():
	}
	return nil
}

func TestRegisterDuplicate(t *testing.T) {
	r := plugin.NewRegistry()
	if err := r.Register(&recorder{name: "a"}); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(&recorder{name: "a"}); err == nil {
		t.Error("expected duplicate registration error")
	}
	if r.Count() != 1 {
		t.Errorf("Count: got %d, want 1", r.Count())
	}
	if r.Get("a") == nil || r.Get("b") != nil {
		t.Error("Get returned the wrong plugin")
	}
	if len(r.List()) != 1 {
		t.Errorf("List: got %d entries", len(r.List()))
	}
}

func TestDispatch(t *testing.T) {
	r := plugin.NewRegistry()
	rec := &recorder{name: "rec"}
	if err := r.Register(rec); err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	r.EmitInit(ctx, nil)
	r.EmitContributionAccepted(ctx, &receipt.Contribution{})
	r.EmitContributionAccepted(ctx, &receipt.Contribution{})
	reason := errors.New("too small")
	r.EmitContributionRejected(ctx, types.ZeroAddress, types.Wei(1), reason)
	r.EmitWithdrawalFailed(ctx, types.ZeroAddress, types.Zero, reason)
	r.EmitWithdrawal(ctx, &receipt.Withdrawal{})
	r.EmitShutdown(ctx)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.inits != 1 {
		t.Errorf("inits: got %d, want 1", rec.inits)
	}
	if rec.accepted != 2 {
		t.Errorf("accepted: got %d, want 2", rec.accepted)
	}
	if len(rec.rejected) != 1 || !errors.Is(rec.rejected[0], reason) {
		t.Errorf("rejected: got %v", rec.rejected)
	}
	if len(rec.failed) != 1 {
		t.Errorf("failed: got %v", rec.failed)
	}
}

func TestFailingHookDoesNotStopOthers(t *testing.T) {
	r := plugin.NewRegistry()
	bad := &recorder{name: "bad", fail: errors.New("boom")}
	good := &recorder{name: "good"}
	_ = r.Register(bad)
	_ = r.Register(good)

	r.EmitContributionAccepted(context.Background(), &receipt.Contribution{})

	good.mu.Lock()
	defer good.mu.Unlock()
	if good.accepted != 1 {
		t.Errorf("good plugin missed the event: %d", good.accepted)
	}
}

func TestHookTimeout(t *testing.T) {
	r := plugin.NewRegistry().WithTimeout(20 * time.Millisecond)
	_ = r.Register(slow{})

	start := time.Now()
	r.EmitWithdrawal(context.Background(), &receipt.Withdrawal{})
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("dispatch waited %s for a slow plugin", elapsed)
	}
}
