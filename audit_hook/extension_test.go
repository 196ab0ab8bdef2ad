package audithook_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/xraph/fundme"
	audithook "github.com/xraph/fundme/audit_hook"
	"github.com/xraph/fundme/oracle"
	"github.com/xraph/fundme/types"
	"github.com/xraph/fundme/wallet"
)

var (
	owner  = types.MustParseAddress("0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266")
	funder = types.MustParseAddress("0x70997970c51812dc3a010c7d01b50e0d17dc79c8")
)

type memRecorder struct {
	mu     sync.Mutex
	events []*audithook.AuditEvent
}

func (m *memRecorder) Record(_ context.Context, evt *audithook.AuditEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, evt)
	return nil
}

func (m *memRecorder) actions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.events))
	for i, e := range m.events {
		out[i] = e.Action
	}
	return out
}

func newLedger(t *testing.T, ext *audithook.Extension) *fundme.Ledger {
	t.Helper()
	l, err := fundme.New(owner, oracle.NewDefaultMockAggregator(),
		fundme.WithPayee(wallet.NewBook()),
		fundme.WithPlugin(ext),
	)
	if err != nil {
		t.Fatal(err)
	}
	return l
}

func TestRecordsLedgerActions(t *testing.T) {
	rec := &memRecorder{}
	l := newLedger(t, audithook.New(rec))
	ctx := context.Background()

	if err := l.Start(ctx); err != nil {
		t.Fatal(err)
	}
	if err := l.Contribute(ctx, funder, types.Ether(1)); err != nil {
		t.Fatal(err)
	}
	_ = l.Contribute(ctx, funder, types.Wei(1))
	_ = l.Withdraw(ctx, funder)
	if err := l.Withdraw(ctx, owner); err != nil {
		t.Fatal(err)
	}
	if err := l.Stop(); err != nil {
		t.Fatal(err)
	}

	want := []string{
		audithook.ActionLedgerStarted,
		audithook.ActionContributionAccepted,
		audithook.ActionContributionRejected,
		audithook.ActionWithdrawalUnauthorized,
		audithook.ActionWithdrawalCompleted,
		audithook.ActionLedgerStopped,
	}
	got := rec.actions()
	if len(got) != len(want) {
		t.Fatalf("actions: got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("action %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestAcceptedEventMetadata(t *testing.T) {
	rec := &memRecorder{}
	l := newLedger(t, audithook.New(rec))

	if err := l.Contribute(context.Background(), funder, types.Ether(1)); err != nil {
		t.Fatal(err)
	}

	evt := rec.events[0]
	if evt.Resource != audithook.ResourceContribution || evt.Outcome != audithook.OutcomeSuccess {
		t.Errorf("unexpected event: %+v", evt)
	}
	if evt.Metadata["contributor"] != funder.String() {
		t.Errorf("contributor: got %v", evt.Metadata["contributor"])
	}
	if evt.Metadata["usd_value"] != "2000" {
		t.Errorf("usd_value: got %v, want 2000", evt.Metadata["usd_value"])
	}
	if evt.ResourceID == "" {
		t.Error("expected the receipt id as resource id")
	}
}

func TestFailedPayoutIsCritical(t *testing.T) {
	rec := &memRecorder{}
	book := wallet.NewBook()
	book.OnReceive(owner, func(context.Context, types.Amount) error { return errors.New("rejected") })

	l, err := fundme.New(owner, oracle.NewDefaultMockAggregator(),
		fundme.WithPayee(book),
		fundme.WithPlugin(audithook.New(rec, audithook.WithEnabledActions(audithook.ActionWithdrawalFailed))),
	)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if err := l.Contribute(ctx, funder, types.Ether(1)); err != nil {
		t.Fatal(err)
	}
	if err := l.Withdraw(ctx, owner); !errors.Is(err, fundme.ErrTransferFailed) {
		t.Fatalf("Withdraw: got %v", err)
	}

	if len(rec.events) != 1 {
		t.Fatalf("events: got %d, want 1", len(rec.events))
	}
	evt := rec.events[0]
	if evt.Severity != audithook.SeverityCritical || evt.Reason == "" {
		t.Errorf("unexpected event: %+v", evt)
	}
	if evt.Metadata["amount_wei"] != types.Ether(1).String() {
		t.Errorf("amount_wei: got %v", evt.Metadata["amount_wei"])
	}
}

func TestDisabledActions(t *testing.T) {
	rec := &memRecorder{}
	ext := audithook.New(rec, audithook.WithDisabledActions(audithook.ActionContributionRejected))
	l := newLedger(t, ext)

	_ = l.Contribute(context.Background(), funder, types.Wei(1))
	if len(rec.events) != 0 {
		t.Errorf("expected no events, got %v", rec.actions())
	}
}

func TestRecorderErrorIsSwallowed(t *testing.T) {
	failing := audithook.RecorderFunc(func(context.Context, *audithook.AuditEvent) error {
		return errors.New("backend down")
	})
	l := newLedger(t, audithook.New(failing))

	if err := l.Contribute(context.Background(), funder, types.Ether(1)); err != nil {
		t.Fatalf("Contribute should not see recorder errors: %v", err)
	}
}

func TestMinSeverity(t *testing.T) {
	rec := &memRecorder{}
	l := newLedger(t, audithook.New(rec, audithook.WithMinSeverity(audithook.SeverityWarning)))
	ctx := context.Background()

	if err := l.Contribute(ctx, funder, types.Ether(1)); err != nil {
		t.Fatal(err)
	}
	if err := l.Withdraw(ctx, funder); !errors.Is(err, fundme.ErrUnauthorized) {
		t.Fatalf("Withdraw: got %v", err)
	}

	got := rec.actions()
	if len(got) != 1 || got[0] != audithook.ActionWithdrawalUnauthorized {
		t.Errorf("actions: got %v, want [%s]", got, audithook.ActionWithdrawalUnauthorized)
	}
}
