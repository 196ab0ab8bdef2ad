package kafka_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/segmentio/kafka-go"

	"github.com/xraph/fundme"
	fundmekafka "github.com/xraph/fundme/events/kafka"
	"github.com/xraph/fundme/oracle"
	"github.com/xraph/fundme/receipt"
	"github.com/xraph/fundme/types"
	"github.com/xraph/fundme/wallet"
)

var (
	owner  = types.MustParseAddress("0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266")
	funder = types.MustParseAddress("0x70997970c51812dc3a010c7d01b50e0d17dc79c8")
)

type fakeWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

func TestPublishesLedgerEvents(t *testing.T) {
	w := &fakeWriter{}
	l, err := fundme.New(owner, oracle.NewDefaultMockAggregator(),
		fundme.WithPayee(wallet.NewBook()),
		fundme.WithPlugin(fundmekafka.NewWithWriter(w)),
	)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	if err := l.Contribute(ctx, funder, types.Ether(1)); err != nil {
		t.Fatal(err)
	}
	_ = l.Contribute(ctx, funder, types.Wei(1)) // rejected, not published
	if err := l.CheaperWithdraw(ctx, owner); err != nil {
		t.Fatal(err)
	}
	if err := l.Stop(); err != nil {
		t.Fatal(err)
	}

	if len(w.msgs) != 2 {
		t.Fatalf("messages: got %d, want 2", len(w.msgs))
	}
	if !w.closed {
		t.Error("writer not closed on shutdown")
	}

	for _, msg := range w.msgs {
		if string(msg.Key) != l.ID().String() {
			t.Errorf("key: got %q, want ledger id", msg.Key)
		}
	}

	var first fundmekafka.Event
	if err := json.Unmarshal(w.msgs[0].Value, &first); err != nil {
		t.Fatal(err)
	}
	if first.Type != fundmekafka.TypeContributionAccepted || first.ID.IsNil() {
		t.Errorf("unexpected envelope: %+v", first)
	}
	var c receipt.Contribution
	if err := json.Unmarshal(first.Data, &c); err != nil {
		t.Fatal(err)
	}
	if c.Contributor != funder || !c.Amount.Equal(types.Ether(1)) {
		t.Errorf("unexpected contribution payload: %+v", c)
	}

	var second fundmekafka.Event
	if err := json.Unmarshal(w.msgs[1].Value, &second); err != nil {
		t.Fatal(err)
	}
	var wd receipt.Withdrawal
	if err := json.Unmarshal(second.Data, &wd); err != nil {
		t.Fatal(err)
	}
	if second.Type != fundmekafka.TypeWithdrawalCompleted || wd.Variant != receipt.VariantCheaper {
		t.Errorf("unexpected withdrawal event: %s %+v", second.Type, wd)
	}
}

func TestPublishErrorDoesNotFailContribution(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker down")}
	l, err := fundme.New(owner, oracle.NewDefaultMockAggregator(),
		fundme.WithPayee(wallet.NewBook()),
		fundme.WithPlugin(fundmekafka.NewWithWriter(w)),
	)
	if err != nil {
		t.Fatal(err)
	}

	if err := l.Contribute(context.Background(), funder, types.Ether(1)); err != nil {
		t.Fatalf("Contribute: %v", err)
	}
	if !l.BalanceOf(funder).Equal(types.Ether(1)) {
		t.Error("contribution not committed")
	}
}
