package oracle

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/xraph/fundme/types"
)

// Defaults used by the development aggregator: an 8-decimal feed
// reporting 2000 USD per native unit.
const (
	MockDecimals      uint8 = 8
	MockInitialAnswer int64 = 2000_00000000
)

// MockAddress is the address reported by a MockAggregator unless
// overridden with WithMockAddress.
var MockAddress = types.MustParseAddress("0x5fbdb2315678afecb367f032d93f642f64180aa3")

// MockAggregator is an in-memory PriceFeed for development networks and
// tests. Every UpdateAnswer starts a new round.
type MockAggregator struct {
	mu       sync.RWMutex
	address  types.Address
	decimals uint8
	round    RoundData
	err      error
	now      func() time.Time
}

// MockOption configures a MockAggregator.
type MockOption func(*MockAggregator)

// WithMockAddress sets the feed address.
func WithMockAddress(a types.Address) MockOption {
	return func(m *MockAggregator) { m.address = a }
}

// WithMockClock sets the clock used to stamp rounds.
func WithMockClock(now func() time.Time) MockOption {
	return func(m *MockAggregator) { m.now = now }
}

// NewMockAggregator creates a feed reporting initialAnswer at decimals.
func NewMockAggregator(decimals uint8, initialAnswer *big.Int, opts ...MockOption) *MockAggregator {
	m := &MockAggregator{
		address:  MockAddress,
		decimals: decimals,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.UpdateAnswer(initialAnswer)
	return m
}

// NewDefaultMockAggregator creates an 8-decimal feed at 2000 USD.
func NewDefaultMockAggregator(opts ...MockOption) *MockAggregator {
	return NewMockAggregator(MockDecimals, big.NewInt(MockInitialAnswer), opts...)
}

// UpdateAnswer records a new round with the given answer.
func (m *MockAggregator) UpdateAnswer(answer *big.Int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var a *big.Int
	if answer != nil {
		a = new(big.Int).Set(answer)
	}
	now := m.now()
	m.round = RoundData{
		RoundID:   m.round.RoundID + 1,
		Answer:    a,
		StartedAt: now,
		UpdatedAt: now,
	}
}

// UpdateRoundData replaces the current round verbatim.
func (m *MockAggregator) UpdateRoundData(round RoundData) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.round = round
}

// SetError makes subsequent reads fail with err until cleared with nil.
func (m *MockAggregator) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// LatestRoundData implements PriceFeed.
func (m *MockAggregator) LatestRoundData(ctx context.Context) (RoundData, error) {
	if err := ctx.Err(); err != nil {
		return RoundData{}, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.err != nil {
		return RoundData{}, m.err
	}
	r := m.round
	if r.Answer != nil {
		r.Answer = new(big.Int).Set(r.Answer)
	}
	return r, nil
}

// Decimals implements PriceFeed.
func (m *MockAggregator) Decimals() uint8 { return m.decimals }

// Address implements PriceFeed.
func (m *MockAggregator) Address() types.Address { return m.address }
