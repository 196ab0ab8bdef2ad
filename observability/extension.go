// Package observability provides a metrics extension for fundme that records
// ledger event counts through a MetricFactory.
package observability

import (
	"context"
	"errors"

	"github.com/xraph/fundme"
	"github.com/xraph/fundme/plugin"
	"github.com/xraph/fundme/receipt"
	"github.com/xraph/fundme/types"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin                 = (*MetricsExtension)(nil)
	_ plugin.OnInit                 = (*MetricsExtension)(nil)
	_ plugin.OnContributionAccepted = (*MetricsExtension)(nil)
	_ plugin.OnContributionRejected = (*MetricsExtension)(nil)
	_ plugin.OnWithdrawal           = (*MetricsExtension)(nil)
	_ plugin.OnWithdrawalFailed     = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records ledger metrics.
// Register it as a Ledger plugin to track contributions and payouts.
type MetricsExtension struct {
	factory MetricFactory

	// Contribution metrics
	ContributionsAccepted Counter
	ContributionsRejected Counter
	ContributionUSD       Histogram
	ContributedEther      Counter

	// Rejection reasons
	RejectedBelowMinimum Counter
	RejectedOracle       Counter

	// Withdrawal metrics
	Withdrawals          Counter
	WithdrawalsFailed    Counter
	WithdrawalsDenied    Counter
	WithdrawnEther       Counter
	WithdrawalFunderSize Histogram
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		ContributionsAccepted: factory.Counter("fundme.contribution.accepted"),
		ContributionsRejected: factory.Counter("fundme.contribution.rejected"),
		ContributionUSD:       factory.Histogram("fundme.contribution.usd"),
		ContributedEther:      factory.Counter("fundme.contribution.ether"),

		RejectedBelowMinimum: factory.Counter("fundme.contribution.rejected.below_minimum"),
		RejectedOracle:       factory.Counter("fundme.contribution.rejected.oracle"),

		Withdrawals:          factory.Counter("fundme.withdrawal.completed"),
		WithdrawalsFailed:    factory.Counter("fundme.withdrawal.failed"),
		WithdrawalsDenied:    factory.Counter("fundme.withdrawal.unauthorized"),
		WithdrawnEther:       factory.Counter("fundme.withdrawal.ether"),
		WithdrawalFunderSize: factory.Histogram("fundme.withdrawal.funders"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ any) error {
	return nil
}

// OnContributionAccepted implements plugin.OnContributionAccepted.
func (m *MetricsExtension) OnContributionAccepted(_ context.Context, c *receipt.Contribution) error {
	m.ContributionsAccepted.Inc()
	m.ContributionUSD.Observe(c.USDValue.Decimal().InexactFloat64())
	m.ContributedEther.Add(c.Amount.Decimal().InexactFloat64())
	return nil
}

// OnContributionRejected implements plugin.OnContributionRejected.
func (m *MetricsExtension) OnContributionRejected(_ context.Context, _ types.Address, _ types.Amount, reason error) error {
	m.ContributionsRejected.Inc()
	switch {
	case errors.Is(reason, fundme.ErrInsufficientContribution):
		m.RejectedBelowMinimum.Inc()
	case errors.Is(reason, fundme.ErrOracleUnavailable), errors.Is(reason, fundme.ErrOraclePriceInvalid):
		m.RejectedOracle.Inc()
	}
	return nil
}

// OnWithdrawal implements plugin.OnWithdrawal.
func (m *MetricsExtension) OnWithdrawal(_ context.Context, w *receipt.Withdrawal) error {
	m.Withdrawals.Inc()
	m.WithdrawnEther.Add(w.Amount.Decimal().InexactFloat64())
	m.WithdrawalFunderSize.Observe(float64(w.Funders))
	return nil
}

// OnWithdrawalFailed implements plugin.OnWithdrawalFailed.
func (m *MetricsExtension) OnWithdrawalFailed(_ context.Context, _ types.Address, _ types.Amount, reason error) error {
	if errors.Is(reason, fundme.ErrUnauthorized) {
		m.WithdrawalsDenied.Inc()
		return nil
	}
	m.WithdrawalsFailed.Inc()
	return nil
}
