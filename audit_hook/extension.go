// Package audithook bridges ledger lifecycle events to an audit trail backend.
//
// It defines a local Recorder interface so the package does not depend on
// any particular audit system. Callers inject a RecorderFunc adapter at
// wiring time.
package audithook

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/xraph/fundme"
	"github.com/xraph/fundme/plugin"
	"github.com/xraph/fundme/receipt"
	"github.com/xraph/fundme/types"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin                 = (*Extension)(nil)
	_ plugin.OnInit                 = (*Extension)(nil)
	_ plugin.OnShutdown             = (*Extension)(nil)
	_ plugin.OnContributionAccepted = (*Extension)(nil)
	_ plugin.OnContributionRejected = (*Extension)(nil)
	_ plugin.OnWithdrawal           = (*Extension)(nil)
	_ plugin.OnWithdrawalFailed     = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a single audit trail entry.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges ledger lifecycle events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	minRank  int
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit implements plugin.OnInit.
func (e *Extension) OnInit(ctx context.Context, l any) error {
	var ledgerID string
	if led, ok := l.(*fundme.Ledger); ok {
		ledgerID = led.ID().String()
	}
	return e.record(ctx, ActionLedgerStarted, SeverityInfo, OutcomeSuccess,
		ResourceLedger, ledgerID, CategoryLifecycle, nil,
	)
}

// OnShutdown implements plugin.OnShutdown.
func (e *Extension) OnShutdown(ctx context.Context) error {
	return e.record(ctx, ActionLedgerStopped, SeverityInfo, OutcomeSuccess,
		ResourceLedger, "", CategoryLifecycle, nil,
	)
}

// ──────────────────────────────────────────────────
// Contribution hooks
// ──────────────────────────────────────────────────

// OnContributionAccepted implements plugin.OnContributionAccepted.
func (e *Extension) OnContributionAccepted(ctx context.Context, c *receipt.Contribution) error {
	return e.record(ctx, ActionContributionAccepted, SeverityInfo, OutcomeSuccess,
		ResourceContribution, c.ID.String(), CategoryFunding, nil,
		"ledger_id", c.LedgerID.String(),
		"contributor", c.Contributor.String(),
		"amount_wei", c.Amount.String(),
		"usd_value", c.USDValue.FormatEther(),
	)
}

// OnContributionRejected implements plugin.OnContributionRejected.
func (e *Extension) OnContributionRejected(ctx context.Context, contributor types.Address, amount types.Amount, reason error) error {
	severity := SeverityInfo
	if fundme.IsRetryable(reason) {
		severity = SeverityWarning
	}
	return e.record(ctx, ActionContributionRejected, severity, OutcomeFailure,
		ResourceContribution, "", CategoryFunding, reason,
		"contributor", contributor.String(),
		"amount_wei", amount.String(),
	)
}

// ──────────────────────────────────────────────────
// Withdrawal hooks
// ──────────────────────────────────────────────────

// OnWithdrawal implements plugin.OnWithdrawal.
func (e *Extension) OnWithdrawal(ctx context.Context, w *receipt.Withdrawal) error {
	return e.record(ctx, ActionWithdrawalCompleted, SeverityInfo, OutcomeSuccess,
		ResourceWithdrawal, w.ID.String(), CategoryPayout, nil,
		"ledger_id", w.LedgerID.String(),
		"owner", w.Owner.String(),
		"amount_wei", w.Amount.String(),
		"funders", w.Funders,
		"variant", string(w.Variant),
	)
}

// OnWithdrawalFailed implements plugin.OnWithdrawalFailed. Calls by anyone
// other than the owner are recorded as access violations.
func (e *Extension) OnWithdrawalFailed(ctx context.Context, caller types.Address, amount types.Amount, reason error) error {
	if errors.Is(reason, fundme.ErrUnauthorized) {
		return e.record(ctx, ActionWithdrawalUnauthorized, SeverityWarning, OutcomeFailure,
			ResourceWithdrawal, "", CategoryAccess, reason,
			"caller", caller.String(),
		)
	}
	return e.record(ctx, ActionWithdrawalFailed, SeverityCritical, OutcomeFailure,
		ResourceWithdrawal, "", CategoryPayout, reason,
		"caller", caller.String(),
		"amount_wei", amount.String(),
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}
	if severityRank(severity) < e.minRank {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
