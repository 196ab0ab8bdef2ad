package audithook

import "log/slog"

// Option configures an Extension.
type Option func(*Extension)

// WithLogger sets the logger used when the recorder fails.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extension) {
		e.logger = logger
	}
}

// WithEnabledActions restricts auditing to actions. Without it every action
// is recorded.
func WithEnabledActions(actions ...string) Option {
	return func(e *Extension) {
		e.enabled = actionSet(actions)
	}
}

// WithDisabledActions records everything except actions.
func WithDisabledActions(actions ...string) Option {
	return func(e *Extension) {
		if e.enabled == nil {
			e.enabled = actionSet(allActions())
		}
		for _, a := range actions {
			delete(e.enabled, a)
		}
	}
}

// WithMinSeverity drops events below severity. Unknown levels record
// everything.
func WithMinSeverity(severity string) Option {
	return func(e *Extension) {
		e.minRank = severityRank(severity)
	}
}

func actionSet(actions []string) map[string]bool {
	set := make(map[string]bool, len(actions))
	for _, a := range actions {
		set[a] = true
	}
	return set
}

func allActions() []string {
	return []string{
		ActionContributionAccepted,
		ActionContributionRejected,
		ActionWithdrawalCompleted,
		ActionWithdrawalFailed,
		ActionWithdrawalUnauthorized,
		ActionLedgerStarted,
		ActionLedgerStopped,
	}
}

func severityRank(severity string) int {
	switch severity {
	case SeverityWarning:
		return 1
	case SeverityError:
		return 2
	case SeverityCritical:
		return 3
	default:
		return 0
	}
}
