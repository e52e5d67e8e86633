package ledger

import "github.com/LuisEmilioVP/NexuViaticos/internal/models"

// AlertPolicy classifies urgency from days until expiration. Thresholds
// are business policy and come from configuration.
type AlertPolicy struct {
	CriticalDays int
	WarningDays  int
}

// DefaultAlertPolicy returns the standard thresholds: 3 days critical,
// 10 days warning.
func DefaultAlertPolicy() AlertPolicy {
	return AlertPolicy{CriticalDays: 3, WarningDays: 10}
}

// Level maps days remaining to an alert level. Negative days mean the
// allowance is already expired.
func (p AlertPolicy) Level(daysRemaining int) string {
	switch {
	case daysRemaining < 0:
		return models.AlertExpired
	case daysRemaining <= p.CriticalDays:
		return models.AlertCritical
	case daysRemaining <= p.WarningDays:
		return models.AlertWarning
	default:
		return models.AlertOK
	}
}
