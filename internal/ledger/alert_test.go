package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAlertPolicyLevel(t *testing.T) {
	policy := DefaultAlertPolicy()

	tests := []struct {
		name string
		days int
		want string
	}{
		{name: "expired yesterday", days: -1, want: "VENCIDO"},
		{name: "long expired", days: -30, want: "VENCIDO"},
		{name: "expires today", days: 0, want: "CRITICO"},
		{name: "within critical window", days: 3, want: "CRITICO"},
		{name: "just past critical window", days: 4, want: "ALERTA"},
		{name: "one week out", days: 7, want: "ALERTA"},
		{name: "within warning window", days: 10, want: "ALERTA"},
		{name: "one month out", days: 30, want: "OK"},
		{name: "just past warning window", days: 11, want: "OK"},
		{name: "far in the future", days: 365, want: "OK"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, policy.Level(tt.days))
		})
	}
}

func TestAlertPolicyCustomThresholds(t *testing.T) {
	policy := AlertPolicy{CriticalDays: 0, WarningDays: 5}

	assert.Equal(t, "CRITICO", policy.Level(0))
	assert.Equal(t, "ALERTA", policy.Level(1))
	assert.Equal(t, "ALERTA", policy.Level(5))
	assert.Equal(t, "OK", policy.Level(6))
}
