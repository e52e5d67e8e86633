package submission

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateCode(t *testing.T) {
	tests := []struct {
		name string
		id   int64
		want string
	}{
		{name: "first submission", id: 1, want: "R000001"},
		{name: "typical id", id: 42, want: "R000042"},
		{name: "last six digit id", id: 999999, want: "R999999"},
		{name: "seven digit id widens", id: 1000000, want: "R1000000"},
		{name: "large id", id: 123456789, want: "R123456789"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GenerateCode(tt.id))
		})
	}
}

func TestGenerateCodeDeterministic(t *testing.T) {
	assert.Equal(t, GenerateCode(42), GenerateCode(42))
}
