package domain

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want FailureClass
	}{
		{"nil", nil, FailureNone},
		{"rate limited", NewProviderError("ais", FailureRateLimited, errors.New("429")), FailureRateLimited},
		{"wrapped invalid", fmt.Errorf("position: %w", NewProviderError("ais", FailureInvalidResponse, errors.New("bad"))), FailureInvalidResponse},
		{"unclassified", context.DeadlineExceeded, FailureUpstreamUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassOf(tt.err))
		})
	}
}

func TestFailureClass_Degradable(t *testing.T) {
	assert.False(t, FailureNone.Degradable())
	assert.True(t, FailureRateLimited.Degradable())
	assert.True(t, FailureUpstreamUnavailable.Degradable())
	assert.False(t, FailureInvalidResponse.Degradable())
}

func TestProviderError_Unwrap(t *testing.T) {
	err := NewProviderError("weather", FailureUpstreamUnavailable, context.DeadlineExceeded)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, "weather: upstream_unavailable: context deadline exceeded", err.Error())
}
