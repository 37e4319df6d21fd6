package validator_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/rewind/internal/validator"
	"github.com/aretw0/rewind/pkg/domain"
)

func TestValidate(t *testing.T) {
	t.Run("Valid Config", func(t *testing.T) {
		cfg := domain.NewConfig("idle").
			AddState("idle", map[string]string{"start": "running"}).
			AddState("running", map[string]string{"stop": "idle"})

		report := validator.Validate(cfg)
		assert.Empty(t, report.Errors)
		assert.Empty(t, report.Warnings)
		assert.NoError(t, report.Err())
	})

	t.Run("Missing Config", func(t *testing.T) {
		report := validator.Validate(nil)
		require.Len(t, report.Errors, 1)
		assert.Contains(t, report.Err().Error(), "no config")
	})

	t.Run("Undeclared Initial", func(t *testing.T) {
		cfg := domain.NewConfig("ghost").AddState("idle", nil)

		report := validator.Validate(cfg)
		require.Len(t, report.Errors, 1)
		assert.Contains(t, report.Errors[0].Message, "initial state 'ghost' is not declared")
		assert.Empty(t, report.Warnings, "reachability is skipped without a valid initial state")
	})

	t.Run("Dangling Destination", func(t *testing.T) {
		cfg := domain.NewConfig("idle").
			AddState("idle", map[string]string{"jump": "nowhere", "start": "running"}).
			AddState("running", nil)

		report := validator.Validate(cfg)
		require.Len(t, report.Errors, 1)
		assert.Equal(t, "idle", report.Errors[0].State)
		assert.Equal(t, "jump", report.Errors[0].Event)

		var vErr *validator.ValidationError
		require.True(t, errors.As(report.Err(), &vErr))
		assert.Contains(t, vErr.Error(), "found 1 errors")
		assert.Contains(t, vErr.Error(), "destination 'nowhere' is not declared")
	})

	t.Run("Unreachable State Is A Warning", func(t *testing.T) {
		cfg := domain.NewConfig("idle").
			AddState("idle", map[string]string{"start": "running"}).
			AddState("running", nil).
			AddState("island", map[string]string{"back": "idle"})

		report := validator.Validate(cfg)
		assert.Empty(t, report.Errors)
		require.Len(t, report.Warnings, 1)
		assert.Equal(t, "island", report.Warnings[0].State)
	})

	t.Run("Empty Event", func(t *testing.T) {
		cfg := domain.NewConfig("idle").AddState("idle", map[string]string{"": "idle"})

		report := validator.Validate(cfg)
		require.Len(t, report.Errors, 1)
		assert.Contains(t, report.Errors[0].String(), "event id must not be empty")
	})
}

func TestReachable(t *testing.T) {
	cfg := domain.NewConfig("a").
		AddState("a", map[string]string{"x": "b", "y": "ghost"}).
		AddState("b", map[string]string{"x": "c"}).
		AddState("c", map[string]string{"x": "a"}).
		AddState("d", nil)

	reached := validator.Reachable(cfg)
	assert.Equal(t, map[string]bool{"a": true, "b": true, "c": true}, reached)
}
