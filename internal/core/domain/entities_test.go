package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		in   string
		want Role
		ok   bool
	}{
		{"Customer", RoleCustomer, true},
		{"admin", RoleAdmin, true},
		{"ADMIN", RoleAdmin, true},
		{" employee ", RoleEmployee, true},
		{"officer", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseRole(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRoleSatisfies(t *testing.T) {
	assert.True(t, RoleCustomer.Satisfies(RoleCustomer))
	assert.False(t, RoleCustomer.Satisfies(RoleEmployee))
	assert.True(t, RoleEmployee.Satisfies(StaffRoles...))
	assert.True(t, RoleAdmin.Satisfies(RoleCustomer), "admin satisfies any role")
	assert.True(t, Role("admin").Satisfies(RoleEmployee))
	assert.True(t, Role("EMPLOYEE").Satisfies(RoleEmployee))
	assert.False(t, Role("root").Satisfies(RoleCustomer))
}

func TestAppendLoginHistory(t *testing.T) {
	var history []LoginAttempt
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 15; i++ {
		history = AppendLoginHistory(history, LoginAttempt{IP: fmt.Sprint(i), Timestamp: base.Add(time.Duration(i) * time.Minute)})
	}

	require.Len(t, history, MaxLoginHistory)
	assert.Equal(t, "5", history[0].IP, "oldest entries are evicted first")
	assert.Equal(t, "14", history[len(history)-1].IP)
}

func TestWeakPasswordErrorUnwrapsToValidation(t *testing.T) {
	var err error = &WeakPasswordError{ValidationError{Problems: []string{"too short", "no digit"}}}

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, []string{"too short", "no digit"}, ve.Problems)
}

func TestLockedErrorRetryAfter(t *testing.T) {
	now := time.Now()
	e := &LockedError{Until: now.Add(90*time.Second + 200*time.Millisecond)}
	assert.Equal(t, 91*time.Second, e.RetryAfter(now))
	assert.Zero(t, e.RetryAfter(now.Add(time.Hour)))
}

func TestNewValidationError(t *testing.T) {
	assert.NoError(t, NewValidationError())
	err := NewValidationError("a", "b")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "a; b")
}
