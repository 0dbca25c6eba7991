package dashboard

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Ashfaaq98/health-console/internal/health"
)

func TestAccountScopeRefresh(t *testing.T) {
	dir := &mockDirectory{}
	dir.On("AllowedAccounts", mock.Anything, "alice").
		Return([]string{"111111111111", " 222222222222 ", "111111111111", ""}, nil).Once()

	scope := NewAccountScope(dir, "alice", nil)
	assert.False(t, scope.Loaded())

	accounts, err := scope.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"111111111111", "222222222222"}, accounts)
	assert.True(t, scope.Loaded())
	assert.Equal(t, accounts, scope.Accounts())
	dir.AssertExpectations(t)
}

func TestAccountScopeRefreshFailureKeepsPreviousList(t *testing.T) {
	dir := &mockDirectory{}
	dir.On("AllowedAccounts", mock.Anything, "alice").Return([]string{"111111111111"}, nil).Once()
	dir.On("AllowedAccounts", mock.Anything, "alice").Return(nil, errors.New("connection refused")).Once()

	scope := NewAccountScope(dir, "alice", nil)
	_, err := scope.Refresh(context.Background())
	require.NoError(t, err)

	_, err = scope.Refresh(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, health.ErrDirectoryUnavailable)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, []string{"111111111111"}, scope.Accounts())
	dir.AssertExpectations(t)
}
