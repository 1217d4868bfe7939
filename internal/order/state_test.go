package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthorize(t *testing.T) {
	cases := []struct {
		from, to Status
		role     Role
		want     error
	}{
		{StatusPending, StatusAccepted, RoleWorker, nil},
		{StatusPending, StatusAccepted, RoleOwner, nil},
		{StatusPending, StatusAccepted, RoleCustomer, ErrForbidden},
		{StatusPending, StatusCancelled, RoleCustomer, nil},
		{StatusPending, StatusCancelled, RoleWorker, nil},
		{StatusAccepted, StatusCancelled, RoleCustomer, ErrForbidden},
		{StatusAccepted, StatusCancelled, RoleWorker, nil},
		{StatusAccepted, StatusPreparing, RoleWorker, nil},
		{StatusPreparing, StatusReady, RoleWorker, nil},
		{StatusPreparing, StatusCancelled, RoleWorker, ErrIllegalTransition},
		{StatusReady, StatusPickedUp, RoleWorker, nil},
		{StatusPickedUp, StatusCompleted, RoleSystem, nil},
		{StatusPickedUp, StatusCompleted, RoleCustomer, ErrForbidden},
		{StatusPending, StatusReady, RoleWorker, ErrIllegalTransition},
		{StatusPending, StatusPickedUp, RoleAdmin, ErrIllegalTransition},
		{StatusReady, StatusAccepted, RoleWorker, ErrIllegalTransition},
	}
	for _, tc := range cases {
		err := Authorize(tc.from, tc.to, tc.role)
		if tc.want == nil {
			assert.NoError(t, err, "%s -> %s by %s", tc.from, tc.to, tc.role)
			continue
		}
		assert.ErrorIs(t, err, tc.want, "%s -> %s by %s", tc.from, tc.to, tc.role)
	}
}

func TestTerminalStatesHaveNoExit(t *testing.T) {
	for _, from := range []Status{StatusCompleted, StatusCancelled} {
		require.True(t, from.Terminal())
		assert.Empty(t, AllowedNext(from))
		for _, to := range allStatuses {
			for _, role := range []Role{RoleCustomer, RoleWorker, RoleOwner, RoleAdmin, RoleSystem} {
				assert.ErrorIs(t, Authorize(from, to, role), ErrIllegalTransition)
			}
		}
	}
}

func TestAllowedNext(t *testing.T) {
	assert.Equal(t, []Status{StatusAccepted, StatusCancelled}, AllowedNext(StatusPending))
	assert.Equal(t, []Status{StatusPreparing, StatusCancelled}, AllowedNext(StatusAccepted))
	assert.Equal(t, []Status{StatusCompleted}, AllowedNext(StatusPickedUp))
}

func TestParseStatus(t *testing.T) {
	st, ok := ParseStatus("picked_up")
	require.True(t, ok)
	assert.Equal(t, StatusPickedUp, st)

	_, ok = ParseStatus("done")
	assert.False(t, ok)
}
