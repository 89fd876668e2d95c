package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuth_IsDetectedThroughWrapping(t *testing.T) {
	err := fmt.Errorf("jira report: %w", Auth("jira_api", "invalid token", nil))

	assert.True(t, IsAuth(err))
	assert.False(t, IsTransport(err))

	e := As(err)
	require.NotNil(t, e)
	assert.Equal(t, "jira_api", e.Field)
	assert.Equal(t, "auth: jira_api: invalid token", e.Error())
}

func TestTransport_UnwrapsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Transport("redmine_api", "could not reach provider", cause)

	assert.True(t, IsTransport(err))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestAs_PlainError(t *testing.T) {
	assert.Nil(t, As(errors.New("plain")))
	assert.False(t, IsAuth(nil))
}
