package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateCommand(t *testing.T) {
	t.Run("valid request", func(t *testing.T) {
		out, err := execute(t, "validate", "-d", usersDefinition, "-r", adultsRequest)
		require.NoError(t, err)

		assert.Contains(t, out, "✓ 4 entries valid for users")
		assert.Contains(t, out, "age (interval) = [18, 65]")
		assert.Contains(t, out, "status (include) = [open pending]")
		assert.Contains(t, out, "active (option) = true")
		assert.NotContains(t, out, "name (compare)")
	})

	t.Run("crossed bounds", func(t *testing.T) {
		out, err := execute(t, "validate", "-d", usersDefinition, "-r", crossedRequest)
		require.Error(t, err)
		assert.Equal(t, ExitFailure, GetExitCode(err))
		assert.Contains(t, out, "✗ age:")
	})

	t.Run("json", func(t *testing.T) {
		out, err := execute(t, "validate", "-d", usersDefinition, "-r", crossedRequest, "--format", "json")
		require.Error(t, err)

		var resp CLIResponse
		require.NoError(t, json.Unmarshal([]byte(out), &resp))
		assert.Equal(t, "error", resp.Status)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "age", resp.Error.Field)
	})

	t.Run("request is required", func(t *testing.T) {
		_, err := execute(t, "validate", "-d", usersDefinition)
		require.Error(t, err)
	})

	t.Run("unreadable request", func(t *testing.T) {
		_, err := execute(t, "validate", "-d", usersDefinition, "-r", "testdata/missing.yaml")
		require.Error(t, err)
		assert.Equal(t, ExitCommandError, GetExitCode(err))
	})
}
