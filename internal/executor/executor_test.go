package executor

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShellExecutor_Success(t *testing.T) {
	e := NewShellExecutor()
	res, err := e.Run(context.Background(), "exit 0", 0)
	require.NoError(t, err)
	assert.True(t, res.Succeeded())
	assert.Equal(t, 0, res.ExitCode)
}

func TestShellExecutor_NonZeroExit(t *testing.T) {
	e := NewShellExecutor()
	res, err := e.Run(context.Background(), "echo oops 1>&2; exit 7", 0)
	require.NoError(t, err)
	assert.False(t, res.Succeeded())
	assert.Equal(t, 7, res.ExitCode)
	assert.Contains(t, res.Stderr, "oops")
	assert.Contains(t, res.Summary(), "exit code 7")
}

func TestShellExecutor_Timeout(t *testing.T) {
	e := NewShellExecutor()
	res, err := e.Run(context.Background(), "sleep 5", 50*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, 124, res.ExitCode)
	assert.Contains(t, res.Stderr, "timed out")
}

func TestTailWriter_CapsLength(t *testing.T) {
	e := NewShellExecutor()
	res, err := e.Run(context.Background(), "yes x | head -c 8192 1>&2; exit 1", 2*time.Second)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(res.Stderr), stderrTailLimit)
	assert.True(t, strings.TrimSpace(res.Stderr) != "")
}
