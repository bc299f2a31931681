package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/shuvo-dotcom/nfgcalc/internal/cli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_Help(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}
	err := run(context.Background(), out, &bytes.Buffer{}, []string{"--help"})

	require.NoError(t, err)
	assert.Contains(t, out.String(), "Usage:")
	assert.Contains(t, out.String(), "query")
}

func TestRun_UnknownCommand(t *testing.T) {
	t.Parallel()

	err := run(context.Background(), &bytes.Buffer{}, &bytes.Buffer{}, []string{"frobnicate"})

	var exitErr *cli.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.Code)
}

func TestRun_PanicRecovery(t *testing.T) {
	t.Parallel()

	err := func() (err error) {
		defer recoverPanic(&err)
		panic("registry holder is nil")
	}()

	var exitErr *cli.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.Code)
	assert.Equal(t, "application panicked: registry holder is nil", exitErr.Message)
}
