package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/cqlboot/types"
)

func TestVersionCommand(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})

	require.NoError(t, root.Execute())
	assert.Equal(t, "cqlboot dev\n", out.String())
}

func TestCheckRejectsInvalidSettings(t *testing.T) {
	t.Setenv("CASSANDRA_KEYSPACE", "")

	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"check", "--username=appuser", "--password=apppass"})

	err := root.Execute()
	require.ErrorIs(t, err, types.ErrInvalidTarget)
}

func TestCheckRejectsUnknownDriver(t *testing.T) {
	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"check", "--keyspace=chatapp", "--username=appuser", "--password=apppass", "--driver=v9"})

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown driver")
}
