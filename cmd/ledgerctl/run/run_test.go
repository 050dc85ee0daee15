package run

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAsOf(t *testing.T) {
	fallback := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	got, err := ParseAsOf("", fallback)
	require.NoError(t, err)
	assert.Equal(t, fallback, got)

	got, err = ParseAsOf("2024-03-10", fallback)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), got)

	_, err = ParseAsOf("10/03/2024", fallback)
	assert.Error(t, err)
}

func TestRunCommand_Subcommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range Cmd.Commands() {
		names[c.Name()] = true
	}
	assert.Equal(t, map[string]bool{"accrue": true, "carryover": true, "dispatch": true}, names)
}
