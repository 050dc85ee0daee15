package migrate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateCommand_Subcommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range Cmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["up"])
	assert.True(t, names["down"])
	assert.True(t, names["version"])
}

func TestDownCommand_RejectsZeroSteps(t *testing.T) {
	prev := steps
	t.Cleanup(func() { steps = prev })

	steps = 0
	err := downCmd.RunE(downCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--steps")
}

func TestDownCommand_DefaultsToOneStep(t *testing.T) {
	flag := downCmd.Flags().Lookup("steps")
	require.NotNil(t, flag)
	assert.Equal(t, "1", flag.DefValue)
}
