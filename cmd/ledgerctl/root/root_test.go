package root_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sjperalta/debt-ledger/cmd/ledgerctl/root"
	"github.com/sjperalta/debt-ledger/internal/config"
)

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "ledgerctl", root.Cmd.Use)
	assert.Contains(t, root.Cmd.Short, "debt ledger")
	assert.NotNil(t, root.Cmd.PersistentPreRunE)
	assert.True(t, root.Cmd.SilenceUsage)
}

func TestRootCommand_DatabaseURLFlag(t *testing.T) {
	flag := root.Cmd.PersistentFlags().Lookup("database-url")
	require.NotNil(t, flag)
	assert.Equal(t, "", flag.DefValue)
}

func TestRequireDatabaseURL(t *testing.T) {
	prev := root.Cfg
	t.Cleanup(func() { root.Cfg = prev })

	root.Cfg = &config.Config{}
	_, err := root.RequireDatabaseURL()
	assert.Error(t, err)

	root.Cfg = &config.Config{DatabaseURL: "postgres://localhost/ledger"}
	url, err := root.RequireDatabaseURL()
	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost/ledger", url)
}
