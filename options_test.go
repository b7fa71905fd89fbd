package vitalchain

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/qinglongcn/vitalchain/txscript"
)

func TestLoadOptions(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/etc/vitalchain.yaml", []byte(`
instance_id: node1
network: regtest
max_instructions: 16
require_commit: true
`), 0644))

	opt, err := LoadOptions(fs, "/etc/vitalchain.yaml")
	require.NoError(t, err)
	require.Equal(t, "node1", opt.InstanceId)
	require.Equal(t, "regtest", opt.Network)
	require.Equal(t, 16, opt.MaxInstructions)
	require.True(t, opt.RequireCommit)
	// 未出现的字段保持默认值
	require.Equal(t, txscript.MaxPayloadSize, opt.MaxProgramSize)
	require.True(t, opt.IndexEnabled)
	require.NoError(t, opt.CheckAndSetOptions())
	require.Equal(t, "regtest", opt.ChainParams().Name)

	_, err = LoadOptions(fs, "/missing.yaml")
	require.Error(t, err)

	require.NoError(t, afero.WriteFile(fs, "/newer.yaml", []byte("version: 99.0.0\n"), 0644))
	_, err = LoadOptions(fs, "/newer.yaml")
	require.ErrorIs(t, err, ErrNewerOptions)
}

func TestSaveOptions(t *testing.T) {
	fs := afero.NewMemMapFs()
	opt := DefaultOptions()
	opt.BuildInstanceId("abc123")
	require.NoError(t, opt.BuildRootPath(fs, "/data/vital"))
	require.NoError(t, opt.BuildNetwork("testnet3"))
	require.NoError(t, opt.BuildLogLevel("debug"))

	require.NoError(t, SaveOptions(fs, opt.OptionsPath(), opt))
	loaded, err := LoadOptions(fs, "/data/vital/vitalchain.yaml")
	require.NoError(t, err)
	require.Equal(t, opt, loaded)
	require.Equal(t, "/data/vital/db/ledger_abc123", loaded.LedgerPath())
	require.Equal(t, "/data/vital/logs", loaded.LogsPath())
}

func TestOptionsValidation(t *testing.T) {
	fs := afero.NewMemMapFs()
	opt := DefaultOptions()

	require.ErrorIs(t, opt.BuildRootPath(fs, "relative/path"), ErrRelativeRootPath)
	require.ErrorIs(t, opt.BuildNetwork("moonnet"), ErrUnknownNetwork)
	require.Error(t, opt.BuildLogLevel("loud"))

	opt.MaxProgramSize = 4096
	opt.DecodeWorkers = 0
	require.NoError(t, opt.CheckAndSetOptions())
	require.Equal(t, txscript.MaxPayloadSize, opt.MaxProgramSize)
	require.Equal(t, 1, opt.DecodeWorkers)

	opt.MaxInstructions = 0
	require.ErrorIs(t, opt.CheckAndSetOptions(), ErrProgramLimits)

	opened := DefaultOptions()
	opened.IsOpened = true
	require.ErrorIs(t, opened.CheckAndSetOptions(), ErrInstanceOpened)
	opened.BuildInstanceId("ignored")
	require.Empty(t, opened.InstanceId)
}

func TestBuildInstanceIdFallback(t *testing.T) {
	opt := DefaultOptions()
	opt.BuildInstanceId()
	require.NotEmpty(t, opt.InstanceId)
	require.NotContains(t, opt.InstanceId, ":")
}

func TestCompareVersions(t *testing.T) {
	tests := []struct {
		v1, v2 string
		want   int
	}{
		{"1.0.1", "1.2.0", -1},
		{"1.2.0", "1.0.1", 1},
		{"0.1.0", "0.1", 0},
		{"v0.2.0", "0.1.9", 1},
		{"bad", "1.0.0", 0},
	}
	for _, test := range tests {
		require.Equal(t, test.want, CompareVersions(test.v1, test.v2), "%s vs %s", test.v1, test.v2)
	}
}
