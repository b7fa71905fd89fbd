package cmd

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/qinglongcn/vitalchain/name"
	"github.com/qinglongcn/vitalchain/opcode"
	"github.com/qinglongcn/vitalchain/resource"
)

func execute(t *testing.T, args ...string) (string, error) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	err := rootCmd.Execute()
	return out.String(), err
}

func TestDecode(t *testing.T) {
	program, err := opcode.NewBuilder().
		OutputAssert(5).
		Mint(5, resource.NewVRC20(name.MustName("abc"), uint256.NewInt(7))).
		Program()
	require.NoError(t, err)

	out, err := execute(t, "decode", hex.EncodeToString(program))
	require.NoError(t, err)
	require.Contains(t, out, "0\tOUTPUT_ASSERT [5]\n")
	require.Contains(t, out, "1\tMINT 5 vrc20(abc:7)\n")
}

func TestDecodeInvalid(t *testing.T) {
	_, err := execute(t, "decode", "zz")
	require.Error(t, err)

	out, err := execute(t, "decode", "ff")
	require.ErrorIs(t, err, opcode.ErrTruncated)
	require.Contains(t, out, "error at 0")
}
