package vitalchain

import (
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	btcscript "github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"

	"github.com/qinglongcn/vitalchain/opcode"
	"github.com/qinglongcn/vitalchain/txscript"
)

// TestCheckPkScriptStandard 只有 pay-to-taproot 输出可以承载程序
func TestCheckPkScriptStandard(t *testing.T) {
	priv, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	pub := priv.PubKey()

	p2tr, err := btcscript.PayToTaprootScript(pub)
	require.NoError(t, err)

	wpkh, err := btcutil.NewAddressWitnessPubKeyHash(btcutil.Hash160(pub.SerializeCompressed()), &chaincfg.MainNetParams)
	require.NoError(t, err)
	p2wpkh, err := btcscript.PayToAddrScript(wpkh)
	require.NoError(t, err)

	multisig, err := btcscript.NewScriptBuilder().AddOp(btcscript.OP_1).
		AddData(pub.SerializeCompressed()).
		AddOp(btcscript.OP_1).AddOp(btcscript.OP_CHECKMULTISIG).Script()
	require.NoError(t, err)

	tests := []struct {
		name       string
		script     []byte
		isStandard bool
	}{
		{"p2tr", p2tr, true},
		{"p2wpkh", p2wpkh, false},
		{"multisig", multisig, false},
		{"malformed", []byte{btcscript.OP_1, btcscript.OP_DATA_32, 0x01}, false},
		{"empty", nil, false},
	}
	for _, test := range tests {
		err := checkPkScriptStandard(test.script, btcscript.GetScriptClass(test.script))
		if test.isStandard {
			require.NoError(t, err, test.name)
		} else {
			require.ErrorIs(t, err, ErrCommitNotTaproot, test.name)
		}
	}
}

func TestCheckCommit(t *testing.T) {
	r := newRevealer(t)
	rv := r.reveal(opcode.NewBuilder().OutputAssert(0), 1)
	programs, ok := txscript.ExtractPrograms(rv.Tx)
	require.True(t, ok)

	require.NoError(t, checkCommit(rv.Tx, rv.Commit, programs))
	require.ErrorIs(t, checkCommit(rv.Tx, nil, programs), ErrCommitRequired)

	other := r.reveal(opcode.NewBuilder().OutputAssert(0), 1)
	require.ErrorIs(t, checkCommit(rv.Tx, other.Commit, programs), ErrCommitNotSpent)

	// 花费不存在的输出
	tx := rv.Tx.Copy()
	tx.TxIn[0].PreviousOutPoint = wire.OutPoint{Hash: rv.Commit.TxHash(), Index: 5}
	require.ErrorIs(t, checkCommit(tx, rv.Commit, programs), ErrCommitNotSpent)
}

func TestTaprootAddress(t *testing.T) {
	r := newRevealer(t)
	rv := r.reveal(opcode.NewBuilder().OutputAssert(0), 1)

	addr, err := TaprootAddress(rv.Commit.TxOut[0].PkScript, &chaincfg.RegressionNetParams)
	require.NoError(t, err)
	decoded, err := btcutil.DecodeAddress(addr, &chaincfg.RegressionNetParams)
	require.NoError(t, err)
	script, err := btcscript.PayToAddrScript(decoded)
	require.NoError(t, err)
	require.Equal(t, rv.Commit.TxOut[0].PkScript, script)

	_, err = TaprootAddress([]byte{btcscript.OP_1}, &chaincfg.MainNetParams)
	require.ErrorIs(t, err, ErrCommitNotTaproot)
}
