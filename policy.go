package vitalchain

import (
	"fmt"

	btcscript "github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"github.com/qinglongcn/vitalchain/fault"
	"github.com/qinglongcn/vitalchain/txscript"
)

var (
	ErrCommitRequired   = fault.InvalidError("commit transaction required")
	ErrCommitNotSpent   = fault.InvalidError("program input does not spend the commit transaction")
	ErrCommitNotTaproot = fault.InvalidError("commit output is not pay-to-taproot")
)

// checkPkScriptStandard 承诺输出必须是可识别的 pay-to-taproot 脚本
func checkPkScriptStandard(pkScript []byte, scriptClass btcscript.ScriptClass) error {
	switch scriptClass {
	case btcscript.WitnessV1TaprootTy:
		return nil
	case btcscript.NonStandardTy:
		return fmt.Errorf("non-standard script form: %w", ErrCommitNotTaproot)
	}
	return fmt.Errorf("%s script: %w", scriptClass, ErrCommitNotTaproot)
}

// checkCommit 每个携带程序的输入都必须花费承诺交易中的 P2TR 输出
func checkCommit(reveal, commit *wire.MsgTx, programs []txscript.Program) error {
	if commit == nil {
		return ErrCommitRequired
	}
	commitHash := commit.TxHash()
	for _, p := range programs {
		prev := reveal.TxIn[p.Input].PreviousOutPoint
		if prev.Hash != commitHash || int(prev.Index) >= len(commit.TxOut) {
			return fmt.Errorf("input %d: %w", p.Input, ErrCommitNotSpent)
		}
		pkScript := commit.TxOut[prev.Index].PkScript
		if err := checkPkScriptStandard(pkScript, btcscript.GetScriptClass(pkScript)); err != nil {
			return fmt.Errorf("input %d: %w", p.Input, err)
		}
	}
	return nil
}
