// 打印

package vitalchain

import (
	"encoding/hex"
	"fmt"
	"io"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	btcscript "github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/davecgh/go-spew/spew"

	"github.com/qinglongcn/vitalchain/fault"
	"github.com/qinglongcn/vitalchain/opcode"
	"github.com/qinglongcn/vitalchain/txscript"
)

// PrintTx 打印交易的输出与其携带的程序反汇编
func PrintTx(w io.Writer, tx *wire.MsgTx, params *chaincfg.Params) {
	fmt.Fprintf(w, "Hash:\t\t%s\n", tx.TxHash())
	fmt.Fprintf(w, "Inputs:\t\t%d\n", len(tx.TxIn))
	for i, out := range tx.TxOut {
		fmt.Fprintf(w, "\tOutput[%d]\t%s\t%s\n", i, btcutil.Amount(out.Value), outputAddress(out.PkScript, params))
	}

	programs, ok := txscript.ExtractPrograms(tx)
	if !ok {
		fmt.Fprintln(w, "Programs:\tnone")
		return
	}
	for _, p := range programs {
		fmt.Fprintf(w, "\tInput[%d]\t%s\n", p.Input, hex.EncodeToString(p.Payload))
		fmt.Fprintf(w, "\t\t\t%s\n", opcode.Disasm(p.Payload))
	}
}

// outputAddress 可识别的脚本显示为地址，否则显示反汇编
func outputAddress(pkScript []byte, params *chaincfg.Params) string {
	_, addrs, _, err := btcscript.ExtractPkScriptAddrs(pkScript, params)
	if err == nil && len(addrs) == 1 {
		return addrs[0].EncodeAddress()
	}
	disasm, err := btcscript.DisasmString(pkScript)
	if err != nil {
		return hex.EncodeToString(pkScript)
	}
	return disasm
}

// PrintStatuses 打印区块中每笔候选交易的执行结果，verbose 时附带提交的批次
func PrintStatuses(w io.Writer, statuses []TxStatus, verbose bool) {
	for _, st := range statuses {
		if st.Ok {
			fmt.Fprintf(w, "%s\tok\t%d instructions\n", st.Hash, st.Instructions)
		} else {
			fmt.Fprintf(w, "%s\t%s\t%v\n", st.Hash, fault.Class(st.Err), st.Err)
		}
		if verbose && st.Batch != nil {
			fmt.Fprint(w, spew.Sdump(st.Batch))
		}
	}
}

// TaprootAddress 返回输出密钥对应的 P2TR 地址
func TaprootAddress(pkScript []byte, params *chaincfg.Params) (string, error) {
	if btcscript.GetScriptClass(pkScript) != btcscript.WitnessV1TaprootTy {
		return "", ErrCommitNotTaproot
	}
	addr, err := btcutil.NewAddressTaproot(pkScript[2:], params)
	if err != nil {
		return "", err
	}
	return addr.EncodeAddress(), nil
}
