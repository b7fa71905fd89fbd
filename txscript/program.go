package txscript

import (
	"github.com/btcsuite/btcd/wire"

	"github.com/qinglongcn/vitalchain/fault"
)

// MaxIndexedEntries 输入或输出数量的上限，程序中的下标只有一个字节
const MaxIndexedEntries = 255

var (
	ErrEnvelopeKeySize = fault.InvalidError("envelope public key must be 32 bytes")
	ErrPayloadTooLarge = fault.InvalidError("envelope payload exceeds 255 bytes")
)

// Program 某个输入携带的程序
type Program struct {
	Input   uint8
	Payload []byte
}

// ExtractPrograms 按输入顺序提取交易中的程序。
// 第二个返回值表示交易是否为候选：输入与输出数量都不超过 255，且至少有一个非空程序。
func ExtractPrograms(tx *wire.MsgTx) ([]Program, bool) {
	if len(tx.TxIn) > MaxIndexedEntries || len(tx.TxOut) > MaxIndexedEntries {
		return nil, false
	}

	var (
		programs  []Program
		candidate bool
	)
	for i, in := range tx.TxIn {
		tapscript, _, err := TapscriptFromWitness(in.Witness)
		if err != nil {
			continue
		}
		payload, ok := Extract(tapscript)
		if !ok {
			continue
		}
		if len(payload) > 0 {
			candidate = true
		}
		programs = append(programs, Program{Input: uint8(i), Payload: payload})
	}
	if !candidate {
		return nil, false
	}
	return programs, true
}
