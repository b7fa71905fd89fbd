// 包含见证栈的基本处理函数。

package txscript

import (
	"github.com/btcsuite/btcd/wire"

	"github.com/qinglongcn/vitalchain/fault"
)

const (
	// TaprootAnnexTag 是附件的标签。 该值用于在 Tapscript 支出期间识别附件。
	// 如果主根见证堆栈中至少有两个元素，并且最后一个元素的第一个字节与此标记匹配，那么我们会将其提取为不同的项目。
	TaprootAnnexTag = 0x50

	// TaprootLeafMask 是应用于控制块的掩码，用于提取叶子版本和输出密钥 y 坐标的奇偶校验。
	TaprootLeafMask = 0xfe
)

var (
	ErrWitnessHasNoAnnex = fault.FormatError("witness has no annex")
	ErrKeyPathSpend      = fault.FormatError("witness is a key path spend")
	ErrEmptyWitness      = fault.FormatError("witness is empty")
)

// isAnnexedWitness 如果传递的见证有最后一个推送，则返回 true 的元素，即附件。
func isAnnexedWitness(witness wire.TxWitness) bool {
	if len(witness) < 2 {
		return false
	}

	lastElement := witness[len(witness)-1]
	return len(lastElement) > 0 && lastElement[0] == TaprootAnnexTag
}

// extractAnnex 试图从传递的见证中提取附件。如果没有附件则返回错误信息。
func extractAnnex(witness wire.TxWitness) ([]byte, error) {
	if !isAnnexedWitness(witness) {
		return nil, ErrWitnessHasNoAnnex
	}

	lastElement := witness[len(witness)-1]
	return lastElement, nil
}

// stripAnnex 返回去掉附件之后的见证栈
func stripAnnex(witness wire.TxWitness) wire.TxWitness {
	if isAnnexedWitness(witness) {
		return witness[:len(witness)-1]
	}
	return witness
}

// TapscriptFromWitness 返回脚本路径花费中被揭示的 tapscript 及其控制块。
// 密钥路径花费或控制块格式错误时返回错误。
func TapscriptFromWitness(witness wire.TxWitness) ([]byte, *ControlBlock, error) {
	if len(witness) == 0 {
		return nil, nil, ErrEmptyWitness
	}

	stack := stripAnnex(witness)
	if len(stack) < 2 {
		return nil, nil, ErrKeyPathSpend
	}

	ctrlBlock, err := ParseControlBlock(stack[len(stack)-1])
	if err != nil {
		return nil, nil, err
	}

	return stack[len(stack)-2], ctrlBlock, nil
}
