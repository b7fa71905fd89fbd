// 包含处理 Taproot 控制块以及构造提交/揭示脚本的代码。

package txscript

import (
	"bytes"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	btcscript "github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"github.com/qinglongcn/vitalchain/fault"
)

// TapscriptLeafVersion 表示 tapscript leaf 版本。叶子版本用于在基本的 taproot 执行模型下定义或引入新的脚本语义。
type TapscriptLeafVersion uint8

const (
	// BaseLeafVersion 是基本的 tapscript leaf 版本。该版本的语义已在 BIP 342 中定义。
	BaseLeafVersion TapscriptLeafVersion = 0xc0
)

const (
	// ControlBlockBaseSize 是控制块的基本尺寸。它包括叶子版本的初始字节和序列化的 schnorr 公钥。
	ControlBlockBaseSize = 33

	// ControlBlockNodeSize 是控制块中给定梅克尔分支哈希值的大小。
	ControlBlockNodeSize = 32

	// ControlBlockMaxNodeCount 是控制块中可包含的最大节点数。该值表示一棵深度为 128 的梅克尔树。
	ControlBlockMaxNodeCount = 128

	// ControlBlockMaxSize 是控制块的最大可能大小。
	ControlBlockMaxSize = ControlBlockBaseSize + (ControlBlockNodeSize *
		ControlBlockMaxNodeCount)
)

var (
	ErrControlBlockTooSmall      = fault.FormatError("control block too small")
	ErrControlBlockTooLarge      = fault.FormatError("control block too large")
	ErrControlBlockInvalidLength = fault.FormatError("control block proof is not a multiple of 32")
	ErrControlBlockBadKey        = fault.FormatError("control block internal key is invalid")
)

// ControlBlock 控制块（ControlBlock）包含用于分根花费的结构化见证输入。
// 其中包括内部分根密钥、叶子版本，最后是主分根承诺的梅克尔包含证明。
type ControlBlock struct {
	// InternalKey 分根承诺中的内部公钥
	InternalKey *btcec.PublicKey

	// OutputKeyYIsOdd 输出密钥的 y 坐标是否为奇数
	OutputKeyYIsOdd bool

	// LeafVersion 被揭示的 tapscript 叶子的版本
	LeafVersion TapscriptLeafVersion

	// InclusionProof 从被揭示脚本开始两两哈希，得到分根承诺根的梅克尔分支
	InclusionProof []byte
}

// ToBytes 返回适合放入见证栈的控制块编码。
func (c *ControlBlock) ToBytes() ([]byte, error) {
	var b bytes.Buffer

	yParity := byte(0)
	if c.OutputKeyYIsOdd {
		yParity = 1
	}

	// 第一个字节由叶子版本与 y 坐标奇偶位组合而成
	if err := b.WriteByte(byte(c.LeafVersion) | yParity); err != nil {
		return nil, err
	}

	if _, err := b.Write(schnorr.SerializePubKey(c.InternalKey)); err != nil {
		return nil, err
	}

	if _, err := b.Write(c.InclusionProof); err != nil {
		return nil, err
	}

	return b.Bytes(), nil
}

// ParseControlBlock 试图解析控制块的原始字节。如果控制块不完整或无法解析，将返回错误信息。
func ParseControlBlock(ctrlBlock []byte) (*ControlBlock, error) {
	switch {
	case len(ctrlBlock) < ControlBlockBaseSize:
		return nil, fmt.Errorf("%w: min size is %v bytes, control block is %v bytes",
			ErrControlBlockTooSmall, ControlBlockBaseSize, len(ctrlBlock))

	case len(ctrlBlock) > ControlBlockMaxSize:
		return nil, fmt.Errorf("%w: max size is %v, control block is %v bytes",
			ErrControlBlockTooLarge, ControlBlockMaxSize, len(ctrlBlock))

	case (len(ctrlBlock)-ControlBlockBaseSize)%ControlBlockNodeSize != 0:
		return nil, fmt.Errorf("%w: %v", ErrControlBlockInvalidLength,
			len(ctrlBlock)-ControlBlockBaseSize)
	}

	leafVersion := TapscriptLeafVersion(ctrlBlock[0] & TaprootLeafMask)
	yIsOdd := ctrlBlock[0]&0x01 == 0x01

	pubKey, err := schnorr.ParsePubKey(ctrlBlock[1:ControlBlockBaseSize])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrControlBlockBadKey, err)
	}

	return &ControlBlock{
		InternalKey:     pubKey,
		OutputKeyYIsOdd: yIsOdd,
		LeafVersion:     leafVersion,
		InclusionProof:  ctrlBlock[ControlBlockBaseSize:],
	}, nil
}

// Commitment 单叶子 taproot 承诺：提交交易的输出脚本，以及揭示交易需要的控制块
type Commitment struct {
	PkScript     []byte
	ControlBlock []byte
}

// CommitTapscript 将 tapscript 作为唯一叶子提交到 internalKey 下。
func CommitTapscript(internalKey *btcec.PublicKey, tapscript []byte) (*Commitment, error) {
	leaf := btcscript.NewBaseTapLeaf(tapscript)
	tree := btcscript.AssembleTaprootScriptTree(leaf)

	rootHash := tree.RootNode.TapHash()
	outputKey := btcscript.ComputeTaprootOutputKey(internalKey, rootHash[:])
	pkScript, err := btcscript.PayToTaprootScript(outputKey)
	if err != nil {
		return nil, err
	}

	ctrl := tree.LeafMerkleProofs[0].ToControlBlock(internalKey)
	ctrlBytes, err := ctrl.ToBytes()
	if err != nil {
		return nil, err
	}

	return &Commitment{PkScript: pkScript, ControlBlock: ctrlBytes}, nil
}

// RevealWitness 组装脚本路径花费的见证：签名、tapscript、控制块
func (c *Commitment) RevealWitness(sig []byte, tapscript []byte) wire.TxWitness {
	return wire.TxWitness{sig, tapscript, c.ControlBlock}
}
