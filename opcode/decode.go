package opcode

import (
	"math/bits"
	"sort"

	"github.com/qinglongcn/vitalchain/name"
	"github.com/qinglongcn/vitalchain/resource"
)

// 每个解码函数只接受编码器会为该指令选择的形式，保证指令与字节序列一一对应。

func decodeOutputSingle(op *opcode, p *Packer) (Instruction, error) {
	var v outputSingle
	if err := unpackBasic(p, op.size, &v); err != nil {
		return nil, err
	}
	return OutputAssert{Indices: []uint8{v.Index}}, nil
}

func decodeOutputMask16(op *opcode, p *Packer) (Instruction, error) {
	var v outputMask16
	if err := unpackBasic(p, op.size, &v); err != nil {
		return nil, err
	}
	if bits.OnesCount16(v.Mask) < 2 {
		return nil, ErrNonCanonical
	}
	return OutputAssert{Indices: maskIndices(uint32(v.Mask))}, nil
}

func decodeOutputMask32(op *opcode, p *Packer) (Instruction, error) {
	var v outputMask32
	if err := unpackBasic(p, op.size, &v); err != nil {
		return nil, err
	}
	if bits.OnesCount32(v.Mask) < 2 || v.Mask>>16 == 0 {
		return nil, ErrNonCanonical
	}
	return OutputAssert{Indices: maskIndices(v.Mask)}, nil
}

// maskIndices 按升序列出置位的下标
func maskIndices(mask uint32) []uint8 {
	out := make([]uint8, 0, bits.OnesCount32(mask))
	for i := uint8(0); i < 32; i++ {
		if mask&(1<<i) != 0 {
			out = append(out, i)
		}
	}
	return out
}

func decodeAssertVRC20[A amountWord, T tagWord](op *opcode, p *Packer) (Instruction, error) {
	var v assertVRC20[A, T]
	if err := unpackBasic(p, op.size, &v); err != nil {
		return nil, err
	}
	tag, ok := fromTag(v.Tag)
	if !ok {
		return nil, resource.ErrInvalidTag
	}
	amount := fromWord(v.Amount)
	if amount.IsZero() {
		return nil, resource.ErrZeroAmount
	}
	// 宽度必须最小，且能用短代号时必须用短代号
	tagSize := name.NameSize
	if isShortTag[T]() {
		tagSize = name.ShortNameSize
	}
	if amountSizes[amountWidth(&amount)] != op.size-tagSize-1 {
		return nil, ErrNonCanonical
	}
	if !isShortTag[T]() && tag.FitsShort() {
		return nil, ErrNonCanonical
	}
	return InputAssert{Index: v.Index, Resource: resource.NewVRC20(tag, &amount)}, nil
}

func decodeAssertItem(op *opcode, p *Packer) (Instruction, error) {
	var v assertItem
	if err := unpackBasic(p, op.size, &v); err != nil {
		return nil, err
	}
	tag, ok := fromTag(v.Tag)
	if !ok {
		return nil, resource.ErrInvalidTag
	}
	return InputAssert{Index: v.Index, Resource: resource.NewVRC721(tag, v.Hash)}, nil
}

func decodeMoveShort(op *opcode, p *Packer) (Instruction, error) {
	var v moveShort
	if err := unpackBasic(p, op.size, &v); err != nil {
		return nil, err
	}
	tag, ok := fromTag(v.Tag)
	if !ok {
		return nil, resource.ErrInvalidTag
	}
	if v.Amount == 0 {
		return nil, resource.ErrZeroAmount
	}
	amount := fromWord(v.Amount)
	return Move{Output: v.Output, Resource: resource.NewVRC20(tag, &amount)}, nil
}

func decodeMove(op *opcode, p *Packer) (Instruction, error) {
	var v move
	if err := unpackBasic(p, op.size, &v); err != nil {
		return nil, err
	}
	tag, ok := fromTag(v.Tag)
	if !ok {
		return nil, resource.ErrInvalidTag
	}
	amount := fromWord(v.Amount)
	if amount.IsZero() {
		return nil, resource.ErrZeroAmount
	}
	if tag.FitsShort() && amount.IsUint64() {
		return nil, ErrNonCanonical
	}
	return Move{Output: v.Output, Resource: resource.NewVRC20(tag, &amount)}, nil
}

func decodeMoveAllShort(op *opcode, p *Packer) (Instruction, error) {
	var v moveAllShort
	if err := unpackBasic(p, op.size, &v); err != nil {
		return nil, err
	}
	tag, ok := fromTag(v.Tag)
	if !ok {
		return nil, resource.ErrInvalidTag
	}
	return MoveAll{Output: v.Output, Type: resource.ResourceType{Class: resource.ClassVRC20, Tag: tag}}, nil
}

func decodeMoveAll(op *opcode, p *Packer) (Instruction, error) {
	var v moveAll
	if err := unpackBasic(p, op.size, &v); err != nil {
		return nil, err
	}
	class := resource.Class(v.Class)
	if !class.Valid() {
		return nil, resource.ErrUnknownClass
	}
	tag, ok := fromTag(v.Tag)
	if !ok {
		return nil, resource.ErrInvalidTag
	}
	if class == resource.ClassVRC20 && tag.FitsShort() {
		return nil, ErrNonCanonical
	}
	return MoveAll{Output: v.Output, Type: resource.ResourceType{Class: class, Tag: tag}}, nil
}

// unpackValidResource 读取资源并校验类别约束
func unpackValidResource(p *Packer) (resource.Resource, error) {
	r := p.UnpackResource()
	if err := p.Err(); err != nil {
		return resource.Resource{}, err
	}
	if err := r.Validate(); err != nil {
		return resource.Resource{}, err
	}
	return r, nil
}

func decodeInputAssertExt(_ *opcode, p *Packer) (Instruction, error) {
	index := p.UnpackByte()
	r, err := unpackValidResource(p)
	if err != nil {
		return nil, err
	}
	if r.Class != resource.ClassName {
		return nil, ErrNonCanonical
	}
	return InputAssert{Index: index, Resource: r}, nil
}

func decodeMintName[T tagWord](op *opcode, p *Packer) (Instruction, error) {
	var v mintName[T]
	if err := unpackBasic(p, op.size, &v); err != nil {
		return nil, err
	}
	tag, ok := fromTag(v.Tag)
	if !ok {
		return nil, resource.ErrInvalidTag
	}
	if !isShortTag[T]() && tag.FitsShort() {
		return nil, ErrNonCanonical
	}
	return Mint{Output: v.Output, Resource: resource.NewName(tag)}, nil
}

func decodeMint(_ *opcode, p *Packer) (Instruction, error) {
	output := p.UnpackByte()
	r, err := unpackValidResource(p)
	if err != nil {
		return nil, err
	}
	// 名称使用基础操作码
	if r.Class == resource.ClassName {
		return nil, ErrNonCanonical
	}
	return Mint{Output: output, Resource: r}, nil
}

func decodeMoveExt(_ *opcode, p *Packer) (Instruction, error) {
	output := p.UnpackByte()
	r, err := unpackValidResource(p)
	if err != nil {
		return nil, err
	}
	if r.Class == resource.ClassVRC20 {
		return nil, ErrNonCanonical
	}
	return Move{Output: output, Resource: r}, nil
}

func decodeBurn(_ *opcode, p *Packer) (Instruction, error) {
	r, err := unpackValidResource(p)
	if err != nil {
		return nil, err
	}
	return Burn{Resource: r}, nil
}

func decodeDeploy(_ *opcode, p *Packer) (Instruction, error) {
	input := p.UnpackByte()
	raw := p.UnpackFixedBytes(name.NameSize)
	policy := p.UnpackPolicy()
	if err := p.Err(); err != nil {
		return nil, err
	}
	var tag name.Name
	copy(tag[:], raw)
	if tag.Len() == 0 || !tag.Valid() {
		return nil, resource.ErrInvalidTag
	}
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	return Deploy{NameInput: input, Tag: tag, Policy: policy}, nil
}

// sortedIndices 返回去重校验后的升序下标
func sortedIndices(in []uint8) ([]uint8, error) {
	if len(in) == 0 {
		return nil, ErrEmptyIndexSet
	}
	out := append([]uint8(nil), in...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	for i := 1; i < len(out); i++ {
		if out[i] == out[i-1] {
			return nil, ErrDuplicateIndex
		}
	}
	return out, nil
}
