package opcode

import (
	"github.com/holiman/uint256"

	"github.com/qinglongcn/vitalchain/name"
	"github.com/qinglongcn/vitalchain/resource"
)

// 基础操作码按宽度下标排列
var (
	assertShortOps = [...]ID{OpInputAssertShort32, OpInputAssertShort64, OpInputAssertShort128, OpInputAssertShort256}
	assertOps      = [...]ID{OpInputAssert32, OpInputAssert64, OpInputAssert128, OpInputAssert256}
)

// Encode 将单条指令编码为字节，总是选择最短的形式
func Encode(ins Instruction) ([]byte, error) {
	p := NewWriter(64)
	if err := encodeTo(p, ins); err != nil {
		return nil, err
	}
	return p.Bytes(), nil
}

// EncodeProgram 依次编码多条指令
func EncodeProgram(program []Instruction) ([]byte, error) {
	p := NewWriter(64 * len(program))
	for _, ins := range program {
		if err := encodeTo(p, ins); err != nil {
			return nil, err
		}
	}
	return p.Bytes(), nil
}

func encodeTo(p *Packer, ins Instruction) error {
	switch ins := ins.(type) {
	case InputAssert:
		return encodeInputAssert(p, ins)
	case OutputAssert:
		return encodeOutputAssert(p, ins)
	case Mint:
		if err := ins.Resource.Validate(); err != nil {
			return err
		}
		if ins.Resource.Class == resource.ClassName {
			return encodeMintName(p, ins)
		}
		p.PackID(OpMint)
		p.PackByte(ins.Output)
		p.PackResource(ins.Resource)
		return nil
	case Move:
		return encodeMove(p, ins)
	case MoveAll:
		return encodeMoveAll(p, ins)
	case Burn:
		if err := ins.Resource.Validate(); err != nil {
			return err
		}
		p.PackID(OpBurn)
		p.PackResource(ins.Resource)
		return nil
	case Deploy:
		if ins.Tag.Len() == 0 || !ins.Tag.Valid() {
			return resource.ErrInvalidTag
		}
		if err := ins.Policy.Validate(); err != nil {
			return err
		}
		p.PackID(OpDeploy)
		p.PackByte(ins.NameInput)
		p.PackFixedBytes(ins.Tag[:])
		p.PackPolicy(ins.Policy)
		return nil
	}
	return ErrUnknownInstruction
}

func encodeInputAssert(p *Packer, ins InputAssert) error {
	r := ins.Resource
	if err := r.Validate(); err != nil {
		return err
	}
	switch r.Class {
	case resource.ClassVRC20:
		w := amountWidth(&r.Amount)
		if r.Tag.FitsShort() {
			return packAssertVRC20(p, assertShortOps[w], w, true, r.Tag, &r.Amount, ins.Index)
		}
		return packAssertVRC20(p, assertOps[w], w, false, r.Tag, &r.Amount, ins.Index)
	case resource.ClassVRC721:
		return packBasic(p, OpInputAssertItem, assertItem{Hash: r.Hash, Tag: r.Tag, Index: ins.Index})
	}
	p.PackID(OpInputAssertExt)
	p.PackByte(ins.Index)
	p.PackResource(r)
	return nil
}

func packAssertVRC20(p *Packer, id ID, width int, short bool, tag name.Name, amount *uint256.Int, index uint8) error {
	if short {
		switch width {
		case 0:
			return packBasic(p, id, newAssert[uint32, [4]byte](tag, amount, index))
		case 1:
			return packBasic(p, id, newAssert[uint64, [4]byte](tag, amount, index))
		case 2:
			return packBasic(p, id, newAssert[[16]byte, [4]byte](tag, amount, index))
		}
		return packBasic(p, id, newAssert[[32]byte, [4]byte](tag, amount, index))
	}
	switch width {
	case 0:
		return packBasic(p, id, newAssert[uint32, [8]byte](tag, amount, index))
	case 1:
		return packBasic(p, id, newAssert[uint64, [8]byte](tag, amount, index))
	case 2:
		return packBasic(p, id, newAssert[[16]byte, [8]byte](tag, amount, index))
	}
	return packBasic(p, id, newAssert[[32]byte, [8]byte](tag, amount, index))
}

func newAssert[A amountWord, T tagWord](tag name.Name, amount *uint256.Int, index uint8) assertVRC20[A, T] {
	return assertVRC20[A, T]{Amount: toWord[A](amount), Tag: toTag[T](tag), Index: index}
}

func encodeOutputAssert(p *Packer, ins OutputAssert) error {
	indices, err := sortedIndices(ins.Indices)
	if err != nil {
		return err
	}
	if len(indices) == 1 {
		return packBasic(p, OpOutputAssertSingle, outputSingle{Index: indices[0]})
	}
	max := indices[len(indices)-1]
	if max >= 32 {
		return ErrIndexSetTooLarge
	}
	var mask uint32
	for _, i := range indices {
		mask |= 1 << i
	}
	if max < 16 {
		return packBasic(p, OpOutputAssertMask16, outputMask16{Mask: uint16(mask)})
	}
	return packBasic(p, OpOutputAssertMask32, outputMask32{Mask: mask})
}

func encodeMintName(p *Packer, ins Mint) error {
	tag := ins.Resource.Tag
	if tag.FitsShort() {
		return packBasic(p, OpMintShortName, mintName[[4]byte]{Tag: toTag[[4]byte](tag), Output: ins.Output})
	}
	return packBasic(p, OpMintName, mintName[[8]byte]{Tag: tag, Output: ins.Output})
}

func encodeMove(p *Packer, ins Move) error {
	r := ins.Resource
	if err := r.Validate(); err != nil {
		return err
	}
	if r.Class != resource.ClassVRC20 {
		p.PackID(OpMoveExt)
		p.PackByte(ins.Output)
		p.PackResource(r)
		return nil
	}
	if r.Tag.FitsShort() && r.Amount.IsUint64() {
		return packBasic(p, OpMoveShort, moveShort{
			Amount: r.Amount.Uint64(),
			Tag:    toTag[[4]byte](r.Tag),
			Output: ins.Output,
		})
	}
	return packBasic(p, OpMove, move{
		Amount: toWord[[32]byte](&r.Amount),
		Tag:    r.Tag,
		Output: ins.Output,
	})
}

func encodeMoveAll(p *Packer, ins MoveAll) error {
	t := ins.Type
	if !t.Class.Valid() {
		return resource.ErrUnknownClass
	}
	if t.Tag.Len() == 0 || !t.Tag.Valid() {
		return resource.ErrInvalidTag
	}
	if t.Class == resource.ClassVRC20 && t.Tag.FitsShort() {
		return packBasic(p, OpMoveAllShort, moveAllShort{Tag: toTag[[4]byte](t.Tag), Output: ins.Output})
	}
	return packBasic(p, OpMoveAll, moveAll{Class: uint8(t.Class), Tag: t.Tag, Output: ins.Output})
}

// Builder 逐条追加指令构造程序，第一个错误之后的调用都被忽略
type Builder struct {
	p     *Packer
	count int
	err   error
}

// NewBuilder 创建程序构造器
func NewBuilder() *Builder {
	return &Builder{p: NewWriter(128)}
}

// Add 追加任意指令
func (b *Builder) Add(ins Instruction) *Builder {
	if b.err != nil {
		return b
	}
	if err := encodeTo(b.p, ins); err != nil {
		b.err = err
		return b
	}
	b.count++
	return b
}

func (b *Builder) InputAssert(index uint8, r resource.Resource) *Builder {
	return b.Add(InputAssert{Index: index, Resource: r})
}

func (b *Builder) OutputAssert(indices ...uint8) *Builder {
	return b.Add(OutputAssert{Indices: indices})
}

func (b *Builder) Mint(output uint8, r resource.Resource) *Builder {
	return b.Add(Mint{Output: output, Resource: r})
}

func (b *Builder) Move(output uint8, r resource.Resource) *Builder {
	return b.Add(Move{Output: output, Resource: r})
}

func (b *Builder) MoveAll(output uint8, t resource.ResourceType) *Builder {
	return b.Add(MoveAll{Output: output, Type: t})
}

func (b *Builder) Burn(r resource.Resource) *Builder {
	return b.Add(Burn{Resource: r})
}

func (b *Builder) Deploy(nameInput uint8, tag name.Name, policy resource.MintPolicy) *Builder {
	return b.Add(Deploy{NameInput: nameInput, Tag: tag, Policy: policy})
}

// Count 已追加的指令数
func (b *Builder) Count() int { return b.count }

// Program 返回编码后的程序或第一个错误
func (b *Builder) Program() ([]byte, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.p.Bytes(), nil
}
