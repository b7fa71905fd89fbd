package opcode

import (
	"fmt"

	"github.com/holiman/uint256"
	"github.com/near/borsh-go"

	"github.com/qinglongcn/vitalchain/fault"
	"github.com/qinglongcn/vitalchain/name"
)

// ID 操作码。小于 0x80 为基础操作码，0x8000 及以上为扩展操作码。
type ID uint16

// 基础操作码，负载为 borsh 小端定长结构
const (
	OpOutputAssertSingle ID = 0x0a // index u8
	OpOutputAssertMask16 ID = 0x0b // mask u16
	OpOutputAssertMask32 ID = 0x0c // mask u32

	OpInputAssertShort32  ID = 0x0d // amount u32, tag[4], index u8
	OpInputAssertShort64  ID = 0x0e // amount u64, tag[4], index u8
	OpInputAssertShort128 ID = 0x0f // amount [16], tag[4], index u8
	OpInputAssertShort256 ID = 0x10 // amount [32], tag[4], index u8
	OpInputAssert32       ID = 0x11 // amount u32, tag[8], index u8
	OpInputAssert64       ID = 0x12 // amount u64, tag[8], index u8
	OpInputAssert128      ID = 0x13 // amount [16], tag[8], index u8
	OpInputAssert256      ID = 0x14 // amount [32], tag[8], index u8
	OpInputAssertItem     ID = 0x15 // hash[32], tag[8], index u8

	OpMoveShort    ID = 0x16 // amount u64, tag[4], output u8
	OpMove         ID = 0x17 // amount [32], tag[8], output u8
	OpMoveAllShort ID = 0x18 // tag[4], output u8
	OpMoveAll      ID = 0x19 // class u8, tag[8], output u8

	OpMintShortName ID = 0x27 // tag[4], output u8
	OpMintName      ID = 0x28 // tag[8], output u8
)

// 扩展操作码，两字节大端，负载可变
const (
	OpInputAssertExt ID = 0x8001 // index u8, resource
	OpMint           ID = 0x8002 // output u8, resource
	OpMoveExt        ID = 0x8003 // output u8, resource
	OpBurn           ID = 0x8004 // resource
	OpDeploy         ID = 0x8005 // name_input u8, tag[8], policy
)

const extensionFlag = 0x80

var (
	ErrUnknownOpcode      = fault.FormatError("unknown opcode")
	ErrTruncated          = fault.FormatError("truncated opcode payload")
	ErrMalformedPayload   = fault.FormatError("malformed opcode payload")
	ErrNonCanonical       = fault.FormatError("non-canonical instruction encoding")
	ErrEmptyIndexSet      = fault.FormatError("output assert without indices")
	ErrDuplicateIndex     = fault.FormatError("duplicate output index")
	ErrIndexSetTooLarge   = fault.FormatError("output index set does not fit a mask")
	ErrUnknownInstruction = fault.FormatError("unknown instruction")

	ErrTooManyInstructions = fault.InvalidError("too many instructions")
)

// IsExtension 是否为两字节扩展操作码
func (id ID) IsExtension() bool { return id >= extensionFlag<<8 }

func (id ID) String() string {
	if op, ok := lookup(id); ok {
		return op.name
	}
	return fmt.Sprintf("OP_UNKNOWN_%#x", uint16(id))
}

// opcode 操作码表项
type opcode struct {
	id     ID
	name   string
	size   int // 基础操作码的负载字节数，扩展操作码为 -1
	decode func(op *opcode, p *Packer) (Instruction, error)
}

// 宽度下标 0..3 分别对应 32/64/128/256 位数量
var amountSizes = [...]int{4, 8, 16, 32}

var opcodeArray = [...]opcode{
	{OpOutputAssertSingle, "OP_OUTPUT_ASSERT", 1, decodeOutputSingle},
	{OpOutputAssertMask16, "OP_OUTPUT_ASSERT16", 2, decodeOutputMask16},
	{OpOutputAssertMask32, "OP_OUTPUT_ASSERT32", 4, decodeOutputMask32},

	{OpInputAssertShort32, "OP_INPUT_ASSERT_S32", 4 + 4 + 1, decodeAssertVRC20[uint32, [4]byte]},
	{OpInputAssertShort64, "OP_INPUT_ASSERT_S64", 8 + 4 + 1, decodeAssertVRC20[uint64, [4]byte]},
	{OpInputAssertShort128, "OP_INPUT_ASSERT_S128", 16 + 4 + 1, decodeAssertVRC20[[16]byte, [4]byte]},
	{OpInputAssertShort256, "OP_INPUT_ASSERT_S256", 32 + 4 + 1, decodeAssertVRC20[[32]byte, [4]byte]},
	{OpInputAssert32, "OP_INPUT_ASSERT_32", 4 + 8 + 1, decodeAssertVRC20[uint32, [8]byte]},
	{OpInputAssert64, "OP_INPUT_ASSERT_64", 8 + 8 + 1, decodeAssertVRC20[uint64, [8]byte]},
	{OpInputAssert128, "OP_INPUT_ASSERT_128", 16 + 8 + 1, decodeAssertVRC20[[16]byte, [8]byte]},
	{OpInputAssert256, "OP_INPUT_ASSERT_256", 32 + 8 + 1, decodeAssertVRC20[[32]byte, [8]byte]},
	{OpInputAssertItem, "OP_INPUT_ASSERT_ITEM", 32 + 8 + 1, decodeAssertItem},

	{OpMoveShort, "OP_MOVE_S", 8 + 4 + 1, decodeMoveShort},
	{OpMove, "OP_MOVE", 32 + 8 + 1, decodeMove},
	{OpMoveAllShort, "OP_MOVE_ALL_S", 4 + 1, decodeMoveAllShort},
	{OpMoveAll, "OP_MOVE_ALL", 1 + 8 + 1, decodeMoveAll},

	{OpMintShortName, "OP_MINT_NAME_S", 4 + 1, decodeMintName[[4]byte]},
	{OpMintName, "OP_MINT_NAME", 8 + 1, decodeMintName[[8]byte]},

	{OpInputAssertExt, "OP_INPUT_ASSERT_EXT", -1, decodeInputAssertExt},
	{OpMint, "OP_MINT", -1, decodeMint},
	{OpMoveExt, "OP_MOVE_EXT", -1, decodeMoveExt},
	{OpBurn, "OP_BURN", -1, decodeBurn},
	{OpDeploy, "OP_DEPLOY", -1, decodeDeploy},
}

var (
	basicTable     [extensionFlag]*opcode
	extensionTable = make(map[ID]*opcode)
)

func init() {
	for i := range opcodeArray {
		op := &opcodeArray[i]
		if op.id.IsExtension() {
			extensionTable[op.id] = op
			continue
		}
		basicTable[op.id] = op
	}
}

func lookup(id ID) (*opcode, bool) {
	if id.IsExtension() {
		op, ok := extensionTable[id]
		return op, ok
	}
	if id >= extensionFlag {
		return nil, false
	}
	op := basicTable[id]
	return op, op != nil
}

// 基础操作码负载

type outputSingle struct{ Index uint8 }
type outputMask16 struct{ Mask uint16 }
type outputMask32 struct{ Mask uint32 }

type amountWord interface {
	uint32 | uint64 | [16]byte | [32]byte
}

type tagWord interface {
	[4]byte | [8]byte
}

type assertVRC20[A amountWord, T tagWord] struct {
	Amount A
	Tag    T
	Index  uint8
}

type assertItem struct {
	Hash  [32]byte
	Tag   [8]byte
	Index uint8
}

type moveShort struct {
	Amount uint64
	Tag    [4]byte
	Output uint8
}

type move struct {
	Amount [32]byte
	Tag    [8]byte
	Output uint8
}

type moveAllShort struct {
	Tag    [4]byte
	Output uint8
}

type moveAll struct {
	Class  uint8
	Tag    [8]byte
	Output uint8
}

type mintName[T tagWord] struct {
	Tag    T
	Output uint8
}

// amountWidth 返回容纳 a 所需的最小宽度下标
func amountWidth(a *uint256.Int) int {
	switch n := a.BitLen(); {
	case n <= 32:
		return 0
	case n <= 64:
		return 1
	case n <= 128:
		return 2
	}
	return 3
}

// putLE 将 a 的低 len(dst) 字节以小端写入 dst
func putLE(dst []byte, a *uint256.Int) {
	be := a.Bytes32()
	for i := range dst {
		dst[i] = be[31-i]
	}
}

func fromLE(src []byte) uint256.Int {
	var be [32]byte
	for i := range src {
		be[31-i] = src[i]
	}
	var a uint256.Int
	a.SetBytes32(be[:])
	return a
}

func toWord[A amountWord](a *uint256.Int) A {
	var w A
	switch p := any(&w).(type) {
	case *uint32:
		*p = uint32(a.Uint64())
	case *uint64:
		*p = a.Uint64()
	case *[16]byte:
		putLE(p[:], a)
	case *[32]byte:
		putLE(p[:], a)
	}
	return w
}

func fromWord[A amountWord](w A) uint256.Int {
	var a uint256.Int
	switch v := any(w).(type) {
	case uint32:
		a.SetUint64(uint64(v))
	case uint64:
		a.SetUint64(v)
	case [16]byte:
		a = fromLE(v[:])
	case [32]byte:
		a = fromLE(v[:])
	}
	return a
}

func toTag[T tagWord](n name.Name) T {
	var t T
	switch p := any(&t).(type) {
	case *[4]byte:
		short, _ := n.Short()
		*p = short
	case *[8]byte:
		*p = n
	}
	return t
}

// fromTag 还原代号，要求编码合法且非空
func fromTag[T tagWord](t T) (name.Name, bool) {
	switch v := any(t).(type) {
	case [4]byte:
		short := name.ShortName(v)
		if short.IsZero() || !short.Valid() {
			return name.Name{}, false
		}
		return short.Name(), true
	case [8]byte:
		n := name.Name(v)
		if n.Len() == 0 || !n.Valid() {
			return name.Name{}, false
		}
		return n, true
	}
	return name.Name{}, false
}

func isShortTag[T tagWord]() bool {
	var t T
	_, ok := any(t).([4]byte)
	return ok
}

// packBasic 写入基础操作码及其 borsh 负载
func packBasic(p *Packer, id ID, payload any) error {
	raw, err := borsh.Serialize(payload)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	p.PackID(id)
	p.PackFixedBytes(raw)
	return nil
}

// unpackBasic 读取定长负载并反序列化到 v
func unpackBasic(p *Packer, size int, v any) error {
	raw := p.UnpackFixedBytes(size)
	if err := p.Err(); err != nil {
		return err
	}
	if err := borsh.Deserialize(v, raw); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return nil
}
