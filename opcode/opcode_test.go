package opcode

import (
	"errors"
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/qinglongcn/vitalchain/fault"
	"github.com/qinglongcn/vitalchain/name"
	"github.com/qinglongcn/vitalchain/resource"
)

func vrc20(tag string, amount *uint256.Int) resource.Resource {
	return resource.NewVRC20(name.MustName(tag), amount)
}

func mustDecimal(t *testing.T, s string) *uint256.Int {
	v, err := uint256.FromDecimal(s)
	require.NoError(t, err)
	return v
}

func TestRoundTrip(t *testing.T) {
	memo, err := name.NewLongName("first.token")
	require.NoError(t, err)
	policy := resource.MintPolicy{
		Decimals:     8,
		MaxSupply:    *uint256.NewInt(21_000_000),
		LimitPerMint: *uint256.NewInt(1000),
		Memo:         memo,
	}
	art := chainhash.HashH([]byte("art"))
	huge := mustDecimal(t, "340282366920938463463374607431768211456") // 2^128

	program := []Instruction{
		OutputAssert{Indices: []uint8{0}},
		OutputAssert{Indices: []uint8{200}},
		OutputAssert{Indices: []uint8{0, 1, 2, 3, 8, 9, 10}},
		OutputAssert{Indices: []uint8{1, 31}},
		InputAssert{Index: 0, Resource: vrc20("abcde", uint256.NewInt(1000))},
		InputAssert{Index: 1, Resource: vrc20("abc", uint256.NewInt(1<<40))},
		InputAssert{Index: 2, Resource: vrc20("abc", new(uint256.Int).Lsh(uint256.NewInt(1), 100))},
		InputAssert{Index: 3, Resource: vrc20("abc", huge)},
		InputAssert{Index: 4, Resource: vrc20("abcdefgh", uint256.NewInt(7))},
		InputAssert{Index: 5, Resource: vrc20("abcdefgh", huge)},
		InputAssert{Index: 6, Resource: resource.NewVRC721(name.MustName("art"), art)},
		InputAssert{Index: 7, Resource: resource.NewName(name.MustName("alice"))},
		Mint{Output: 0, Resource: vrc20("abc", uint256.NewInt(50))},
		Mint{Output: 0, Resource: resource.NewName(name.MustName("abcde"))},
		Mint{Output: 4, Resource: resource.NewName(name.MustName("alice.btc"))},
		Mint{Output: 1, Resource: resource.NewVRC721(name.MustName("art"), art)},
		Move{Output: 1, Resource: vrc20("abc", uint256.NewInt(50))},
		Move{Output: 1, Resource: vrc20("abcdefgh", uint256.NewInt(50))},
		Move{Output: 1, Resource: vrc20("abc", huge)},
		Move{Output: 2, Resource: resource.NewVRC721(name.MustName("art"), art)},
		Move{Output: 2, Resource: resource.NewName(name.MustName("alice"))},
		MoveAll{Output: 3, Type: resource.ResourceType{Class: resource.ClassVRC20, Tag: name.MustName("abc")}},
		MoveAll{Output: 3, Type: resource.ResourceType{Class: resource.ClassVRC20, Tag: name.MustName("abcdefgh")}},
		MoveAll{Output: 3, Type: resource.ResourceType{Class: resource.ClassVRC721, Tag: name.MustName("art")}},
		Burn{Resource: vrc20("abc", uint256.NewInt(1))},
		Deploy{NameInput: 0, Tag: name.MustName("abc"), Policy: policy},
	}

	for _, ins := range program {
		b, err := Encode(ins)
		require.NoError(t, err, ins.String())
		back, err := Parse(b)
		require.NoError(t, err, ins.String())
		require.Len(t, back, 1)
		require.Equal(t, ins, back[0], ins.String())
	}

	raw, err := EncodeProgram(program)
	require.NoError(t, err)
	back, err := Parse(raw)
	require.NoError(t, err)
	require.Equal(t, program, back)
}

func TestOutputAssertForms(t *testing.T) {
	b, err := Encode(OutputAssert{Indices: []uint8{5}})
	require.NoError(t, err)
	require.Equal(t, []byte{0x0a, 0x05}, b)

	b, err = Encode(OutputAssert{Indices: []uint8{10, 0, 1, 2, 3, 8, 9}})
	require.NoError(t, err)
	require.Equal(t, []byte{0x0b, 0x0f, 0x07}, b)

	b, err = Encode(OutputAssert{Indices: []uint8{0, 20}})
	require.NoError(t, err)
	require.Equal(t, []byte{0x0c, 0x01, 0x00, 0x10, 0x00}, b)

	// 解码后下标升序
	ins, err := Parse(b)
	require.NoError(t, err)
	require.Equal(t, OutputAssert{Indices: []uint8{0, 20}}, ins[0])

	_, err = Encode(OutputAssert{})
	require.ErrorIs(t, err, ErrEmptyIndexSet)
	_, err = Encode(OutputAssert{Indices: []uint8{1, 1}})
	require.ErrorIs(t, err, ErrDuplicateIndex)
	_, err = Encode(OutputAssert{Indices: []uint8{1, 32}})
	require.ErrorIs(t, err, ErrIndexSetTooLarge)
}

func TestInputAssertBytes(t *testing.T) {
	b, err := Encode(InputAssert{Index: 2, Resource: vrc20("abcde", uint256.NewInt(1000))})
	require.NoError(t, err)
	require.Equal(t, []byte{0x0d, 0xe8, 0x03, 0x00, 0x00, 0x04, 0x20, 0xc4, 0x14, 0x02}, b)
}

func TestMintNameProgram(t *testing.T) {
	raw := []byte{0x0a, 0x00, 0x27, 0x04, 0x20, 0xc4, 0x14, 0x00}
	program, err := Parse(raw)
	require.NoError(t, err)
	require.Equal(t, []Instruction{
		OutputAssert{Indices: []uint8{0}},
		Mint{Output: 0, Resource: resource.NewName(name.MustName("abcde"))},
	}, program)

	back, err := EncodeProgram(program)
	require.NoError(t, err)
	require.Equal(t, raw, back)

	// 名称超过短代号长度时使用 8 字节代号
	b, err := Encode(Mint{Output: 2, Resource: resource.NewName(name.MustName("alice.btc"))})
	require.NoError(t, err)
	require.Equal(t, OpMintName, ID(b[0]))
	require.Len(t, b, 1+name.NameSize+1)
}

func TestParseRejectsWideMintName(t *testing.T) {
	tag := name.MustName("abcde")

	// 能用短代号的名称不允许使用 8 字节代号形式
	raw := append([]byte{byte(OpMintName)}, tag[:]...)
	raw = append(raw, 0x00)
	_, err := Parse(raw)
	require.ErrorIs(t, err, ErrNonCanonical)

	// 名称不允许使用扩展铸造
	ext := []byte{byte(OpMint >> 8), byte(OpMint & 0xff), 0x00}
	ext = resource.NewName(tag).AppendTo(ext)
	_, err = Parse(ext)
	require.ErrorIs(t, err, ErrNonCanonical)
	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	require.Equal(t, OpMint, perr.ID)
}

func TestBuilder(t *testing.T) {
	tag := name.MustName("abc")
	program, err := NewBuilder().
		InputAssert(0, vrc20("abc", uint256.NewInt(10))).
		OutputAssert(0, 1).
		Move(0, vrc20("abc", uint256.NewInt(4))).
		MoveAll(1, resource.ResourceType{Class: resource.ClassVRC20, Tag: tag}).
		Program()
	require.NoError(t, err)

	ins, err := Parse(program)
	require.NoError(t, err)
	require.Len(t, ins, 4)
	require.Equal(t, KindInputAssert, ins[0].Kind())
	require.Equal(t, KindMoveAll, ins[3].Kind())

	b := NewBuilder().Move(0, vrc20("abc", uint256.NewInt(0))).Burn(vrc20("abc", uint256.NewInt(1)))
	_, err = b.Program()
	require.ErrorIs(t, err, resource.ErrZeroAmount)
	require.Equal(t, 0, b.Count())
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name   string
		raw    []byte
		offset int
		id     ID
		err    error
	}{
		{"unknown basic", []byte{0x7f}, 0, 0x7f, ErrUnknownOpcode},
		{"unknown extension", []byte{0x80, 0x99}, 0, 0x8099, ErrUnknownOpcode},
		{"truncated extension id", []byte{0x0a, 0x00, 0x80}, 2, 0x80, ErrTruncated},
		{"truncated payload", []byte{0x0d, 0x01}, 0, OpInputAssertShort32, ErrTruncated},
		{"single bit mask16", []byte{0x0b, 0x01, 0x00}, 0, OpOutputAssertMask16, ErrNonCanonical},
		{"low mask32", []byte{0x0c, 0x03, 0x00, 0x00, 0x00}, 0, OpOutputAssertMask32, ErrNonCanonical},
		{"wide amount", []byte{0x0e, 0x05, 0, 0, 0, 0, 0, 0, 0, 0x04, 0x20, 0xc4, 0x14, 0x00}, 0, OpInputAssertShort64, ErrNonCanonical},
		{"zero amount", []byte{0x0d, 0, 0, 0, 0, 0x04, 0x20, 0xc4, 0x14, 0x00}, 0, OpInputAssertShort32, resource.ErrZeroAmount},
		{"empty tag", []byte{0x0d, 1, 0, 0, 0, 0, 0, 0, 0, 0x00}, 0, OpInputAssertShort32, resource.ErrInvalidTag},
	}
	for _, test := range tests {
		_, err := Parse(test.raw)
		require.Error(t, err, test.name)
		var perr *ParseError
		require.True(t, errors.As(err, &perr), test.name)
		require.Equal(t, test.offset, perr.Offset, test.name)
		require.Equal(t, test.id, perr.ID, test.name)
		require.ErrorIs(t, err, test.err, test.name)
		require.True(t, fault.IsFormat(err), test.name)
	}
}

func TestParseRejectsWideTag(t *testing.T) {
	// 能用短代号的 VRC20 断言不允许使用 8 字节代号形式
	tag := name.MustName("abc")
	raw := append([]byte{byte(OpInputAssert32), 0x01, 0, 0, 0}, tag[:]...)
	raw = append(raw, 0x00)
	_, err := Parse(raw)
	require.ErrorIs(t, err, ErrNonCanonical)

	// 名称资源必须使用扩展断言，VRC20 不能使用扩展移动
	b, err := Encode(Move{Output: 0, Resource: resource.NewName(tag)})
	require.NoError(t, err)
	b[len(b)-len(tag)-1] = byte(resource.ClassVRC20)
	b = append(b, 0x01, 0x05)
	_, err = Parse(b)
	require.ErrorIs(t, err, ErrNonCanonical)
}

func TestParseLimit(t *testing.T) {
	raw := []byte{0x0a, 0x00, 0x0a, 0x01, 0x0a, 0x02}
	ins, err := ParseLimit(raw, 3)
	require.NoError(t, err)
	require.Len(t, ins, 3)

	_, err = ParseLimit(raw, 2)
	require.ErrorIs(t, err, ErrTooManyInstructions)
	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	require.Equal(t, 4, perr.Offset)
}

func TestDisasm(t *testing.T) {
	out := Disasm([]byte{0x0a, 0x00, 0x7f})
	require.Contains(t, out, "OP_OUTPUT_ASSERT(OUTPUT_ASSERT [0])")
	require.Contains(t, out, "error at 2")
	require.Equal(t, "OP_UNKNOWN_0x7f", ID(0x7f).String())
}
