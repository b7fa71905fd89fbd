package resource

import (
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/qinglongcn/vitalchain/fault"
	"github.com/qinglongcn/vitalchain/name"
)

func vrc20(tag string, amount uint64) Resource {
	return NewVRC20(name.MustName(tag), uint256.NewInt(amount))
}

func TestMergeVRC20(t *testing.T) {
	merged, err := Merge(vrc20("abc", 10), vrc20("abc", 32))
	require.NoError(t, err)
	require.Equal(t, vrc20("abc", 42), merged)
}

func TestMergeMismatch(t *testing.T) {
	_, err := Merge(vrc20("abc", 10), vrc20("abcdefgh", 10))
	require.ErrorIs(t, err, ErrMergeMismatch)
	require.True(t, fault.IsConservation(err))

	// 类别不同
	_, err = Merge(vrc20("abc", 10), NewName(name.MustName("abc")))
	require.ErrorIs(t, err, ErrMergeMismatch)
}

func TestMergeOverflow(t *testing.T) {
	max := new(uint256.Int).SetAllOne()
	a := NewVRC20(name.MustName("abc"), max)
	_, err := Merge(a, vrc20("abc", 1))
	require.ErrorIs(t, err, ErrAmountOverflow)
}

func TestMergeVRC721(t *testing.T) {
	tag := name.MustName("art")
	h1 := chainhash.HashH([]byte("one"))
	h2 := chainhash.HashH([]byte("two"))

	same, err := Merge(NewVRC721(tag, h1), NewVRC721(tag, h1))
	require.NoError(t, err)
	require.Equal(t, NewVRC721(tag, h1), same)

	_, err = Merge(NewVRC721(tag, h1), NewVRC721(tag, h2))
	require.ErrorIs(t, err, ErrMergeMismatch)
}

func TestMergeName(t *testing.T) {
	n := NewName(name.MustName("alice"))
	merged, err := Merge(n, n)
	require.NoError(t, err)
	require.Equal(t, n, merged)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		res  Resource
		err  error
	}{
		{"ok vrc20", vrc20("abc", 1), nil},
		{"zero amount", vrc20("abc", 0), ErrZeroAmount},
		{"empty tag", NewVRC20(name.Name{}, uint256.NewInt(1)), ErrEmptyTag},
		{"unknown class", Resource{Class: 9, Tag: name.MustName("abc")}, ErrUnknownClass},
		{"ok name", NewName(name.MustName("abc")), nil},
		{"ok vrc721", NewVRC721(name.MustName("abc"), chainhash.HashH(nil)), nil},
	}
	for _, test := range tests {
		err := test.res.Validate()
		if test.err == nil {
			require.NoError(t, err, test.name)
			continue
		}
		require.ErrorIs(t, err, test.err, test.name)
	}
}

func TestCodecRoundTrip(t *testing.T) {
	big, err := uint256.FromDecimal("115792089237316195423570985008687907853269984665640564039457584007913129639935")
	require.NoError(t, err)

	for _, r := range []Resource{
		vrc20("abc", 1),
		vrc20("abcdefghij", 1<<40),
		NewVRC20(name.MustName("max"), big),
		NewVRC721(name.MustName("art"), chainhash.HashH([]byte("x"))),
		NewName(name.MustName("alice.btc")),
	} {
		b := r.AppendTo(nil)
		back, n, err := Decode(b)
		require.NoError(t, err, r.String())
		require.Equal(t, len(b), n)
		require.Equal(t, r, back)

		raw, err := r.MarshalBinary()
		require.NoError(t, err)
		var stored Resource
		require.NoError(t, stored.UnmarshalBinary(raw), r.String())
		require.Equal(t, r, stored)
	}
}

func TestCodecFailures(t *testing.T) {
	b := vrc20("abc", 300).AppendTo(nil)

	_, _, err := Decode(b[:len(b)-1])
	require.ErrorIs(t, err, ErrTruncated)

	bad := append([]byte{}, b...)
	bad[0] = 7
	_, _, err = Decode(bad)
	require.ErrorIs(t, err, ErrUnknownClass)

	// 数量带前导 0
	tag := name.MustName("abc")
	nonCanonical := append([]byte{byte(ClassVRC20)}, tag[:]...)
	nonCanonical = append(nonCanonical, 0x02, 0x00, 0x01)
	_, _, err = Decode(nonCanonical)
	require.ErrorIs(t, err, ErrNonCanonicalAmount)
}

func TestRecordFailures(t *testing.T) {
	raw, err := vrc20("abc", 300).MarshalBinary()
	require.NoError(t, err)
	require.Len(t, raw, 1+name.NameSize+32+chainhash.HashSize)

	var r Resource
	require.ErrorIs(t, r.UnmarshalBinary(raw[:len(raw)-1]), ErrBadRecord)
	require.ErrorIs(t, r.UnmarshalBinary(append(raw, 0x00)), ErrBadRecord)

	bad := append([]byte{}, raw...)
	bad[0] = 7
	require.ErrorIs(t, r.UnmarshalBinary(bad), ErrUnknownClass)

	zero, err := NewVRC20(name.MustName("abc"), nil).MarshalBinary()
	require.NoError(t, err)
	require.ErrorIs(t, r.UnmarshalBinary(zero), ErrZeroAmount)
}

func TestBalanceConservation(t *testing.T) {
	b := NewBalance(name.MustName("abc"))
	for i := uint8(0); i < 3; i++ {
		require.NoError(t, b.Deposit(i, uint256.NewInt(10000)))
	}
	require.Equal(t, uint256.NewInt(30000), b.Total())

	for _, amount := range []uint64{8000, 2000, 14000, 6000} {
		require.NoError(t, b.Cost(uint256.NewInt(amount)), amount)
	}
	require.Equal(t, uint256.NewInt(30000), b.Costed())
	require.True(t, b.Available().IsZero())
	require.Empty(t, b.Remainders())

	err := b.Cost(uint256.NewInt(1))
	require.ErrorIs(t, err, ErrInsufficientBalance)
	require.Equal(t, uint256.NewInt(30000), b.Costed())
}

func TestBalanceFirstDepositedFirstCosted(t *testing.T) {
	b := NewBalance(name.MustName("abc"))
	require.NoError(t, b.Deposit(4, uint256.NewInt(100)))
	require.NoError(t, b.Deposit(1, uint256.NewInt(50)))
	require.NoError(t, b.Deposit(2, uint256.NewInt(25)))

	require.NoError(t, b.Cost(uint256.NewInt(120)))

	deposits := b.Deposits()
	require.Equal(t, uint256.NewInt(100), &deposits[0].Costed)
	require.Equal(t, uint256.NewInt(20), &deposits[1].Costed)
	require.True(t, deposits[2].Costed.IsZero())

	rem := b.Remainders()
	require.Len(t, rem, 2)
	require.Equal(t, uint8(1), rem[0].Input)
	left := rem[0].Remaining()
	require.Equal(t, uint256.NewInt(30), &left)
	require.Equal(t, uint8(2), rem[1].Input)

	// 失败的扣减不产生任何修改
	require.ErrorIs(t, b.Cost(uint256.NewInt(56)), ErrInsufficientBalance)
	require.Equal(t, uint256.NewInt(55), b.Available())
}

func TestItems(t *testing.T) {
	s := NewItems(name.MustName("art"))
	h1 := chainhash.HashH([]byte("one"))
	h2 := chainhash.HashH([]byte("two"))

	require.NoError(t, s.Deposit(0, h1))
	require.NoError(t, s.Deposit(1, h2))
	require.ErrorIs(t, s.Deposit(2, h1), ErrDuplicateItem)

	require.NoError(t, s.Cost(h1))
	require.ErrorIs(t, s.Cost(h1), ErrAlreadyCosted)
	require.ErrorIs(t, s.Cost(chainhash.HashH([]byte("three"))), ErrItemNotPresent)

	rem := s.Remaining()
	require.Len(t, rem, 1)
	require.Equal(t, h2, rem[0].Hash)
}

func TestNameSlot(t *testing.T) {
	slot := &NameSlot{Input: 3, Name: name.MustName("alice")}
	require.NoError(t, slot.Cost())
	require.ErrorIs(t, slot.Cost(), ErrAlreadyCosted)
}
