package resource

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/holiman/uint256"

	"github.com/qinglongcn/vitalchain/name"
)

// 指令负载中的资源格式：class(1) | tag(8) | body
//   VRC20：  len(1) | 大端最小字节数量
//   VRC721： hash(32)
//   Name：   无
//
// 数量只有一种合法编码，程序字节与指令一一对应。

// MaxAmountSize 数量编码的最大字节数
const MaxAmountSize = 32

// AppendAmount 以 len|大端字节 的形式追加数量，0 编码为单个 0x00
func AppendAmount(b []byte, amount *uint256.Int) []byte {
	raw := amount.Bytes()
	b = append(b, byte(len(raw)))
	return append(b, raw...)
}

// DecodeAmount 解码数量，返回读取的字节数。拒绝带前导 0 的非规范编码。
func DecodeAmount(b []byte) (uint256.Int, int, error) {
	var amount uint256.Int
	if len(b) < 1 {
		return amount, 0, ErrTruncated
	}
	l := int(b[0])
	if l > MaxAmountSize {
		return amount, 0, ErrNonCanonicalAmount
	}
	if len(b) < 1+l {
		return amount, 0, ErrTruncated
	}
	raw := b[1 : 1+l]
	if l > 0 && raw[0] == 0 {
		return amount, 0, ErrNonCanonicalAmount
	}
	amount.SetBytes(raw)
	return amount, 1 + l, nil
}

// AppendTo 将资源追加到 b 的末尾
func (r Resource) AppendTo(b []byte) []byte {
	b = append(b, byte(r.Class))
	b = append(b, r.Tag[:]...)
	switch r.Class {
	case ClassVRC20:
		b = AppendAmount(b, &r.Amount)
	case ClassVRC721:
		b = append(b, r.Hash[:]...)
	}
	return b
}

// Decode 从 b 的开头解码一个资源，返回读取的字节数
func Decode(b []byte) (Resource, int, error) {
	var r Resource
	if len(b) < 1+name.NameSize {
		return r, 0, ErrTruncated
	}
	r.Class = Class(b[0])
	if !r.Class.Valid() {
		return Resource{}, 0, ErrUnknownClass
	}
	copy(r.Tag[:], b[1:1+name.NameSize])
	n := 1 + name.NameSize

	switch r.Class {
	case ClassVRC20:
		amount, read, err := DecodeAmount(b[n:])
		if err != nil {
			return Resource{}, 0, err
		}
		r.Amount = amount
		n += read
	case ClassVRC721:
		if len(b) < n+chainhash.HashSize {
			return Resource{}, 0, ErrTruncated
		}
		copy(r.Hash[:], b[n:n+chainhash.HashSize])
		n += chainhash.HashSize
	}
	return r, n, nil
}
