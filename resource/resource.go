// Package resource 定义账本中可绑定到输出位置的资源：名称、同质化余额（VRC20）与非同质化物品（VRC721）。
package resource

import (
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/holiman/uint256"

	"github.com/qinglongcn/vitalchain/fault"
	"github.com/qinglongcn/vitalchain/name"
)

// Class 资源类别
type Class uint8

const (
	ClassName   Class = iota // 已注册的名称，原子资源，没有数量
	ClassVRC20               // 按代号（tag）区分的同质化余额
	ClassVRC721              // 按代号与内容哈希区分的非同质化物品
)

var (
	ErrUnknownClass        = fault.FormatError("unknown resource class")
	ErrEmptyTag            = fault.FormatError("resource tag is empty")
	ErrInvalidTag          = fault.FormatError("resource tag is not a valid name")
	ErrZeroAmount          = fault.FormatError("vrc20 amount is zero")
	ErrTruncated           = fault.FormatError("truncated resource encoding")
	ErrNonCanonicalAmount  = fault.FormatError("non-canonical amount encoding")
	ErrMergeMismatch       = fault.ConservationError("merge between mismatched resources")
	ErrAmountOverflow      = fault.ConservationError("amount overflow")
	ErrInsufficientBalance = fault.ConservationError("insufficient balance")
	ErrItemNotPresent      = fault.ConservationError("item not present")
	ErrAlreadyCosted       = fault.ConservationError("resource already costed")
	ErrDuplicateItem       = fault.ConflictError("item deposited twice")
)

func (c Class) String() string {
	switch c {
	case ClassName:
		return "name"
	case ClassVRC20:
		return "vrc20"
	case ClassVRC721:
		return "vrc721"
	}
	return fmt.Sprintf("class(%d)", uint8(c))
}

// Valid 是否为已知类别
func (c Class) Valid() bool {
	return c <= ClassVRC721
}

// ResourceType 标识资源的类别与代号，不含数值
type ResourceType struct {
	Class Class
	Tag   name.Name
}

func (t ResourceType) String() string {
	return fmt.Sprintf("%s(%s)", t.Class, t.Tag)
}

// Resource 资源值。Class 决定其余字段的含义：
//   - ClassName：Tag 为名称本身
//   - ClassVRC20：Tag 为代号，Amount 为数量
//   - ClassVRC721：Tag 为代号，Hash 为内容哈希
//
// 不使用的字段必须保持零值，因此两个资源可以直接用 == 比较。
type Resource struct {
	Class  Class
	Tag    name.Name
	Amount uint256.Int
	Hash   chainhash.Hash
}

// NewName 构造名称资源
func NewName(n name.Name) Resource {
	return Resource{Class: ClassName, Tag: n}
}

// NewVRC20 构造同质化余额资源
func NewVRC20(tag name.Name, amount *uint256.Int) Resource {
	r := Resource{Class: ClassVRC20, Tag: tag}
	if amount != nil {
		r.Amount = *amount
	}
	return r
}

// NewVRC721 构造非同质化物品资源
func NewVRC721(tag name.Name, hash chainhash.Hash) Resource {
	return Resource{Class: ClassVRC721, Tag: tag, Hash: hash}
}

// Type 返回资源类型
func (r Resource) Type() ResourceType {
	return ResourceType{Class: r.Class, Tag: r.Tag}
}

// Equal 判断两个资源是否完全相同
func (r Resource) Equal(o Resource) bool {
	return r == o
}

// Validate 检查资源是否满足类别约束
func (r Resource) Validate() error {
	if !r.Class.Valid() {
		return ErrUnknownClass
	}
	if r.Tag.IsZero() || r.Tag.Len() == 0 {
		return ErrEmptyTag
	}
	if !r.Tag.Valid() {
		return ErrInvalidTag
	}
	switch r.Class {
	case ClassName:
		if !r.Amount.IsZero() || r.Hash != (chainhash.Hash{}) {
			return ErrUnknownClass
		}
	case ClassVRC20:
		if r.Amount.IsZero() {
			return ErrZeroAmount
		}
		if r.Hash != (chainhash.Hash{}) {
			return ErrUnknownClass
		}
	case ClassVRC721:
		if !r.Amount.IsZero() {
			return ErrUnknownClass
		}
	}
	return nil
}

func (r Resource) String() string {
	switch r.Class {
	case ClassName:
		return fmt.Sprintf("name(%s)", r.Tag)
	case ClassVRC20:
		return fmt.Sprintf("vrc20(%s:%s)", r.Tag, r.Amount.Dec())
	case ClassVRC721:
		return fmt.Sprintf("vrc721(%s:%s)", r.Tag, r.Hash)
	}
	return r.Class.String()
}

// Merge 合并两个资源。要求类别与代号一致：
// VRC20 数量相加（溢出失败）；VRC721 仅允许相同物品；名称仅允许相同名称。
func Merge(a, b Resource) (Resource, error) {
	if a.Type() != b.Type() {
		return Resource{}, ErrMergeMismatch
	}
	switch a.Class {
	case ClassVRC20:
		var sum uint256.Int
		if _, overflow := sum.AddOverflow(&a.Amount, &b.Amount); overflow {
			return Resource{}, ErrAmountOverflow
		}
		a.Amount = sum
		return a, nil
	case ClassVRC721, ClassName:
		if a != b {
			return Resource{}, ErrMergeMismatch
		}
		return a, nil
	}
	return Resource{}, ErrUnknownClass
}
