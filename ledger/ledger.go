// Package ledger 定义执行引擎访问外部账本的能力，并提供内存与 badger 两种实现。
//
// 账本把资源绑定到交易输出位置（wire.OutPoint）。绑定时位置必须空闲，
// 解绑时位置必须已绑定，这保证了同一资源不会被铸造两次或花费两次。
package ledger

import (
	"encoding/binary"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/sirupsen/logrus"

	"github.com/qinglongcn/vitalchain/fault"
	"github.com/qinglongcn/vitalchain/resource"
)

var (
	ErrAlreadyBound   = fault.ConflictError("location already bound")
	ErrNotBound       = fault.ConflictError("location not bound")
	ErrEmptyKey       = fault.InvalidError("storage key is empty")
	ErrBadLocationKey = fault.FormatError("malformed location key")
)

// Ledger 账本访问能力
type Ledger interface {
	// GetResource 返回绑定在 loc 上的资源，未绑定时第二个返回值为 false
	GetResource(loc wire.OutPoint) (resource.Resource, bool, error)
	// BindResource 绑定资源，位置已绑定时返回 ErrAlreadyBound
	BindResource(loc wire.OutPoint, r resource.Resource) error
	// UnbindResource 解除绑定，位置未绑定时返回 ErrNotBound
	UnbindResource(loc wire.OutPoint) error
	// StorageGet 读取元数据
	StorageGet(key []byte) ([]byte, bool, error)
	// StorageSet 写入元数据
	StorageSet(key, value []byte) error
}

// Binding 一次绑定
type Binding struct {
	Location wire.OutPoint
	Resource resource.Resource
}

// Write 一次元数据写入
type Write struct {
	Key   []byte
	Value []byte
}

// Batch 一笔交易提交的全部账本修改，按 解绑、绑定、写入 的顺序生效
type Batch struct {
	Unbinds []wire.OutPoint
	Binds   []Binding
	Writes  []Write
}

// Empty 批次是否没有任何修改
func (b *Batch) Empty() bool {
	return len(b.Unbinds) == 0 && len(b.Binds) == 0 && len(b.Writes) == 0
}

// Batcher 能够原子地应用整个批次的账本
type Batcher interface {
	ApplyBatch(b *Batch) error
}

// Apply 应用批次。账本实现 Batcher 时整体原子生效；否则先校验整个批次再逐条执行，
// 中途失败时按相反顺序撤销已执行的解绑、绑定以及对已有键的写入。
// 新写入的键无法通过 Ledger 删除，StorageSet 可能失败的账本应当实现 Batcher。
func Apply(l Ledger, b *Batch) error {
	if batcher, ok := l.(Batcher); ok {
		return batcher.ApplyBatch(b)
	}
	if err := checkBatch(l, b); err != nil {
		return err
	}

	var undo []func() error
	rollback := func(err error) error {
		for i := len(undo) - 1; i >= 0; i-- {
			if uerr := undo[i](); uerr != nil {
				logrus.Errorf("[Apply] 撤销失败:\t%v", uerr)
			}
		}
		return err
	}

	for _, loc := range b.Unbinds {
		r, _, err := l.GetResource(loc)
		if err != nil {
			return rollback(err)
		}
		if err := l.UnbindResource(loc); err != nil {
			return rollback(fmt.Errorf("unbind %v: %w", loc, err))
		}
		loc := loc
		undo = append(undo, func() error { return l.BindResource(loc, r) })
	}
	for _, bind := range b.Binds {
		loc := bind.Location
		if err := l.BindResource(loc, bind.Resource); err != nil {
			return rollback(fmt.Errorf("bind %v: %w", loc, err))
		}
		undo = append(undo, func() error { return l.UnbindResource(loc) })
	}
	for _, w := range b.Writes {
		prev, existed, err := l.StorageGet(w.Key)
		if err != nil {
			return rollback(err)
		}
		if err := l.StorageSet(w.Key, w.Value); err != nil {
			return rollback(fmt.Errorf("storage set %x: %w", w.Key, err))
		}
		if existed {
			key := w.Key
			undo = append(undo, func() error { return l.StorageSet(key, prev) })
		}
	}
	return nil
}

// checkBatch 在不修改账本的情况下校验批次能否完整应用
func checkBatch(l Ledger, b *Batch) error {
	freed := make(map[wire.OutPoint]bool, len(b.Unbinds))
	for _, loc := range b.Unbinds {
		_, bound, err := l.GetResource(loc)
		if err != nil {
			return err
		}
		if !bound || freed[loc] {
			return fmt.Errorf("unbind %v: %w", loc, ErrNotBound)
		}
		freed[loc] = true
	}
	taken := make(map[wire.OutPoint]bool, len(b.Binds))
	for _, bind := range b.Binds {
		_, bound, err := l.GetResource(bind.Location)
		if err != nil {
			return err
		}
		if (bound && !freed[bind.Location]) || taken[bind.Location] {
			return fmt.Errorf("bind %v: %w", bind.Location, ErrAlreadyBound)
		}
		taken[bind.Location] = true
	}
	for _, w := range b.Writes {
		if len(w.Key) == 0 {
			return ErrEmptyKey
		}
	}
	return nil
}

// locationSize 位置编码长度：交易哈希(32) | 输出下标(4 大端)
const locationSize = chainhash.HashSize + 4

// LocationKey 返回位置的二进制编码
func LocationKey(loc wire.OutPoint) []byte {
	b := make([]byte, locationSize)
	copy(b, loc.Hash[:])
	binary.BigEndian.PutUint32(b[chainhash.HashSize:], loc.Index)
	return b
}

// ParseLocationKey 解析 LocationKey 的输出
func ParseLocationKey(b []byte) (wire.OutPoint, error) {
	var loc wire.OutPoint
	if len(b) != locationSize {
		return loc, ErrBadLocationKey
	}
	copy(loc.Hash[:], b[:chainhash.HashSize])
	loc.Index = binary.BigEndian.Uint32(b[chainhash.HashSize:])
	return loc, nil
}
