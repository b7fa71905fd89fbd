package ledger

import (
	"sync"

	"github.com/btcsuite/btcd/wire"

	"github.com/qinglongcn/vitalchain/resource"
)

// MemoryLedger 基于内存的账本，所有操作由一把互斥锁串行化
type MemoryLedger struct {
	mu       sync.RWMutex
	bindings map[wire.OutPoint]resource.Resource
	storage  map[string][]byte
}

// NewMemoryLedger 创建空的内存账本
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		bindings: make(map[wire.OutPoint]resource.Resource),
		storage:  make(map[string][]byte),
	}
}

func (m *MemoryLedger) GetResource(loc wire.OutPoint) (resource.Resource, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.bindings[loc]
	return r, ok, nil
}

func (m *MemoryLedger) BindResource(loc wire.OutPoint, r resource.Resource) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.bindings[loc]; ok {
		return ErrAlreadyBound
	}
	m.bindings[loc] = r
	return nil
}

func (m *MemoryLedger) UnbindResource(loc wire.OutPoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.bindings[loc]; !ok {
		return ErrNotBound
	}
	delete(m.bindings, loc)
	return nil
}

func (m *MemoryLedger) StorageGet(key []byte) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.storage[string(key)]
	if !ok {
		return nil, false, nil
	}
	return append([]byte{}, v...), true, nil
}

func (m *MemoryLedger) StorageSet(key, value []byte) error {
	if len(key) == 0 {
		return ErrEmptyKey
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.storage[string(key)] = append([]byte{}, value...)
	return nil
}

// ApplyBatch 先在锁内校验整个批次，全部通过后再修改
func (m *MemoryLedger) ApplyBatch(b *Batch) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	freed := make(map[wire.OutPoint]bool, len(b.Unbinds))
	for _, loc := range b.Unbinds {
		if _, ok := m.bindings[loc]; !ok || freed[loc] {
			return ErrNotBound
		}
		freed[loc] = true
	}
	taken := make(map[wire.OutPoint]bool, len(b.Binds))
	for _, bind := range b.Binds {
		_, bound := m.bindings[bind.Location]
		if (bound && !freed[bind.Location]) || taken[bind.Location] {
			return ErrAlreadyBound
		}
		taken[bind.Location] = true
	}
	for _, w := range b.Writes {
		if len(w.Key) == 0 {
			return ErrEmptyKey
		}
	}

	for _, loc := range b.Unbinds {
		delete(m.bindings, loc)
	}
	for _, bind := range b.Binds {
		m.bindings[bind.Location] = bind.Resource
	}
	for _, w := range b.Writes {
		m.storage[string(w.Key)] = append([]byte{}, w.Value...)
	}
	return nil
}

// Len 返回当前绑定数量
func (m *MemoryLedger) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.bindings)
}
