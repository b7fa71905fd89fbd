package vm

import (
	"sort"

	"github.com/qinglongcn/vitalchain/ledger"
	"github.com/qinglongcn/vitalchain/resource"
)

// tracker 记录已断言的输入、输出下标以及是否已铸造
type tracker struct {
	inputs  map[uint8]struct{}
	outputs map[uint8]struct{}
	minted  bool
}

func newTracker() *tracker {
	return &tracker{
		inputs:  make(map[uint8]struct{}),
		outputs: make(map[uint8]struct{}),
	}
}

func (t *tracker) assertInput(index uint8) error {
	if _, ok := t.inputs[index]; ok {
		return ErrInputAsserted
	}
	t.inputs[index] = struct{}{}
	return nil
}

// assertOutputs 要么全部记录，要么一个都不记录
func (t *tracker) assertOutputs(indices []uint8) error {
	seen := make(map[uint8]struct{}, len(indices))
	for _, i := range indices {
		if _, ok := t.outputs[i]; ok {
			return ErrOutputAsserted
		}
		if _, ok := seen[i]; ok {
			return ErrOutputAsserted
		}
		seen[i] = struct{}{}
	}
	for i := range seen {
		t.outputs[i] = struct{}{}
	}
	return nil
}

func (t *tracker) outputAsserted(index uint8) bool {
	_, ok := t.outputs[index]
	return ok
}

// outputBuilder 每个输出下标上累积的资源
type outputBuilder struct {
	entries map[uint8]resource.Resource
}

func newOutputBuilder() *outputBuilder {
	return &outputBuilder{entries: make(map[uint8]resource.Resource)}
}

// write 写入或合并资源
func (b *outputBuilder) write(index uint8, r resource.Resource) error {
	existing, ok := b.entries[index]
	if !ok {
		b.entries[index] = r
		return nil
	}
	merged, err := resource.Merge(existing, r)
	if err != nil {
		return err
	}
	b.entries[index] = merged
	return nil
}

// indices 返回已写入的输出下标，升序
func (b *outputBuilder) indices() []uint8 {
	out := make([]uint8, 0, len(b.entries))
	for i := range b.entries {
		out = append(out, i)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// storageOverlay 缓冲本次执行的元数据写入，读取时优先返回缓冲的值
type storageOverlay struct {
	ledger ledger.Ledger
	values map[string][]byte
	order  []string
}

func newStorageOverlay(l ledger.Ledger) *storageOverlay {
	return &storageOverlay{ledger: l, values: make(map[string][]byte)}
}

func (s *storageOverlay) get(key []byte) ([]byte, bool, error) {
	if v, ok := s.values[string(key)]; ok {
		return v, true, nil
	}
	return s.ledger.StorageGet(key)
}

func (s *storageOverlay) set(key, value []byte) {
	k := string(key)
	if _, ok := s.values[k]; !ok {
		s.order = append(s.order, k)
	}
	s.values[k] = append([]byte{}, value...)
}

// writes 按首次写入的顺序返回缓冲的写入
func (s *storageOverlay) writes() []ledger.Write {
	out := make([]ledger.Write, 0, len(s.order))
	for _, k := range s.order {
		out = append(out, ledger.Write{Key: []byte(k), Value: s.values[k]})
	}
	return out
}

// StorageGet 实现 ledger.StorageReader
func (s *storageOverlay) StorageGet(key []byte) ([]byte, bool, error) {
	return s.get(key)
}
