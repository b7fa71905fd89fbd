package vm

import (
	"github.com/qinglongcn/vitalchain/name"
	"github.com/qinglongcn/vitalchain/resource"
)

// inputLedger 已断言输入资源的累加器，按类别与代号分组
type inputLedger struct {
	balances map[name.Name]*resource.Balance
	items    map[name.Name]*resource.Items
	names    []*resource.NameSlot
	order    []resource.ResourceType // 首次存入的顺序
}

func newInputLedger() *inputLedger {
	return &inputLedger{
		balances: make(map[name.Name]*resource.Balance),
		items:    make(map[name.Name]*resource.Items),
	}
}

func (l *inputLedger) deposit(input uint8, r resource.Resource) error {
	switch r.Class {
	case resource.ClassVRC20:
		b, ok := l.balances[r.Tag]
		if !ok {
			b = resource.NewBalance(r.Tag)
			l.balances[r.Tag] = b
			l.order = append(l.order, r.Type())
		}
		return b.Deposit(input, &r.Amount)
	case resource.ClassVRC721:
		s, ok := l.items[r.Tag]
		if !ok {
			s = resource.NewItems(r.Tag)
			l.items[r.Tag] = s
			l.order = append(l.order, r.Type())
		}
		return s.Deposit(input, r.Hash)
	case resource.ClassName:
		l.names = append(l.names, &resource.NameSlot{Input: input, Name: r.Tag})
		return nil
	}
	return resource.ErrUnknownClass
}

// cost 扣减指定资源
func (l *inputLedger) cost(r resource.Resource) error {
	switch r.Class {
	case resource.ClassVRC20:
		b, ok := l.balances[r.Tag]
		if !ok {
			return resource.ErrInsufficientBalance
		}
		return b.Cost(&r.Amount)
	case resource.ClassVRC721:
		s, ok := l.items[r.Tag]
		if !ok {
			return resource.ErrItemNotPresent
		}
		return s.Cost(r.Hash)
	case resource.ClassName:
		for _, slot := range l.names {
			if slot.Name == r.Tag && !slot.Costed {
				return slot.Cost()
			}
		}
		return resource.ErrItemNotPresent
	}
	return resource.ErrUnknownClass
}

// costNameAt 扣减 input 处的名称并返回它
func (l *inputLedger) costNameAt(input uint8) (name.Name, error) {
	for _, slot := range l.names {
		if slot.Input == input {
			if err := slot.Cost(); err != nil {
				return name.Name{}, err
			}
			return slot.Name, nil
		}
	}
	return name.Name{}, ErrNameNotAsserted
}

// takeAll 扣减某一类型剩余的全部资源并返回
func (l *inputLedger) takeAll(t resource.ResourceType) (resource.Resource, error) {
	switch t.Class {
	case resource.ClassVRC20:
		b, ok := l.balances[t.Tag]
		if !ok {
			return resource.Resource{}, ErrNothingToMove
		}
		available := b.Available()
		if available.IsZero() {
			return resource.Resource{}, ErrNothingToMove
		}
		if err := b.Cost(available); err != nil {
			return resource.Resource{}, err
		}
		return resource.NewVRC20(t.Tag, available), nil

	case resource.ClassVRC721:
		s, ok := l.items[t.Tag]
		if !ok {
			return resource.Resource{}, ErrNothingToMove
		}
		remaining := s.Remaining()
		switch len(remaining) {
		case 0:
			return resource.Resource{}, ErrNothingToMove
		case 1:
		default:
			// 一个输出只能接收一个物品
			return resource.Resource{}, resource.ErrMergeMismatch
		}
		if err := s.Cost(remaining[0].Hash); err != nil {
			return resource.Resource{}, err
		}
		return resource.NewVRC721(t.Tag, remaining[0].Hash), nil

	case resource.ClassName:
		var found *resource.NameSlot
		for _, slot := range l.names {
			if slot.Name != t.Tag || slot.Costed {
				continue
			}
			if found != nil {
				return resource.Resource{}, resource.ErrMergeMismatch
			}
			found = slot
		}
		if found == nil {
			return resource.Resource{}, ErrNothingToMove
		}
		if err := found.Cost(); err != nil {
			return resource.Resource{}, err
		}
		return resource.NewName(found.Name), nil
	}
	return resource.Resource{}, resource.ErrUnknownClass
}

// remainders 列出未扣减的资源，同质化余额按先存入先扣减归属到各输入
func (l *inputLedger) remainders() []Remainder {
	var out []Remainder
	for _, t := range l.order {
		switch t.Class {
		case resource.ClassVRC20:
			for _, d := range l.balances[t.Tag].Remainders() {
				left := d.Remaining()
				out = append(out, Remainder{Input: d.Input, Resource: resource.NewVRC20(t.Tag, &left)})
			}
		case resource.ClassVRC721:
			for _, it := range l.items[t.Tag].Remaining() {
				out = append(out, Remainder{Input: it.Input, Resource: resource.NewVRC721(t.Tag, it.Hash)})
			}
		}
	}
	for _, slot := range l.names {
		if !slot.Costed {
			out = append(out, Remainder{Input: slot.Input, Resource: resource.NewName(slot.Name)})
		}
	}
	return out
}
