package resource

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/holiman/uint256"

	"github.com/qinglongcn/vitalchain/name"
)

// Deposit 单个输入对某一代号余额的贡献
type Deposit struct {
	Input  uint8       // 输入下标
	Amount uint256.Int // 存入数量
	Costed uint256.Int // 已被扣减的数量
}

// Remaining 返回该笔存入尚未扣减的数量
func (d Deposit) Remaining() uint256.Int {
	var left uint256.Int
	left.Sub(&d.Amount, &d.Costed)
	return left
}

// Balance 同一代号的同质化余额累加器。
// 扣减按先存入先扣减的顺序归属到各个输入。
type Balance struct {
	Tag      name.Name
	deposits []Deposit
	total    uint256.Int
	costed   uint256.Int
}

// NewBalance 创建一个空的余额累加器
func NewBalance(tag name.Name) *Balance {
	return &Balance{Tag: tag}
}

// Deposit 记录某个输入存入的数量
func (b *Balance) Deposit(input uint8, amount *uint256.Int) error {
	var total uint256.Int
	if _, overflow := total.AddOverflow(&b.total, amount); overflow {
		return ErrAmountOverflow
	}
	b.total = total
	b.deposits = append(b.deposits, Deposit{Input: input, Amount: *amount})
	return nil
}

// Total 返回累计存入数量
func (b *Balance) Total() *uint256.Int {
	return new(uint256.Int).Set(&b.total)
}

// Costed 返回累计扣减数量
func (b *Balance) Costed() *uint256.Int {
	return new(uint256.Int).Set(&b.costed)
}

// Available 返回尚可扣减的数量
func (b *Balance) Available() *uint256.Int {
	return new(uint256.Int).Sub(&b.total, &b.costed)
}

// Cost 扣减数量。要求 已扣减 + amount <= 总量，否则失败且不产生任何修改。
func (b *Balance) Cost(amount *uint256.Int) error {
	var sum uint256.Int
	if _, overflow := sum.AddOverflow(&b.costed, amount); overflow {
		return ErrInsufficientBalance
	}
	if sum.Gt(&b.total) {
		return ErrInsufficientBalance
	}
	b.costed = sum

	rest := new(uint256.Int).Set(amount)
	for i := range b.deposits {
		if rest.IsZero() {
			break
		}
		left := b.deposits[i].Remaining()
		if left.IsZero() {
			continue
		}
		take := &left
		if rest.Lt(&left) {
			take = rest
		}
		b.deposits[i].Costed.Add(&b.deposits[i].Costed, take)
		rest = new(uint256.Int).Sub(rest, take)
	}
	return nil
}

// Deposits 返回各输入存入记录的副本
func (b *Balance) Deposits() []Deposit {
	out := make([]Deposit, len(b.deposits))
	copy(out, b.deposits)
	return out
}

// Remainders 返回尚有剩余的存入记录
func (b *Balance) Remainders() []Deposit {
	var out []Deposit
	for _, d := range b.deposits {
		left := d.Remaining()
		if !left.IsZero() {
			out = append(out, d)
		}
	}
	return out
}

// Item 单个非同质化物品
type Item struct {
	Input  uint8
	Hash   chainhash.Hash
	Costed bool
}

// Items 同一代号下的非同质化物品集合
type Items struct {
	Tag   name.Name
	items []Item
	index map[chainhash.Hash]int
}

// NewItems 创建一个空的物品集合
func NewItems(tag name.Name) *Items {
	return &Items{Tag: tag, index: make(map[chainhash.Hash]int)}
}

// Deposit 记录某个输入携带的物品，同一物品不能出现两次
func (s *Items) Deposit(input uint8, hash chainhash.Hash) error {
	if _, ok := s.index[hash]; ok {
		return ErrDuplicateItem
	}
	s.index[hash] = len(s.items)
	s.items = append(s.items, Item{Input: input, Hash: hash})
	return nil
}

// Cost 将指定物品标记为已扣减
func (s *Items) Cost(hash chainhash.Hash) error {
	i, ok := s.index[hash]
	if !ok {
		return ErrItemNotPresent
	}
	if s.items[i].Costed {
		return ErrAlreadyCosted
	}
	s.items[i].Costed = true
	return nil
}

// Remaining 返回尚未扣减的物品，按存入顺序排列
func (s *Items) Remaining() []Item {
	var out []Item
	for _, it := range s.items {
		if !it.Costed {
			out = append(out, it)
		}
	}
	return out
}

// NameSlot 某个输入携带的名称
type NameSlot struct {
	Input  uint8
	Name   name.Name
	Costed bool
}

// Cost 将名称标记为已扣减
func (s *NameSlot) Cost() error {
	if s.Costed {
		return ErrAlreadyCosted
	}
	s.Costed = true
	return nil
}
