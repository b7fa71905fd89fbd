package vm

import (
	"github.com/btcsuite/btcd/wire"

	"github.com/qinglongcn/vitalchain/ledger"
	"github.com/qinglongcn/vitalchain/opcode"
)

// Finalize 校验所有断言的资源都已被扣减，并生成待提交的账本批次。
// 只能调用一次。
func (c *Context) Finalize() (*ledger.Batch, error) {
	if c.finalized {
		return nil, ErrFinalized
	}
	c.finalized = true

	if rem := c.inputs.remainders(); len(rem) > 0 {
		return nil, &RemainderError{Remainders: rem}
	}

	batch := &ledger.Batch{
		Unbinds: append([]wire.OutPoint(nil), c.asserted...),
		Writes:  c.storage.writes(),
	}
	for _, i := range c.outputs.indices() {
		batch.Binds = append(batch.Binds, ledger.Binding{
			Location: wire.OutPoint{Hash: c.txHash, Index: uint32(i)},
			Resource: c.outputs.entries[i],
		})
	}
	return batch, nil
}

// Commit 生成批次并应用到账本
func (c *Context) Commit() (*ledger.Batch, error) {
	batch, err := c.Finalize()
	if err != nil {
		return nil, err
	}
	if err := ledger.Apply(c.ledger, batch); err != nil {
		return nil, err
	}
	return batch, nil
}

// Run 在同一个上下文中依次执行交易的全部程序并提交
func Run(tx *wire.MsgTx, l ledger.Ledger, height int32, programs ...[]opcode.Instruction) (*ledger.Batch, error) {
	ctx := NewContext(tx, l, height)
	for _, program := range programs {
		if err := ctx.ExecuteProgram(program); err != nil {
			return nil, err
		}
	}
	return ctx.Commit()
}
