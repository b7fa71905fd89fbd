// Package vm 在一笔交易的范围内执行程序。
//
// Context 持有断言记录、输入累加器、输出构造器与元数据覆盖层，
// 只通过注入的 ledger.Ledger 读取账本。执行期间不修改账本，
// Finalize 校验守恒并生成批次，Commit 把批次应用到账本。
// 任何指令失败都会让整笔交易失败，Context 随之丢弃。
package vm

import (
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/holiman/uint256"
	"github.com/sirupsen/logrus"

	"github.com/qinglongcn/vitalchain/ledger"
	"github.com/qinglongcn/vitalchain/name"
	"github.com/qinglongcn/vitalchain/opcode"
	"github.com/qinglongcn/vitalchain/resource"
)

// Context 单笔交易的执行上下文
type Context struct {
	tx     *wire.MsgTx
	txHash chainhash.Hash
	height int32
	ledger ledger.Ledger

	tracker *tracker
	inputs  *inputLedger
	outputs *outputBuilder
	storage *storageOverlay

	asserted  []wire.OutPoint // 已断言输入引用的位置，按断言顺序
	executed  int
	finalized bool
}

// NewContext 为交易创建执行上下文
func NewContext(tx *wire.MsgTx, l ledger.Ledger, height int32) *Context {
	return &Context{
		tx:      tx,
		txHash:  tx.TxHash(),
		height:  height,
		ledger:  l,
		tracker: newTracker(),
		inputs:  newInputLedger(),
		outputs: newOutputBuilder(),
		storage: newStorageOverlay(l),
	}
}

// TxHash 返回交易哈希
func (c *Context) TxHash() chainhash.Hash { return c.txHash }

// Executed 返回已成功执行的指令数
func (c *Context) Executed() int { return c.executed }

// ExecuteProgram 依次执行程序中的指令，遇到第一个失败即返回
func (c *Context) ExecuteProgram(program []opcode.Instruction) error {
	for i, ins := range program {
		if err := c.Execute(ins); err != nil {
			logrus.WithFields(logrus.Fields{
				"tx":          c.txHash.String(),
				"instruction": i,
			}).Debugf("[ExecuteProgram] 指令执行失败:\t%v", err)
			return fmt.Errorf("instruction %d (%s): %w", i, ins, err)
		}
	}
	return nil
}

// Execute 执行单条指令
func (c *Context) Execute(ins opcode.Instruction) error {
	if c.finalized {
		return ErrFinalized
	}

	var err error
	switch ins := ins.(type) {
	case opcode.InputAssert:
		err = c.inputAssert(ins)
	case opcode.OutputAssert:
		err = c.outputAssert(ins)
	case opcode.Mint:
		err = c.mint(ins)
	case opcode.Move:
		err = c.move(ins)
	case opcode.MoveAll:
		err = c.moveAll(ins)
	case opcode.Burn:
		err = c.burn(ins)
	case opcode.Deploy:
		err = c.deploy(ins)
	default:
		err = opcode.ErrUnknownInstruction
	}
	if err != nil {
		return err
	}
	c.executed++
	return nil
}

func (c *Context) inputAssert(ins opcode.InputAssert) error {
	if int(ins.Index) >= len(c.tx.TxIn) {
		return ErrInputOutOfRange
	}
	if err := ins.Resource.Validate(); err != nil {
		return err
	}
	if _, ok := c.tracker.inputs[ins.Index]; ok {
		return ErrInputAsserted
	}

	loc := c.tx.TxIn[ins.Index].PreviousOutPoint
	bound, ok, err := c.ledger.GetResource(loc)
	if err != nil {
		return err
	}
	if !ok {
		return ErrResourceNotBound
	}
	if bound != ins.Resource {
		return ErrResourceMismatch
	}

	if err := c.inputs.deposit(ins.Index, bound); err != nil {
		return err
	}
	if err := c.tracker.assertInput(ins.Index); err != nil {
		return err
	}
	c.asserted = append(c.asserted, loc)
	return nil
}

func (c *Context) outputAssert(ins opcode.OutputAssert) error {
	for _, i := range ins.Indices {
		if int(i) >= len(c.tx.TxOut) {
			return ErrOutputOutOfRange
		}
	}
	return c.tracker.assertOutputs(ins.Indices)
}

// writeOutput 向已断言的输出写入资源
func (c *Context) writeOutput(index uint8, r resource.Resource) error {
	if !c.tracker.outputAsserted(index) {
		return ErrOutputNotAsserted
	}
	return c.outputs.write(index, r)
}

func (c *Context) mint(ins opcode.Mint) error {
	if c.tracker.minted {
		return ErrAlreadyMinted
	}
	if err := ins.Resource.Validate(); err != nil {
		return err
	}
	if !c.tracker.outputAsserted(ins.Output) {
		return ErrOutputNotAsserted
	}
	switch ins.Resource.Class {
	case resource.ClassName:
		if err := c.registerName(ins.Resource.Tag); err != nil {
			return err
		}
	case resource.ClassVRC20:
		if err := c.checkMintPolicy(ins.Resource); err != nil {
			return err
		}
	}
	if err := c.outputs.write(ins.Output, ins.Resource); err != nil {
		return err
	}
	c.tracker.minted = true
	return nil
}

// registerName 名称只能被铸造一次，首次铸造时写入注册记录
func (c *Context) registerName(n name.Name) error {
	_, ok, err := ledger.GetNameRecord(c.storage, n)
	if err != nil {
		return err
	}
	if ok {
		return ErrNameRegistered
	}
	rec := &ledger.NameRecord{Height: c.height, TxHash: c.txHash}
	raw, err := rec.MarshalBinary()
	if err != nil {
		return err
	}
	c.storage.set(ledger.NameKey(n), raw)
	return nil
}

// checkMintPolicy 要求代号已部署，按部署记录校验单次铸造上限与总量上限，并更新已铸造总量
func (c *Context) checkMintPolicy(r resource.Resource) error {
	d, ok, err := ledger.GetDeployment(c.storage, r.Tag)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotDeployed
	}
	policy := d.Policy
	if !policy.LimitPerMint.IsZero() && r.Amount.Gt(&policy.LimitPerMint) {
		return ErrMintLimit
	}

	supply, err := ledger.GetSupply(c.storage, r.Tag)
	if err != nil {
		return err
	}
	var next uint256.Int
	if _, overflow := next.AddOverflow(supply, &r.Amount); overflow {
		return ErrMaxSupply
	}
	if !policy.MaxSupply.IsZero() && next.Gt(&policy.MaxSupply) {
		return ErrMaxSupply
	}
	raw, err := ledger.EncodeSupply(&next)
	if err != nil {
		return err
	}
	c.storage.set(ledger.SupplyKey(r.Tag), raw)
	return nil
}

func (c *Context) move(ins opcode.Move) error {
	if err := ins.Resource.Validate(); err != nil {
		return err
	}
	if err := c.inputs.cost(ins.Resource); err != nil {
		return err
	}
	return c.writeOutput(ins.Output, ins.Resource)
}

func (c *Context) burn(ins opcode.Burn) error {
	if err := ins.Resource.Validate(); err != nil {
		return err
	}
	return c.inputs.cost(ins.Resource)
}

func (c *Context) moveAll(ins opcode.MoveAll) error {
	r, err := c.inputs.takeAll(ins.Type)
	if err != nil {
		return err
	}
	return c.writeOutput(ins.Output, r)
}

func (c *Context) deploy(ins opcode.Deploy) error {
	if err := ins.Policy.Validate(); err != nil {
		return err
	}
	_, ok, err := ledger.GetDeployment(c.storage, ins.Tag)
	if err != nil {
		return err
	}
	if ok {
		return ErrAlreadyDeployed
	}

	costed, err := c.inputs.costNameAt(ins.NameInput)
	if err != nil {
		return err
	}
	if costed != ins.Tag {
		return ErrTagMismatch
	}

	d := &ledger.Deployment{Tag: ins.Tag, Height: c.height, Policy: ins.Policy}
	raw, err := d.MarshalBinary()
	if err != nil {
		return err
	}
	c.storage.set(ledger.DeployKey(ins.Tag), raw)
	return nil
}
