package vitalchain

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/qinglongcn/vitalchain/fault"
	"github.com/qinglongcn/vitalchain/ledger"
	"github.com/qinglongcn/vitalchain/opcode"
	"github.com/qinglongcn/vitalchain/txscript"
	"github.com/qinglongcn/vitalchain/vm"
)

var (
	ErrProgramTooLarge = fault.InvalidError("program exceeds size limit")
	ErrIndexLagging    = fault.GenericError("business index is behind the ledger")
)

// Reveal 区块中的一笔交易，Commit 为其花费的承诺交易（可选）
type Reveal struct {
	Tx     *wire.MsgTx
	Commit *wire.MsgTx
}

// TxStatus 一笔候选交易的执行结果
type TxStatus struct {
	Hash         chainhash.Hash
	Height       int32
	Ok           bool
	Err          error
	Instructions int          // 执行的指令总数
	Batch        *ledger.Batch // 成功时提交的批次
}

// decoded 并行解码的结果
type decoded struct {
	candidate    bool
	programs     [][]opcode.Instruction
	instructions int
	err          error
}

// Runner 按区块顺序执行候选交易
type Runner struct {
	opt     *Options
	ledger  ledger.Ledger
	index   *SqliteDB // 可为 nil
	metrics *Metrics  // 可为 nil
}

// NewRunner 创建区块执行器
func NewRunner(opt *Options, l ledger.Ledger, index *SqliteDB, metrics *Metrics) *Runner {
	return &Runner{opt: opt, ledger: l, index: index, metrics: metrics}
}

// ProcessBlock 并行提取与解码全部交易的程序，再按区块顺序逐笔执行。
// 单笔交易失败只记录在 TxStatus 中，不会中断区块。ctx 取消时不执行任何交易并返回错误。
// 索引写入失败时仍处理完整个区块，返回与账本一致的全部状态以及包装 ErrIndexLagging 的错误。
func (r *Runner) ProcessBlock(ctx context.Context, height int32, reveals []Reveal) ([]TxStatus, error) {
	start := time.Now()

	results := make([]decoded, len(reveals))
	g, gctx := errgroup.WithContext(ctx)
	if r.opt.DecodeWorkers > 0 {
		g.SetLimit(r.opt.DecodeWorkers)
	}
	for i := range reveals {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = r.decode(reveals[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var (
		statuses  []TxStatus
		indexErrs []error
	)
	for i, rv := range reveals {
		d := results[i]
		if !d.candidate {
			continue
		}
		st := r.execute(height, rv.Tx, d)
		if err := r.record(&st); err != nil {
			logrus.WithField("tx", st.Hash.String()).Errorf("[ProcessBlock] 写入索引失败:\t%v", err)
			indexErrs = append(indexErrs, fmt.Errorf("tx %s: %w", st.Hash, err))
		}
		statuses = append(statuses, st)
	}

	if r.metrics != nil {
		r.metrics.blocks.Inc()
		r.metrics.blockTime.Observe(time.Since(start).Seconds())
	}
	logrus.WithFields(logrus.Fields{
		"height":     height,
		"txs":        len(reveals),
		"candidates": len(statuses),
	}).Info("[ProcessBlock] 区块处理完成")

	if len(indexErrs) > 0 {
		return statuses, fmt.Errorf("%w: %v", ErrIndexLagging, errors.Join(indexErrs...))
	}
	return statuses, nil
}

// decode 提取并解析一笔交易的全部程序，不访问账本
func (r *Runner) decode(rv Reveal) decoded {
	programs, ok := txscript.ExtractPrograms(rv.Tx)
	if !ok {
		return decoded{}
	}

	d := decoded{candidate: true}
	if r.opt.RequireCommit || rv.Commit != nil {
		if d.err = checkCommit(rv.Tx, rv.Commit, programs); d.err != nil {
			return d
		}
	}
	for _, p := range programs {
		if len(p.Payload) > r.opt.MaxProgramSize {
			d.err = fmt.Errorf("input %d: %w", p.Input, ErrProgramTooLarge)
			return d
		}
		program, err := opcode.ParseLimit(p.Payload, r.opt.MaxInstructions)
		if err != nil {
			d.err = fmt.Errorf("input %d: %w", p.Input, err)
			return d
		}
		d.programs = append(d.programs, program)
		d.instructions += len(program)
	}
	return d
}

// execute 在一个上下文中执行交易的全部程序并提交
func (r *Runner) execute(height int32, tx *wire.MsgTx, d decoded) TxStatus {
	st := TxStatus{Hash: tx.TxHash(), Height: height, Err: d.err}
	if st.Err == nil {
		st.Batch, st.Err = vm.Run(tx, r.ledger, height, d.programs...)
	}
	st.Ok = st.Err == nil

	fields := logrus.Fields{"tx": st.Hash.String(), "height": height}
	if st.Ok {
		st.Instructions = d.instructions
		logrus.WithFields(fields).Debugf("[ProcessBlock] 交易执行成功:\t%d 条指令", st.Instructions)
	} else {
		fields["class"] = fault.Class(st.Err)
		logrus.WithFields(fields).Warnf("[ProcessBlock] 交易执行失败:\t%v", st.Err)
	}

	if r.metrics != nil {
		r.metrics.candidates.Inc()
		r.metrics.txs.WithLabelValues(fault.Class(st.Err)).Inc()
		r.metrics.instructions.Add(float64(st.Instructions))
	}
	return st
}

// record 把执行结果与新的部署写入业务索引
func (r *Runner) record(st *TxStatus) error {
	if r.index == nil || !r.opt.IndexEnabled {
		return nil
	}
	if err := r.index.InsertTxStatus(st); err != nil {
		return err
	}
	if !st.Ok {
		return nil
	}
	prefix := ledger.DeployPrefix()
	for _, w := range st.Batch.Writes {
		if !bytes.HasPrefix(w.Key, prefix) {
			continue
		}
		d, err := ledger.DecodeDeployment(w.Value)
		if err != nil {
			return err
		}
		if err := r.index.InsertDeployment(d, st.Hash); err != nil {
			return err
		}
	}
	return nil
}
