package vitalchain

import (
	"bytes"
	"context"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/qinglongcn/vitalchain/fault"
	"github.com/qinglongcn/vitalchain/ledger"
	"github.com/qinglongcn/vitalchain/name"
	"github.com/qinglongcn/vitalchain/opcode"
	"github.com/qinglongcn/vitalchain/resource"
	"github.com/qinglongcn/vitalchain/txscript"
	"github.com/qinglongcn/vitalchain/vm"
)

func abc(amount uint64) resource.Resource {
	return resource.NewVRC20(name.MustName("abc"), uint256.NewInt(amount))
}

// deployAbc 直接写入 abc 的部署记录
func deployAbc(t *testing.T, l ledger.Ledger) {
	d := &ledger.Deployment{Tag: name.MustName("abc")}
	raw, err := d.MarshalBinary()
	require.NoError(t, err)
	require.NoError(t, l.StorageSet(ledger.DeployKey(d.Tag), raw))
}

// revealer 构造携带程序的承诺交易与揭示交易
type revealer struct {
	t    *testing.T
	priv *btcec.PrivateKey
	seq  byte
}

func newRevealer(t *testing.T) *revealer {
	priv, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	return &revealer{t: t, priv: priv}
}

// reveal 输入 0 携带程序，其余输入依次花费 prevs，输出数为 outputs
func (r *revealer) reveal(program *opcode.Builder, outputs int, prevs ...wire.OutPoint) Reveal {
	payload, err := program.Program()
	require.NoError(r.t, err)

	tapscript, err := txscript.BuildEnvelope(schnorr.SerializePubKey(r.priv.PubKey()), payload)
	require.NoError(r.t, err)
	commitment, err := txscript.CommitTapscript(r.priv.PubKey(), tapscript)
	require.NoError(r.t, err)

	r.seq++
	commit := wire.NewMsgTx(2)
	commit.AddTxIn(wire.NewTxIn(&wire.OutPoint{Hash: chainhash.HashH([]byte{r.seq})}, nil, nil))
	commit.AddTxOut(wire.NewTxOut(10000, commitment.PkScript))

	tx := wire.NewMsgTx(2)
	in := wire.NewTxIn(&wire.OutPoint{Hash: commit.TxHash(), Index: 0}, nil, nil)
	in.Witness = commitment.RevealWitness(bytes.Repeat([]byte{0x01}, 64), tapscript)
	tx.AddTxIn(in)
	for i := range prevs {
		tx.AddTxIn(wire.NewTxIn(&prevs[i], nil, nil))
	}
	for i := 0; i < outputs; i++ {
		tx.AddTxOut(wire.NewTxOut(546, commitment.PkScript))
	}
	return Reveal{Tx: tx, Commit: commit}
}

func plainTx(seed byte) Reveal {
	tx := wire.NewMsgTx(2)
	tx.AddTxIn(wire.NewTxIn(&wire.OutPoint{Hash: chainhash.HashH([]byte{0xee, seed})}, nil, nil))
	tx.AddTxOut(wire.NewTxOut(1000, []byte{0x51}))
	return Reveal{Tx: tx}
}

func newTestRunner(t *testing.T, l ledger.Ledger) (*Runner, *SqliteDB, *Metrics) {
	opt := DefaultOptions()
	opt.DecodeWorkers = 2

	db, err := NewSqliteDB(t.TempDir(), DbFile)
	require.NoError(t, err)
	require.NoError(t, db.InitDBTable())
	t.Cleanup(func() { db.Close() })

	m, err := NewMetrics(prometheus.NewRegistry())
	require.NoError(t, err)
	return NewRunner(opt, l, db, m), db, m
}

func TestProcessBlock(t *testing.T) {
	l := ledger.NewMemoryLedger()
	deployAbc(t, l)
	runner, db, m := newTestRunner(t, l)
	r := newRevealer(t)
	ctx := context.Background()

	mint := r.reveal(opcode.NewBuilder().OutputAssert(0).Mint(0, abc(100)), 1)
	statuses, err := runner.ProcessBlock(ctx, 1, []Reveal{plainTx(1), mint})
	require.NoError(t, err)
	require.Len(t, statuses, 1)
	require.True(t, statuses[0].Ok)
	require.Equal(t, 2, statuses[0].Instructions)

	minted := wire.OutPoint{Hash: mint.Tx.TxHash(), Index: 0}
	got, ok, err := l.GetResource(minted)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, abc(100), got)

	// 同一区块内后一笔交易可以花费前一笔交易的输出，重复花费失败
	move := r.reveal(opcode.NewBuilder().
		InputAssert(1, abc(100)).
		OutputAssert(0, 1).
		Move(0, abc(30)).
		MoveAll(1, abc(1).Type()), 2, minted)
	again := r.reveal(opcode.NewBuilder().InputAssert(1, abc(100)).Burn(abc(100)), 1, minted)

	statuses, err = runner.ProcessBlock(ctx, 2, []Reveal{move, again})
	require.NoError(t, err)
	require.Len(t, statuses, 2)
	require.True(t, statuses[0].Ok, "%v", statuses[0].Err)
	require.False(t, statuses[1].Ok)
	require.ErrorIs(t, statuses[1].Err, vm.ErrResourceNotBound)

	got, _, err = l.GetResource(wire.OutPoint{Hash: move.Tx.TxHash(), Index: 1})
	require.NoError(t, err)
	require.Equal(t, abc(70), got)
	require.Equal(t, 2, l.Len())

	rec, ok, err := db.TxStatus(again.Tx.TxHash())
	require.NoError(t, err)
	require.True(t, ok)
	require.False(t, rec.Ok)
	require.Equal(t, "lookup", rec.Class)
	require.Equal(t, int32(2), rec.Height)

	require.Equal(t, float64(2), testutil.ToFloat64(m.blocks))
	require.Equal(t, float64(3), testutil.ToFloat64(m.candidates))
	require.Equal(t, float64(2), testutil.ToFloat64(m.txs.WithLabelValues("none")))
	require.Equal(t, float64(1), testutil.ToFloat64(m.txs.WithLabelValues("lookup")))
}

func TestProcessBlockDeploy(t *testing.T) {
	l := ledger.NewMemoryLedger()
	runner, db, _ := newTestRunner(t, l)
	r := newRevealer(t)

	tag := name.MustName("abc")
	nameLoc := wire.OutPoint{Hash: chainhash.HashH([]byte("name")), Index: 3}
	require.NoError(t, l.BindResource(nameLoc, resource.NewName(tag)))

	policy := resource.MintPolicy{Decimals: 8, MaxSupply: *uint256.NewInt(1000), LimitPerMint: *uint256.NewInt(100)}
	deploy := r.reveal(opcode.NewBuilder().
		InputAssert(1, resource.NewName(tag)).
		Deploy(1, tag, policy), 0, nameLoc)
	over := r.reveal(opcode.NewBuilder().OutputAssert(0).Mint(0, abc(101)), 1)

	statuses, err := runner.ProcessBlock(context.Background(), 7, []Reveal{deploy, over})
	require.NoError(t, err)
	require.True(t, statuses[0].Ok, "%v", statuses[0].Err)
	require.ErrorIs(t, statuses[1].Err, vm.ErrMintLimit)

	rec, ok, err := db.Deployment("abc")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, int32(7), rec.Height)
	require.Equal(t, deploy.Tx.TxHash().String(), rec.TxHash)
	require.Equal(t, "1000", rec.MaxSupply)
	require.Equal(t, "100", rec.LimitPerMint)

	exists, err := db.Exists(deploymentTable, []string{"tag=?", "decimals=?"}, []interface{}{"abc", 8})
	require.NoError(t, err)
	require.True(t, exists)
}

func TestProcessBlockRejects(t *testing.T) {
	l := ledger.NewMemoryLedger()
	runner, _, _ := newTestRunner(t, l)
	r := newRevealer(t)

	// 超出指令数上限
	runner.opt.MaxInstructions = 2
	long := r.reveal(opcode.NewBuilder().OutputAssert(0).OutputAssert(1).OutputAssert(2), 3)

	// 承诺交易的输出不是 P2TR
	wrongCommit := r.reveal(opcode.NewBuilder().OutputAssert(0), 1)
	wrongCommit.Commit.TxOut[0].PkScript = []byte{0x00, 0x14}
	wrongCommit.Commit.TxOut[0].PkScript = append(wrongCommit.Commit.TxOut[0].PkScript, bytes.Repeat([]byte{0x01}, 20)...)
	wrongCommit.Tx.TxIn[0].PreviousOutPoint.Hash = wrongCommit.Commit.TxHash()

	statuses, err := runner.ProcessBlock(context.Background(), 1, []Reveal{long, wrongCommit})
	require.NoError(t, err)
	require.Len(t, statuses, 2)
	require.ErrorIs(t, statuses[0].Err, opcode.ErrTooManyInstructions)
	require.ErrorIs(t, statuses[1].Err, ErrCommitNotTaproot)

	// 要求承诺交易但未提供
	runner.opt.RequireCommit = true
	bare := r.reveal(opcode.NewBuilder().OutputAssert(0), 1)
	bare.Commit = nil
	statuses, err = runner.ProcessBlock(context.Background(), 2, []Reveal{bare})
	require.NoError(t, err)
	require.ErrorIs(t, statuses[0].Err, ErrCommitRequired)
	require.True(t, fault.IsInvalid(statuses[0].Err))
	require.Zero(t, l.Len())
}

func TestProcessBlockIndexFailure(t *testing.T) {
	l := ledger.NewMemoryLedger()
	deployAbc(t, l)
	runner, db, _ := newTestRunner(t, l)
	r := newRevealer(t)
	require.NoError(t, db.Close())

	first := r.reveal(opcode.NewBuilder().OutputAssert(0).Mint(0, abc(1)), 1)
	second := r.reveal(opcode.NewBuilder().OutputAssert(0).Mint(0, abc(2)), 1)
	statuses, err := runner.ProcessBlock(context.Background(), 1, []Reveal{first, second})
	require.ErrorIs(t, err, ErrIndexLagging)

	// 索引写入失败不影响后续交易，返回的状态与账本一致
	require.Len(t, statuses, 2)
	require.True(t, statuses[0].Ok)
	require.True(t, statuses[1].Ok)
	require.Equal(t, 2, l.Len())
}

func TestProcessBlockCanceled(t *testing.T) {
	runner, _, _ := newTestRunner(t, ledger.NewMemoryLedger())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := runner.ProcessBlock(ctx, 1, []Reveal{plainTx(1), plainTx(2)})
	require.ErrorIs(t, err, context.Canceled)
}
