package vitalchain

import (
	"context"
	"testing"

	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"

	"github.com/qinglongcn/vitalchain/opcode"
)

func TestOpenProcessClose(t *testing.T) {
	root := t.TempDir()
	opt := DefaultOptions()
	opt.BuildInstanceId("test")
	opt.RootPath = root

	app, err := Open(opt)
	require.NoError(t, err)
	require.True(t, opt.IsOpened)

	// 已打开的选项不能再次打开
	_, err = Open(opt)
	require.ErrorIs(t, err, ErrInstanceOpened)

	deployAbc(t, app.Ledger())
	r := newRevealer(t)
	mint := r.reveal(opcode.NewBuilder().OutputAssert(0).Mint(0, abc(1)), 1)
	statuses, err := app.ProcessBlock(context.Background(), 1, []Reveal{mint})
	require.NoError(t, err)
	require.Len(t, statuses, 1)
	require.True(t, statuses[0].Ok)

	n, err := app.Ledger().CountResources()
	require.NoError(t, err)
	require.Equal(t, 1, n)

	rec, ok, err := app.Index().TxStatus(mint.Tx.TxHash())
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, rec.Ok)

	families, err := app.Gatherer().Gather()
	require.NoError(t, err)
	require.NotEmpty(t, families)

	require.NoError(t, app.Close())
	require.False(t, opt.IsOpened)

	// 重新打开后账本内容仍在
	app, err = Open(opt)
	require.NoError(t, err)
	defer app.Close()
	got, ok, err := app.Ledger().GetResource(wire.OutPoint{Hash: mint.Tx.TxHash(), Index: 0})
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, abc(1), got)
}

func TestOpenInMemoryWithoutIndex(t *testing.T) {
	opt := DefaultOptions()
	opt.RootPath = t.TempDir()
	opt.BuildInMemory()
	opt.IndexEnabled = false

	app, err := Open(opt)
	require.NoError(t, err)
	defer app.Close()
	require.Nil(t, app.Index())

	statuses, err := app.ProcessBlock(context.Background(), 1, []Reveal{plainTx(1)})
	require.NoError(t, err)
	require.Empty(t, statuses)
}
