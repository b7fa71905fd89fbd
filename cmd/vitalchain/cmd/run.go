package cmd

import (
	"errors"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/qinglongcn/vitalchain"
)

var (
	blockFile   string
	commitDir   string
	height      int32
	verbose     bool
	metricsAddr string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute the programs of one block against the ledger",
	RunE: func(cmd *cobra.Command, _ []string) error {
		opt, err := loadOptions()
		if err != nil {
			return err
		}

		store, err := vitalchain.NewFileStore(fs, ".")
		if err != nil {
			return err
		}
		txs, err := store.ReadTxs(blockFile)
		if err != nil {
			return err
		}
		reveals := vitalchain.PairReveals(txs, nil)
		if commitDir != "" {
			commits, err := store.ReadCommits(commitDir)
			if err != nil {
				return err
			}
			reveals = vitalchain.PairReveals(txs, commits)
		}

		app, err := vitalchain.Open(opt)
		if err != nil {
			return err
		}
		statuses, err := app.ProcessBlock(cmd.Context(), height, reveals)
		vitalchain.PrintStatuses(os.Stdout, statuses, verbose)
		if err != nil {
			app.Close()
			return err
		}

		if metricsAddr == "" {
			return app.Close()
		}

		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(app.Gatherer(), promhttp.HandlerOpts{}))
		server := &http.Server{Addr: metricsAddr, Handler: mux}
		go func() {
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logrus.Errorf("[run] 统计服务失败:\t%v", err)
			}
		}()
		logrus.Infof("[run] 统计服务已启动:\t%s", metricsAddr)
		return vitalchain.CloseOnSignal(server, app)
	},
}
