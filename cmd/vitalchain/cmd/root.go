// Package cmd 实现 vitalchain 的子命令
package cmd

import (
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/qinglongcn/vitalchain"
)

var (
	fs = afero.NewOsFs()

	configFile string
	rootPath   string
	network    string
	logLevel   string
	instanceId string

	rootCmd = &cobra.Command{
		Use:        "vitalchain",
		Short:      "Vitalchain resource ledger CLI",
		SuggestFor: []string{"vital", "vitalchain"},
	}
)

func init() {
	cobra.EnablePrefixMatching = true
	rootCmd.AddCommand(
		runCmd,
		decodeCmd,
		extractCmd,
	)

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "options file (yaml)")
	rootCmd.PersistentFlags().StringVar(&rootPath, "root", "", "absolute data root path")
	rootCmd.PersistentFlags().StringVar(&network, "network", "", "bitcoin network (mainnet, testnet3, regtest, signet)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level")
	rootCmd.PersistentFlags().StringVar(&instanceId, "instance", "", "instance id")

	// run
	runCmd.Flags().StringVar(&blockFile, "block", "", "block file, one raw transaction hex per line")
	runCmd.Flags().StringVar(&commitDir, "commits", "", "directory of commit transaction files")
	runCmd.Flags().Int32Var(&height, "height", 0, "block height")
	runCmd.Flags().BoolVar(&verbose, "verbose", false, "dump committed batches")
	runCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address until interrupted")
	_ = runCmd.MarkFlagRequired("block")
}

// Execute 执行根命令
func Execute() error {
	return rootCmd.Execute()
}

// loadOptions 读取配置文件并应用命令行参数
func loadOptions() (*vitalchain.Options, error) {
	opt := vitalchain.DefaultOptions()
	if configFile != "" {
		loaded, err := vitalchain.LoadOptions(fs, configFile)
		if err != nil {
			return nil, err
		}
		opt = loaded
	}

	if rootPath != "" {
		if err := opt.BuildRootPath(fs, rootPath); err != nil {
			return nil, err
		}
	}
	if network != "" {
		if err := opt.BuildNetwork(network); err != nil {
			return nil, err
		}
	}
	if logLevel != "" {
		if err := opt.BuildLogLevel(logLevel); err != nil {
			return nil, err
		}
	}
	if instanceId != "" || opt.InstanceId == "" {
		opt.BuildInstanceId(instanceId)
	}
	return opt, nil
}

// argOrStdin 没有参数时从标准输入读取
func argOrStdin(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	raw, err := afero.ReadAll(os.Stdin)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
