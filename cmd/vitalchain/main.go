// vitalchain 命令行：按区块回放交易并维护资源账本
package main

import (
	"os"

	"github.com/sirupsen/logrus"

	"github.com/qinglongcn/vitalchain/cmd/vitalchain/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		logrus.Errorf("vitalchain failed:\t%v", err)
		os.Exit(1)
	}
	os.Exit(0)
}
