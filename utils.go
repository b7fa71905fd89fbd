package vitalchain

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/mattn/go-colorable"
	"github.com/sirupsen/logrus"
	"github.com/snowzach/rotatefilehook"
	"github.com/vrecan/death/v3"
)

const (
	logName = "console"
)

// SetLog 为每一个实例创建一个log文件，记录日志信息
func SetLog(logsPath, instanceId, level string) error {
	logLevel, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(logsPath, 0755); err != nil {
		return err
	}

	filename := filepath.Join(logsPath, fmt.Sprintf("%s.log", logName))
	if instanceId != "" {
		filename = filepath.Join(logsPath, fmt.Sprintf("%s_%s.log", logName, instanceId))
	}
	// logrus 的回调钩子
	rotateFileHook, err := rotatefilehook.NewRotateFileHook(rotatefilehook.RotateFileConfig{
		Filename:   filename,
		MaxSize:    50, // 文件最大50M
		MaxBackups: 3,
		MaxAge:     28, // 存储28天
		Level:      logLevel,
		Formatter: &logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
		},
	})
	if err != nil {
		logrus.Errorf("[SetLog] 初始化文件回调钩子失败:\t%v", err)
		return err
	}

	logrus.SetLevel(logLevel)
	logrus.SetOutput(colorable.NewColorableStdout())
	logrus.SetFormatter(&logrus.TextFormatter{
		ForceColors:     true,
		FullTimestamp:   true,
		TimestampFormat: time.RFC822,
	})
	// 重复调用时只保留最新实例的文件钩子
	hooks := make(logrus.LevelHooks)
	hooks.Add(rotateFileHook)
	logrus.StandardLogger().ReplaceHooks(hooks)
	return nil
}

// CloseOnSignal 阻塞直到收到终止信号，然后依次关闭 closers
//
// syscall.SIGINT ctrl+c 触发，syscall.SIGTERM 进程被 kill
func CloseOnSignal(closers ...io.Closer) error {
	d := death.NewDeath(syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	if err := d.WaitForDeath(closers...); err != nil {
		logrus.Errorf("[CloseOnSignal] 关闭失败:\t%v", err)
		return err
	}
	return nil
}
