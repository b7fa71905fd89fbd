package vitalchain

import (
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// CompareVersions 比较两个版本号，如果v1 < v2返回-1，如果v1 == v2返回0，如果v1 > v2返回1。
// 无法解析的版本视为相同。
func CompareVersions(v1, v2 string) int {
	v1Parts := strings.Split(strings.TrimPrefix(v1, "v"), ".")
	v2Parts := strings.Split(strings.TrimPrefix(v2, "v"), ".")

	for i := 0; i < len(v1Parts) || i < len(v2Parts); i++ {
		a, err := versionPart(v1Parts, i)
		if err != nil {
			logrus.Warnf("[CompareVersions] 版本解析失败:\t%v", err)
			return 0
		}
		b, err := versionPart(v2Parts, i)
		if err != nil {
			logrus.Warnf("[CompareVersions] 版本解析失败:\t%v", err)
			return 0
		}

		if a < b {
			return -1
		} else if a > b {
			return 1
		}
	}

	return 0
}

// versionPart 缺失的段视为 0
func versionPart(parts []string, i int) (int, error) {
	if i >= len(parts) {
		return 0, nil
	}
	return strconv.Atoi(parts[i])
}
