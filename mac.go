// 实例标识

package vitalchain

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"net"
	"strings"
)

// GetPrimaryMACAddress 返回主要网卡的 MAC 地址，去掉分隔符以便用于文件名
func GetPrimaryMACAddress() (string, error) {
	interfaces, err := net.Interfaces()
	if err != nil {
		return "", err
	}

	best, bestWeight := "", 0
	for _, iface := range interfaces {
		if iface.HardwareAddr == nil || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		if w := interfaceWeight(iface); w > bestWeight {
			best, bestWeight = iface.HardwareAddr.String(), w
		}
	}
	if best == "" {
		return "", fmt.Errorf("no MAC address found")
	}
	return strings.ReplaceAll(best, ":", ""), nil
}

// interfaceWeight 非虚拟、已启用、带 IPv4 地址的网卡权重更高
func interfaceWeight(iface net.Interface) int {
	weight := 0
	if !strings.Contains(iface.Name, "vmnet") && !strings.Contains(iface.Name, "vboxnet") {
		weight += 10
	}
	if iface.Flags&net.FlagUp != 0 {
		weight += 10
	}
	addrs, err := iface.Addrs()
	if err != nil {
		return weight
	}
	for _, addr := range addrs {
		if ipNet, ok := addr.(*net.IPNet); ok && !ipNet.IP.IsLoopback() && ipNet.IP.To4() != nil {
			weight += 10
			break
		}
	}
	return weight
}

// generateRandomString 生成一个指定长度的随机字符串
func generateRandomString(length int) (string, error) {
	const letters = "0123456789abcdefghijklmnopqrstuvwxyz"
	var result strings.Builder
	for i := 0; i < length; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(letters))))
		if err != nil {
			return "", err
		}
		result.WriteByte(letters[num.Int64()])
	}
	return result.String(), nil
}
