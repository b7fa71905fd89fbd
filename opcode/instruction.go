// Package opcode 定义程序指令集及其紧凑二进制编码。
//
// 一个程序是若干指令依次拼接而成的字节流。每条指令以操作码开头：
// 首字节小于 0x80 时为基础操作码（单字节，固定长度负载）；
// 否则与下一个字节组成 16 位扩展操作码（高字节 >= 0x80，负载可变但自描述）。
package opcode

import (
	"fmt"
	"strings"

	"github.com/qinglongcn/vitalchain/name"
	"github.com/qinglongcn/vitalchain/resource"
)

// Kind 指令种类
type Kind uint8

const (
	KindInputAssert Kind = iota + 1
	KindOutputAssert
	KindMint
	KindMove
	KindMoveAll
	KindBurn
	KindDeploy
)

func (k Kind) String() string {
	switch k {
	case KindInputAssert:
		return "INPUT_ASSERT"
	case KindOutputAssert:
		return "OUTPUT_ASSERT"
	case KindMint:
		return "MINT"
	case KindMove:
		return "MOVE"
	case KindMoveAll:
		return "MOVE_ALL"
	case KindBurn:
		return "BURN"
	case KindDeploy:
		return "DEPLOY"
	}
	return fmt.Sprintf("KIND_%d", uint8(k))
}

// Instruction 指令。只有本包定义的类型实现该接口。
type Instruction interface {
	Kind() Kind
	String() string
	isInstruction()
}

// InputAssert 断言第 Index 个输入引用的位置绑定着 Resource
type InputAssert struct {
	Index    uint8
	Resource resource.Resource
}

// OutputAssert 声明这些输出可以接收资源
type OutputAssert struct {
	Indices []uint8
}

// Mint 在输出上铸造资源，每笔交易至多一次
type Mint struct {
	Output   uint8
	Resource resource.Resource
}

// Move 从输入余额中扣减资源并写入输出
type Move struct {
	Output   uint8
	Resource resource.Resource
}

// MoveAll 将某一类型剩余的全部资源写入输出
type MoveAll struct {
	Output uint8
	Type   resource.ResourceType
}

// Burn 从输入余额中扣减资源并销毁
type Burn struct {
	Resource resource.Resource
}

// Deploy 消耗 NameInput 处的名称，将 Tag 登记为同质化代币
type Deploy struct {
	NameInput uint8
	Tag       name.Name
	Policy    resource.MintPolicy
}

func (InputAssert) Kind() Kind  { return KindInputAssert }
func (OutputAssert) Kind() Kind { return KindOutputAssert }
func (Mint) Kind() Kind         { return KindMint }
func (Move) Kind() Kind         { return KindMove }
func (MoveAll) Kind() Kind      { return KindMoveAll }
func (Burn) Kind() Kind         { return KindBurn }
func (Deploy) Kind() Kind       { return KindDeploy }

func (InputAssert) isInstruction()  {}
func (OutputAssert) isInstruction() {}
func (Mint) isInstruction()         {}
func (Move) isInstruction()         {}
func (MoveAll) isInstruction()      {}
func (Burn) isInstruction()         {}
func (Deploy) isInstruction()       {}

func (i InputAssert) String() string {
	return fmt.Sprintf("%s %d %s", i.Kind(), i.Index, i.Resource)
}

func (i OutputAssert) String() string {
	parts := make([]string, len(i.Indices))
	for n, idx := range i.Indices {
		parts[n] = fmt.Sprint(idx)
	}
	return fmt.Sprintf("%s [%s]", i.Kind(), strings.Join(parts, " "))
}

func (i Mint) String() string {
	return fmt.Sprintf("%s %d %s", i.Kind(), i.Output, i.Resource)
}

func (i Move) String() string {
	return fmt.Sprintf("%s %d %s", i.Kind(), i.Output, i.Resource)
}

func (i MoveAll) String() string {
	return fmt.Sprintf("%s %d %s", i.Kind(), i.Output, i.Type)
}

func (i Burn) String() string {
	return fmt.Sprintf("%s %s", i.Kind(), i.Resource)
}

func (i Deploy) String() string {
	return fmt.Sprintf("%s %d %s decimals=%d max=%s limit=%s", i.Kind(), i.NameInput, i.Tag,
		i.Policy.Decimals, i.Policy.MaxSupply.Dec(), i.Policy.LimitPerMint.Dec())
}
