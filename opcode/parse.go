package opcode

import (
	"fmt"
	"strings"
)

// ParseError 解析失败的位置与原因
type ParseError struct {
	Offset int // 出错指令的起始偏移
	ID     ID  // 已读出的操作码，未读出时为 0
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("opcode %#04x at offset %d: %v", uint16(e.ID), e.Offset, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Parse 将程序字节解码为指令序列。任何一条指令失败则整个程序失败。
func Parse(program []byte) ([]Instruction, error) {
	return ParseLimit(program, 0)
}

// ParseLimit 与 Parse 相同，但指令数超过 limit（大于 0 时）即失败
func ParseLimit(program []byte, limit int) ([]Instruction, error) {
	p := NewReader(program)
	var out []Instruction
	for !p.Empty() {
		start := p.Offset()
		if limit > 0 && len(out) >= limit {
			return nil, &ParseError{Offset: start, Err: ErrTooManyInstructions}
		}
		ins, id, err := next(p)
		if err != nil {
			return nil, &ParseError{Offset: start, ID: id, Err: err}
		}
		out = append(out, ins)
	}
	return out, nil
}

func next(p *Packer) (Instruction, ID, error) {
	first := p.UnpackByte()
	id := ID(first)
	if first&extensionFlag != 0 {
		second := p.UnpackByte()
		if err := p.Err(); err != nil {
			return nil, id, err
		}
		id = ID(first)<<8 | ID(second)
	}
	op, ok := lookup(id)
	if !ok {
		return nil, id, ErrUnknownOpcode
	}
	ins, err := op.decode(op, p)
	if err != nil {
		return nil, id, err
	}
	return ins, id, nil
}

// Disasm 返回程序的单行反汇编文本，解析失败时在末尾标注错误
func Disasm(program []byte) string {
	p := NewReader(program)
	var parts []string
	for !p.Empty() {
		start := p.Offset()
		ins, id, err := next(p)
		if err != nil {
			parts = append(parts, fmt.Sprintf("[error at %d: %v]", start, err))
			break
		}
		parts = append(parts, fmt.Sprintf("%s(%s)", id, ins))
	}
	return strings.Join(parts, " ")
}
