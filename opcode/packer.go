package opcode

import (
	"github.com/qinglongcn/vitalchain/resource"
)

// Packer 在字节切片上顺序读写。读取越界时记录错误，后续读取返回零值，调用方最后检查 Err。
type Packer struct {
	b      []byte
	offset int
	err    error
}

// NewWriter 创建用于编码的 Packer
func NewWriter(initial int) *Packer {
	return &Packer{b: make([]byte, 0, initial)}
}

// NewReader 创建用于解码的 Packer
func NewReader(b []byte) *Packer {
	return &Packer{b: b}
}

// Bytes 返回已写入的字节
func (p *Packer) Bytes() []byte { return p.b }

// Offset 返回当前读取位置
func (p *Packer) Offset() int { return p.offset }

// Empty 是否已读完
func (p *Packer) Empty() bool { return p.offset >= len(p.b) }

// Err 返回第一个错误
func (p *Packer) Err() error { return p.err }

func (p *Packer) addErr(err error) {
	if p.err == nil {
		p.err = err
	}
}

func (p *Packer) PackByte(v byte) {
	p.b = append(p.b, v)
}

func (p *Packer) PackFixedBytes(v []byte) {
	p.b = append(p.b, v...)
}

// PackID 写入操作码：基础操作码 1 字节，扩展操作码 2 字节大端
func (p *Packer) PackID(id ID) {
	if id.IsExtension() {
		p.b = append(p.b, byte(id>>8), byte(id))
		return
	}
	p.b = append(p.b, byte(id))
}

func (p *Packer) PackResource(r resource.Resource) {
	p.b = r.AppendTo(p.b)
}

func (p *Packer) PackPolicy(m resource.MintPolicy) {
	p.b = m.AppendTo(p.b)
}

func (p *Packer) UnpackByte() byte {
	if p.err != nil {
		return 0
	}
	if p.offset >= len(p.b) {
		p.addErr(ErrTruncated)
		return 0
	}
	v := p.b[p.offset]
	p.offset++
	return v
}

// UnpackFixedBytes 读取恰好 n 个字节，不足时记录截断错误
func (p *Packer) UnpackFixedBytes(n int) []byte {
	if p.err != nil {
		return nil
	}
	if len(p.b)-p.offset < n {
		p.addErr(ErrTruncated)
		return nil
	}
	v := p.b[p.offset : p.offset+n]
	p.offset += n
	return v
}

func (p *Packer) UnpackResource() resource.Resource {
	if p.err != nil {
		return resource.Resource{}
	}
	r, n, err := resource.Decode(p.b[p.offset:])
	if err != nil {
		p.addErr(err)
		return resource.Resource{}
	}
	p.offset += n
	return r
}

func (p *Packer) UnpackPolicy() resource.MintPolicy {
	if p.err != nil {
		return resource.MintPolicy{}
	}
	m, n, err := resource.DecodeMintPolicy(p.b[p.offset:])
	if err != nil {
		p.addErr(err)
		return resource.MintPolicy{}
	}
	p.offset += n
	return m
}
