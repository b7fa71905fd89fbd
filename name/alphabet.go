// Package name 实现名称的紧凑编码。
//
// 名称由 42 个符号组成的封闭字母表构成，每个符号映射为 1..42 的 6 位编码，0 表示空缺。
// 编码按 MSB 优先依次拼接，每 4 个编码恰好填满 3 个字节。
// 按长度分为三档：ShortName（4 字节）、Name（8 字节）、LongName（32 字节）。
package name

import "github.com/qinglongcn/vitalchain/fault"

// Alphabet 是名称允许使用的全部符号，按编码顺序排列（编码 = 下标 + 1）
const Alphabet = "abcdefghijklmnopqrstuvwxyz0123456789@._-!*"

const (
	codeBits = 6                   // 每个符号占用的位数
	maxCode  = byte(len(Alphabet)) // 最大有效编码 42
)

var (
	ErrNameTooLong   = fault.FormatError("name too long")
	ErrInvalidSymbol = fault.FormatError("invalid name symbol")
	ErrInvalidName   = fault.FormatError("invalid packed name")
	ErrNameNarrowing = fault.FormatError("name does not fit the narrower tier")
	ErrEmptyName     = fault.FormatError("empty name")
)

// codes 符号到编码的查找表，0 表示不在字母表内
var codes [256]byte

func init() {
	for i := 0; i < len(Alphabet); i++ {
		codes[Alphabet[i]] = byte(i + 1)
	}
}

// CodeOf 返回符号的 6 位编码，不在字母表内时返回 0
func CodeOf(c byte) byte {
	return codes[c]
}

// SymbolOf 返回编码对应的符号
func SymbolOf(code byte) (byte, bool) {
	if code == 0 || code > maxCode {
		return 0, false
	}
	return Alphabet[code-1], true
}

// putCode 将第 i 个编码按 MSB 优先写入 buf
func putCode(buf []byte, i int, code byte) {
	bit := i * codeBits
	for k := 0; k < codeBits; k++ {
		if code&(1<<(codeBits-1-k)) == 0 {
			continue
		}
		pos := bit + k
		buf[pos/8] |= 0x80 >> (pos % 8)
	}
}

// getCode 读取 buf 中第 i 个编码
func getCode(buf []byte, i int) byte {
	bit := i * codeBits
	var code byte
	for k := 0; k < codeBits; k++ {
		pos := bit + k
		code <<= 1
		if buf[pos/8]&(0x80>>(pos%8)) != 0 {
			code |= 1
		}
	}
	return code
}

// pack 把字符串按编码写入 buf，最多 max 个符号
func pack(s string, max int, buf []byte) error {
	if len(s) > max {
		return ErrNameTooLong
	}
	for i := 0; i < len(s); i++ {
		code := CodeOf(s[i])
		if code == 0 {
			return ErrInvalidSymbol
		}
		putCode(buf, i, code)
	}
	return nil
}

// prefixLen 返回前导非零编码的个数
func prefixLen(buf []byte, max int) int {
	for i := 0; i < max; i++ {
		if getCode(buf, i) == 0 {
			return i
		}
	}
	return max
}

// checkCodes 校验前 n 个编码有效、其余直到 max 的编码均为 0，不分配内存
func checkCodes(buf []byte, n, max int) bool {
	for i := 0; i < max; i++ {
		code := getCode(buf, i)
		if i < n {
			if code == 0 || code > maxCode {
				return false
			}
		} else if code != 0 {
			return false
		}
	}
	return true
}

// unpack 将前 n 个编码还原为字符串，无效编码以 '?' 表示
func unpack(buf []byte, n int) string {
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		c, ok := SymbolOf(getCode(buf, i))
		if !ok {
			c = '?'
		}
		out[i] = c
	}
	return string(out)
}

// copyCodes 将 src 的前 n 个编码复制到 dst
func copyCodes(dst, src []byte, n int) {
	for i := 0; i < n; i++ {
		putCode(dst, i, getCode(src, i))
	}
}
