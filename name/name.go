package name

import "encoding/hex"

const (
	ShortNameSize       = 4  // ShortName 缓冲区字节数
	ShortNameMaxSymbols = 5  // ShortName 最多符号数，长度隐式（遇到第一个 0 编码结束）
	NameSize            = 8  // Name 缓冲区字节数
	NameMaxSymbols      = 10 // Name 最多符号数，长度存放在最后一个字节的低 4 位
	LongNameSize        = 32 // LongName 缓冲区字节数（256 位）
	LongNameMaxSymbols  = 42 // LongName 最多符号数

	lengthMask = 0x0f
)

// ShortName 最多 5 个符号的名称，30 位编码 + 2 位补零
type ShortName [ShortNameSize]byte

// Name 最多 10 个符号的名称，60 位编码 + 4 位长度
type Name [NameSize]byte

// LongName 最多 42 个符号的名称，252 位编码 + 4 位长度（长度对 16 取模）
type LongName [LongNameSize]byte

// NewShortName 打包 ShortName
func NewShortName(s string) (ShortName, error) {
	var n ShortName
	if err := pack(s, ShortNameMaxSymbols, n[:]); err != nil {
		return ShortName{}, err
	}
	return n, nil
}

// NewName 打包 Name
func NewName(s string) (Name, error) {
	var n Name
	if err := pack(s, NameMaxSymbols, n[:]); err != nil {
		return Name{}, err
	}
	n[NameSize-1] |= byte(len(s))
	return n, nil
}

// NewLongName 打包 LongName
func NewLongName(s string) (LongName, error) {
	var n LongName
	if err := pack(s, LongNameMaxSymbols, n[:]); err != nil {
		return LongName{}, err
	}
	n[LongNameSize-1] |= byte(len(s)) & lengthMask
	return n, nil
}

// MustName 与 NewName 相同，出错时 panic，仅用于常量与测试
func MustName(s string) Name {
	n, err := NewName(s)
	if err != nil {
		panic(err)
	}
	return n
}

// ---- ShortName ----

// Len 返回符号个数
func (n ShortName) Len() int { return prefixLen(n[:], ShortNameMaxSymbols) }

// IsZero 是否为空名称
func (n ShortName) IsZero() bool { return n == ShortName{} }

// Valid 校验编码与补零规则
func (n ShortName) Valid() bool {
	if n[ShortNameSize-1]&0x03 != 0 {
		return false
	}
	return checkCodes(n[:], n.Len(), ShortNameMaxSymbols)
}

func (n ShortName) String() string { return unpack(n[:], n.Len()) }

// Name 无损扩展为 Name
func (n ShortName) Name() Name {
	var out Name
	l := n.Len()
	copyCodes(out[:], n[:], l)
	out[NameSize-1] |= byte(l)
	return out
}

// ---- Name ----

// Len 返回显式存储的长度
func (n Name) Len() int { return int(n[NameSize-1] & lengthMask) }

// IsZero 是否为空名称
func (n Name) IsZero() bool { return n == Name{} }

// Valid 校验长度不超过上限，且长度之后的编码均为 0
func (n Name) Valid() bool {
	l := n.Len()
	if l > NameMaxSymbols {
		return false
	}
	return checkCodes(n[:], l, NameMaxSymbols)
}

func (n Name) String() string {
	l := n.Len()
	if l > NameMaxSymbols {
		l = NameMaxSymbols
	}
	return unpack(n[:], l)
}

// Short 收窄为 ShortName，超过 5 个符号时失败
func (n Name) Short() (ShortName, error) {
	var out ShortName
	if !n.Valid() {
		return out, ErrInvalidName
	}
	l := n.Len()
	if l > ShortNameMaxSymbols {
		return out, ErrNameNarrowing
	}
	copyCodes(out[:], n[:], l)
	return out, nil
}

// FitsShort 是否可以无损收窄为 ShortName
func (n Name) FitsShort() bool {
	return n.Valid() && n.Len() <= ShortNameMaxSymbols
}

// Long 无损扩展为 LongName
func (n Name) Long() LongName {
	var out LongName
	l := n.Len()
	if l > NameMaxSymbols {
		l = NameMaxSymbols
	}
	copyCodes(out[:], n[:], l)
	out[LongNameSize-1] |= byte(l) & lengthMask
	return out
}

// Hex 返回十六进制表示，用于存储键与日志
func (n Name) Hex() string { return hex.EncodeToString(n[:]) }

// MarshalText 以字符串形式序列化
func (n Name) MarshalText() ([]byte, error) {
	if !n.Valid() {
		return nil, ErrInvalidName
	}
	return []byte(n.String()), nil
}

// UnmarshalText 从字符串解析
func (n *Name) UnmarshalText(text []byte) error {
	v, err := NewName(string(text))
	if err != nil {
		return err
	}
	*n = v
	return nil
}

// ---- LongName ----

// Len 返回前导非零编码的个数
func (n LongName) Len() int { return prefixLen(n[:], LongNameMaxSymbols) }

// IsZero 是否为空名称
func (n LongName) IsZero() bool { return n == LongName{} }

// Valid 校验编码补零规则，以及末尾 4 位与长度一致
func (n LongName) Valid() bool {
	l := n.Len()
	if int(n[LongNameSize-1]&lengthMask) != l&lengthMask {
		return false
	}
	return checkCodes(n[:], l, LongNameMaxSymbols)
}

func (n LongName) String() string { return unpack(n[:], n.Len()) }

// Name 收窄为 Name，超过 10 个符号时失败
func (n LongName) Name() (Name, error) {
	var out Name
	if !n.Valid() {
		return out, ErrInvalidName
	}
	l := n.Len()
	if l > NameMaxSymbols {
		return out, ErrNameNarrowing
	}
	copyCodes(out[:], n[:], l)
	out[NameSize-1] |= byte(l)
	return out, nil
}

// MarshalText 以字符串形式序列化
func (n LongName) MarshalText() ([]byte, error) {
	if !n.Valid() {
		return nil, ErrInvalidName
	}
	return []byte(n.String()), nil
}

// UnmarshalText 从字符串解析
func (n *LongName) UnmarshalText(text []byte) error {
	v, err := NewLongName(string(text))
	if err != nil {
		return err
	}
	*n = v
	return nil
}
