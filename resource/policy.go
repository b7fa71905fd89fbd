package resource

import (
	"github.com/holiman/uint256"

	"github.com/qinglongcn/vitalchain/fault"
	"github.com/qinglongcn/vitalchain/name"
)

// MaxDecimals 代币允许的最大小数位数
const MaxDecimals = 18

var (
	ErrTooManyDecimals = fault.FormatError("too many decimals")
	ErrInvalidMemo     = fault.FormatError("invalid deploy memo")
	ErrLimitExceedsMax = fault.FormatError("limit per mint exceeds max supply")
)

// MintPolicy 部署代币时登记的铸造策略，数值为 0 表示不限制
type MintPolicy struct {
	Decimals     uint8         `yaml:"decimals"`
	MaxSupply    uint256.Int   `yaml:"-"`
	LimitPerMint uint256.Int   `yaml:"-"`
	Memo         name.LongName `yaml:"memo"`
}

// Validate 校验策略字段
func (m MintPolicy) Validate() error {
	if m.Decimals > MaxDecimals {
		return ErrTooManyDecimals
	}
	if !m.Memo.Valid() {
		return ErrInvalidMemo
	}
	if !m.MaxSupply.IsZero() && m.LimitPerMint.Gt(&m.MaxSupply) {
		return ErrLimitExceedsMax
	}
	return nil
}

// AppendTo 编码为 decimals(1) | max_supply | limit_per_mint | memo(32)
func (m MintPolicy) AppendTo(b []byte) []byte {
	b = append(b, m.Decimals)
	b = AppendAmount(b, &m.MaxSupply)
	b = AppendAmount(b, &m.LimitPerMint)
	return append(b, m.Memo[:]...)
}

// DecodeMintPolicy 从 b 的开头解码策略，返回读取的字节数
func DecodeMintPolicy(b []byte) (MintPolicy, int, error) {
	var m MintPolicy
	if len(b) < 1 {
		return m, 0, ErrTruncated
	}
	m.Decimals = b[0]
	n := 1

	maxSupply, read, err := DecodeAmount(b[n:])
	if err != nil {
		return MintPolicy{}, 0, err
	}
	m.MaxSupply = maxSupply
	n += read

	limit, read, err := DecodeAmount(b[n:])
	if err != nil {
		return MintPolicy{}, 0, err
	}
	m.LimitPerMint = limit
	n += read

	if len(b) < n+name.LongNameSize {
		return MintPolicy{}, 0, ErrTruncated
	}
	copy(m.Memo[:], b[n:n+name.LongNameSize])
	n += name.LongNameSize
	return m, n, nil
}
