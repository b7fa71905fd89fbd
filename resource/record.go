package resource

import (
	"bytes"
	"fmt"

	"github.com/near/borsh-go"

	"github.com/qinglongcn/vitalchain/fault"
)

// 账本存储中的记录统一使用 borsh 定长编码。
// 指令负载中的资源仍使用 codec.go 中的紧凑格式。

var ErrBadRecord = fault.FormatError("malformed storage record")

// MarshalRecord 以 borsh 编码存储记录
func MarshalRecord(v any) ([]byte, error) {
	raw, err := borsh.Serialize(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadRecord, err)
	}
	return raw, nil
}

// UnmarshalRecord 解码存储记录，要求 raw 恰好是该记录的编码
func UnmarshalRecord[T any](raw []byte) (T, error) {
	var v T
	if err := borsh.Deserialize(&v, raw); err != nil {
		return v, fmt.Errorf("%w: %v", ErrBadRecord, err)
	}
	// borsh 不检查多余字节，重新编码后比较
	back, err := borsh.Serialize(v)
	if err != nil || !bytes.Equal(back, raw) {
		var zero T
		return zero, ErrBadRecord
	}
	return v, nil
}

// MarshalBinary 返回资源在账本中的存储编码
func (r Resource) MarshalBinary() ([]byte, error) {
	return MarshalRecord(r)
}

// UnmarshalBinary 解码存储编码并校验类别约束
func (r *Resource) UnmarshalBinary(raw []byte) error {
	v, err := UnmarshalRecord[Resource](raw)
	if err != nil {
		return err
	}
	if err := v.Validate(); err != nil {
		return err
	}
	*r = v
	return nil
}
