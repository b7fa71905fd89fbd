// 错误分类
//
// 提供按类别区分的错误实例，便于调用方用 errors.As 判断失败类型
package fault

import "errors"

// GenericError 错误基础类型
type GenericError string

// 不同类别的错误
type FormatError GenericError       // 格式错误：名称超长、非法字符、截断的操作码等
type ConflictError GenericError     // 状态冲突：重复断言、重复铸造、重复绑定等
type ConservationError GenericError // 守恒错误：余额不足、合并类型不一致等
type LookupError GenericError       // 查找错误：输入位置未绑定资源或资源不匹配
type InvalidError GenericError      // 参数或配置无效

func (e GenericError) Error() string      { return string(e) }
func (e FormatError) Error() string       { return string(e) }
func (e ConflictError) Error() string     { return string(e) }
func (e ConservationError) Error() string { return string(e) }
func (e LookupError) Error() string       { return string(e) }
func (e InvalidError) Error() string      { return string(e) }

// IsFormat 判断错误链中是否包含格式错误
func IsFormat(err error) bool {
	var e FormatError
	return errors.As(err, &e)
}

// IsConflict 判断错误链中是否包含状态冲突错误
func IsConflict(err error) bool {
	var e ConflictError
	return errors.As(err, &e)
}

// IsConservation 判断错误链中是否包含守恒错误
func IsConservation(err error) bool {
	var e ConservationError
	return errors.As(err, &e)
}

// IsLookup 判断错误链中是否包含查找错误
func IsLookup(err error) bool {
	var e LookupError
	return errors.As(err, &e)
}

// IsInvalid 判断错误链中是否包含无效参数错误
func IsInvalid(err error) bool {
	var e InvalidError
	return errors.As(err, &e)
}

// Class 返回错误所属类别的名称，未知类别返回 "unknown"
func Class(err error) string {
	switch {
	case err == nil:
		return "none"
	case IsFormat(err):
		return "format"
	case IsConflict(err):
		return "conflict"
	case IsConservation(err):
		return "conservation"
	case IsLookup(err):
		return "lookup"
	case IsInvalid(err):
		return "invalid"
	}
	return "unknown"
}
