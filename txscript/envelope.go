package txscript

import (
	"bytes"

	btcscript "github.com/btcsuite/btcd/txscript"
)

const (
	// EnvelopePubKeySize 信封开头推送的公钥长度
	EnvelopePubKeySize = 32

	// MaxPayloadSize 程序字节的最大长度，长度前缀只有一个字节
	MaxPayloadSize = 255
)

// EnvelopeTag 信封中的字面量标签
var EnvelopeTag = []byte("vital")

// Extract 识别如下脚本并返回其中的程序字节：
//
//	PUSH(32) OP_CHECKSIG OP_0 OP_IF PUSH("vital") PUSH(payload) OP_ENDIF
//
// 程序必须使用最短的推送方式。不匹配时返回 false。
func Extract(script []byte) ([]byte, bool) {
	tokenizer := btcscript.MakeScriptTokenizer(0, script)

	next := func(op byte) ([]byte, bool) {
		if !tokenizer.Next() || tokenizer.Opcode() != op {
			return nil, false
		}
		return tokenizer.Data(), true
	}

	if key, ok := next(btcscript.OP_DATA_32); !ok || len(key) != EnvelopePubKeySize {
		return nil, false
	}
	for _, op := range []byte{btcscript.OP_CHECKSIG, btcscript.OP_0, btcscript.OP_IF} {
		if _, ok := next(op); !ok {
			return nil, false
		}
	}
	if tag, ok := next(btcscript.OP_DATA_5); !ok || !bytes.Equal(tag, EnvelopeTag) {
		return nil, false
	}

	if !tokenizer.Next() {
		return nil, false
	}
	payload, ok := payloadPush(tokenizer.Opcode(), tokenizer.Data())
	if !ok {
		return nil, false
	}

	if _, ok := next(btcscript.OP_ENDIF); !ok {
		return nil, false
	}
	// 不允许尾随字节
	if tokenizer.Next() || tokenizer.Err() != nil {
		return nil, false
	}

	out := make([]byte, len(payload))
	copy(out, payload)
	return out, true
}

// payloadPush 检查程序字节是否以最短方式推送
func payloadPush(op byte, data []byte) ([]byte, bool) {
	switch {
	case op == btcscript.OP_0:
		return nil, true
	case op >= btcscript.OP_DATA_1 && op <= btcscript.OP_DATA_75:
		return data, true
	case op == btcscript.OP_PUSHDATA1:
		if len(data) <= btcscript.OP_DATA_75 {
			return nil, false
		}
		return data, true
	}
	return nil, false
}

// BuildEnvelope 构造携带 payload 的 tapscript，与 Extract 互逆
func BuildEnvelope(pubKey []byte, payload []byte) ([]byte, error) {
	if len(pubKey) != EnvelopePubKeySize {
		return nil, ErrEnvelopeKeySize
	}
	if len(payload) > MaxPayloadSize {
		return nil, ErrPayloadTooLarge
	}

	script := make([]byte, 0, 44+len(payload))
	script = append(script, btcscript.OP_DATA_32)
	script = append(script, pubKey...)
	script = append(script, btcscript.OP_CHECKSIG, btcscript.OP_0, btcscript.OP_IF)
	script = append(script, btcscript.OP_DATA_5)
	script = append(script, EnvelopeTag...)

	// ScriptBuilder 会把单字节数据改写为 OP_1..OP_16，这里手工推送
	switch {
	case len(payload) == 0:
		script = append(script, btcscript.OP_0)
	case len(payload) <= btcscript.OP_DATA_75:
		script = append(script, byte(len(payload)))
	default:
		script = append(script, btcscript.OP_PUSHDATA1, byte(len(payload)))
	}
	script = append(script, payload...)
	return append(script, btcscript.OP_ENDIF), nil
}
