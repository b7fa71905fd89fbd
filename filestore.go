// 区块与承诺交易文件

package vitalchain

import (
	"bufio"
	"bytes"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// FileStore 封装了区块文件的读写。
// 区块文件每行一笔十六进制编码的原始交易，空行与 # 开头的行被忽略。
type FileStore struct {
	Fs       afero.Fs
	BasePath string
}

// NewFileStore 创建一个新的FileStore实例
func NewFileStore(fs afero.Fs, basePath string) (*FileStore, error) {
	if err := fs.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	return &FileStore{Fs: fs, BasePath: basePath}, nil
}

// path 相对路径基于 BasePath
func (fs *FileStore) path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(fs.BasePath, name)
}

// ReadTxs 读取区块文件中的全部交易，保持文件中的顺序
func (fs *FileStore) ReadTxs(name string) ([]*wire.MsgTx, error) {
	raw, err := afero.ReadFile(fs.Fs, fs.path(name))
	if err != nil {
		return nil, err
	}

	var txs []*wire.MsgTx
	scanner := bufio.NewScanner(bytes.NewReader(raw))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for line := 1; scanner.Scan(); line++ {
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		tx, err := DecodeTxHex(text)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", name, line, err)
		}
		txs = append(txs, tx)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return txs, nil
}

// ReadCommits 读取目录下的全部承诺交易，按交易哈希索引
func (fs *FileStore) ReadCommits(dir string) (map[chainhash.Hash]*wire.MsgTx, error) {
	infos, err := afero.ReadDir(fs.Fs, fs.path(dir))
	if err != nil {
		return nil, err
	}

	commits := make(map[chainhash.Hash]*wire.MsgTx, len(infos))
	for _, info := range infos {
		if info.IsDir() {
			continue
		}
		txs, err := fs.ReadTxs(filepath.Join(dir, info.Name()))
		if err != nil {
			logrus.Errorf("[ReadCommits] 读取承诺交易失败:\t%v", err)
			return nil, err
		}
		for _, tx := range txs {
			commits[tx.TxHash()] = tx
		}
	}
	return commits, nil
}

// WriteTxs 把交易按区块文件格式写入
func (fs *FileStore) WriteTxs(name string, txs ...*wire.MsgTx) error {
	var buf bytes.Buffer
	for _, tx := range txs {
		encoded, err := EncodeTxHex(tx)
		if err != nil {
			return err
		}
		buf.WriteString(encoded)
		buf.WriteByte('\n')
	}
	path := fs.path(name)
	if err := fs.Fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return afero.WriteFile(fs.Fs, path, buf.Bytes(), 0644)
}

// DecodeTxHex 解码十六进制编码的原始交易
func DecodeTxHex(s string) (*wire.MsgTx, error) {
	raw, err := hex.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, err
	}
	tx := new(wire.MsgTx)
	if err := tx.Deserialize(bytes.NewReader(raw)); err != nil {
		return nil, err
	}
	return tx, nil
}

// EncodeTxHex 编码为十六进制原始交易
func EncodeTxHex(tx *wire.MsgTx) (string, error) {
	var buf bytes.Buffer
	if err := tx.Serialize(&buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf.Bytes()), nil
}

// PairReveals 为每笔交易找到它花费的承诺交易，按输入顺序取第一个匹配
func PairReveals(txs []*wire.MsgTx, commits map[chainhash.Hash]*wire.MsgTx) []Reveal {
	reveals := make([]Reveal, len(txs))
	for i, tx := range txs {
		reveals[i].Tx = tx
		for _, in := range tx.TxIn {
			if commit, ok := commits[in.PreviousOutPoint.Hash]; ok {
				reveals[i].Commit = commit
				break
			}
		}
	}
	return reveals
}
