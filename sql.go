package vitalchain

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"

	"github.com/qinglongcn/vitalchain/fault"
	"github.com/qinglongcn/vitalchain/ledger"
)

// SqliteDB 业务索引数据库，记录代币部署与交易执行结果
type SqliteDB struct {
	db *sql.DB
}

// NewSqliteDB 打开或创建 dir 下的数据库文件
func NewSqliteDB(dir, file string) (*SqliteDB, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite3", filepath.Join(dir, file))
	if err != nil {
		logrus.Errorf("[NewSqliteDB] 打开数据库失败:\t%v", err)
		return nil, err
	}
	// sqlite 只允许一个写连接
	db.SetMaxOpenConns(1)
	return &SqliteDB{db: db}, nil
}

// Close 关闭数据库
func (s *SqliteDB) Close() error {
	return s.db.Close()
}

// CreateTable 创建表，已存在时忽略
func (s *SqliteDB) CreateTable(name string, columns []string) error {
	q := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", name, strings.Join(columns, ", "))
	_, err := s.db.Exec(q)
	return err
}

// Insert 插入一行，data 为列名到值的映射
func (s *SqliteDB) Insert(table string, data map[string]interface{}) error {
	return s.insert("INSERT", table, data)
}

// Upsert 插入一行，唯一键冲突时替换
func (s *SqliteDB) Upsert(table string, data map[string]interface{}) error {
	return s.insert("INSERT OR REPLACE", table, data)
}

func (s *SqliteDB) insert(verb, table string, data map[string]interface{}) error {
	columns := make([]string, 0, len(data))
	for k := range data {
		columns = append(columns, k)
	}
	sort.Strings(columns)

	marks := make([]string, len(columns))
	args := make([]interface{}, len(columns))
	for i, k := range columns {
		marks[i] = "?"
		args[i] = data[k]
	}
	q := fmt.Sprintf("%s INTO %s (%s) VALUES (%s)", verb, table, strings.Join(columns, ", "), strings.Join(marks, ", "))
	_, err := s.db.Exec(q, args...)
	return err
}

// Exists 判断满足全部条件的行是否存在
func (s *SqliteDB) Exists(table string, conditions []string, args []interface{}) (bool, error) {
	q := fmt.Sprintf("SELECT 1 FROM %s WHERE %s LIMIT 1", table, strings.Join(conditions, " AND "))
	var one int
	err := s.db.QueryRow(q, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// DeploymentRecord 部署表中的一行
type DeploymentRecord struct {
	Tag          string
	Height       int32
	TxHash       string
	Decimals     uint8
	MaxSupply    string
	LimitPerMint string
	Memo         string
}

// InsertDeployment 记录代币部署
func (s *SqliteDB) InsertDeployment(d *ledger.Deployment, txHash chainhash.Hash) error {
	data := map[string]interface{}{
		"tag":          d.Tag.String(),
		"height":       d.Height,
		"txHash":       txHash.String(),
		"decimals":     d.Policy.Decimals,
		"maxSupply":    d.Policy.MaxSupply.Dec(),
		"limitPerMint": d.Policy.LimitPerMint.Dec(),
		"memo":         d.Policy.Memo.String(),
	}
	if err := s.Insert(deploymentTable, data); err != nil {
		logrus.Errorf("[InsertDeployment] 数据库操作失败:\t%v", err)
		return err
	}
	return nil
}

// Deployment 按代号查询部署记录
func (s *SqliteDB) Deployment(tag string) (*DeploymentRecord, bool, error) {
	r := &DeploymentRecord{Tag: tag}
	err := s.db.QueryRow(
		"SELECT height, txHash, decimals, maxSupply, limitPerMint, memo FROM "+deploymentTable+" WHERE tag=?", tag,
	).Scan(&r.Height, &r.TxHash, &r.Decimals, &r.MaxSupply, &r.LimitPerMint, &r.Memo)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return r, true, nil
}

// TxRecord 交易执行结果表中的一行
type TxRecord struct {
	TxHash       string
	Height       int32
	Ok           bool
	Class        string // fault 类别，成功时为 none
	Error        string
	Instructions int
}

// InsertTxStatus 记录交易执行结果，重放同一交易时覆盖旧结果
func (s *SqliteDB) InsertTxStatus(st *TxStatus) error {
	errText := ""
	if st.Err != nil {
		errText = st.Err.Error()
	}
	data := map[string]interface{}{
		"txHash":       st.Hash.String(),
		"height":       st.Height,
		"ok":           st.Ok,
		"class":        fault.Class(st.Err),
		"error":        errText,
		"instructions": st.Instructions,
	}
	if err := s.Upsert(txStatusTable, data); err != nil {
		logrus.Errorf("[InsertTxStatus] 数据库操作失败:\t%v", err)
		return err
	}
	return nil
}

// TxStatus 按交易哈希查询执行结果
func (s *SqliteDB) TxStatus(hash chainhash.Hash) (*TxRecord, bool, error) {
	r := &TxRecord{TxHash: hash.String()}
	err := s.db.QueryRow(
		"SELECT height, ok, class, error, instructions FROM "+txStatusTable+" WHERE txHash=?", r.TxHash,
	).Scan(&r.Height, &r.Ok, &r.Class, &r.Error, &r.Instructions)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return r, true, nil
}
