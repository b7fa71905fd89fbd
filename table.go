package vitalchain

import "fmt"

const (
	DbFile = "database.db"

	deploymentTable = "deployment"
	txStatusTable   = "tx_status"
)

// InitDBTable 数据库表
func (s *SqliteDB) InitDBTable() error {
	// 代币部署表
	if err := s.createDeploymentTable(); err != nil {
		return err
	}
	// 交易执行结果表
	if err := s.createTxStatusTable(); err != nil {
		return err
	}

	return nil
}

// createDeploymentTable 创建代币部署表
func (s *SqliteDB) createDeploymentTable() error {
	table := []string{
		"id INTEGER PRIMARY KEY AUTOINCREMENT", // 自增长主键
		"tag VARCHAR(16) UNIQUE",               // 代号
		"height INTEGER",                       // 部署所在区块高度
		"txHash VARCHAR(64)",                   // 部署交易
		"decimals INTEGER",                     // 小数位数
		"maxSupply TEXT",                       // 总量上限，十进制
		"limitPerMint TEXT",                    // 单次铸造上限，十进制
		"memo VARCHAR(48)",                     // 备注
	}

	if err := s.CreateTable(deploymentTable, table); err != nil {
		return fmt.Errorf("create %s table: %w", deploymentTable, err)
	}
	return nil
}

// createTxStatusTable 创建交易执行结果表
func (s *SqliteDB) createTxStatusTable() error {
	table := []string{
		"id INTEGER PRIMARY KEY AUTOINCREMENT", // 自增长主键
		"txHash VARCHAR(64) UNIQUE",            // 交易哈希
		"height INTEGER",                       // 区块高度
		"ok INTEGER",                           // 是否执行成功
		"class VARCHAR(16)",                    // 失败类别
		"error TEXT",                           // 失败原因
		"instructions INTEGER",                 // 执行的指令数
	}

	if err := s.CreateTable(txStatusTable, table); err != nil {
		return fmt.Errorf("create %s table: %w", txStatusTable, err)
	}
	return nil
}
