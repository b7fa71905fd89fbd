package ledger

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/btcsuite/btcd/wire"
	"github.com/dgraph-io/badger/v4"
	"github.com/sirupsen/logrus"

	"github.com/qinglongcn/vitalchain/resource"
)

var (
	resourcePrefix = []byte("res-")  // 资源绑定
	metaPrefix     = []byte("meta-") // 元数据
)

// BadgerLedger 基于 badger 的持久化账本
type BadgerLedger struct {
	db *badger.DB
}

// OpenBadgerLedger 打开 path 下的账本数据库
func OpenBadgerLedger(path string) (*BadgerLedger, error) {
	opts := badger.DefaultOptions(path) // 设置 Badger 数据库选项
	opts.ValueDir = path
	opts.Logger = nil
	db, err := openDB(path, opts)
	if err != nil {
		return nil, err
	}
	return &BadgerLedger{db: db}, nil
}

// OpenInMemoryLedger 打开纯内存的 badger 账本
func OpenInMemoryLedger() (*BadgerLedger, error) {
	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &BadgerLedger{db: db}, nil
}

// Close 关闭数据库
func (l *BadgerLedger) Close() error {
	return l.db.Close()
}

func resourceKey(loc wire.OutPoint) []byte {
	return append(append([]byte{}, resourcePrefix...), LocationKey(loc)...)
}

func metaKey(key []byte) []byte {
	return append(append([]byte{}, metaPrefix...), key...)
}

func (l *BadgerLedger) GetResource(loc wire.OutPoint) (resource.Resource, bool, error) {
	var (
		r     resource.Resource
		found bool
	)
	err := l.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(resourceKey(loc))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			if err := r.UnmarshalBinary(val); err != nil {
				return err
			}
			found = true
			return nil
		})
	})
	if err != nil {
		logrus.Errorf("[GetResource] 失败:\t%v", err)
		return resource.Resource{}, false, err
	}
	return r, found, nil
}

func (l *BadgerLedger) BindResource(loc wire.OutPoint, r resource.Resource) error {
	return l.ApplyBatch(&Batch{Binds: []Binding{{Location: loc, Resource: r}}})
}

func (l *BadgerLedger) UnbindResource(loc wire.OutPoint) error {
	return l.ApplyBatch(&Batch{Unbinds: []wire.OutPoint{loc}})
}

func (l *BadgerLedger) StorageGet(key []byte) ([]byte, bool, error) {
	var value []byte
	err := l.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(metaKey(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		if value == nil {
			value = []byte{}
		}
		return err
	})
	if err != nil {
		logrus.Errorf("[StorageGet] 失败:\t%v", err)
		return nil, false, err
	}
	return value, value != nil, nil
}

func (l *BadgerLedger) StorageSet(key, value []byte) error {
	return l.ApplyBatch(&Batch{Writes: []Write{{Key: key, Value: value}}})
}

// ApplyBatch 在一个读写事务中应用整个批次，任何一步失败都不会留下修改
func (l *BadgerLedger) ApplyBatch(b *Batch) error {
	err := l.db.Update(func(txn *badger.Txn) error {
		for _, loc := range b.Unbinds {
			key := resourceKey(loc)
			if _, err := txn.Get(key); err != nil {
				if errors.Is(err, badger.ErrKeyNotFound) {
					return fmt.Errorf("unbind %v: %w", loc, ErrNotBound)
				}
				return err
			}
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		for _, bind := range b.Binds {
			key := resourceKey(bind.Location)
			_, err := txn.Get(key)
			if err == nil {
				return fmt.Errorf("bind %v: %w", bind.Location, ErrAlreadyBound)
			}
			if !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}
			value, err := bind.Resource.MarshalBinary()
			if err != nil {
				return err
			}
			if err := txn.Set(key, value); err != nil {
				return err
			}
		}
		for _, w := range b.Writes {
			if len(w.Key) == 0 {
				return ErrEmptyKey
			}
			if err := txn.Set(metaKey(w.Key), w.Value); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		logrus.Errorf("[ApplyBatch] 失败:\t%v", err)
		return err
	}
	return nil
}

// CountResources 返回当前绑定的资源数量
func (l *BadgerLedger) CountResources() (int, error) {
	var counter int
	err := l.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		// 只需要键
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(resourcePrefix); it.ValidForPrefix(resourcePrefix); it.Next() {
			counter++
		}
		return nil
	})
	return counter, err
}

// ForEachResource 按位置编码顺序遍历全部绑定，fn 返回错误时停止
func (l *BadgerLedger) ForEachResource(fn func(loc wire.OutPoint, r resource.Resource) error) error {
	return l.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(resourcePrefix); it.ValidForPrefix(resourcePrefix); it.Next() {
			item := it.Item()
			loc, err := ParseLocationKey(bytes.TrimPrefix(item.Key(), resourcePrefix))
			if err != nil {
				return err
			}
			v, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			var r resource.Resource
			if err := r.UnmarshalBinary(v); err != nil {
				return err
			}
			if err := fn(loc, r); err != nil {
				return err
			}
		}
		return nil
	})
}

// ForEachStorage 遍历键以 prefix 开头的元数据
func (l *BadgerLedger) ForEachStorage(prefix []byte, fn func(key, value []byte) error) error {
	full := metaKey(prefix)
	return l.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(full); it.ValidForPrefix(full); it.Next() {
			item := it.Item()
			key := bytes.TrimPrefix(item.KeyCopy(nil), metaPrefix)
			v, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			if err := fn(key, v); err != nil {
				return err
			}
		}
		return nil
	})
}

// Reset 删除全部绑定与元数据
func (l *BadgerLedger) Reset() error {
	if err := l.DeleteByPrefix(resourcePrefix); err != nil {
		return err
	}
	return l.DeleteByPrefix(metaPrefix)
}

// DeleteByPrefix 删除键以 prefix 开头的全部记录
func (l *BadgerLedger) DeleteByPrefix(prefix []byte) error {
	// 定义一个批量删除记录的函数
	deleteKeys := func(keysForDelete [][]byte) error {
		return l.db.Update(func(txn *badger.Txn) error {
			for _, key := range keysForDelete {
				if err := txn.Delete(key); err != nil {
					return err
				}
			}
			return nil
		})
	}

	// 单个事务能删除的记录数有限，按批收集后删除
	collectSize := 100000
	return l.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		keysForDelete := make([][]byte, 0, collectSize)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			keysForDelete = append(keysForDelete, it.Item().KeyCopy(nil))

			if len(keysForDelete) == collectSize {
				if err := deleteKeys(keysForDelete); err != nil {
					logrus.Errorf("[DeleteByPrefix] 失败:\t%v", err)
					return err
				}
				keysForDelete = make([][]byte, 0, collectSize)
			}
		}

		if len(keysForDelete) > 0 {
			if err := deleteKeys(keysForDelete); err != nil {
				logrus.Errorf("[DeleteByPrefix] 失败:\t%v", err)
				return err
			}
		}
		return nil
	})
}

// openDB 打开数据库，如果因为存在 LOCK 文件打开失败，执行 retry 确保打开
func openDB(path string, opts badger.Options) (*badger.DB, error) {
	db, err := badger.Open(opts)
	if err != nil && strings.Contains(err.Error(), "LOCK") {
		db, err = retry(path, opts)
		if err != nil {
			return nil, fmt.Errorf("无法解锁数据库: %w", err)
		}
		return db, nil
	} else if err != nil {
		return nil, err
	}
	return db, nil
}

// retry 删除 lock 文件，并再次尝试打开数据库
func retry(path string, opts badger.Options) (*badger.DB, error) {
	lockPath := filepath.Join(path, "LOCK")

	if err := checkLock(lockPath); err != nil {
		return nil, err
	}

	if err := os.Remove(lockPath); err != nil {
		return nil, fmt.Errorf("移除 LOCK: %w", err)
	}

	var db *badger.DB
	var err error
	for i := 0; i < 3; i++ {
		db, err = badger.Open(opts)
		if err == nil {
			return db, nil
		}
		logrus.Errorf("打开数据库失败，%d 秒后重试", i+1)
		time.Sleep(time.Duration(i+1) * time.Second)
	}

	return nil, fmt.Errorf("打开数据库失败: %w", err)
}

// checkLock 检查锁文件是否可以安全删除
func checkLock(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("打开 LOCK 文件失败: %w", err)
	}
	defer file.Close()

	// 尝试获取文件锁
	err = syscall.Flock(int(file.Fd()), syscall.LOCK_EX|syscall.LOCK_NB)
	if err != nil {
		return fmt.Errorf("数据库正被其他进程使用: %w", err)
	}

	// 释放文件锁
	defer syscall.Flock(int(file.Fd()), syscall.LOCK_UN)

	return nil
}
