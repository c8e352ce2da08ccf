package store

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/hbulgarini/imbue/internal/logger"
)

var (
	// ErrShutdown 存储已关闭
	ErrShutdown = errors.New("store is shutdown")

	// ErrReadOnly 只读事务中写入
	ErrReadOnly = errors.New("write in read-only transaction")
)

// reader 是 leveldb.DB 与 leveldb.Snapshot 共有的读接口
type reader interface {
	Get(key []byte, ro *opt.ReadOptions) ([]byte, error)
	NewIterator(slice *util.Range, ro *opt.ReadOptions) iterator.Iterator
}

// Store 基于 leveldb 的键值存储
//
// leveldb 没有事务，Update 在整个调用期间持有写锁，写入先缓存在 Tx 中，
// 提交时以一个 batch 原子写入。
type Store struct {
	mu       sync.Mutex
	db       *leveldb.DB
	shutdown bool
}

// Open 打开目录下的 leveldb 数据库
func Open(path string) (*Store, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "open leveldb %s", path)
	}
	logger.Info("Store opened at %s", path)
	return &Store{db: db}, nil
}

// OpenMemory 打开内存数据库
func OpenMemory() (*Store, error) {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return &Store{db: db}, nil
}

// Close 关闭数据库，等待进行中的写事务完成
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.shutdown {
		return nil
	}
	s.shutdown = true
	return s.db.Close()
}

// Update 在写事务中执行 fn，fn 返回 nil 时提交
func (s *Store) Update(fn func(tx *Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.shutdown {
		return ErrShutdown
	}

	tx := newTx(s.db, false)
	if err := fn(tx); err != nil {
		return err
	}
	return tx.commit(s.db)
}

// View 在快照上执行只读 fn
func (s *Store) View(fn func(tx *Tx) error) error {
	s.mu.Lock()
	if s.shutdown {
		s.mu.Unlock()
		return ErrShutdown
	}
	snap, err := s.db.GetSnapshot()
	s.mu.Unlock()
	if err != nil {
		return errors.WithStack(err)
	}
	defer snap.Release()

	return fn(newTx(snap, true))
}
