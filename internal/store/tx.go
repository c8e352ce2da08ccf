package store

import (
	"bytes"
	"sort"

	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/hbulgarini/imbue/internal/logger"
)

// Tx 事务视图，写入缓存到提交为止，读取可见本事务内的写入
type Tx struct {
	r        reader
	readOnly bool

	// pending 中值为 nil 表示删除
	pending map[string][]byte
}

func newTx(r reader, readOnly bool) *Tx {
	return &Tx{
		r:        r,
		readOnly: readOnly,
		pending:  make(map[string][]byte),
	}
}

// get 返回原始值，不存在时 ok 为 false
func (t *Tx) get(key string) ([]byte, bool, error) {
	if v, ok := t.pending[key]; ok {
		return v, v != nil, nil
	}
	v, err := t.r.Get([]byte(key), nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, errors.WithStack(err)
	}
	return v, true, nil
}

func (t *Tx) put(key string, value []byte) error {
	if t.readOnly {
		return ErrReadOnly
	}
	if value == nil {
		value = []byte{}
	}
	t.pending[key] = value
	return nil
}

func (t *Tx) del(key string) error {
	if t.readOnly {
		return ErrReadOnly
	}
	t.pending[key] = nil
	return nil
}

// getRecord 读取并解码记录
func (t *Tx) getRecord(key string, v interface{}) (bool, error) {
	b, ok, err := t.get(key)
	if err != nil || !ok {
		return false, err
	}
	if err := Unmarshal(b, v); err != nil {
		return false, errors.Wrapf(err, "decode %s", key)
	}
	return true, nil
}

// putRecord 编码并写入记录
func (t *Tx) putRecord(key string, v interface{}) error {
	b, err := Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "encode %s", key)
	}
	return t.put(key, b)
}

// scan 按键序遍历前缀下的所有值，包括本事务未提交的写入
func (t *Tx) scan(prefix string, fn func(key string, value []byte) error) error {
	merged := make(map[string][]byte)

	iter := t.r.NewIterator(util.BytesPrefix([]byte(prefix)), nil)
	for iter.Next() {
		merged[string(iter.Key())] = bytes.Clone(iter.Value())
	}
	iter.Release()
	if err := iter.Error(); err != nil {
		return errors.WithStack(err)
	}

	for k, v := range t.pending {
		if len(k) < len(prefix) || k[:len(prefix)] != prefix {
			continue
		}
		if v == nil {
			delete(merged, k)
			continue
		}
		merged[k] = v
	}

	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if err := fn(k, merged[k]); err != nil {
			return err
		}
	}
	return nil
}

func (t *Tx) commit(db *leveldb.DB) error {
	if len(t.pending) == 0 {
		return nil
	}

	batch := new(leveldb.Batch)
	for k, v := range t.pending {
		if v == nil {
			batch.Delete([]byte(k))
			continue
		}
		batch.Put([]byte(k), v)
	}
	if err := db.Write(batch, nil); err != nil {
		return errors.Wrap(err, "write batch")
	}

	logger.Debug("Committed %d store writes", len(t.pending))
	return nil
}
