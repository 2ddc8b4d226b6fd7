package flat

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"log/slog"
	"math"
	"os"

	"github.com/dgraph-io/badger/v4"
)

// Cache persists built indexes in Badger keyed by catalog content hash, so
// a restart with an unchanged catalog skips re-embedding. The value layout
// is fixed little-endian: dim, count, then count × (id, dim floats). The
// format is internal; a decode failure just forces a rebuild.
type Cache struct {
	db     *badger.DB
	logger *slog.Logger
}

type badgerLoggerAdapter struct {
	logger *slog.Logger
}

var _ badger.Logger = (*badgerLoggerAdapter)(nil)

func (bl *badgerLoggerAdapter) Errorf(msg string, items ...any)   { bl.logger.Error(fmt.Sprintf(msg, items...)) }
func (bl *badgerLoggerAdapter) Warningf(msg string, items ...any) { bl.logger.Warn(fmt.Sprintf(msg, items...)) }
func (bl *badgerLoggerAdapter) Infof(msg string, items ...any)    { bl.logger.Debug(fmt.Sprintf(msg, items...)) }
func (bl *badgerLoggerAdapter) Debugf(msg string, items ...any)   { bl.logger.Debug(fmt.Sprintf(msg, items...)) }

func OpenCache(path string, logger *slog.Logger) (*Cache, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var opts badger.Options
	if path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(path, 0o755); err != nil {
			return nil, fmt.Errorf("create cache dir: %w", err)
		}
		opts = badger.DefaultOptions(path)
	}
	opts = opts.WithLogger(&badgerLoggerAdapter{logger: logger.With("component", "index-cache")})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open index cache: %w", err)
	}
	return &Cache{db: db, logger: logger}, nil
}

func (c *Cache) Close() error {
	return c.db.Close()
}

func cacheKey(contentHash string) []byte {
	return []byte("index/" + contentHash)
}

func (c *Cache) Save(contentHash string, index *Index) error {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, uint32(index.Dim()))
	binary.Write(&buf, binary.LittleEndian, uint32(index.Len()))
	for pos, id := range index.ids {
		binary.Write(&buf, binary.LittleEndian, id)
		for _, v := range index.vectors[pos] {
			binary.Write(&buf, binary.LittleEndian, math.Float32bits(v))
		}
	}

	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Set(cacheKey(contentHash), buf.Bytes())
	})
}

func (c *Cache) Load(contentHash string) (*Index, bool) {
	var payload []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(cacheKey(contentHash))
		if err != nil {
			return err
		}
		payload, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, false
	}

	index, err := decodeIndex(payload)
	if err != nil {
		c.logger.Warn("index cache entry corrupt, rebuilding", "content_hash", contentHash, "error", err)
		return nil, false
	}
	return index, true
}

func decodeIndex(payload []byte) (*Index, error) {
	reader := bytes.NewReader(payload)

	var dim, count uint32
	if err := binary.Read(reader, binary.LittleEndian, &dim); err != nil {
		return nil, fmt.Errorf("read dimension: %w", err)
	}
	if err := binary.Read(reader, binary.LittleEndian, &count); err != nil {
		return nil, fmt.Errorf("read count: %w", err)
	}

	index := newIndex(int(dim), int(count))
	for i := uint32(0); i < count; i++ {
		var id int64
		if err := binary.Read(reader, binary.LittleEndian, &id); err != nil {
			return nil, fmt.Errorf("read id %d: %w", i, err)
		}
		vector := make([]float32, dim)
		for j := range vector {
			var bits uint32
			if err := binary.Read(reader, binary.LittleEndian, &bits); err != nil {
				return nil, fmt.Errorf("read vector %d: %w", i, err)
			}
			vector[j] = math.Float32frombits(bits)
		}
		if err := index.add(id, vector); err != nil {
			return nil, err
		}
	}
	return index, nil
}
