// Copyright 2026 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package cache

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/poiesic/corpus/core"
)

// Store persists embedding vectors keyed by model and text fingerprint.
type Store struct {
	db     *badger.DB
	logger *slog.Logger
}

// badgerLoggerAdapter adapts slog.Logger to badger.Logger interface.
type badgerLoggerAdapter struct {
	logger *slog.Logger
}

var _ badger.Logger = (*badgerLoggerAdapter)(nil)

func (bl *badgerLoggerAdapter) Errorf(msg string, items ...any) {
	bl.logger.Error(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Warningf(msg string, items ...any) {
	bl.logger.Warn(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Infof(msg string, items ...any) {
	bl.logger.Info(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Debugf(msg string, items ...any) {
	bl.logger.Debug(fmt.Sprintf(msg, items...))
}

// Open opens an embedding cache at the specified path.
// Creates the directory if it doesn't exist.
func Open(filePath string) (*Store, error) {
	info, err := os.Stat(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			if err := os.MkdirAll(filePath, 0755); err != nil {
				return nil, err
			}
			info, err = os.Stat(filePath)
			if err != nil {
				return nil, err
			}
		} else {
			return nil, err
		}
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", filePath)
	}
	return open(badger.DefaultOptions(filePath))
}

// OpenInMemory opens an embedding cache that lives only in memory.
// Intended for tests and short-lived processes.
func OpenInMemory() (*Store, error) {
	return open(badger.DefaultOptions("").WithInMemory(true))
}

func open(opts badger.Options) (*Store, error) {
	opts.Logger = &badgerLoggerAdapter{logger: slog.Default()}
	opts.Compression = options.None

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	return &Store{
		db:     db,
		logger: slog.Default().With("component", "embedding-cache"),
	}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the cached vector for a model and text fingerprint.
// The second return value is false on a cache miss.
func (s *Store) Get(model string, fp core.Fingerprint) ([]float32, bool, error) {
	var vector []float32
	err := s.db.View(func(tx *badger.Txn) error {
		item, err := tx.Get(cacheKey(model, fp))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			v, err := unmarshalVector(val)
			if err != nil {
				return err
			}
			vector = v
			return nil
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return vector, true, nil
}

// Put stores a vector for a model and text fingerprint.
func (s *Store) Put(model string, fp core.Fingerprint, vector []float32) error {
	return s.db.Update(func(tx *badger.Txn) error {
		return tx.Set(cacheKey(model, fp), marshalVector(vector))
	})
}

// cacheKey builds the key for a cached embedding. The model name is part
// of the key so switching models never serves stale vectors.
func cacheKey(model string, fp core.Fingerprint) []byte {
	key := make([]byte, 0, len(model)+9)
	key = append(key, model...)
	key = append(key, ':')
	key = binary.LittleEndian.AppendUint64(key, uint64(fp))
	return key
}
