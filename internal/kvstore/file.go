package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"steno/internal/fileutil"
)

const fileLockRetryDelay = 20 * time.Millisecond

// FileStore keeps every key in one JSON object on disk. Each operation
// re-reads the file under an exclusive advisory lock, so concurrent steno
// processes see each other's writes.
type FileStore struct {
	mu   sync.Mutex
	path string
	lock *flock.Flock
}

// OpenFile prepares a JSON-file store at path. The file is created lazily.
func OpenFile(path string) (*FileStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create state directory: %w", err)
		}
	}
	return &FileStore{path: path, lock: flock.New(path + ".lock")}, nil
}

// Path returns the JSON document location.
func (f *FileStore) Path() string { return f.path }

func (f *FileStore) Get(ctx context.Context, key string) (string, bool, error) {
	var (
		value string
		found bool
	)
	err := f.withLock(ctx, func() error {
		values, err := f.read()
		if err != nil {
			return err
		}
		value, found = values[key]
		return nil
	})
	return value, found, err
}

func (f *FileStore) Set(ctx context.Context, key, value string) error {
	return f.withLock(ctx, func() error {
		values, err := f.read()
		if err != nil {
			return err
		}
		values[key] = value
		return f.write(values)
	})
}

func (f *FileStore) Delete(ctx context.Context, key string) error {
	return f.withLock(ctx, func() error {
		values, err := f.read()
		if err != nil {
			return err
		}
		if _, ok := values[key]; !ok {
			return nil
		}
		delete(values, key)
		return f.write(values)
	})
}

func (f *FileStore) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	err := f.withLock(ctx, func() error {
		values, err := f.read()
		if err != nil {
			return err
		}
		keys = sortedKeys(values)
		return nil
	})
	return keys, err
}

func (f *FileStore) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lock.Close()
}

func (f *FileStore) withLock(ctx context.Context, fn func() error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	locked, err := f.lock.TryLockContext(ensureContext(ctx), fileLockRetryDelay)
	if err != nil {
		return fmt.Errorf("acquire state lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("acquire state lock: %s is held by another process", f.lock.Path())
	}
	defer func() { _ = f.lock.Unlock() }()
	return fn()
}

func (f *FileStore) read() (map[string]string, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return make(map[string]string), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read state file: %w", err)
	}
	values := make(map[string]string)
	if len(data) == 0 {
		return values, nil
	}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("decode state file %s: %w", f.path, err)
	}
	return values, nil
}

func (f *FileStore) write(values map[string]string) error {
	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state file: %w", err)
	}
	if err := fileutil.WriteFileAtomic(f.path, data, 0o600); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	return nil
}
