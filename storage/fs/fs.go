package fs

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/sommelier/searchbench/types"
)

// Type should match the package name
const Type = "fs"

// Storage is a way to store run results on the local filesystem.
type Storage struct {
	// Dir is the directory where run files are stored.
	// It is created on the first Store if missing.
	Dir string `json:"dir"`

	// Run files older than CheckExpiry will be
	// deleted on calls to Maintain(). If this is
	// the zero value, no old run files will be
	// deleted.
	CheckExpiry time.Duration `json:"check_expiry,omitempty"`
}

// New creates a new Storage instance based on json config
func New(config json.RawMessage) (Storage, error) {
	var storage Storage
	err := json.Unmarshal(config, &storage)
	return storage, err
}

// Type returns the storage driver package name
func (Storage) Type() string {
	return Type
}

// GetIndex returns the index from filesystem.
func (fs Storage) GetIndex() (map[string]int64, error) {
	return fs.readIndex()
}

func (fs Storage) readIndex() (map[string]int64, error) {
	index := map[string]int64{}

	f, err := os.Open(filepath.Join(fs.Dir, IndexName))
	if errors.Is(err, os.ErrNotExist) {
		return index, nil
	} else if err != nil {
		return nil, err
	}
	defer f.Close()

	err = json.NewDecoder(f).Decode(&index)
	return index, err
}

func (fs Storage) writeIndex(index map[string]int64) error {
	f, err := os.Create(filepath.Join(fs.Dir, IndexName))
	if err != nil {
		return err
	}
	defer f.Close()

	return json.NewEncoder(f).Encode(index)
}

// Fetch fetches the results of the run file with the given name.
func (fs Storage) Fetch(name string) ([]types.Result, error) {
	f, err := os.Open(filepath.Join(fs.Dir, filepath.Base(name)))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var results []types.Result
	if err := json.NewDecoder(f).Decode(&results); err != nil {
		return nil, err
	}
	return results, nil
}

// Store writes results to a new run file and adds it to the index.
func (fs Storage) Store(results []types.Result) error {
	if err := os.MkdirAll(fs.Dir, 0755); err != nil {
		return err
	}

	name := *GenerateFilename()
	f, err := os.Create(filepath.Join(fs.Dir, name))
	if err != nil {
		return err
	}
	err = json.NewEncoder(f).Encode(results)
	f.Close()
	if err != nil {
		return err
	}

	index, err := fs.readIndex()
	if err != nil {
		return err
	}
	index[name] = time.Now().UnixNano()
	return fs.writeIndex(index)
}

// Maintain deletes run files that are older than fs.CheckExpiry.
func (fs Storage) Maintain() error {
	if fs.CheckExpiry == 0 {
		return nil
	}

	index, err := fs.readIndex()
	if err != nil {
		return err
	}

	for name, nsec := range index {
		if time.Since(time.Unix(0, nsec)) <= fs.CheckExpiry {
			continue
		}
		err := os.Remove(filepath.Join(fs.Dir, name))
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
		delete(index, name)
	}

	return fs.writeIndex(index)
}
