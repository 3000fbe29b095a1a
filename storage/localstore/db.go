// Package localstore is the local fallback storage: in-memory tables mirrored to a JSON file.
package localstore

import (
	"encoding/json"
	"io/ioutil"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"

	"github.com/trezcool/mwalimu/core/kid"
	"github.com/trezcool/mwalimu/core/settings"
	"github.com/trezcool/mwalimu/core/task"
)

type (
	DB struct {
		sync.RWMutex
		path     string
		kids     map[string]*kid.Kid
		tasks    map[string]*task.Task
		settings *settings.Settings
	}

	// snapshot is the on-disk layout of the store.
	snapshot struct {
		Kids     []kid.Kid          `json:"kids"`
		Tasks    []task.Task        `json:"tasks"`
		Settings *settings.Settings `json:"settings,omitempty"`
	}
)

// Open loads the store from path. An empty path keeps the store in memory only.
func Open(path string) (*DB, error) {
	db := &DB{
		path:  path,
		kids:  make(map[string]*kid.Kid),
		tasks: make(map[string]*task.Task),
	}
	if path == "" {
		return db, nil
	}

	data, err := ioutil.ReadFile(path)
	if os.IsNotExist(err) {
		return db, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "reading local store")
	}
	if len(data) == 0 {
		return db, nil
	}

	var snap snapshot
	if err = json.Unmarshal(data, &snap); err != nil {
		return nil, errors.Wrap(err, "decoding local store")
	}
	for i := range snap.Kids {
		db.kids[snap.Kids[i].ID] = &snap.Kids[i]
	}
	for i := range snap.Tasks {
		db.tasks[snap.Tasks[i].ID] = &snap.Tasks[i]
	}
	db.settings = snap.Settings
	return db, nil
}

// Path is the file the store is mirrored to; empty when in memory only.
func (db *DB) Path() string {
	return db.path
}

// persist writes the store to its file through a temp file and a rename.
// Callers must hold the write lock.
func (db *DB) persist() error {
	if db.path == "" {
		return nil
	}

	snap := snapshot{
		Kids:     make([]kid.Kid, 0, len(db.kids)),
		Tasks:    make([]task.Task, 0, len(db.tasks)),
		Settings: db.settings,
	}
	for _, k := range db.kids {
		snap.Kids = append(snap.Kids, *k)
	}
	for _, t := range db.tasks {
		snap.Tasks = append(snap.Tasks, *t)
	}
	sortKids(snap.Kids)
	task.Sort(snap.Tasks, nil)

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding local store")
	}

	dir := filepath.Dir(db.path)
	if err = os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "creating local store dir")
	}
	tmp, err := ioutil.TempFile(dir, filepath.Base(db.path)+".*.tmp")
	if err != nil {
		return errors.Wrap(err, "creating temp file")
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "writing local store")
	}
	if err = tmp.Close(); err != nil {
		return errors.Wrap(err, "closing temp file")
	}
	if err = os.Rename(tmp.Name(), db.path); err != nil {
		return errors.Wrap(err, "replacing local store")
	}
	return nil
}

// Close flushes the store to its file.
func (db *DB) Close() error {
	db.Lock()
	defer db.Unlock()
	return db.persist()
}
