package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/akolanti/StudyRAG/internal/domain/commonModels"
	"github.com/akolanti/StudyRAG/internal/rag/vectorDB"
	"github.com/akolanti/StudyRAG/pkg/logger_i"
	"github.com/google/uuid"
)

// On-disk layout:
//
//	<dir>/CURRENT                 id of the live snapshot
//	<dir>/snapshots/<id>/index.bin
//	<dir>/snapshots/<id>/chunks.json
//	<dir>/snapshots/<id>/metadata.json
//	<dir>/snapshots/<id>/manifest.json
//
// A snapshot directory is complete before it is renamed into place, and
// CURRENT is replaced by rename, so readers only ever see whole snapshots.
const (
	currentFile  = "CURRENT"
	snapshotsDir = "snapshots"
	indexFile    = "index.bin"
	chunksFile   = "chunks.json"
	metadataFile = "metadata.json"
	manifestFile = "manifest.json"
	manifestV1   = 1
	tmpDirPrefix = ".tmp-"
)

var snapshotLogger = sync.OnceValue(func() *logger_i.Logger {
	return logger_i.NewLogger("Corpus Snapshot")
})

// Manifest describes one snapshot. Model and Dimension pin the vector space
// the snapshot was built in.
type Manifest struct {
	Version    int       `json:"version"`
	SnapshotId string    `json:"snapshot_id"`
	Model      string    `json:"model"`
	Dimension  int       `json:"dimension"`
	Count      int       `json:"count"`
	CreatedAt  time.Time `json:"created_at"`
}

// CheckModel fails with ErrModelMismatch when the snapshot was embedded
// with a different model than the one about to embed queries.
func (m Manifest) CheckModel(model string) error {
	if m.Model != model {
		return fmt.Errorf("%w: corpus built with %q, embedder is %q", commonModels.ErrModelMismatch, m.Model, model)
	}
	return nil
}

// Save writes the store as a new snapshot under dir and makes it current.
func (c *CorpusStore) Save(dir string) (Manifest, error) {
	if err := c.validate(); err != nil {
		return Manifest{}, err
	}

	root := filepath.Join(dir, snapshotsDir)
	if err := os.MkdirAll(root, 0o755); err != nil {
		return Manifest{}, err
	}

	manifest := Manifest{
		Version:    manifestV1,
		SnapshotId: uuid.New().String(),
		Model:      c.index.Model(),
		Dimension:  c.index.Dimension(),
		Count:      c.Len(),
		CreatedAt:  time.Now().UTC(),
	}
	log := snapshotLogger().With("snapshotId", manifest.SnapshotId, "dir", dir)

	tmp, err := os.MkdirTemp(root, tmpDirPrefix)
	if err != nil {
		return Manifest{}, err
	}
	defer os.RemoveAll(tmp)
	if err := os.Chmod(tmp, 0o755); err != nil {
		return Manifest{}, err
	}

	writers := []struct {
		name  string
		write func(f *os.File) error
	}{
		{indexFile, func(f *os.File) error { _, err := c.index.WriteTo(f); return err }},
		{chunksFile, jsonWriter(nonNil(c.texts))},
		{metadataFile, jsonWriter(nonNil(c.metadata))},
		{manifestFile, jsonWriter(manifest)},
	}
	for _, w := range writers {
		if err := writeFileSync(filepath.Join(tmp, w.name), w.write); err != nil {
			return Manifest{}, fmt.Errorf("write %s: %w", w.name, err)
		}
	}

	final := filepath.Join(root, manifest.SnapshotId)
	if err := os.Rename(tmp, final); err != nil {
		return Manifest{}, err
	}

	previous, _ := readCurrent(dir)
	if err := writeCurrent(dir, manifest.SnapshotId); err != nil {
		return Manifest{}, err
	}
	log.Info("snapshot saved", "chunks", manifest.Count, "model", manifest.Model)

	pruneSnapshots(root, manifest.SnapshotId, previous, log)
	return manifest, nil
}

// Load opens the current snapshot under dir and returns it frozen.
func Load(dir string) (*CorpusStore, Manifest, error) {
	id, err := readCurrent(dir)
	if err != nil {
		return nil, Manifest{}, err
	}
	snap := filepath.Join(dir, snapshotsDir, id)

	for _, name := range []string{indexFile, chunksFile, metadataFile, manifestFile} {
		if _, err := os.Stat(filepath.Join(snap, name)); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, Manifest{}, fmt.Errorf("%w: snapshot %s is missing %s", commonModels.ErrCorpusNotFound, id, name)
			}
			return nil, Manifest{}, err
		}
	}

	var manifest Manifest
	if err := readJSON(filepath.Join(snap, manifestFile), &manifest); err != nil {
		return nil, Manifest{}, err
	}

	f, err := os.Open(filepath.Join(snap, indexFile))
	if err != nil {
		return nil, Manifest{}, err
	}
	idx, err := vectorDB.ReadIndex(f)
	f.Close()
	if err != nil {
		return nil, Manifest{}, err
	}

	c := &CorpusStore{index: idx}
	if err := readJSON(filepath.Join(snap, chunksFile), &c.texts); err != nil {
		return nil, Manifest{}, err
	}
	if err := readJSON(filepath.Join(snap, metadataFile), &c.metadata); err != nil {
		return nil, Manifest{}, err
	}

	if err := c.validate(); err != nil {
		return nil, Manifest{}, err
	}
	if manifest.Count != c.Len() || manifest.Model != idx.Model() || manifest.Dimension != idx.Dimension() {
		return nil, Manifest{}, fmt.Errorf("%w: manifest does not describe snapshot %s", commonModels.ErrCorpusCorrupt, id)
	}

	c.Freeze()
	snapshotLogger().Info("snapshot loaded", "snapshotId", id, "chunks", c.Len(), "model", manifest.Model)
	return c, manifest, nil
}

func readCurrent(dir string) (string, error) {
	data, err := os.ReadFile(filepath.Join(dir, currentFile))
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%w: no snapshot in %s", commonModels.ErrCorpusNotFound, dir)
	}
	if err != nil {
		return "", err
	}
	id := strings.TrimSpace(string(data))
	if _, err := uuid.Parse(id); err != nil {
		return "", fmt.Errorf("%w: bad snapshot id %q", commonModels.ErrCorpusCorrupt, id)
	}
	return id, nil
}

func writeCurrent(dir, id string) error {
	tmp := filepath.Join(dir, currentFile+".tmp")
	err := writeFileSync(tmp, func(f *os.File) error {
		_, err := f.WriteString(id + "\n")
		return err
	})
	if err != nil {
		return err
	}
	return os.Rename(tmp, filepath.Join(dir, currentFile))
}

// pruneSnapshots keeps the new snapshot and the one it replaced, so a reader
// that resolved CURRENT just before the swap can still open its snapshot.
func pruneSnapshots(root, current, previous string, log *logger_i.Logger) {
	entries, err := os.ReadDir(root)
	if err != nil {
		log.Warn("could not list snapshots", "error", err)
		return
	}
	kept := 0
	for _, e := range entries {
		name := e.Name()
		if name == current || name == previous {
			kept++
			continue
		}
		if !e.IsDir() || strings.HasPrefix(name, tmpDirPrefix) {
			continue
		}
		if err := os.RemoveAll(filepath.Join(root, name)); err != nil {
			log.Warn("could not remove old snapshot", "snapshot", name, "error", err)
		}
	}
	log.Debug("pruned snapshots", "kept", kept)
}

func writeFileSync(path string, write func(f *os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func jsonWriter(v any) func(f *os.File) error {
	return func(f *os.File) error {
		return json.NewEncoder(f).Encode(v)
	}
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %s: %v", commonModels.ErrCorpusCorrupt, filepath.Base(path), err)
	}
	return nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
