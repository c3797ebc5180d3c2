package store

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/akolanti/StudyRAG/internal/domain/commonModels"
	"github.com/akolanti/StudyRAG/internal/rag/chunker"
)

func sampleStore(t *testing.T) *CorpusStore {
	t.Helper()
	c := NewCorpusStore("test-model")
	err := c.Append(
		[]string{"deadlock text", "paging text", "normalization text"},
		[]commonModels.ChunkMetadata{
			{Subject: "Operating System", Source: "os.pdf", ChunkId: "Operating_System_0"},
			{Subject: "Operating System", Source: "os.pdf", ChunkId: "Operating_System_1"},
			{Subject: "DBMS", Source: "db.pdf", ChunkId: "DBMS_0"},
		},
		[][]float32{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}},
	)
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	return c
}

func TestAppend_Lockstep(t *testing.T) {
	c := sampleStore(t)
	if c.Len() != 3 || c.Index().Size() != 3 {
		t.Fatalf("Len=%d Size=%d", c.Len(), c.Index().Size())
	}

	tests := []struct {
		name    string
		texts   []string
		meta    []commonModels.ChunkMetadata
		vectors [][]float32
		wantErr error
	}{
		{"missing metadata", []string{"a"}, nil, [][]float32{{1, 1, 1}}, commonModels.ErrCorpusCorrupt},
		{"missing vector", []string{"a"}, []commonModels.ChunkMetadata{{}}, nil, commonModels.ErrCorpusCorrupt},
		{"wrong dimension", []string{"a"}, []commonModels.ChunkMetadata{{}}, [][]float32{{1}}, commonModels.ErrDimensionMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := c.Append(tt.texts, tt.meta, tt.vectors)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("got %v, want %v", err, tt.wantErr)
			}
			if c.Len() != 3 || c.Index().Size() != 3 {
				t.Errorf("failed append changed the store: Len=%d Size=%d", c.Len(), c.Index().Size())
			}
		})
	}

	c.Freeze()
	if err := c.Append([]string{"a"}, []commonModels.ChunkMetadata{{}}, [][]float32{{1, 1, 1}}); !errors.Is(err, ErrFrozen) {
		t.Errorf("append after freeze got %v", err)
	}
}

func TestGet(t *testing.T) {
	c := sampleStore(t)
	text, meta, ok := c.Get(2)
	if !ok || text != "normalization text" || meta.ChunkId != "DBMS_0" {
		t.Errorf("Get(2) = %q %+v %v", text, meta, ok)
	}
	if _, _, ok := c.Get(3); ok {
		t.Error("Get(3) should be out of range")
	}
	if _, _, ok := c.Get(-1); ok {
		t.Error("Get(-1) should be out of range")
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	c := sampleStore(t)

	manifest, err := c.Save(dir)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if manifest.Count != 3 || manifest.Dimension != 3 || manifest.Model != "test-model" {
		t.Errorf("manifest got %+v", manifest)
	}

	loaded, lm, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if lm.SnapshotId != manifest.SnapshotId {
		t.Errorf("loaded snapshot %s, saved %s", lm.SnapshotId, manifest.SnapshotId)
	}
	for i := 0; i < c.Len(); i++ {
		wantText, wantMeta, _ := c.Get(i)
		gotText, gotMeta, _ := loaded.Get(i)
		if gotText != wantText || gotMeta != wantMeta {
			t.Errorf("position %d: got %q %+v, want %q %+v", i, gotText, gotMeta, wantText, wantMeta)
		}
	}

	q := []float32{0.9, 0.2, 0}
	want, _ := c.Index().Search(q, 3)
	got, _ := loaded.Index().Search(q, 3)
	for i := range want {
		if want[i] != got[i] {
			t.Errorf("hit %d: got %+v, want %+v", i, got[i], want[i])
		}
	}

	if err := loaded.Append([]string{"x"}, []commonModels.ChunkMetadata{{}}, [][]float32{{1, 1, 1}}); !errors.Is(err, ErrFrozen) {
		t.Errorf("loaded store should be frozen, got %v", err)
	}
}

func TestSaveLoad_EmptyCorpus(t *testing.T) {
	dir := t.TempDir()
	if _, err := NewCorpusStore("m").Save(dir); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	loaded, _, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Len() != 0 {
		t.Errorf("Len got %d", loaded.Len())
	}
}

func TestLoad_NotFound(t *testing.T) {
	if _, _, err := Load(t.TempDir()); !errors.Is(err, commonModels.ErrCorpusNotFound) {
		t.Errorf("empty dir: got %v", err)
	}

	for _, name := range []string{indexFile, chunksFile, metadataFile, manifestFile} {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			m, err := sampleStore(t).Save(dir)
			if err != nil {
				t.Fatal(err)
			}
			if err := os.Remove(filepath.Join(dir, snapshotsDir, m.SnapshotId, name)); err != nil {
				t.Fatal(err)
			}
			if _, _, err := Load(dir); !errors.Is(err, commonModels.ErrCorpusNotFound) {
				t.Errorf("got %v, want ErrCorpusNotFound", err)
			}
		})
	}
}

func TestLoad_Corrupt(t *testing.T) {
	tests := []struct {
		name   string
		file   string
		mutate func(data []byte) []byte
	}{
		{"short chunks", chunksFile, func([]byte) []byte { return []byte(`["only one"]`) }},
		{"long metadata", metadataFile, func(data []byte) []byte {
			var meta []commonModels.ChunkMetadata
			_ = json.Unmarshal(data, &meta)
			meta = append(meta, commonModels.ChunkMetadata{Subject: "extra"})
			out, _ := json.Marshal(meta)
			return out
		}},
		{"chunks not json", chunksFile, func([]byte) []byte { return []byte("{{{") }},
		{"index truncated", indexFile, func(data []byte) []byte { return data[:len(data)/2] }},
		{"manifest count", manifestFile, func(data []byte) []byte {
			return []byte(strings.Replace(string(data), `"count":3`, `"count":4`, 1))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			m, err := sampleStore(t).Save(dir)
			if err != nil {
				t.Fatal(err)
			}
			path := filepath.Join(dir, snapshotsDir, m.SnapshotId, tt.file)
			data, err := os.ReadFile(path)
			if err != nil {
				t.Fatal(err)
			}
			if err := os.WriteFile(path, tt.mutate(data), 0o644); err != nil {
				t.Fatal(err)
			}
			if _, _, err := Load(dir); !errors.Is(err, commonModels.ErrCorpusCorrupt) {
				t.Errorf("got %v, want ErrCorpusCorrupt", err)
			}
		})
	}
}

func TestSave_SwapsCurrentAndPrunes(t *testing.T) {
	dir := t.TempDir()
	first, err := sampleStore(t).Save(dir)
	if err != nil {
		t.Fatal(err)
	}

	second := NewCorpusStore("test-model")
	if err := second.Append([]string{"only"}, []commonModels.ChunkMetadata{{Source: "x.pdf"}}, [][]float32{{1, 1, 1}}); err != nil {
		t.Fatal(err)
	}
	m2, err := second.Save(dir)
	if err != nil {
		t.Fatal(err)
	}

	loaded, lm, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if lm.SnapshotId != m2.SnapshotId || loaded.Len() != 1 {
		t.Errorf("expected the second snapshot, got %s with %d chunks", lm.SnapshotId, loaded.Len())
	}

	third, err := sampleStore(t).Save(dir)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, snapshotsDir, first.SnapshotId)); !os.IsNotExist(err) {
		t.Errorf("first snapshot should be pruned, stat err %v", err)
	}
	for _, id := range []string{m2.SnapshotId, third.SnapshotId} {
		if _, err := os.Stat(filepath.Join(dir, snapshotsDir, id)); err != nil {
			t.Errorf("snapshot %s should be kept: %v", id, err)
		}
	}
}

func TestManifest_CheckModel(t *testing.T) {
	m := Manifest{Model: "hash-xxh64-1024"}
	if err := m.CheckModel("hash-xxh64-1024"); err != nil {
		t.Errorf("same model got %v", err)
	}
	if err := m.CheckModel("google/gemini-embedding-001@768"); !errors.Is(err, commonModels.ErrModelMismatch) {
		t.Errorf("different model got %v", err)
	}
}

func TestSaveLoad_CJKChunksUnchanged(t *testing.T) {
	tok, err := chunker.NewBPETokenizer("cl100k_base")
	if err != nil {
		t.Fatal(err)
	}
	c, err := chunker.New(tok, chunker.WithMaxTokens(5), chunker.WithOverlap(1))
	if err != nil {
		t.Fatal(err)
	}
	texts, err := c.Chunk("操作系统中的死锁是指多个进程循环等待资源。规范化减少关系模式中的冗余。")
	if err != nil {
		t.Fatal(err)
	}

	metadata := make([]commonModels.ChunkMetadata, len(texts))
	vectors := make([][]float32, len(texts))
	for i := range texts {
		metadata[i] = commonModels.ChunkMetadata{Subject: "Operating System", Source: "os.pdf"}
		vectors[i] = []float32{float32(i), 1}
	}
	store := NewCorpusStore("test-model")
	if err := store.Append(texts, metadata, vectors); err != nil {
		t.Fatal(err)
	}

	dir := t.TempDir()
	if _, err := store.Save(dir); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	loaded, _, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	for i, want := range texts {
		got, _, _ := loaded.Get(i)
		if got != want {
			t.Errorf("chunk %d: saved %q, loaded %q", i, want, got)
		}
	}
}
