package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/akolanti/StudyRAG/internal/data/store"
	"github.com/akolanti/StudyRAG/internal/domain/commonModels"
	"github.com/akolanti/StudyRAG/internal/rag/chunker"
	"github.com/akolanti/StudyRAG/internal/rag/embedding"
	"github.com/akolanti/StudyRAG/internal/rag/embedding/hashEmbedding"
	"github.com/akolanti/StudyRAG/internal/rag/ingest/ingesttest"
	"github.com/dslipak/pdf"
)

type mockEmbedder struct {
	batchFunc func(ctx context.Context, chunks []string) ([][]float32, error)
}

func (m *mockEmbedder) ModelName() string { return "mock" }

func (m *mockEmbedder) GetEmbedding(ctx context.Context, query string) ([]float32, error) {
	return nil, nil
}

func (m *mockEmbedder) BatchEmbedding(ctx context.Context, chunks []string) ([][]float32, error) {
	return m.batchFunc(ctx, chunks)
}

func newTestIngester(t *testing.T, e embedding.Embedder, opts ...chunker.Option) *Ingester {
	t.Helper()
	c, err := chunker.New(ingesttest.NewWordTokenizer(), opts...)
	if err != nil {
		t.Fatal(err)
	}
	return NewIngester(c, embedding.Batched(e, 4, 2), 3, 5)
}

func hashEmbedder(t *testing.T) *hashEmbedding.Embedder {
	t.Helper()
	e, err := hashEmbedding.NewHashEmbedder(256)
	if err != nil {
		t.Fatal(err)
	}
	return e
}

func TestCleanText(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		expected string
	}{
		{"nul bytes", "dead\x00lock", "deadlock"},
		{"blank runs", "a\n\n\n\nb", "a\n\nb"},
		{"double newline kept", "a\n\nb", "a\n\nb"},
		{"trim", "  \n text \n\n", "text"},
		{"empty", "\x00\n\n\n", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cleanText(tt.in); got != tt.expected {
				t.Errorf("cleanText(%q) = %q; want %q", tt.in, got, tt.expected)
			}
		})
	}
}

func TestGetDocType(t *testing.T) {
	tests := []struct {
		path     string
		expected commonModels.DocType
	}{
		{"test.pdf", commonModels.PDF},
		{"LECTURE.PDF", commonModels.PDF},
		{"DOC.DOCX", commonModels.DOCX},
		{"notes.txt", commonModels.TXT},
		{"image.png", commonModels.ERR},
	}

	for _, tt := range tests {
		if got := getDocType(tt.path); got != tt.expected {
			t.Errorf("getDocType(%s) = %v; want %v", tt.path, got, tt.expected)
		}
	}
}

func TestSubjectLabel(t *testing.T) {
	tests := map[string]string{
		"Operating_System":  "Operating System",
		"computer_networks": "Computer Networks",
		"DBMS":              "DBMS",
		"maths":             "Maths",
	}
	for in, want := range tests {
		if got := SubjectLabel(in); got != want {
			t.Errorf("SubjectLabel(%q) = %q; want %q", in, got, want)
		}
	}
}

func TestExtract_PDF(t *testing.T) {
	root := t.TempDir()
	path := ingesttest.WriteFile(t, root, "os.pdf", ingesttest.OnePagePDF("Deadlock occurs when processes wait circularly for resources."))

	text, err := Extract(context.Background(), path)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if text != "Deadlock occurs when processes wait circularly for resources." {
		t.Errorf("got %q", text)
	}
}

func TestExtract_PlainText(t *testing.T) {
	root := t.TempDir()
	path := ingesttest.WriteFile(t, root, "notes.txt", []byte("line one\n\n\n\nline two\x00\n"))

	text, err := Extract(context.Background(), path)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if text != "line one\n\nline two" {
		t.Errorf("got %q", text)
	}
}

func TestExtract_Failures(t *testing.T) {
	root := t.TempDir()
	broken := ingesttest.WriteFile(t, root, "broken.pdf", []byte("this is not a pdf"))
	image := ingesttest.WriteFile(t, root, "scan.png", []byte{0x89, 'P', 'N', 'G'})

	tests := []struct {
		name string
		path string
	}{
		{"missing file", root + "/missing.pdf"},
		{"unparseable pdf", broken},
		{"unsupported type", image},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Extract(context.Background(), tt.path)
			if !errors.Is(err, commonModels.ErrExtraction) {
				t.Fatalf("expected ErrExtraction, got %v", err)
			}
			var extractionErr *commonModels.ExtractionError
			if !errors.As(err, &extractionErr) || extractionErr.File == "" {
				t.Errorf("expected file scoped error, got %v", err)
			}
		})
	}
}

func TestBuild_TwoSubjectPDFs(t *testing.T) {
	root := ingesttest.TwoSubjectCorpus(t)
	emb := hashEmbedder(t)
	in := newTestIngester(t, emb)

	corpus, summary, err := in.Build(context.Background(), root)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if summary.TotalChunks != 2 || len(summary.Failures) != 0 {
		t.Fatalf("summary got %+v", summary)
	}

	// folders are visited in lexical order
	expected := []commonModels.ChunkMetadata{
		{Subject: "DBMS", Source: "dbms_notes.pdf", ChunkId: "DBMS_0"},
		{Subject: "Operating System", Source: "os_notes.pdf", ChunkId: "Operating_System_0"},
	}
	for i, want := range expected {
		text, meta, ok := corpus.Get(i)
		if !ok || meta != want {
			t.Errorf("position %d metadata = %+v; want %+v", i, meta, want)
		}
		vec, _ := emb.GetEmbedding(context.Background(), text)
		stored := corpus.Vector(i)
		for j := range vec {
			if vec[j] != stored[j] {
				t.Fatalf("position %d vector differs from embedding of its chunk", i)
			}
		}
	}
}

func TestBuild_ThreeDocumentsKnownChunkCounts(t *testing.T) {
	root := t.TempDir()
	// max 8, overlap 2 => stride 6; ceil((n-2)/6) chunks for n > 8
	ingesttest.WriteFile(t, root, "Algorithms/a.txt", []byte(ingesttest.Words("a", 20))) // 3 chunks
	ingesttest.WriteFile(t, root, "Algorithms/b.txt", []byte(ingesttest.Words("b", 8)))  // 1 chunk
	ingesttest.WriteFile(t, root, "Networks/c.txt", []byte(ingesttest.Words("c", 14)))   // 2 chunks

	emb := hashEmbedder(t)
	in := newTestIngester(t, emb, chunker.WithMaxTokens(8), chunker.WithOverlap(2))
	corpus, summary, err := in.Build(context.Background(), root)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	wantIds := []string{"Algorithms_0", "Algorithms_1", "Algorithms_2", "Algorithms_0", "Networks_0", "Networks_1"}
	wantSources := []string{"a.txt", "a.txt", "a.txt", "b.txt", "c.txt", "c.txt"}
	if corpus.Len() != len(wantIds) || summary.TotalChunks != len(wantIds) {
		t.Fatalf("got %d chunks, want %d", corpus.Len(), len(wantIds))
	}
	for i := range wantIds {
		text, meta, _ := corpus.Get(i)
		if meta.ChunkId != wantIds[i] || meta.Source != wantSources[i] {
			t.Errorf("position %d = %+v; want %s from %s", i, meta, wantIds[i], wantSources[i])
		}
		if text[0] != wantSources[i][0] {
			t.Errorf("position %d text %q is not from %s", i, text, wantSources[i])
		}
	}

	counts := map[string]int{}
	for _, f := range summary.Files {
		counts[f.Source] = f.Chunks
	}
	if counts["a.txt"] != 3 || counts["b.txt"] != 1 || counts["c.txt"] != 2 {
		t.Errorf("per file chunk counts got %v", counts)
	}
}

func TestBuild_PartialFailureContinues(t *testing.T) {
	root := ingesttest.TwoSubjectCorpus(t)
	ingesttest.WriteFile(t, root, "Operating_System/broken.pdf", []byte("%PDF-1.4 garbage"))
	ingesttest.WriteFile(t, root, "Operating_System/figure.png", []byte("png"))
	ingesttest.WriteFile(t, root, "README.txt", []byte("loose files at the root are ignored"))

	in := newTestIngester(t, hashEmbedder(t))
	corpus, summary, err := in.Build(context.Background(), root)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if corpus.Len() != 2 {
		t.Errorf("expected the two good files to be ingested, got %d chunks", corpus.Len())
	}
	if len(summary.Failures) != 1 {
		t.Fatalf("expected one failure, got %v", summary.Failures)
	}
	if len(summary.Files) != 3 {
		t.Errorf("expected 3 attempted files, got %d", len(summary.Files))
	}

	data, err := json.Marshal(summary)
	if err != nil {
		t.Fatal(err)
	}
	var printed struct {
		Files []struct {
			Subject string `json:"subject"`
			Source  string `json:"source"`
			Chunks  int    `json:"chunks"`
			Error   string `json:"error"`
		} `json:"files"`
	}
	if err := json.Unmarshal(data, &printed); err != nil {
		t.Fatal(err)
	}
	if len(printed.Files) != 3 {
		t.Fatalf("json summary lists %d files, want 3: %s", len(printed.Files), data)
	}
	for _, f := range printed.Files {
		switch f.Source {
		case "broken.pdf":
			if f.Error == "" || f.Chunks != 0 {
				t.Errorf("broken.pdf = %+v; want an error and no chunks", f)
			}
		default:
			if f.Error != "" || f.Chunks != 1 || f.Subject == "" {
				t.Errorf("%s = %+v; want one chunk and no error", f.Source, f)
			}
		}
	}
}

func TestExtract_PDFWithoutContentStream(t *testing.T) {
	root := t.TempDir()
	path := ingesttest.WriteFile(t, root, "os.pdf", ingesttest.MissingContentPDF())

	start := time.Now()
	_, err := Extract(context.Background(), path)
	if !errors.Is(err, commonModels.ErrExtraction) {
		t.Fatalf("expected ErrExtraction, got %v", err)
	}
	if !errors.Is(err, errNoContentStream) {
		t.Errorf("expected the missing stream to be named, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Errorf("page without content took %v; it should be refused before parsing", time.Since(start))
	}
}

func TestExtract_PDFContentArray(t *testing.T) {
	root := t.TempDir()
	path := ingesttest.WriteFile(t, root, "os.pdf", ingesttest.MultiStreamPDF("Deadlock needs four conditions.", "Paging avoids external fragmentation."))

	text, err := Extract(context.Background(), path)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	want := "Deadlock needs four conditions.\nPaging avoids external fragmentation."
	if text != want {
		t.Errorf("got %q, want %q", text, want)
	}
}

func TestBuild_UnparseablePDFIsAFailure(t *testing.T) {
	root := ingesttest.TwoSubjectCorpus(t)
	ingesttest.WriteFile(t, root, "Operating_System/scanned.pdf", ingesttest.MissingContentPDF())

	corpus, summary, err := newTestIngester(t, hashEmbedder(t)).Build(context.Background(), root)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if corpus.Len() != 2 {
		t.Errorf("expected the two good files to be ingested, got %d chunks", corpus.Len())
	}
	if len(summary.Failures) != 1 || !strings.Contains(summary.Failures[0], "scanned.pdf") {
		t.Fatalf("expected scanned.pdf to be recorded as failed, got %v", summary.Failures)
	}
	for _, f := range summary.Files {
		if f.Source == "scanned.pdf" && !f.Failed() {
			t.Errorf("scanned.pdf recorded as success: %+v", f)
		}
	}
}

func TestProtectExtract_BoundedParsers(t *testing.T) {
	prevTimeout := pageTimeout
	pageTimeout = 20 * time.Millisecond
	t.Cleanup(func() { pageTimeout = prevTimeout })

	// occupy every slot, as pages stuck in the parser would
	for i := 0; i < cap(pageParsers); i++ {
		pageParsers <- struct{}{}
	}
	t.Cleanup(func() {
		for i := 0; i < cap(pageParsers); i++ {
			<-pageParsers
		}
	})

	if _, err := protectExtract(context.Background(), pdf.Page{}); !errors.Is(err, errParsersBusy) {
		t.Errorf("expected errParsersBusy, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := protectExtract(ctx, pdf.Page{}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestBuild_EmbeddingFailureAborts(t *testing.T) {
	root := ingesttest.TwoSubjectCorpus(t)
	emb := &mockEmbedder{batchFunc: func(ctx context.Context, chunks []string) ([][]float32, error) {
		return nil, errors.New("quota exceeded")
	}}

	corpus, _, err := newTestIngester(t, emb).Build(context.Background(), root)
	if !errors.Is(err, commonModels.ErrEmbedding) {
		t.Fatalf("expected ErrEmbedding, got %v", err)
	}
	if corpus != nil {
		t.Error("no corpus should be returned when embedding fails")
	}
}

func TestBuild_EmptyAndMissingRoot(t *testing.T) {
	in := newTestIngester(t, hashEmbedder(t))

	corpus, summary, err := in.Build(context.Background(), t.TempDir())
	if err != nil {
		t.Fatalf("empty root: %v", err)
	}
	if corpus.Len() != 0 || summary.TotalChunks != 0 {
		t.Errorf("expected empty corpus, got %d", corpus.Len())
	}

	if _, _, err := in.Build(context.Background(), t.TempDir()+"/nope"); err == nil {
		t.Error("expected error for missing root")
	}
}

func TestRun_SavesLoadableSnapshot(t *testing.T) {
	root := ingesttest.TwoSubjectCorpus(t)
	corpusDir := t.TempDir()
	emb := hashEmbedder(t)

	summary, err := newTestIngester(t, emb).Run(context.Background(), root, corpusDir)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.SnapshotId == "" {
		t.Error("expected snapshot id in summary")
	}

	loaded, manifest, err := store.Load(corpusDir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Len() != 2 || manifest.SnapshotId != summary.SnapshotId {
		t.Errorf("loaded %d chunks from %s", loaded.Len(), manifest.SnapshotId)
	}
	if err := manifest.CheckModel(emb.ModelName()); err != nil {
		t.Errorf("CheckModel: %v", err)
	}
}
