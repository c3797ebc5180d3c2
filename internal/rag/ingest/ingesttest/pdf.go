// Package ingesttest builds small fixture corpora for ingestion tests.
package ingesttest

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// OnePagePDF renders text as a single-page PDF with one Helvetica text run.
// Only printable ASCII is supported.
func OnePagePDF(text string) []byte {
	return buildPDF("4 0 R", textStream(text))
}

// MissingContentPDF has one page whose Contents points at an object that
// does not exist.
func MissingContentPDF() []byte {
	return buildPDF("9 0 R", textStream("unreachable"))
}

// MultiStreamPDF has one page whose Contents is an array of two streams,
// one text run each, on separate lines.
func MultiStreamPDF(first, second string) []byte {
	return buildPDF("[4 0 R 6 0 R]", textStreamAt(first, 720), textStreamAt(second, 700))
}

func textStream(text string) string {
	return textStreamAt(text, 720)
}

func textStreamAt(text string, y int) string {
	escaped := strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`).Replace(text)
	content := fmt.Sprintf("BT\n/F1 12 Tf\n72 %d Td\n(%s) Tj\nET\n", y, escaped)
	return fmt.Sprintf("<< /Length %d >>\nstream\n%sendstream", len(content), content)
}

// buildPDF lays out catalog, pages, page, the first stream, the font and
// any further streams as objects 1, 2, 3, 4, 5, 6...
func buildPDF(contentsRef string, streams ...string) []byte {
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 5 0 R >> >> /Contents " + contentsRef + " >>",
		streams[0],
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
	}
	objects = append(objects, streams[1:]...)

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

// WriteFile writes data to root/rel, creating parent directories.
func WriteFile(t testing.TB, root, rel string, data []byte) string {
	t.Helper()
	path := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// TwoSubjectCorpus lays out the deadlock/normalization fixture:
//
//	root/Operating_System/os_notes.pdf
//	root/DBMS/dbms_notes.pdf
func TwoSubjectCorpus(t testing.TB) string {
	t.Helper()
	root := t.TempDir()
	WriteFile(t, root, "Operating_System/os_notes.pdf", OnePagePDF("Deadlock occurs when processes wait circularly for resources."))
	WriteFile(t, root, "DBMS/dbms_notes.pdf", OnePagePDF("Normalization reduces redundancy in relational schemas."))
	return root
}
