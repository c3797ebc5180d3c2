package vectorDB

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
	"math"

	"github.com/akolanti/StudyRAG/internal/domain/commonModels"
)

const (
	snapshotMagic   = "SRIX"
	snapshotVersion = uint32(1)
	maxModelNameLen = 1 << 12
)

// WriteTo serialises the index as
//
//	magic | version | dim | count | len(model) | model | float32 data (LE) | crc32
//
// The checksum covers every byte before it.
func (f *FlatIndex) WriteTo(w io.Writer) (int64, error) {
	crc := crc32.NewIEEE()
	bw := bufio.NewWriter(io.MultiWriter(w, crc))
	cw := &countingWriter{w: bw}

	header := make([]byte, 0, 24+len(f.model))
	header = append(header, snapshotMagic...)
	header = binary.LittleEndian.AppendUint32(header, snapshotVersion)
	header = binary.LittleEndian.AppendUint32(header, uint32(f.dim))
	header = binary.LittleEndian.AppendUint64(header, uint64(f.Size()))
	header = binary.LittleEndian.AppendUint32(header, uint32(len(f.model)))
	header = append(header, f.model...)
	if _, err := cw.Write(header); err != nil {
		return cw.n, err
	}

	buf := make([]byte, 4)
	for _, v := range f.data {
		binary.LittleEndian.PutUint32(buf, math.Float32bits(v))
		if _, err := cw.Write(buf); err != nil {
			return cw.n, err
		}
	}
	if err := bw.Flush(); err != nil {
		return cw.n, err
	}

	// crc is read after the flush so it has seen every byte
	sum := binary.LittleEndian.AppendUint32(nil, crc.Sum32())
	n, err := w.Write(sum)
	return cw.n + int64(n), err
}

// ReadIndex decodes an index written by WriteTo. Any structural problem,
// including a checksum mismatch, is reported as ErrCorpusCorrupt.
func ReadIndex(r io.Reader) (*FlatIndex, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(data) < 28 {
		return nil, corrupt("index snapshot truncated")
	}

	body, trailer := data[:len(data)-4], data[len(data)-4:]
	if crc32.ChecksumIEEE(body) != binary.LittleEndian.Uint32(trailer) {
		return nil, corrupt("index snapshot checksum mismatch")
	}

	rd := bytes.NewReader(body)
	magic := make([]byte, 4)
	if _, err := io.ReadFull(rd, magic); err != nil || string(magic) != snapshotMagic {
		return nil, corrupt("bad index snapshot header")
	}

	var hdr struct {
		Version  uint32
		Dim      uint32
		Count    uint64
		ModelLen uint32
	}
	if err := binary.Read(rd, binary.LittleEndian, &hdr); err != nil {
		return nil, corrupt("index snapshot header: %v", err)
	}
	if hdr.Version != snapshotVersion {
		return nil, corrupt("unsupported index snapshot version %d", hdr.Version)
	}
	if hdr.ModelLen > maxModelNameLen {
		return nil, corrupt("model name length %d", hdr.ModelLen)
	}
	model := make([]byte, hdr.ModelLen)
	if _, err := io.ReadFull(rd, model); err != nil {
		return nil, corrupt("index snapshot model: %v", err)
	}

	if hdr.Dim == 0 && hdr.Count != 0 {
		return nil, corrupt("index snapshot has %d vectors of dimension 0", hdr.Count)
	}
	// bound count by the bytes present before multiplying, so a forged
	// header cannot overflow the size check
	if hdr.Dim != 0 && hdr.Count > uint64(rd.Len())/4/uint64(hdr.Dim) {
		return nil, corrupt("index snapshot claims %d vectors of dimension %d in %d bytes", hdr.Count, hdr.Dim, rd.Len())
	}
	want := uint64(hdr.Dim) * hdr.Count * 4
	if uint64(rd.Len()) != want {
		return nil, corrupt("index snapshot holds %d data bytes, want %d", rd.Len(), want)
	}

	values := make([]float32, hdr.Count*uint64(hdr.Dim))
	raw := body[len(body)-rd.Len():]
	for i := range values {
		values[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}

	return &FlatIndex{dim: int(hdr.Dim), model: string(model), data: values}, nil
}

func corrupt(format string, args ...any) error {
	return fmt.Errorf("%w: %s", commonModels.ErrCorpusCorrupt, fmt.Sprintf(format, args...))
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
