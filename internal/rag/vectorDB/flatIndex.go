package vectorDB

import (
	"container/heap"
	"fmt"
	"sort"

	"github.com/akolanti/StudyRAG/internal/domain/commonModels"
)

// FlatIndex stores raw vectors contiguously and answers queries by
// exhaustive squared-L2 scan, so results are exact.
type FlatIndex struct {
	dim   int
	model string
	data  []float32
}

// NewFlatIndex creates an empty index. A zero dim is fixed by the first Add.
func NewFlatIndex(dim int, model string) (*FlatIndex, error) {
	if dim < 0 {
		return nil, fmt.Errorf("invalid dimension %d", dim)
	}
	return &FlatIndex{dim: dim, model: model}, nil
}

// Build creates an index over vectors in order; vectors[i] gets position i.
func Build(vectors [][]float32, model string) (*FlatIndex, error) {
	idx, err := NewFlatIndex(0, model)
	if err != nil {
		return nil, err
	}
	if err := idx.Add(vectors); err != nil {
		return nil, err
	}
	return idx, nil
}

func (f *FlatIndex) Dimension() int { return f.dim }
func (f *FlatIndex) Model() string  { return f.model }

func (f *FlatIndex) Size() int {
	if f.dim == 0 {
		return 0
	}
	return len(f.data) / f.dim
}

// Add appends vectors; either all of them are added or none.
func (f *FlatIndex) Add(vectors [][]float32) error {
	if len(vectors) == 0 {
		return nil
	}
	dim := f.dim
	if dim == 0 {
		dim = len(vectors[0])
	}
	for i, v := range vectors {
		if len(v) == 0 || len(v) != dim {
			return fmt.Errorf("%w: vector %d has dimension %d, index has %d", commonModels.ErrDimensionMismatch, i, len(v), dim)
		}
	}
	f.dim = dim
	f.data = append(f.data, flatten(vectors)...)
	return nil
}

// Vector returns a copy of the vector stored at position i.
func (f *FlatIndex) Vector(i int) []float32 {
	if i < 0 || i >= f.Size() {
		return nil
	}
	out := make([]float32, f.dim)
	copy(out, f.data[i*f.dim:(i+1)*f.dim])
	return out
}

// Search returns up to k hits ordered by ascending distance. Equal
// distances keep insertion order.
func (f *FlatIndex) Search(query []float32, k int) ([]Hit, error) {
	n := f.Size()
	if k <= 0 || n == 0 {
		return []Hit{}, nil
	}
	if len(query) != f.dim {
		return nil, fmt.Errorf("%w: query has dimension %d, index has %d", commonModels.ErrDimensionMismatch, len(query), f.dim)
	}
	if k > n {
		k = n
	}

	h := make(maxHeap, 0, k)
	for pos := 0; pos < n; pos++ {
		d := squaredL2(query, f.data[pos*f.dim:(pos+1)*f.dim])
		if len(h) < k {
			heap.Push(&h, Hit{Position: pos, Distance: d})
			continue
		}
		if d < h[0].Distance {
			h[0] = Hit{Position: pos, Distance: d}
			heap.Fix(&h, 0)
		}
	}

	hits := []Hit(h)
	sort.Slice(hits, func(i, j int) bool { return less(hits[i], hits[j]) })
	return hits, nil
}

func squaredL2(a, b []float32) float32 {
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

func flatten(vectors [][]float32) []float32 {
	total := 0
	for _, v := range vectors {
		total += len(v)
	}
	out := make([]float32, 0, total)
	for _, v := range vectors {
		out = append(out, v...)
	}
	return out
}

func less(a, b Hit) bool {
	if a.Distance != b.Distance {
		return a.Distance < b.Distance
	}
	return a.Position < b.Position
}

// maxHeap keeps the current k best hits with the worst on top.
type maxHeap []Hit

func (h maxHeap) Len() int           { return len(h) }
func (h maxHeap) Less(i, j int) bool { return less(h[j], h[i]) }
func (h maxHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *maxHeap) Push(x any)        { *h = append(*h, x.(Hit)) }
func (h *maxHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
