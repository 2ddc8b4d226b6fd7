// Package flat implements the similarity index as exact nearest-neighbor
// search by inner product over L2-normalized vectors, equivalent to cosine
// similarity. The index holds vectors and catalog ids only; the items stay
// owned by the catalog snapshot.
package flat

import (
	"fmt"
	"math"
	"sort"
)

type Index struct {
	dim     int
	ids     []int64
	vectors [][]float32
	posByID map[int64]int
}

func newIndex(dim, capacity int) *Index {
	return &Index{
		dim:     dim,
		ids:     make([]int64, 0, capacity),
		vectors: make([][]float32, 0, capacity),
		posByID: make(map[int64]int, capacity),
	}
}

func (ix *Index) add(id int64, vector []float32) error {
	if len(vector) != ix.dim {
		return fmt.Errorf("vector dimension %d, index dimension %d", len(vector), ix.dim)
	}
	if _, ok := ix.posByID[id]; !ok {
		ix.posByID[id] = len(ix.ids)
	}
	ix.ids = append(ix.ids, id)
	ix.vectors = append(ix.vectors, vector)
	return nil
}

func (ix *Index) Len() int {
	return len(ix.ids)
}

func (ix *Index) Dim() int {
	return ix.dim
}

type hit struct {
	pos   int
	score float64
}

// search returns up to k positions ordered by inner product descending.
// The stable sort keeps equal-score candidates in insertion order, which
// makes results deterministic across calls.
func (ix *Index) search(query []float32, k int) []hit {
	if k < 1 || len(ix.vectors) == 0 || len(query) != ix.dim {
		return nil
	}

	hits := make([]hit, len(ix.vectors))
	for pos, vector := range ix.vectors {
		hits[pos] = hit{pos: pos, score: dot(query, vector)}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].score > hits[j].score
	})

	if k > len(hits) {
		k = len(hits)
	}
	return hits[:k]
}

func (ix *Index) vectorAt(pos int) []float32 {
	return ix.vectors[pos]
}

func (ix *Index) positionOf(id int64) (int, bool) {
	pos, ok := ix.posByID[id]
	return pos, ok
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func l2Normalize(vector []float32) []float32 {
	var sum float64
	for _, v := range vector {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return vector
	}

	inv := 1.0 / math.Sqrt(sum)
	out := make([]float32, len(vector))
	for i, v := range vector {
		out[i] = float32(float64(v) * inv)
	}
	return out
}
