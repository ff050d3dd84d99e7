// Package neighbors answers nearest-item queries over layout coordinates or
// topic feature vectors. Small indexes are scanned exactly; larger ones go
// through an HNSW graph.
package neighbors

import (
	"cmp"
	"math/rand"
	"slices"

	"github.com/coder/hnsw"

	"github.com/jespino/bookmap/pkg/embedding"
	"github.com/jespino/bookmap/pkg/projection"
)

// ExactLimit is the largest index answered by a full scan. Larger indexes
// are searched through the graph and answers become approximate.
const ExactLimit = 1024

// Index is a nearest-neighbour index keyed by item id. It is not safe for
// concurrent mutation.
type Index struct {
	graph   *hnsw.Graph[int]
	vectors map[int][]float32
	dims    int
}

func New() *Index {
	graph := hnsw.NewGraph[int]()
	graph.M = 16        // Maximum number of connections per node
	graph.Ml = 0.25     // Level generation factor
	graph.EfSearch = 20 // Number of nodes to consider during search
	// Binary topic vectors may be all-zero, which cosine distance cannot handle.
	graph.Distance = hnsw.EuclideanDistance
	// Same insertions, same levels.
	graph.Rng = rand.New(rand.NewSource(1))
	return &Index{graph: graph, vectors: make(map[int][]float32)}
}

// FromCoordinates indexes every point of coords, in ascending id order.
func FromCoordinates(coords projection.Coordinates) *Index {
	idx := New()
	for _, id := range coords.IDs() {
		p := coords[id]
		idx.Add(id, []float32{float32(p[0]), float32(p[1])})
	}
	return idx
}

// FromVectors indexes vectors[i] under ids[i].
func FromVectors(ids []int, vectors [][]float64) *Index {
	idx := New()
	for i := 0; i < len(ids) && i < len(vectors); i++ {
		idx.Add(ids[i], embedding.Float32(vectors[i]))
	}
	return idx
}

// Add inserts or replaces the vector of id. Vectors must share one length;
// mismatched and empty vectors are ignored.
func (idx *Index) Add(id int, vector []float32) {
	if len(vector) == 0 {
		return
	}
	if idx.dims == 0 {
		idx.dims = len(vector)
	}
	if len(vector) != idx.dims {
		return
	}
	idx.graph.Add(hnsw.MakeNode(id, vector))
	idx.vectors[id] = vector
}

func (idx *Index) Len() int {
	return idx.graph.Len()
}

// Nearest returns up to k ids closest to vector, closest first. Ties are
// broken by ascending id.
func (idx *Index) Nearest(vector []float32, k int) []int {
	if k <= 0 || idx.Len() == 0 || len(vector) != idx.dims {
		return nil
	}

	var candidates []int
	if idx.Len() <= ExactLimit {
		candidates = make([]int, 0, len(idx.vectors))
		for id := range idx.vectors {
			candidates = append(candidates, id)
		}
	} else {
		nodes := idx.graph.Search(vector, max(k, idx.graph.EfSearch))
		candidates = make([]int, 0, len(nodes))
		for _, node := range nodes {
			candidates = append(candidates, node.Key)
		}
	}

	distance := idx.graph.Distance
	slices.SortFunc(candidates, func(a, b int) int {
		if c := cmp.Compare(distance(vector, idx.vectors[a]), distance(vector, idx.vectors[b])); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})
	if len(candidates) > k {
		candidates = candidates[:k]
	}
	return candidates
}

// NearestPoint returns the id of the item closest to p in a coordinate
// index.
func (idx *Index) NearestPoint(p projection.Point) (int, bool) {
	ids := idx.Nearest([]float32{float32(p[0]), float32(p[1])}, 1)
	if len(ids) == 0 {
		return 0, false
	}
	return ids[0], true
}

// Similar returns up to k ids closest to the indexed item id, excluding id
// itself.
func (idx *Index) Similar(id int, k int) []int {
	vector, ok := idx.vectors[id]
	if !ok {
		return nil
	}
	ids := idx.Nearest(vector, k+1)
	similar := make([]int, 0, k)
	for _, other := range ids {
		if other != id && len(similar) < k {
			similar = append(similar, other)
		}
	}
	return similar
}
