package scanner

import (
	"container/heap"
	"sort"

	"github.com/blackwell-systems/diskscope/internal/inventory"
)

// topK retains the K largest (path, size) pairs offered to it. A min-heap
// keeps the weakest retained entry at the root, so offering an entry costs
// O(log K) no matter how many entries the scan produces.
//
// Ordering is total: bigger size wins, and between equal sizes the lexically
// smaller path wins. The result is therefore independent of offer order.
type topK struct {
	k     int
	items topKHeap
}

func newTopK(k int) *topK {
	return &topK{k: k}
}

// Add offers one pair to the tracker.
func (t *topK) Add(path string, size int64) {
	if t.k <= 0 {
		return
	}

	entry := inventory.Entry{Path: path, Size: size}
	if len(t.items) < t.k {
		heap.Push(&t.items, entry)
		return
	}

	weakest := t.items[0]
	if size < weakest.Size || (size == weakest.Size && path > weakest.Path) {
		return
	}

	t.items[0] = entry
	heap.Fix(&t.items, 0)
}

// Entries returns the retained pairs sorted for presentation: descending by
// size, ties broken by ascending path. The tracker stays usable afterwards.
func (t *topK) Entries() []inventory.Entry {
	out := make([]inventory.Entry, len(t.items))
	copy(out, t.items)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Size != out[j].Size {
			return out[i].Size > out[j].Size
		}
		return out[i].Path < out[j].Path
	})
	return out
}

// topKHeap is a min-heap: the entry that should be evicted first sits at
// index 0.
type topKHeap []inventory.Entry

func (h topKHeap) Len() int { return len(h) }

func (h topKHeap) Less(i, j int) bool {
	if h[i].Size != h[j].Size {
		return h[i].Size < h[j].Size
	}
	return h[i].Path > h[j].Path
}

func (h topKHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *topKHeap) Push(x any) {
	*h = append(*h, x.(inventory.Entry))
}

func (h *topKHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
