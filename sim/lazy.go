package sim

import (
	"container/heap"
	"iter"
	"slices"

	"github.com/google/btree"
)

// pendingStripe is a stripe whose repair has been deferred, with the disks
// that still hold a bad chunk of it.
type pendingStripe struct {
	stripe int
	disks  []int
}

// pendingRepairs maps stripe -> disks awaiting repair, ordered by stripe so
// that data-loss checks visit stripes deterministically.
type pendingRepairs struct {
	tree *btree.BTreeG[pendingStripe]
}

func newPendingRepairs() *pendingRepairs {
	return &pendingRepairs{
		tree: btree.NewG(16, func(a, b pendingStripe) bool { return a.stripe < b.stripe }),
	}
}

// get returns the disks recorded for stripe, or nil.
func (p *pendingRepairs) get(stripe int) []int {
	item, _ := p.tree.Get(pendingStripe{stripe: stripe})
	return item.disks
}

// contains reports whether disk is recorded as bad on stripe.
func (p *pendingRepairs) contains(stripe, disk int) bool {
	return slices.Contains(p.get(stripe), disk)
}

// merge adds disks to the stripe's entry, creating it if needed.
func (p *pendingRepairs) merge(stripe int, disks []int) {
	item, ok := p.tree.Get(pendingStripe{stripe: stripe})
	if !ok {
		item = pendingStripe{stripe: stripe}
	}
	for _, d := range disks {
		if !slices.Contains(item.disks, d) {
			item.disks = append(item.disks, d)
		}
	}
	p.tree.ReplaceOrInsert(item)
}

func (p *pendingRepairs) remove(stripe int) {
	p.tree.Delete(pendingStripe{stripe: stripe})
}

func (p *pendingRepairs) clear()   { p.tree.Clear(false) }
func (p *pendingRepairs) len() int { return p.tree.Len() }

// all yields (stripe, disks) pairs in ascending stripe order.
func (p *pendingRepairs) all() iter.Seq2[int, []int] {
	return func(yield func(int, []int) bool) {
		p.tree.Ascend(func(item pendingStripe) bool {
			return yield(item.stripe, item.disks)
		})
	}
}

// followerBundles maps a leading disk to the disks whose chunks will be
// rebuilt once the leader's repair completes, with the stripes for each.
type followerBundles map[int]map[int][]int

func (f followerBundles) add(leader int, bundle map[int][]int) {
	if len(bundle) == 0 {
		return
	}
	existing, ok := f[leader]
	if !ok {
		f[leader] = bundle
		return
	}
	for disk, stripes := range bundle {
		existing[disk] = append(existing[disk], stripes...)
	}
}

// admission names the routine a parked repair request is re-issued through.
type admission int

const (
	admitEager admission = iota
	admitLazy
	admitFollowup
)

func (a admission) String() string {
	switch a {
	case admitLazy:
		return "lazy"
	case admitFollowup:
		return "followup"
	default:
		return "eager"
	}
}

// repairRequest is a repair that could not start for lack of bandwidth.
type repairRequest struct {
	time float64
	disk int
	op   admission
	seq  uint64
}

// waitQueue holds parked repair requests, earliest first.
type waitQueue struct {
	items   requestHeap
	nextSeq uint64
}

func (w *waitQueue) push(time float64, disk int, op admission) {
	heap.Push(&w.items, repairRequest{time: time, disk: disk, op: op, seq: w.nextSeq})
	w.nextSeq++
}

func (w *waitQueue) peek() (repairRequest, bool) {
	if len(w.items) == 0 {
		return repairRequest{}, false
	}
	return w.items[0], true
}

func (w *waitQueue) pop() repairRequest { return heap.Pop(&w.items).(repairRequest) }
func (w *waitQueue) len() int           { return len(w.items) }

func (w *waitQueue) clear() {
	w.items = w.items[:0]
	w.nextSeq = 0
}

type requestHeap []repairRequest

func (h requestHeap) Len() int { return len(h) }
func (h requestHeap) Less(i, j int) bool {
	if h[i].time != h[j].time {
		return h[i].time < h[j].time
	}
	return h[i].seq < h[j].seq
}
func (h requestHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *requestHeap) Push(x any)   { *h = append(*h, x.(repairRequest)) }
func (h *requestHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
