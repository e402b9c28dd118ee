package draw

import (
	"unsafe"

	"drawmgr/internal/gpu"
)

const batchSortBuckets = 128

// batchSortKey hashes a batch address. Heap objects are at least 64 byte
// apart in practice, so the low bits carry no information.
func batchSortKey(b *gpu.Batch) int {
	return int((uintptr(unsafe.Pointer(b)) >> 6) % batchSortBuckets)
}

// sortDrawCommands clusters commands drawing the same batch with a counting
// sort over batchSortKey. Relative order inside a bucket is kept. tmp must
// be at least as long as cmds.
//
// Every command carries its own handle, so any permutation draws the same
// thing; this only improves batching during replay.
func sortDrawCommands(cmds, tmp []cmdPayload) bool {
	n := len(cmds)
	if n < 2 {
		return false
	}
	var idx [batchSortBuckets]int
	for i := range cmds {
		k := batchSortKey(cmds[i].batch)
		idx[k]++
		if idx[k] == n {
			// Everything shares one bucket.
			return false
		}
	}
	for i := 1; i < batchSortBuckets; i++ {
		idx[i] += idx[i-1]
	}
	for i := n - 1; i >= 0; i-- {
		k := batchSortKey(cmds[i].batch)
		idx[k]--
		tmp[idx[k]] = cmds[i]
	}
	copy(cmds, tmp[:n])
	return true
}

// sortCommandChunks batch-sorts every sortable standard chunk recorded this
// frame and returns how many were reordered.
func (m *Manager) sortCommandChunks() int {
	var tmp [cmdChunkLen]cmdPayload
	sorted := 0
	for _, s := range m.cmdChunks.All() {
		c := &s.commandChunk
		if c.sortable() && sortDrawCommands(c.cmds[:c.used], tmp[:]) {
			sorted++
		}
	}
	return sorted
}
