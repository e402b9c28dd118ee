package draw

import (
	"testing"

	"drawmgr/internal/gpu"
)

// bucketedBatches returns n batches falling in n different sort buckets.
func bucketedBatches(t *testing.T, n int) []*gpu.Batch {
	t.Helper()
	pool := make([]gpu.Batch, 4*batchSortBuckets)
	seen := make(map[int]bool)
	var out []*gpu.Batch
	for i := range pool {
		b := &pool[i]
		if k := batchSortKey(b); !seen[k] {
			seen[k] = true
			out = append(out, b)
			if len(out) == n {
				return out
			}
		}
	}
	t.Fatalf("Could not find %d distinct buckets", n)
	return nil
}

func TestSortDrawCommandsIsPermutation(t *testing.T) {
	batches := bucketedBatches(t, 5)
	cmds := make([]cmdPayload, cmdChunkLen)
	for i := range cmds {
		cmds[i] = cmdPayload{batch: batches[(i*7)%len(batches)], handle: makeHandle(i+1, i%3 == 0)}
	}
	before := make(map[cmdPayload]int)
	for _, c := range cmds {
		before[c]++
	}

	var tmp [cmdChunkLen]cmdPayload
	if !sortDrawCommands(cmds, tmp[:]) {
		t.Fatalf("Expected the chunk to be reordered")
	}

	for _, c := range cmds {
		before[c]--
	}
	for c, n := range before {
		if n != 0 {
			t.Errorf("Command %s on %p changed multiplicity by %d", c.handle, c.batch, -n)
		}
	}

	// Buckets come out grouped in key order, each keeping input order.
	for i := 1; i < len(cmds); i++ {
		ka, kb := batchSortKey(cmds[i-1].batch), batchSortKey(cmds[i].batch)
		if ka > kb {
			t.Fatalf("Bucket order broken at %d: %d > %d", i, ka, kb)
		}
		if ka == kb && cmds[i-1].handle.ResourceID() > cmds[i].handle.ResourceID() {
			t.Errorf("Stability broken at %d", i)
		}
	}
}

func TestSortDrawCommandsSingleBucket(t *testing.T) {
	b := testBatch("b", 3)
	cmds := []cmdPayload{{batch: b, handle: 6}, {batch: b, handle: 2}, {batch: b, handle: 4}}
	var tmp [3]cmdPayload
	if sortDrawCommands(cmds, tmp[:]) {
		t.Errorf("Expected single bucket chunk to be left alone")
	}
	if cmds[0].handle != 6 || cmds[1].handle != 2 || cmds[2].handle != 4 {
		t.Errorf("Expected order untouched, got %v", cmds)
	}
	if sortDrawCommands(cmds[:1], tmp[:]) {
		t.Errorf("Expected single command to be left alone")
	}
}

func TestEndFrameSortsOnlyPlainDrawChunks(t *testing.T) {
	batches := bucketedBatches(t, 3)
	m := newFrame(t, testOptions())
	p := m.CreatePass("p", StateDefault)
	plain := m.CreateShadingGroup(gpu.NewProgram("a"), p)
	mixed := m.CreateShadingGroup(gpu.NewProgram("b"), p)

	// Fill the small chunk, then one standard chunk per group.
	for i := 0; i < cmdSmallChunkLen+cmdChunkLen; i++ {
		plain.Call(nil, batches[i%3])
	}
	for i := 0; i < cmdSmallChunkLen+cmdChunkLen; i++ {
		if i == cmdSmallChunkLen+10 {
			mixed.CallRange(nil, batches[0], 0, 1)
			continue
		}
		mixed.Call(nil, batches[i%3])
	}

	if n := m.sortCommandChunks(); n != 1 {
		t.Errorf("Expected exactly one sortable chunk, got %d", n)
	}

	std := plain.cmds.first.next
	for i := 1; i < std.used; i++ {
		if batchSortKey(std.cmds[i-1].batch) > batchSortKey(std.cmds[i].batch) {
			t.Fatalf("Expected plain chunk clustered by batch")
		}
	}
	small := plain.cmds.first
	for i := 0; i < small.used; i++ {
		if small.cmds[i].batch != batches[i%3] {
			t.Errorf("Expected small chunk untouched at %d", i)
		}
	}
}
