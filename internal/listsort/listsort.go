// Package listsort sorts intrusive singly linked lists without allocating.
//
// The algorithm keeps an array of sorted runs bucketed by rank, where the run
// in rank r holds roughly 2^(r+1) nodes. Nodes are consumed in pairs, each
// pair is inserted at rank 0 and carried upwards while the rank is occupied,
// and the remaining runs are swept together at the end. The sort is stable
// and runs in O(n log n) comparisons.
package listsort

// maxRanks bounds the rank array. The top rank absorbs any overflow, which
// only matters for lists longer than 2^maxRanks nodes.
const maxRanks = 32

// Sort sorts the list starting at head and returns the new head.
//
// next must return the address of the link field of a node; the sort rewires
// those fields in place. cmp follows the usual convention: a positive result
// means a belongs after b. Nodes that compare equal keep their input order.
func Sort[T any](head *T, next func(*T) **T, cmp func(a, b *T) int) *T {
	if head == nil || *next(head) == nil {
		return head
	}

	var ranks [maxRanks]*T
	used := 0
	for head != nil {
		var run *T
		run, head = takePair(head, next, cmp)
		used = insertRun(&ranks, used, run, next, cmp)
	}
	return sweepUp(&ranks, used, next, cmp)
}

// takePair detaches the first one or two nodes of list as a sorted run and
// returns it with the rest of the list.
func takePair[T any](list *T, next func(*T) **T, cmp func(a, b *T) int) (run, rest *T) {
	a := list
	b := *next(a)
	if b == nil {
		return a, nil
	}
	rest = *next(b)
	if cmp(a, b) > 0 {
		*next(b) = a
		*next(a) = nil
		return b, rest
	}
	*next(b) = nil
	return a, rest
}

// insertRun merges run into the rank array, carrying upwards through every
// occupied rank. It returns the new number of ranks in use.
func insertRun[T any](ranks *[maxRanks]*T, used int, run *T, next func(*T) **T, cmp func(a, b *T) int) int {
	r := 0
	for ; r < maxRanks && ranks[r] != nil; r++ {
		// Runs sitting in the array were built from earlier nodes, so they go
		// first to keep ties in input order.
		run = mergeLists(ranks[r], run, next, cmp)
		ranks[r] = nil
	}
	if r == maxRanks {
		r--
	}
	ranks[r] = run
	if r >= used {
		used = r + 1
	}
	return used
}

// sweepUp merges every remaining run, lowest rank first.
func sweepUp[T any](ranks *[maxRanks]*T, used int, next func(*T) **T, cmp func(a, b *T) int) *T {
	var list *T
	for r := 0; r < used; r++ {
		if ranks[r] != nil {
			list = mergeLists(ranks[r], list, next, cmp)
		}
	}
	return list
}

// mergeLists merges two sorted lists. On ties the node from a is taken
// first. Either list may be nil.
func mergeLists[T any](a, b *T, next func(*T) **T, cmp func(a, b *T) int) *T {
	var head *T
	tail := &head
	for a != nil && b != nil {
		if cmp(a, b) <= 0 {
			*tail = a
			tail = next(a)
			a = *tail
		} else {
			*tail = b
			tail = next(b)
			b = *tail
		}
	}
	if a != nil {
		*tail = a
	} else {
		*tail = b
	}
	return head
}
