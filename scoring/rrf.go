package scoring

// rrfK dampens the contribution of lower ranks in reciprocal rank
// fusion. 60 is the value from the original RRF paper and works well
// without tuning.
const rrfK = 60

// rankedList is one ranking to be fused, best candidate first.
type rankedList struct {
	ids    []int64
	weight float64
}

// fuseRRF combines rankings with weighted reciprocal rank fusion.
// Each candidate accumulates weight/(rrfK+rank+1) from every list it
// appears in, so agreement between rankings beats a single high rank.
func fuseRRF(lists []rankedList) map[int64]float64 {
	fused := make(map[int64]float64)
	for _, l := range lists {
		if l.weight == 0 {
			continue
		}
		for rank, id := range l.ids {
			fused[id] += l.weight / float64(rrfK+rank+1)
		}
	}
	return fused
}
