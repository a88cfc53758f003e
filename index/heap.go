package index

// resultHeap keeps the best neighbours found so far with the worst on top.
type resultHeap []Neighbour

func (h resultHeap) Len() int           { return len(h) }
func (h resultHeap) Less(i, j int) bool { return Less(h[j], h[i]) }
func (h resultHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *resultHeap) Push(x any)        { *h = append(*h, x.(Neighbour)) }
func (h *resultHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[0 : n-1]
	return x
}

// pending is a tree node waiting to be visited with a lower bound of the
// distance from the query to its rows.
type pending struct {
	node  *node
	bound float64
}

// nodeHeap keeps pending nodes with the lowest bound on top.
type nodeHeap []pending

func (h nodeHeap) Len() int           { return len(h) }
func (h nodeHeap) Less(i, j int) bool { return h[i].bound < h[j].bound }
func (h nodeHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *nodeHeap) Push(x any)        { *h = append(*h, x.(pending)) }
func (h *nodeHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[0 : n-1]
	return x
}
