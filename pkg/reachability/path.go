package reachability

// Path reconstructs the ordered list of Nodes from ix back to the start
// cell by following ref, starting at ix and ending at the start node
// (exported standalone so a caller can reconstruct a path from any
// previously-serialized explored map without a live SearchState).
func Path(ix GridIndex, explored map[GridIndex]Node) []Node {
	var out []Node
	cur := ix
	for {
		node, ok := explored[cur]
		if !ok {
			return out
		}
		out = append(out, node)
		if node.Ref == nil {
			return out
		}
		cur = *node.Ref
	}
}

// PathLength returns the cumulative path length from ix back to start, in
// grid-cell units (not meters) — the sum of l2_distance between consecutive
// ref hops.
func PathLength(ix GridIndex, explored map[GridIndex]Node) float64 {
	path := Path(ix, explored)
	total := 0.0
	for i := 0; i+1 < len(path); i++ {
		total += l2Distance(path[i].Ix, path[i+1].Ix)
	}
	return total
}
