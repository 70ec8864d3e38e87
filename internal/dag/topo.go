package dag

import "fmt"

// validateAcyclic runs Kahn's algorithm over the hypothetical edge set
// including candidate. The addition is committed by the caller only if the
// sort completes.
func (g *Graph) validateAcyclic(candidate *Edge) error {
	inDegree := make(map[string]int, len(g.nodes))
	adjacency := make(map[string][]string, len(g.nodes))
	for name := range g.nodes {
		inDegree[name] = 0
	}

	addArc := func(from, to string) {
		adjacency[from] = append(adjacency[from], to)
		inDegree[to]++
	}
	for _, e := range g.edges {
		addArc(e.Source, e.Destination)
	}
	addArc(candidate.Source, candidate.Destination)

	queue := make([]string, 0, len(inDegree))
	for name, degree := range inDegree {
		if degree == 0 {
			queue = append(queue, name)
		}
	}

	visited := 0
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		visited++
		for _, child := range adjacency[current] {
			inDegree[child]--
			if inDegree[child] == 0 {
				queue = append(queue, child)
			}
		}
	}

	if visited != len(inDegree) {
		return fmt.Errorf("%w: %s -> %s", ErrCycle, candidate.Source, candidate.Destination)
	}
	return nil
}
