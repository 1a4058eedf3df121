// Package community groups nodes into connected clusters.
package community

import (
	"github.com/agenthands/graphmock/internal/core/model"
)

type ClusterDetector interface {
	Detect(nodes []model.Node, edges []model.Edge) [][]model.Node
}

// SimpleDetector treats edges as undirected and returns every connected
// component with at least two nodes, in node order.
type SimpleDetector struct{}

func NewSimpleDetector() ClusterDetector {
	return &SimpleDetector{}
}

func (d *SimpleDetector) Detect(nodes []model.Node, edges []model.Edge) [][]model.Node {
	nodeMap := make(map[string]model.Node, len(nodes))
	adj := make(map[string][]string)

	for _, n := range nodes {
		nodeMap[n.ID] = n
	}

	for _, e := range edges {
		// Dangling endpoints do not join clusters.
		if _, ok := nodeMap[e.From]; !ok {
			continue
		}
		if _, ok := nodeMap[e.To]; !ok {
			continue
		}

		adj[e.From] = append(adj[e.From], e.To)
		adj[e.To] = append(adj[e.To], e.From)
	}

	visited := make(map[string]bool, len(nodes))
	var clusters [][]model.Node

	for _, n := range nodes {
		if visited[n.ID] {
			continue
		}
		component := d.walk(n.ID, adj, visited)
		if len(component) < 2 {
			continue
		}
		cluster := make([]model.Node, 0, len(component))
		for _, id := range component {
			cluster = append(cluster, nodeMap[id])
		}
		clusters = append(clusters, cluster)
	}

	return clusters
}

// walk collects the component of start with an explicit stack.
func (d *SimpleDetector) walk(start string, adj map[string][]string, visited map[string]bool) []string {
	var component []string
	stack := []string{start}
	visited[start] = true
	for len(stack) > 0 {
		u := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		component = append(component, u)
		for _, v := range adj[u] {
			if !visited[v] {
				visited[v] = true
				stack = append(stack, v)
			}
		}
	}
	return component
}

// Stats summarizes clusters as a count and the size of the largest.
func Stats(clusters [][]model.Node) model.ClusterStats {
	s := model.ClusterStats{Count: len(clusters)}
	for _, c := range clusters {
		if len(c) > s.Largest {
			s.Largest = len(c)
		}
	}
	return s
}
