package markov

import (
	"regexp"
	"sort"
	"strings"
)

// Node types used by the brain graph view.
const (
	NodeSample   = "sample"
	NodeNumber   = "number"
	NodeOperator = "operator"
	NodeFunction = "function"
)

var numberRe = regexp.MustCompile(`^\d+(\.\d+)?$`)

// GraphNode is a token with its aggregated usage weight.
type GraphNode struct {
	ID     string `json:"id"`
	Weight int    `json:"weight"`
	Type   string `json:"type"`
}

// GraphLink is an aggregated transition between two surviving tokens.
type GraphLink struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Weight int    `json:"weight"`
}

// Graph is the node/link export of the transition table.
type Graph struct {
	Nodes []GraphNode `json:"nodes"`
	Links []GraphLink `json:"links"`
}

type edge struct{ source, target string }

// Graph keeps the limit heaviest tokens. Edges run from the last token of
// each context to the emitted token and survive only when both ends do.
func (m *Model) Graph(limit int) Graph {
	m.mu.RLock()
	weights := map[string]int{}
	edges := map[edge]int{}
	for _, st := range m.transitions {
		source := st.context[len(st.context)-1]
		for target, count := range st.next {
			weights[source] += count
			weights[target] += count
			edges[edge{source, target}] += count
		}
	}
	m.mu.RUnlock()

	nodes := make([]GraphNode, 0, len(weights))
	for tok, w := range weights {
		nodes = append(nodes, GraphNode{ID: tok, Weight: w, Type: nodeType(tok)})
	}
	sort.Slice(nodes, func(i, j int) bool {
		if nodes[i].Weight != nodes[j].Weight {
			return nodes[i].Weight > nodes[j].Weight
		}
		return nodes[i].ID < nodes[j].ID
	})
	if limit >= 0 && len(nodes) > limit {
		nodes = nodes[:limit]
	}

	kept := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		kept[n.ID] = true
	}
	links := []GraphLink{}
	for e, w := range edges {
		if kept[e.source] && kept[e.target] {
			links = append(links, GraphLink{Source: e.source, Target: e.target, Weight: w})
		}
	}
	sort.Slice(links, func(i, j int) bool {
		if links[i].Weight != links[j].Weight {
			return links[i].Weight > links[j].Weight
		}
		if links[i].Source != links[j].Source {
			return links[i].Source < links[j].Source
		}
		return links[i].Target < links[j].Target
	})

	return Graph{Nodes: nodes, Links: links}
}

func nodeType(tok string) string {
	switch {
	case strings.Contains(tok, `"`):
		return NodeSample
	case numberRe.MatchString(tok):
		return NodeNumber
	case tok == "$" || tok == "#":
		return NodeOperator
	default:
		return NodeFunction
	}
}
