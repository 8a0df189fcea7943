// Package includegraph analyzes the include-edge graph between ops files in
// an index: fan-in/fan-out ranking and depth-limited focus traversal.
package includegraph

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"ops-suite/internal/model"
)

type Options struct {
	Top          int
	Focus        string
	Depth        int
	Reverse      bool
	IncludeEdges bool
}

// Edge links a file to one of its includes. Internal marks targets that are
// themselves part of the index.
type Edge struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Internal bool   `json:"internal"`
}

type NodeMetric struct {
	Node     string `json:"node"`
	Outgoing int    `json:"outgoing"`
	Incoming int    `json:"incoming"`
	Indexed  bool   `json:"indexed"`
}

type Report struct {
	Root              string       `json:"root"`
	NodeCount         int          `json:"node_count"`
	EdgeCount         int          `json:"edge_count"`
	InternalEdgeCount int          `json:"internal_edge_count"`
	ExternalEdgeCount int          `json:"external_edge_count"`
	TopOutgoing       []NodeMetric `json:"top_outgoing,omitempty"`
	TopIncoming       []NodeMetric `json:"top_incoming,omitempty"`
	Focus             string       `json:"focus,omitempty"`
	FocusDirection    string       `json:"focus_direction,omitempty"`
	FocusDepth        int          `json:"focus_depth,omitempty"`
	FocusWalk         []string     `json:"focus_walk,omitempty"`
	Edges             []Edge       `json:"edges,omitempty"`
}

func Build(idx *model.Index, opts Options) (Report, error) {
	if idx == nil {
		return Report{}, fmt.Errorf("index is nil")
	}
	if opts.Top <= 0 {
		opts.Top = 10
	}
	if opts.Depth <= 0 {
		opts.Depth = 1
	}

	indexed := map[string]bool{}
	for _, file := range idx.Files {
		indexed[filepath.ToSlash(filepath.Clean(file.Path))] = true
	}

	edgeSet := map[string]Edge{}
	for _, file := range idx.Files {
		from := filepath.ToSlash(filepath.Clean(file.Path))
		for _, include := range file.Includes {
			to := normalizeTarget(file.Path, include, idx.Root)
			if to == "" || to == from {
				continue
			}
			edgeSet[from+"->"+to] = Edge{
				From:     from,
				To:       to,
				Internal: indexed[to],
			}
		}
	}

	edges := make([]Edge, 0, len(edgeSet))
	for _, edge := range edgeSet {
		edges = append(edges, edge)
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].From == edges[j].From {
			return edges[i].To < edges[j].To
		}
		return edges[i].From < edges[j].From
	})

	outgoing := map[string]int{}
	incoming := map[string]int{}
	nodes := map[string]bool{}
	internalEdges := 0
	for _, edge := range edges {
		nodes[edge.From] = true
		nodes[edge.To] = true
		outgoing[edge.From]++
		incoming[edge.To]++
		if edge.Internal {
			internalEdges++
		}
	}

	report := Report{
		Root:              idx.Root,
		NodeCount:         len(nodes),
		EdgeCount:         len(edges),
		InternalEdgeCount: internalEdges,
		ExternalEdgeCount: len(edges) - internalEdges,
		TopOutgoing:       topMetrics(outgoing, incoming, indexed, opts.Top, false),
		TopIncoming:       topMetrics(outgoing, incoming, indexed, opts.Top, true),
	}

	if focus := normalizeFocus(opts.Focus, idx.Root); focus != "" {
		report.Focus = focus
		report.FocusDepth = opts.Depth
		if opts.Reverse {
			report.FocusDirection = "reverse"
		} else {
			report.FocusDirection = "forward"
		}
		report.FocusWalk = walk(edges, focus, opts.Depth, opts.Reverse)
	}

	if opts.IncludeEdges {
		report.Edges = edges
	}
	return report, nil
}

// normalizeTarget resolves an include (written relative to its file's
// directory) into a root-relative slash path.
func normalizeTarget(fromPath, include, root string) string {
	include = strings.TrimSpace(include)
	if include == "" {
		return ""
	}
	if filepath.IsAbs(include) {
		if rel, err := filepath.Rel(root, include); err == nil {
			include = rel
		}
		return filepath.ToSlash(filepath.Clean(include))
	}
	dir := filepath.Dir(fromPath)
	return filepath.ToSlash(filepath.Clean(filepath.Join(dir, include)))
}

func normalizeFocus(raw, root string) string {
	text := strings.TrimSpace(raw)
	if text == "" {
		return ""
	}
	if filepath.IsAbs(text) {
		if rel, err := filepath.Rel(root, text); err == nil {
			text = rel
		}
	}
	return filepath.ToSlash(filepath.Clean(text))
}

func topMetrics(outgoing, incoming map[string]int, indexed map[string]bool, top int, byIncoming bool) []NodeMetric {
	source := outgoing
	if byIncoming {
		source = incoming
	}

	metrics := make([]NodeMetric, 0, len(source))
	for node := range source {
		metrics = append(metrics, NodeMetric{
			Node:     node,
			Outgoing: outgoing[node],
			Incoming: incoming[node],
			Indexed:  indexed[node],
		})
	}
	sort.Slice(metrics, func(i, j int) bool {
		left, right := metrics[i].Outgoing, metrics[j].Outgoing
		if byIncoming {
			left, right = metrics[i].Incoming, metrics[j].Incoming
		}
		if left == right {
			return metrics[i].Node < metrics[j].Node
		}
		return left > right
	})
	if top < len(metrics) {
		metrics = metrics[:top]
	}
	return metrics
}

// walk runs a breadth-first traversal from the focus node up to depth,
// returning reached nodes in visit order.
func walk(edges []Edge, start string, depth int, reverse bool) []string {
	adjacency := map[string][]string{}
	for _, edge := range edges {
		from, to := edge.From, edge.To
		if reverse {
			from, to = to, from
		}
		adjacency[from] = append(adjacency[from], to)
	}
	for key := range adjacency {
		sort.Strings(adjacency[key])
	}

	type levelNode struct {
		name  string
		depth int
	}
	queue := []levelNode{{name: start}}
	visited := map[string]bool{start: true}
	var out []string

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if current.depth >= depth {
			continue
		}
		for _, next := range adjacency[current.name] {
			if visited[next] {
				continue
			}
			visited[next] = true
			out = append(out, next)
			queue = append(queue, levelNode{name: next, depth: current.depth + 1})
		}
	}
	return out
}
