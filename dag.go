package jrblog

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

var (
	// ErrResourceCycle is returned when a dependency cycle between assets
	// is found. It always indicates a misconfiguration: an asset depends,
	// directly or not, on an asset that depends on it.
	ErrResourceCycle = errors.New("resource cycle detected")

	// ErrUnknownDependency is returned when an asset lists a dependency
	// handle that no Component on the page declares.
	ErrUnknownDependency = errors.New("unknown asset dependency")

	// ErrNoHandle is returned when an asset is declared without a handle.
	ErrNoHandle = errors.New("asset has no handle")
)

// graph is a directed acyclic graph of assets. It's used to ensure ordering
// constraints of stylesheets and scripts are met.
type graph struct {
	// nodes holds the nodes in the graph.
	nodes []Asset

	// edgesTo holds graph edges, with the key being the position of the
	// node in the nodes slice that the edges are pointing to. It is a list
	// of edges indexed by what they're pointing to.
	//
	// if there's a node 1 and a node 2, and an edge from 1->2, edgesTo
	// will have a key of 2 with a value of [1].
	//
	// nodes point to their dependencies and dependencies are always
	// walked first; i.e., if there's a node 1 and a node 2, and an edge
	// from 1->2, 2 will always appear before 1 when walking the graph.
	edgesTo map[int]map[int]struct{}

	// edgesFrom holds graph edges, with the key being the position of the
	// node in the nodes slice that the edges are pointing from. It is a
	// list of edges indexed by what's doing the pointing.
	edgesFrom map[int]map[int]struct{}
}

func newGraph() *graph {
	return &graph{
		edgesTo:   map[int]map[int]struct{}{},
		edgesFrom: map[int]map[int]struct{}{},
	}
}

func (g *graph) add(asset Asset) int {
	g.nodes = append(g.nodes, asset)
	return len(g.nodes) - 1
}

// addEdge records that the node at from depends on the node at to.
func (g *graph) addEdge(from, to int) {
	if from == to {
		return
	}
	if g.edgesFrom[from] == nil {
		g.edgesFrom[from] = map[int]struct{}{}
	}
	if g.edgesTo[to] == nil {
		g.edgesTo[to] = map[int]struct{}{}
	}
	g.edgesFrom[from][to] = struct{}{}
	g.edgesTo[to][from] = struct{}{}
}

// assetGraphs is a collection of graphs, one for stylesheets, one for
// scripts that should be included in the page header, and one for scripts
// that should be included in the page footer.
type assetGraphs struct {
	css    *graph
	headJS *graph
	footJS *graph
}

type declaredAsset struct {
	asset     Asset
	component int
}

func assetKey(kind AssetKind, handle string) string {
	return string(kind) + ":" + handle
}

func collectAssets(ctx context.Context, components []Component) []declaredAsset {
	var results []declaredAsset
	for pos, component := range components {
		declarer, ok := component.(AssetDeclarer)
		if !ok {
			continue
		}
		for _, asset := range declarer.Assets(ctx) {
			results = append(results, declaredAsset{asset: asset, component: pos})
		}
	}
	return results
}

// buildGraphs creates an assetGraphs containing all the assets that the
// passed components declare, with all their dependencies computed.
//
// Each component's assets will have an implicit dependency on the previous
// asset of the same graph for that component, so their order within the
// slice will be preserved when rendering them, unless they declare Deps or
// disable implicit ordering.
func buildGraphs(ctx context.Context, components []Component) (assetGraphs, error) {
	declared := collectAssets(ctx, components)

	positions := map[string]int{}
	var unique []declaredAsset
	for _, decl := range declared {
		if decl.asset.Handle == "" {
			return assetGraphs{}, fmt.Errorf("%w: %s %q", ErrNoHandle, decl.asset.kind(), decl.asset.URL)
		}
		key := assetKey(decl.asset.kind(), decl.asset.Handle)
		if _, ok := positions[key]; ok {
			continue
		}
		positions[key] = len(unique)
		unique = append(unique, decl)
	}

	for _, decl := range unique {
		for _, dep := range decl.asset.Deps {
			if _, ok := positions[assetKey(decl.asset.kind(), dep)]; !ok {
				return assetGraphs{}, fmt.Errorf("%w: %s %q depends on %q", ErrUnknownDependency, decl.asset.kind(), decl.asset.Handle, dep)
			}
		}
	}

	// a head script can't wait for a footer script it depends on, so those
	// get moved to the head, along with their own footer dependencies
	footer := map[string]bool{}
	for _, decl := range unique {
		if decl.asset.kind() == AssetScript && decl.asset.InFooter {
			footer[decl.asset.Handle] = true
		}
	}
	var promote func(handle string)
	promote = func(handle string) {
		decl := unique[positions[assetKey(AssetScript, handle)]]
		for _, dep := range decl.asset.Deps {
			if footer[dep] {
				footer[dep] = false
				promote(dep)
			}
		}
	}
	for _, decl := range unique {
		if decl.asset.kind() == AssetScript && !footer[decl.asset.Handle] {
			promote(decl.asset.Handle)
		}
	}

	result := assetGraphs{
		css:    newGraph(),
		headJS: newGraph(),
		footJS: newGraph(),
	}
	pick := func(asset Asset) *graph {
		switch {
		case asset.kind() != AssetScript:
			return result.css
		case footer[asset.Handle]:
			return result.footJS
		default:
			return result.headJS
		}
	}

	type placement struct {
		graph *graph
		pos   int
	}
	placed := map[string]placement{}
	type lastNode struct {
		pos       int
		component int
	}
	last := map[*graph]lastNode{}
	for _, decl := range unique {
		g := pick(decl.asset)
		pos := g.add(decl.asset)
		placed[assetKey(decl.asset.kind(), decl.asset.Handle)] = placement{graph: g, pos: pos}
		if len(decl.asset.Deps) > 0 || decl.asset.DisableImplicitOrdering {
			continue
		}
		if prev, ok := last[g]; ok && prev.component == decl.component {
			g.addEdge(pos, prev.pos)
		}
		last[g] = lastNode{pos: pos, component: decl.component}
	}

	for _, decl := range unique {
		self := placed[assetKey(decl.asset.kind(), decl.asset.Handle)]
		for _, dep := range decl.asset.Deps {
			target := placed[assetKey(decl.asset.kind(), dep)]
			// head scripts always render before footer scripts, so a
			// dependency in another graph is already satisfied
			if target.graph != self.graph {
				continue
			}
			self.graph.addEdge(self.pos, target.pos)
		}
	}
	return result, nil
}

// walkGraph returns the nodes of the graph with every node's dependencies
// ahead of it. Nodes that are free to go at the same point keep their
// declaration order. The graph's edges are consumed in the process.
func walkGraph(_ context.Context, resources *graph) ([]Asset, error) {
	noParents := make([]int, 0, len(resources.nodes))
	results := make([]Asset, 0, len(resources.nodes))
	for pos := range resources.nodes {
		edges, ok := resources.edgesFrom[pos]
		if !ok {
			noParents = append(noParents, pos)
			continue
		}
		if len(edges) < 1 {
			noParents = append(noParents, pos)
			continue
		}
	}
	for len(noParents) > 0 {
		pos := noParents[0]
		node := resources.nodes[pos]
		noParents = noParents[1:]
		results = append(results, node)
		var noParentsChanged bool
		for child := range resources.edgesTo[pos] {
			delete(resources.edgesFrom[child], pos)
			delete(resources.edgesTo[pos], child)
			if len(resources.edgesFrom[child]) < 1 {
				delete(resources.edgesFrom, child)
				noParents = append(noParents, child)
				noParentsChanged = true
			}
			if len(resources.edgesTo[pos]) < 1 {
				delete(resources.edgesTo, pos)
			}
		}
		if noParentsChanged {
			slices.Sort(noParents)
		}
	}
	if len(resources.edgesTo) > 0 || len(resources.edgesFrom) > 0 {
		var edgesFrom, handles []string
		for k, v := range resources.edgesFrom {
			var vals []string
			for val := range v {
				vals = append(vals, strconv.Itoa(val))
			}
			slices.Sort(vals)
			edgesFrom = append(edgesFrom, fmt.Sprintf("%d:%s", k, strings.Join(vals, ",")))
		}
		slices.Sort(edgesFrom)
		for _, v := range resources.nodes {
			handles = append(handles, fmt.Sprintf("%s(%s)", v.kind(), v.Handle))
		}
		return results, fmt.Errorf("%w: edges_from=[%s], resources=[%s]", ErrResourceCycle, strings.Join(edgesFrom, "; "), strings.Join(handles, ", "))
	}
	return results, nil
}

// OrderAssets returns the assets declared by the passed components, and any
// components they use, split into stylesheets, head scripts and footer
// scripts, each ordered so every asset comes after its dependencies.
func OrderAssets(ctx context.Context, component Component) (styles, head, foot []Asset, err error) {
	graphs, err := buildGraphs(ctx, getRecursiveComponents(ctx, component))
	if err != nil {
		return nil, nil, nil, err
	}
	styles, err = walkGraph(ctx, graphs.css)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("error ordering stylesheets: %w", err)
	}
	head, err = walkGraph(ctx, graphs.headJS)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("error ordering head scripts: %w", err)
	}
	foot, err = walkGraph(ctx, graphs.footJS)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("error ordering footer scripts: %w", err)
	}
	return styles, head, foot, nil
}
