// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"sort"
	"strconv"

	"github.com/ldm/standards-graph/internal/proposer"
	"github.com/ldm/standards-graph/pkg/types"
)

const defaultPairsPerGroup = 20

// strategy enumerates one slice of the catalog for the proposer. Each
// strategy carries the kind hint forwarded with its batches and the
// origin stamped on its normalized candidates.
type strategy struct {
	name  string
	hint  types.RelationKind
	pairs func(nodes []types.StandardNode, perGroup int) []proposer.Pair
}

// extractStrategies mirrors the four relation families: similarity
// within a domain/grade cell, prerequisites up a domain, bridges across
// domains, and progression of the same topic across grade bands.
var extractStrategies = []strategy{
	{name: "similar_pairs", hint: types.KindSimilar, pairs: similarPairs},
	{name: "domain_prerequisites", hint: types.KindPrerequisite, pairs: domainPrerequisitePairs},
	{name: "domain_bridge", hint: types.KindDomainBridge, pairs: domainBridgePairs},
	{name: "grade_progression", hint: types.KindGradeProgression, pairs: gradeProgressionPairs},
}

// similarPairs pairs standards within the same domain and grade band.
func similarPairs(nodes []types.StandardNode, perGroup int) []proposer.Pair {
	groups := groupNodes(nodes, func(n types.StandardNode) string {
		return n.DomainID + "|" + n.GradeBandID
	})

	var pairs []proposer.Pair
	for _, group := range groups {
		count := 0
		for i := 0; i < len(group); i++ {
			for j := i + 1; j < len(group); j++ {
				if count >= perGroup {
					break
				}
				pairs = append(pairs, makePair(group[i], group[j]))
				count++
			}
		}
	}
	return pairs
}

// domainPrerequisitePairs pairs standards within the same domain from
// every lower grade band toward every higher one.
func domainPrerequisitePairs(nodes []types.StandardNode, perGroup int) []proposer.Pair {
	groups := groupNodes(nodes, func(n types.StandardNode) string { return n.DomainID })
	rank := bandRanks(nodes)

	var pairs []proposer.Pair
	for _, group := range groups {
		count := 0
		for _, a := range group {
			for _, b := range group {
				if count >= perGroup {
					break
				}
				if rank[a.GradeBandID] < rank[b.GradeBandID] {
					pairs = append(pairs, makePair(a, b))
					count++
				}
			}
		}
	}
	return pairs
}

// domainBridgePairs pairs standards in the same grade band across
// different domains, each unordered pair once.
func domainBridgePairs(nodes []types.StandardNode, perGroup int) []proposer.Pair {
	groups := groupNodes(nodes, func(n types.StandardNode) string { return n.GradeBandID })

	var pairs []proposer.Pair
	for _, group := range groups {
		count := 0
		for i := 0; i < len(group); i++ {
			for j := i + 1; j < len(group); j++ {
				if count >= perGroup {
					break
				}
				if group[i].DomainID != group[j].DomainID {
					pairs = append(pairs, makePair(group[i], group[j]))
					count++
				}
			}
		}
	}
	return pairs
}

// gradeProgressionPairs pairs each standard with its same-sequence
// counterpart in the next grade band of the same domain.
func gradeProgressionPairs(nodes []types.StandardNode, perGroup int) []proposer.Pair {
	groups := groupNodes(nodes, func(n types.StandardNode) string { return n.DomainID })
	rank := bandRanks(nodes)

	var pairs []proposer.Pair
	for _, group := range groups {
		count := 0
		for _, a := range group {
			for _, b := range group {
				if count >= perGroup {
					break
				}
				if rank[b.GradeBandID]-rank[a.GradeBandID] == 1 && a.Seq() == b.Seq() {
					pairs = append(pairs, makePair(a, b))
					count++
				}
			}
		}
	}
	return pairs
}

func makePair(a, b types.StandardNode) proposer.Pair {
	return proposer.Pair{
		SourceCode: a.Code,
		TargetCode: b.Code,
		Context:    a.Content + " / " + b.Content,
	}
}

// groupNodes buckets nodes by key and returns the buckets in key order,
// each bucket sorted by code, so pair enumeration is deterministic.
func groupNodes(nodes []types.StandardNode, key func(types.StandardNode) string) [][]types.StandardNode {
	byKey := make(map[string][]types.StandardNode)
	for _, n := range nodes {
		k := key(n)
		byKey[k] = append(byKey[k], n)
	}

	keys := make([]string, 0, len(byKey))
	for k := range byKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	groups := make([][]types.StandardNode, 0, len(keys))
	for _, k := range keys {
		group := byKey[k]
		sort.Slice(group, func(i, j int) bool { return group[i].Code < group[j].Code })
		groups = append(groups, group)
	}
	return groups
}

// bandRanks orders the distinct grade bands, numerically when the IDs
// parse as integers.
func bandRanks(nodes []types.StandardNode) map[string]int {
	set := make(map[string]bool)
	for _, n := range nodes {
		set[n.GradeBandID] = true
	}
	bands := make([]string, 0, len(set))
	for b := range set {
		bands = append(bands, b)
	}
	sort.Slice(bands, func(i, j int) bool {
		ni, erri := strconv.Atoi(bands[i])
		nj, errj := strconv.Atoi(bands[j])
		if erri == nil && errj == nil {
			return ni < nj
		}
		return bands[i] < bands[j]
	})

	ranks := make(map[string]int, len(bands))
	for i, b := range bands {
		ranks[b] = i
	}
	return ranks
}
