package ui

import (
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/agentssh/agentssh/internal/session"
)

// instanceSource implements fuzzy.Source over instance titles, agent IDs and
// session names.
type instanceSource []session.Instance

func (s instanceSource) String(i int) string { return s[i].FilterValue() }
func (s instanceSource) Len() int            { return len(s) }

// filterInstances returns the indexes of instances matching query in list
// order. An empty query matches everything.
func filterInstances(query string, instances []session.Instance) []int {
	query = strings.TrimSpace(query)
	if query == "" {
		idx := make([]int, len(instances))
		for i := range idx {
			idx[i] = i
		}
		return idx
	}

	matches := fuzzy.FindFrom(query, instanceSource(instances))
	idx := make([]int, 0, len(matches))
	for _, m := range matches {
		idx = append(idx, m.Index)
	}
	sort.Ints(idx)
	return idx
}
