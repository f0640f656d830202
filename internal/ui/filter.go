package ui

import (
	"strings"

	"github.com/sahilm/fuzzy"

	"ssp-admin/internal/ssp"
)

// FilterConfig bundles tuning parameters for the template search.
type FilterConfig struct {
	MinCoverage float64 // minimal share of the query that must match
	MaxSpread   int     // maximal distance between first and last match index
	MaxResults  int     // upper limit of returned results
}

// searchBase builds the lowercase text each template is matched against.
func searchBase(templates []ssp.MessageTemplate) []string {
	base := make([]string, len(templates))
	for i, t := range templates {
		base[i] = strings.ToLower(t.Name + "  " + t.Subject)
	}
	return base
}

// filterTemplates returns the store indices matching q, in store order for
// substring hits and in score order for fuzzy hits. An empty query matches
// everything.
func filterTemplates(templates []ssp.MessageTemplate, q string, cfg FilterConfig) []int {
	q = strings.TrimSpace(strings.ToLower(q))
	idx := make([]int, len(templates))
	for i := range templates {
		idx[i] = i
	}
	if q == "" {
		return idx
	}
	base := searchBase(templates)
	if sub := filterBySubstring(q, base, idx, cfg); len(sub) > 0 {
		return sub
	}
	return filterByFuzzy(q, base, idx, cfg)
}

// filterBySubstring performs a simple substring check against the prepared base
// list and returns matching indices limited by cfg.MaxResults.
func filterBySubstring(q string, base []string, idx []int, cfg FilterConfig) []int {
	sub := make([]int, 0, min(cfg.MaxResults, len(idx)))
	for _, i := range idx {
		if strings.Contains(base[i], q) {
			sub = append(sub, i)
			if len(sub) >= cfg.MaxResults {
				break
			}
		}
	}
	return sub
}

// filterByFuzzy applies fuzzy matching on the subset defined by idx and
// filters results based on coverage and spread thresholds from cfg.
func filterByFuzzy(q string, base []string, idx []int, cfg FilterConfig) []int {
	subset := make([]string, len(idx))
	mapBack := make([]int, len(idx))
	for j, i := range idx {
		subset[j] = base[i]
		mapBack[j] = i
	}
	matches := fuzzy.Find(q, subset)

	pruned := make([]int, 0, len(matches))
	for _, mt := range matches {
		if matchCoverage(q, mt) < cfg.MinCoverage {
			continue
		}
		if matchSpread(mt) > cfg.MaxSpread {
			continue
		}
		pruned = append(pruned, mapBack[mt.Index])
		if len(pruned) >= cfg.MaxResults {
			break
		}
	}
	if len(pruned) == 0 {
		for i := 0; i < len(matches) && i < cfg.MaxResults; i++ {
			pruned = append(pruned, mapBack[matches[i].Index])
		}
	}
	return pruned
}

// matchCoverage returns the ratio of matched characters to the query length.
func matchCoverage(q string, m fuzzy.Match) float64 {
	if len(q) == 0 {
		return 1
	}
	return float64(len(m.MatchedIndexes)) / float64(len(q))
}

// matchSpread returns the distance between the first and last matched index.
func matchSpread(m fuzzy.Match) int {
	if len(m.MatchedIndexes) == 0 {
		return 0
	}
	return m.MatchedIndexes[len(m.MatchedIndexes)-1] - m.MatchedIndexes[0]
}
