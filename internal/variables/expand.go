package variables

import "math"

// choiceDomains splits set into RandomChoice variables with their domains
// and the remaining variables, both in declaration order.
func choiceDomains(set *Set) (names []string, domains [][]any, others []string) {
	for _, name := range set.Names() {
		r, _ := set.Get(name)
		if r.RuleData.Type == RandomChoice {
			names = append(names, name)
			domains = append(domains, r.RuleData.Choices)
			continue
		}
		others = append(others, name)
	}
	return names, domains, others
}

// Combinations returns how many samples ExpandAll would produce, saturating
// at math.MaxInt.
func Combinations(set *Set) int {
	names, domains, _ := choiceDomains(set)
	if len(names) == 0 {
		return 1
	}
	total := 1
	for _, d := range domains {
		if len(d) == 0 {
			return 0
		}
		if total > math.MaxInt/len(d) {
			return math.MaxInt
		}
		total *= len(d)
	}
	return total
}

// ExpandAll enumerates every combination of RandomChoice values. The
// first-declared choice variable varies slowest. Each combination then
// resolves the other variables once each, in declaration order, against
// the values bound so far; failures become Unresolved. With no choice
// variables the result is a single Generate sample.
func (g *Generator) ExpandAll(set *Set) []Sample {
	names, domains, others := choiceDomains(set)
	if len(names) == 0 {
		return []Sample{g.Generate(set)}
	}
	for _, d := range domains {
		if len(d) == 0 {
			return []Sample{}
		}
	}

	var out []Sample
	idx := make([]int, len(names))
	for {
		sample := make(Sample, set.Len())
		for i, name := range names {
			sample[name] = domains[i][idx[i]]
		}
		for _, name := range others {
			rule, _ := set.Get(name)
			v := g.Value(name, rule, sample)
			if isErr(v) {
				v = Unresolved
			}
			sample[name] = v
		}
		out = append(out, sample)

		// Odometer increment, last variable fastest.
		i := len(idx) - 1
		for ; i >= 0; i-- {
			idx[i]++
			if idx[i] < len(domains[i]) {
				break
			}
			idx[i] = 0
		}
		if i < 0 {
			return out
		}
	}
}
