package selection

import (
	"math/rand/v2"
	"sort"
)

// category is one source pool during a draw.
type category struct {
	weight float64
	ids    []string
}

// take removes and returns a uniformly chosen unused identifier.
func (c *category) take(rng *rand.Rand, used map[string]bool) (string, bool) {
	for len(c.ids) > 0 {
		i := rng.IntN(len(c.ids))
		id := c.ids[i]
		last := len(c.ids) - 1
		c.ids[i] = c.ids[last]
		c.ids = c.ids[:last]
		if !used[id] {
			return id, true
		}
	}
	return "", false
}

// Select draws up to count distinct question identifiers.
//
// Each draw samples a category by weight and picks uniformly from its unused
// members. When the sampled category is exhausted the draw falls back to the
// union of all unused identifiers. Select returns fewer than count when the
// union runs out and never returns duplicates.
func Select(sets Sets, weights Weights, count int, rng *rand.Rand) []string {
	if count <= 0 || sets.Len() == 0 {
		return []string{}
	}

	categories := []*category{
		{weight: weights.Cleared, ids: clone(sets.Cleared)},
		{weight: weights.Unsolved, ids: clone(sets.Unsolved)},
		{weight: weights.Wrong, ids: clone(sets.Wrong)},
	}

	var total float64
	for _, c := range categories {
		if c.weight > 0 {
			total += c.weight
		}
	}

	used := make(map[string]bool, count)
	picked := make([]string, 0, count)

	for len(picked) < count {
		id, ok := "", false
		if c := sample(categories, total, rng); c != nil {
			id, ok = c.take(rng, used)
		}
		if !ok {
			id, ok = fromUnion(categories, used, rng)
			if !ok {
				break
			}
		}
		used[id] = true
		picked = append(picked, id)
	}

	return picked
}

// sample picks a category with probability proportional to its weight.
func sample(categories []*category, total float64, rng *rand.Rand) *category {
	if total <= 0 {
		return nil
	}

	r := rng.Float64() * total
	var last *category
	for _, c := range categories {
		if c.weight <= 0 {
			continue
		}
		last = c
		if r < c.weight {
			return c
		}
		r -= c.weight
	}
	// Float rounding can leave r just above the final weight.
	return last
}

func fromUnion(categories []*category, used map[string]bool, rng *rand.Rand) (string, bool) {
	seen := make(map[string]bool)
	var remaining []string
	for _, c := range categories {
		for _, id := range c.ids {
			if used[id] || seen[id] {
				continue
			}
			seen[id] = true
			remaining = append(remaining, id)
		}
	}
	if len(remaining) == 0 {
		return "", false
	}

	// Sorted so a given seed yields the same draw regardless of category order.
	sort.Strings(remaining)
	return remaining[rng.IntN(len(remaining))], true
}

func clone(ids []string) []string {
	out := make([]string, len(ids))
	copy(out, ids)
	return out
}
