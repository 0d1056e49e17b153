package cluster

// stringSet is a small helper around map-backed sets of entity/tag tokens.
type stringSet map[string]struct{}

func newSet(items ...string) stringSet {
	s := make(stringSet, len(items))
	for _, it := range items {
		s[it] = struct{}{}
	}
	return s
}

func (s stringSet) add(item string)      { s[item] = struct{}{} }
func (s stringSet) addAll(other stringSet) {
	for item := range other {
		s[item] = struct{}{}
	}
}

func (s stringSet) union(other stringSet) stringSet {
	out := make(stringSet, len(s)+len(other))
	out.addAll(s)
	out.addAll(other)
	return out
}

// jaccard is |A∩B| / |A∪B|. Two empty sets score 0, not NaN: a signal with
// no entities or tags must not match every cluster.
func jaccard(a, b stringSet) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}
	intersection := 0
	for item := range small {
		if _, ok := large[item]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}
