package store

// AddToSet appends v when it is absent and reports whether set changed.
func AddToSet(set []string, v string) ([]string, bool) {
	if Contains(set, v) {
		return set, false
	}
	return append(set, v), true
}

// Pull removes every occurrence of v and reports whether set changed.
func Pull(set []string, v string) ([]string, bool) {
	out := set[:0:0]
	for _, s := range set {
		if s != v {
			out = append(out, s)
		}
	}
	return out, len(out) != len(set)
}

// Contains reports whether v is in set.
func Contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

// Dedupe drops empty and repeated ids, keeping first-seen order.
func Dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
