package manifest

// StructuralKeys are the keys the builder keeps in the pruned tree even when
// empty, so the validator always finds the nested objects it walks.
var StructuralKeys = []string{"name", "selector", "matchLabels", "template", "metadata", "containers"}

// Prune returns a copy of v with nil values, empty maps and empty slices
// removed recursively. A key listed in preserve survives even when its value
// prunes away: it becomes an empty slice for "containers" or slice values,
// and an empty map otherwise. A nil result means nothing was left.
//
// Only map[string]any and []any are descended into; every other value is a leaf.
func Prune(v any, preserve []string) any {
	keep := make(map[string]struct{}, len(preserve))
	for _, k := range preserve {
		keep[k] = struct{}{}
	}
	return prune(v, keep)
}

func prune(v any, keep map[string]struct{}) any {
	switch t := v.(type) {
	case nil:
		return nil
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, child := range t {
			p := prune(child, keep)
			if p == nil {
				if _, ok := keep[k]; !ok {
					continue
				}
				p = placeholder(k, child)
			}
			out[k] = p
		}
		if len(out) == 0 {
			return nil
		}
		return out
	case []any:
		out := make([]any, 0, len(t))
		for _, child := range t {
			if p := prune(child, keep); p != nil {
				out = append(out, p)
			}
		}
		if len(out) == 0 {
			return nil
		}
		return out
	default:
		return v
	}
}

func placeholder(key string, original any) any {
	if _, isSlice := original.([]any); isSlice || key == "containers" {
		return []any{}
	}
	return map[string]any{}
}
