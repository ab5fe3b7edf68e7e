package compose

// DeepMerge folds overlay onto base and returns a new map. Scalars and
// strings in overlay win outright. Nested maps are merged recursively.
// Lists of mappings that carry a stable identifying key (see
// mergeListByKey) are unioned by that key, overlay entries winning on
// conflict; any other list in overlay replaces base's list wholesale.
func DeepMerge(base, overlay map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(overlay))
	for k, v := range base {
		out[k] = v
	}
	for k, ov := range overlay {
		bv, exists := out[k]
		if !exists {
			out[k] = ov
			continue
		}
		out[k] = mergeValue(bv, ov)
	}
	return out
}

func mergeValue(base, overlay any) any {
	baseMap, baseIsMap := base.(map[string]any)
	overlayMap, overlayIsMap := overlay.(map[string]any)
	if baseIsMap && overlayIsMap {
		return DeepMerge(baseMap, overlayMap)
	}

	baseList, baseIsList := base.([]any)
	overlayList, overlayIsList := overlay.([]any)
	if baseIsList && overlayIsList {
		if merged, ok := mergeListByKey(baseList, overlayList); ok {
			return merged
		}
		return overlayList
	}

	return overlay
}

// identityKeys are the field names tried, in order, to find a stable
// identity for entries in a list-of-mappings (compose volumes/ports
// entries keyed by target, env_file entries keyed by path, and so on).
var identityKeys = []string{"target", "name", "path", "source"}

// mergeListByKey unions two lists of map[string]any by whichever
// identityKeys field every entry in both lists shares, overlay entries
// replacing base entries with a matching key and new overlay entries
// appended after. Returns ok=false when the lists aren't uniformly
// keyed maps, so the caller falls back to outright replacement.
func mergeListByKey(base, overlay []any) ([]any, bool) {
	key := ""
	for _, k := range identityKeys {
		if allHaveKey(base, k) && allHaveKey(overlay, k) {
			key = k
			break
		}
	}
	if key == "" {
		return nil, false
	}

	order := make([]string, 0, len(base))
	byKey := make(map[string]map[string]any, len(base))
	for _, item := range base {
		m := item.(map[string]any)
		k := keyValue(m, key)
		order = append(order, k)
		byKey[k] = m
	}
	for _, item := range overlay {
		m := item.(map[string]any)
		k := keyValue(m, key)
		if existing, ok := byKey[k]; ok {
			byKey[k] = DeepMerge(existing, m)
		} else {
			order = append(order, k)
			byKey[k] = m
		}
	}

	out := make([]any, 0, len(order))
	for _, k := range order {
		out = append(out, byKey[k])
	}
	return out, true
}

func allHaveKey(list []any, key string) bool {
	if len(list) == 0 {
		return false
	}
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			return false
		}
		if _, ok := m[key]; !ok {
			return false
		}
	}
	return true
}

func keyValue(m map[string]any, key string) string {
	v := m[key]
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
