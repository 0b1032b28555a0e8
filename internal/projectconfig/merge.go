package projectconfig

import "strings"

// mergeMaps merges src onto dst and returns the result. Nested maps merge
// recursively, lists append, and any other src value replaces dst's.
func mergeMaps(dst, src map[string]any) map[string]any {
	out := copyMap(dst)
	for k, sv := range src {
		k = strings.ToLower(k)
		dv, exists := out[k]
		if !exists {
			out[k] = copyValue(sv)
			continue
		}
		switch s := sv.(type) {
		case map[string]any:
			if d, ok := dv.(map[string]any); ok {
				out[k] = mergeMaps(d, s)
				continue
			}
		case []any:
			if d, ok := dv.([]any); ok {
				merged := make([]any, 0, len(d)+len(s))
				merged = append(merged, d...)
				merged = append(merged, copyValue(s).([]any)...)
				out[k] = merged
				continue
			}
		}
		out[k] = copyValue(sv)
	}
	return out
}

// fillMaps adds keys from defaults that dst lacks, recursing into maps.
func fillMaps(dst, defaults map[string]any) map[string]any {
	out := copyMap(dst)
	for k, dv := range defaults {
		k = strings.ToLower(k)
		cur, exists := out[k]
		if !exists {
			out[k] = copyValue(dv)
			continue
		}
		cm, ok1 := cur.(map[string]any)
		dm, ok2 := dv.(map[string]any)
		if ok1 && ok2 {
			out[k] = fillMaps(cm, dm)
		}
	}
	return out
}

// replaceMaps is mergeMaps without list appending: any non-map src value
// replaces dst's.
func replaceMaps(dst, src map[string]any) map[string]any {
	out := copyMap(dst)
	for k, sv := range src {
		k = strings.ToLower(k)
		if sm, ok := sv.(map[string]any); ok {
			if dm, ok := out[k].(map[string]any); ok {
				out[k] = replaceMaps(dm, sm)
				continue
			}
		}
		out[k] = copyValue(sv)
	}
	return out
}

func copyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[strings.ToLower(k)] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return copyMap(val)
	case map[any]any:
		m := make(map[string]any, len(val))
		for k, item := range val {
			if s, ok := k.(string); ok {
				m[strings.ToLower(s)] = copyValue(item)
			}
		}
		return m
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = copyValue(item)
		}
		return out
	case []string:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = item
		}
		return out
	default:
		return val
	}
}
