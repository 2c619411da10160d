package monitor

import "fmt"

// SelectOptions extracts the choices of every select form item whose
// expression resolves against data. List values yield their distinct
// stringified elements in first-seen order; scalars yield one option.
func SelectOptions(cfg *MonitorConfig, data any) map[string][]string {
	out := map[string][]string{}
	if cfg == nil {
		return out
	}

	for _, item := range cfg.FormItems {
		if item.Type != FormSelect || item.Expression == "" {
			continue
		}

		v, ok := LookupPath(data, item.Expression)
		if !ok || v == nil {
			out[item.Prop] = []string{}
			continue
		}

		list, isList := v.([]any)
		if !isList {
			out[item.Prop] = []string{fmt.Sprint(v)}
			continue
		}

		seen := make(map[string]bool, len(list))
		opts := make([]string, 0, len(list))
		for _, e := range list {
			if e == nil {
				continue
			}
			s := fmt.Sprint(e)
			if seen[s] {
				continue
			}
			seen[s] = true
			opts = append(opts, s)
		}
		out[item.Prop] = opts
	}
	return out
}
