package clip

import "strings"

// linkClips points every intro clip at its "_loop" counterpart. Names
// containing "jump" never link.
func linkClips(defs map[string]*Definition) {
	for name, d := range defs {
		if strings.HasSuffix(name, "_loop") || strings.HasSuffix(name, "_outro") ||
			strings.Contains(name, "jump") {
			continue
		}
		if _, ok := defs[name+"_loop"]; ok {
			d.Next = name + "_loop"
		}
	}
}
