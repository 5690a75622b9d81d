package clip

import (
	"fmt"
	"sort"
)

func formatEvent(ev *RawEvent) string {
	return fmt.Sprintf("'%s' @ %.3f", ev.RawLine, ev.Time)
}

// AttachEvents hands every non-structural event to a clip. An event first
// goes to the earliest clip cut from its own block whose range holds it;
// events that find no such clip fall back to the earliest clip holding
// their time. Events matching nothing are dropped. Each clip's list ends up
// sorted.
func AttachEvents(events []RawEvent, clips []ProcessedClip, eps float32) (dropped int) {
	for i := range events {
		ev := &events[i]
		if isStructural(ev.Command) {
			continue
		}
		target := -1
		if len(ev.Block) > 0 {
			for j := range clips {
				if clips[j].Block == ev.Block && clips[j].contains(ev.Time, eps) {
					target = j
					break
				}
			}
		}
		if target < 0 {
			for j := range clips {
				if clips[j].contains(ev.Time, eps) {
					target = j
					break
				}
			}
		}
		if target < 0 {
			dropped++
			continue
		}
		clips[target].Events = append(clips[target].Events, formatEvent(ev))
	}
	for j := range clips {
		sort.Strings(clips[j].Events)
	}
	return dropped
}
