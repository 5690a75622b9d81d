package clip

import (
	"math"
	"sort"
	"strings"

	"golang.org/x/exp/maps"
)

// Block aggregates every event that belongs to one clip-defining name.
type Block struct {
	Name  string // lower case key
	Label string // name as first written in the source
	Start float32
	End   float32

	LoopStart, LoopEnd   *float32
	MinAttack, MaxAttack *float32
	Hit, MinHit          *float32

	// Follow maps a follow qualifier to its start time. FollowStops keeps
	// every stop time seen per qualifier, ascending.
	Follow      map[string]float32
	FollowStops map[string][]float32
}

func newBlock(name, label string) *Block {
	return &Block{
		Name:        name,
		Label:       label,
		Start:       float32(math.Inf(1)),
		End:         float32(math.Inf(-1)),
		Follow:      map[string]float32{},
		FollowStops: map[string][]float32{},
	}
}

func (b *Block) widen(t float32) {
	if t < b.Start {
		b.Start = t
	}
	if t > b.End {
		b.End = t
	}
}

func setOnce(dst **float32, t float32) {
	if *dst == nil {
		v := t
		*dst = &v
	}
}

func (b *Block) add(ev *RawEvent) {
	b.widen(ev.Time)
	switch ev.Command {
	case cmdLoopStart:
		setOnce(&b.LoopStart, ev.Time)
	case cmdLoopStop:
		setOnce(&b.LoopEnd, ev.Time)
	case cmdMinAttack:
		setOnce(&b.MinAttack, ev.Time)
	case cmdMaxAttack:
		setOnce(&b.MaxAttack, ev.Time)
	case cmdHit:
		setOnce(&b.Hit, ev.Time)
	case cmdMinHit:
		setOnce(&b.MinHit, ev.Time)
	default:
		if q, ok := followQualifier(ev.Command, followStart); ok {
			if _, seen := b.Follow[q]; !seen {
				b.Follow[q] = ev.Time
			}
		} else if q, ok := followQualifier(ev.Command, followStop); ok {
			b.FollowStops[q] = append(b.FollowStops[q], ev.Time)
		}
	}
}

// followStop returns the first stop time for q at or after start.
func (b *Block) followStop(q string, start float32) (float32, bool) {
	for _, t := range b.FollowStops[q] {
		if t >= start {
			return t, true
		}
	}
	return 0, false
}

// prefixIndex finds the longest clip-defining name that prefixes an event
// name. Names are ordered longest first, then lexicographically, so the
// first hit is the deterministic winner.
type prefixIndex []string

func newPrefixIndex(names []string) prefixIndex {
	idx := append(prefixIndex(nil), names...)
	sort.Slice(idx, func(i, j int) bool {
		if len(idx[i]) != len(idx[j]) {
			return len(idx[i]) > len(idx[j])
		}
		return idx[i] < idx[j]
	})
	return idx
}

func (idx prefixIndex) match(name string) (string, bool) {
	for _, n := range idx {
		if strings.HasPrefix(name, n) {
			return n, true
		}
	}
	return "", false
}

// ResolveBlocks groups the time-sorted events by clip-defining name. Each
// event's Block field is set to its match (empty for orphans). Blocks are
// returned ordered by start time, then name.
func ResolveBlocks(events []RawEvent, logf func(format string, v ...interface{})) []*Block {
	labels := map[string]string{}
	for i := range events {
		ev := &events[i]
		if ev.Command != cmdStart && ev.Command != cmdStop {
			continue
		}
		key := strings.ToLower(ev.Name)
		if len(key) == 0 {
			if logf != nil {
				logf("Ignoring unnamed %q text key at %v", ev.Command, ev.Time)
			}
			continue
		}
		if _, ok := labels[key]; !ok {
			labels[key] = ev.Name
		}
	}
	if len(labels) == 0 {
		return nil
	}
	idx := newPrefixIndex(maps.Keys(labels))
	blocks := make(map[string]*Block, len(labels))
	for i := range events {
		ev := &events[i]
		key, ok := idx.match(strings.ToLower(ev.Name))
		if !ok {
			ev.Block = ""
			continue
		}
		ev.Block = key
		b, ok := blocks[key]
		if !ok {
			b = newBlock(key, labels[key])
			blocks[key] = b
		}
		b.add(ev)
	}
	out := maps.Values(blocks)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Start != out[j].Start {
			return out[i].Start < out[j].Start
		}
		return out[i].Name < out[j].Name
	})
	return out
}
