package clip

import (
	"sort"
	"strings"
)

// ProcessedClip is one playable segment cut out of a block. Start and End
// are absolute source times; the *Relative fields are offsets from Start.
type ProcessedClip struct {
	Name   string
	Label  string
	Block  string
	Start  float32
	End    float32
	Events []string

	MinAttackTimeRelative float32
	MaxAttackTimeRelative float32
	HitTimeRelative       float32
	MinHitTimeRelative    float32
}

// Duration is never negative.
func (pc *ProcessedClip) Duration() float32 {
	if pc.End <= pc.Start {
		return 0
	}
	return pc.End - pc.Start
}

func (pc *ProcessedClip) contains(t, eps float32) bool {
	return t >= pc.Start-eps && t <= pc.End+eps
}

// Shape is the split policy chosen for a block: PlainShape, LoopShape or
// AttackShape.
type Shape interface {
	isShape()
}

type PlainShape struct{}

type LoopShape struct {
	LoopStart float32
	LoopEnd   float32
}

type FollowSpan struct {
	Name  string
	Start float32
	Stop  float32
}

type AttackShape struct {
	MinAttack, MaxAttack *float32
	Hit, MinHit          *float32
	// Follows is sorted by start time.
	Follows []FollowSpan
}

func (PlainShape) isShape()  {}
func (LoopShape) isShape()   {}
func (AttackShape) isShape() {}

// ClassifyBlock picks the split policy for b. Loop markers take precedence
// over attack markers.
func ClassifyBlock(b *Block) Shape {
	if b.LoopStart != nil && b.LoopEnd != nil && *b.LoopEnd >= *b.LoopStart {
		return LoopShape{LoopStart: *b.LoopStart, LoopEnd: *b.LoopEnd}
	}
	if b.MinAttack != nil || b.MaxAttack != nil || len(b.Follow) > 0 {
		as := AttackShape{
			MinAttack: b.MinAttack,
			MaxAttack: b.MaxAttack,
			Hit:       b.Hit,
			MinHit:    b.MinHit,
		}
		for q, t := range b.Follow {
			stop, ok := b.followStop(q, t)
			if !ok {
				stop = b.End
			}
			as.Follows = append(as.Follows, FollowSpan{Name: q, Start: t, Stop: stop})
		}
		sort.Slice(as.Follows, func(i, j int) bool {
			if as.Follows[i].Start != as.Follows[j].Start {
				return as.Follows[i].Start < as.Follows[j].Start
			}
			return as.Follows[i].Name < as.Follows[j].Name
		})
		return as
	}
	return PlainShape{}
}

// Split cuts a block into clips according to its shape. Clip names are not
// yet checked for collisions.
func Split(b *Block, eps float32) []ProcessedClip {
	emit := func(suffix string, start, end float32) ProcessedClip {
		pc := ProcessedClip{Name: b.Name, Label: b.Label, Block: b.Name, Start: start, End: end}
		if len(suffix) > 0 {
			pc.Name += "_" + suffix
			pc.Label += "_" + suffix
		}
		return pc
	}
	switch s := ClassifyBlock(b).(type) {
	case LoopShape:
		var out []ProcessedClip
		if s.LoopStart > b.Start+eps {
			out = append(out, emit("", b.Start, s.LoopStart))
		}
		out = append(out, emit("loop", s.LoopStart, s.LoopEnd))
		if b.End > s.LoopEnd+eps {
			out = append(out, emit("outro", s.LoopEnd, b.End))
		}
		return out
	case AttackShape:
		return splitAttack(b, s, eps, emit)
	case PlainShape:
		return []ProcessedClip{emit("", b.Start, b.End)}
	}
	return nil
}

func splitAttack(b *Block, s AttackShape, eps float32,
	emit func(string, float32, float32) ProcessedClip) (out []ProcessedClip) {
	releaseStart := b.Start
	if s.MinAttack != nil && s.MaxAttack != nil {
		windup := emit("windup", b.Start, *s.MaxAttack)
		windup.MinAttackTimeRelative = *s.MinAttack - b.Start
		windup.MaxAttackTimeRelative = *s.MaxAttack - b.Start
		out = append(out, windup)
		releaseStart = windup.End
	}
	releaseEnd := b.End
	if s.Hit != nil {
		releaseEnd = *s.Hit
	} else if len(s.Follows) > 0 {
		releaseEnd = s.Follows[0].Start
	}
	release := emit("release", releaseStart, releaseEnd)
	if s.Hit != nil {
		release.HitTimeRelative = *s.Hit - releaseStart
		if s.MinHit != nil && *s.MinHit < *s.Hit {
			release.MinHitTimeRelative = *s.MinHit - releaseStart
		}
	}
	out = append(out, release)

	if len(s.Follows) == 0 {
		if b.End > releaseEnd+eps {
			out = append(out, emit("follow", releaseEnd, b.End))
		}
		return out
	}
	if s.Follows[0].Start > releaseEnd {
		out = append(out, emit("follow", releaseEnd, s.Follows[0].Start))
	}
	for _, f := range s.Follows {
		out = append(out, emit(followClipSuffix(f.Name), f.Start, f.Stop))
	}
	return out
}

func followClipSuffix(q string) string {
	if len(q) == 0 {
		return "follow"
	}
	return strings.Join(strings.Fields(q), "_")
}
