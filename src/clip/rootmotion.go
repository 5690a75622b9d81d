package clip

import (
	"sort"
	"strings"

	mgl "github.com/go-gl/mathgl/mgl32"
)

// Axis selects a vector component.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

// DefaultLoopingNames lists base names of animations that loop by nature.
var DefaultLoopingNames = []string{
	"idle", "idle2", "idle3", "idle4", "idle5", "idle6", "idle7", "idle8", "idle9",
	"idlesneak", "idleswim", "inventoryhandtohand",
	"walkforward", "walkback", "walkleft", "walkright",
	"runforward", "runback", "runleft", "runright",
	"sneakforward", "sneakback", "sneakleft", "sneakright",
	"swimwalkforward", "swimwalkback", "swimwalkleft", "swimwalkright",
	"swimrunforward", "swimrunback", "swimrunleft", "swimrunright",
	"turnleft", "turnright", "swimturnleft", "swimturnright",
}

// DefaultWeaponSuffixes are weapon type tags appended to animation names.
var DefaultWeaponSuffixes = []string{
	"onehand", "twohand", "twowide", "handtohand",
	"1h", "2c", "2w", "hh",
	"bow", "crossbow", "thrown", "spell",
}

// loopTable answers whether a clip base name loops by nature.
type loopTable struct {
	names    map[string]bool
	suffixes []string // longest first
}

func newLoopTable(names, suffixes []string) *loopTable {
	lt := &loopTable{names: map[string]bool{}}
	for _, n := range names {
		lt.names[strings.ToLower(strings.TrimSpace(n))] = true
	}
	for _, s := range suffixes {
		if s = strings.ToLower(strings.TrimSpace(s)); len(s) > 0 {
			lt.suffixes = append(lt.suffixes, s)
		}
	}
	sort.SliceStable(lt.suffixes, func(i, j int) bool {
		return len(lt.suffixes[i]) > len(lt.suffixes[j])
	})
	return lt
}

// stripWeapon removes one weapon tag from the end of name.
func (lt *loopTable) stripWeapon(name string) string {
	for _, s := range lt.suffixes {
		if len(name) > len(s) && strings.HasSuffix(name, s) {
			return name[:len(name)-len(s)]
		}
	}
	return name
}

func (lt *loopTable) loops(name string) bool {
	name = strings.ToLower(name)
	if lt.names[name] {
		return true
	}
	return lt.names[lt.stripWeapon(name)]
}

// baseName strips a "_loop" or "_outro" suffix.
func baseName(name string) string {
	if b, ok := strings.CutSuffix(name, "_loop"); ok {
		return b
	}
	if b, ok := strings.CutSuffix(name, "_outro"); ok {
		return b
	}
	return name
}

// rootVelocity is the planar velocity of the root bone across [start, end].
func rootVelocity(root []TranslationKey, start, end, eps float32, up Axis) (mgl.Vec3, bool) {
	if end-start <= eps || len(root) == 0 {
		return mgl.Vec3{}, false
	}
	p0, _ := interpolateVec3(root, start)
	p1, _ := interpolateVec3(root, end)
	v := p1.Sub(p0).Mul(1 / (end - start))
	if up >= AxisX && up <= AxisZ {
		v[up] = 0
	}
	return v, true
}

const velocityEpsilon = 1e-6

// applyRootMotion fills BaseVelocity for looping clips from the root track,
// then copies the velocity of each "_loop" clip to its siblings that have
// none.
func applyRootMotion(defs map[string]*Definition, order []string, root []TranslationKey,
	lt *loopTable, eps float32, up Axis) {
	if len(root) > 0 {
		for _, name := range order {
			d := defs[name]
			looping := strings.HasSuffix(name, "_loop")
			if !looping && lt.loops(name) {
				_, isIntro := defs[name+"_loop"]
				looping = !isIntro
			}
			if !looping {
				continue
			}
			if v, ok := rootVelocity(root, d.Start, d.End, eps, up); ok {
				d.BaseVelocity = v
			}
		}
	}
	for _, name := range order {
		d := defs[name]
		if d.BaseVelocity.LenSqr() >= velocityEpsilon {
			continue
		}
		if l, ok := defs[baseName(name)+"_loop"]; ok && l != d {
			d.BaseVelocity = l.BaseVelocity
		}
	}
}
