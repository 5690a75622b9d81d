package clip

import "strings"

// BlendMask is a set of body regions driven by a clip.
type BlendMask uint8

const (
	MaskLowerBody BlendMask = 1 << iota
	MaskTorso
	MaskLeftArm
	MaskRightArm

	MaskNone      BlendMask = 0
	MaskUpperBody           = MaskTorso | MaskLeftArm | MaskRightArm
	MaskAll                 = MaskLowerBody | MaskUpperBody
)

var maskNames = [...]struct {
	bit  BlendMask
	name string
}{
	{MaskLowerBody, "lowerbody"},
	{MaskTorso, "torso"},
	{MaskLeftArm, "leftarm"},
	{MaskRightArm, "rightarm"},
}

// Has reports whether every region of r is set in m.
func (m BlendMask) Has(r BlendMask) bool {
	return r != 0 && m&r == r
}

// ParseRegion reads a region name as printed by String.
func ParseRegion(s string) (BlendMask, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "all":
		return MaskAll, true
	case "upperbody":
		return MaskUpperBody, true
	}
	for _, mn := range maskNames {
		if mn.name == s {
			return mn.bit, true
		}
	}
	return MaskNone, false
}

// Regions names the regions set in m, in bit order.
func (m BlendMask) Regions() []string {
	var out []string
	for _, mn := range maskNames {
		if m&mn.bit != 0 {
			out = append(out, mn.name)
		}
	}
	return out
}

func (m BlendMask) String() string {
	switch m {
	case MaskNone:
		return "none"
	case MaskAll:
		return "all"
	case MaskUpperBody:
		return "upperbody"
	}
	return strings.Join(m.Regions(), "|")
}

// RegionRoots names the bones anchoring each body region.
type RegionRoots struct {
	LowerBody string
	Torso     string
	LeftArm   string
	RightArm  string
}

// regionClassifier resolves region roots once per skeleton.
type regionClassifier struct {
	skel  *Skeleton
	rules []regionRule
}

type regionRule struct {
	root BoneId
	bit  BlendMask
}

func newRegionClassifier(skel *Skeleton, roots RegionRoots) *regionClassifier {
	rc := &regionClassifier{skel: skel}
	// Arms are tested before the torso they hang from.
	for _, r := range []struct {
		name string
		bit  BlendMask
	}{
		{roots.LeftArm, MaskLeftArm},
		{roots.RightArm, MaskRightArm},
		{roots.Torso, MaskTorso},
		{roots.LowerBody, MaskLowerBody},
	} {
		if id, ok := skel.Lookup(r.name); ok {
			rc.rules = append(rc.rules, regionRule{root: id, bit: r.bit})
		}
	}
	return rc
}

// classify returns the single region bit of a bone, or MaskNone when the
// bone is not part of the skeleton.
func (rc *regionClassifier) classify(id BoneId) BlendMask {
	if rc.skel.Bone(id) == nil {
		return MaskNone
	}
	for _, r := range rc.rules {
		if rc.skel.IsAncestor(r.root, id) {
			return r.bit
		}
	}
	return MaskLowerBody
}

// ClassifyBone returns the region of the named bone.
func ClassifyBone(skel *Skeleton, roots RegionRoots, bone string) BlendMask {
	id, ok := skel.Lookup(bone)
	if !ok {
		return MaskNone
	}
	return newRegionClassifier(skel, roots).classify(id)
}
