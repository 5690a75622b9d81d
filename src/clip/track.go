package clip

import (
	"sort"

	mgl "github.com/go-gl/mathgl/mgl32"
)

// Key is one timed sample of a curve.
type Key[V any] struct {
	Time  float32
	Value V
}

type (
	RotationKey    = Key[mgl.Quat]
	TranslationKey = Key[mgl.Vec3]
)

// BoneTrack holds the raw samples of one bone, possibly gathered from
// several controllers.
type BoneTrack struct {
	Bone        string
	Rotation    []RotationKey
	Translation []TranslationKey
}

func sortKeys[V any](keys []Key[V]) {
	sort.SliceStable(keys, func(i, j int) bool {
		return keys[i].Time < keys[j].Time
	})
}

// Sort orders both sample lists by time.
func (bt *BoneTrack) Sort() {
	sortKeys(bt.Rotation)
	sortKeys(bt.Translation)
}

// MergeTracks unions tracks that target the same bone and sorts the
// result. The order of the returned tracks follows first appearance.
func MergeTracks(tracks []BoneTrack) []BoneTrack {
	index := map[string]int{}
	var out []BoneTrack
	for _, t := range tracks {
		i, ok := index[t.Bone]
		if !ok {
			i = len(out)
			index[t.Bone] = i
			out = append(out, BoneTrack{Bone: t.Bone})
		}
		out[i].Rotation = append(out[i].Rotation, t.Rotation...)
		out[i].Translation = append(out[i].Translation, t.Translation...)
	}
	for i := range out {
		out[i].Sort()
	}
	return out
}
