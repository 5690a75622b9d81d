package clip

import (
	"math"

	mgl "github.com/go-gl/mathgl/mgl32"
)

// Retime cuts the [start, end] window out of a time-sorted sample list and
// shifts it to start at zero. Values at the window edges are held from the
// nearest samples outside it, so the curve freezes rather than extrapolates.
// A non-empty result always has at least two samples.
func Retime[V any](keys []Key[V], start, end, eps float32) []Key[V] {
	if end <= start || len(keys) == 0 {
		return nil
	}
	length := end - start
	var out []Key[V]

	// Last sample at or before start, else the first one.
	seed := -1
	for i := range keys {
		if keys[i].Time > start+eps {
			break
		}
		seed = i
	}
	if seed < 0 {
		seed = 0
	}
	out = append(out, Key[V]{Time: 0, Value: keys[seed].Value})

	for _, k := range keys {
		if k.Time > start && k.Time < end {
			t := k.Time - start
			if t <= eps {
				// Already taken as the seed.
				continue
			}
			out = append(out, Key[V]{Time: t, Value: k.Value})
		}
	}

	// First sample at or after end, else the last one.
	tail := len(keys) - 1
	for i := range keys {
		if keys[i].Time >= end-eps {
			tail = i
			break
		}
	}
	if last := out[len(out)-1].Time; float32(math.Abs(float64(last-length))) > eps {
		out = append(out, Key[V]{Time: length, Value: keys[tail].Value})
	}

	if len(out) < 2 {
		out = append(out, Key[V]{Time: length, Value: out[0].Value})
	}
	return out
}

// interpolateVec3 samples a sorted translation list at t, clamping to the
// first and last samples outside their range.
func interpolateVec3(keys []TranslationKey, t float32) (mgl.Vec3, bool) {
	if len(keys) == 0 {
		return mgl.Vec3{}, false
	}
	if t <= keys[0].Time {
		return keys[0].Value, true
	}
	last := keys[len(keys)-1]
	if t >= last.Time {
		return last.Value, true
	}
	for i := 1; i < len(keys); i++ {
		if t <= keys[i].Time {
			prev, next := keys[i-1], keys[i]
			span := next.Time - prev.Time
			if span <= 0 {
				return next.Value, true
			}
			rate := (t - prev.Time) / span
			return prev.Value.Mul(1 - rate).Add(next.Value.Mul(rate)), true
		}
	}
	return last.Value, true
}
