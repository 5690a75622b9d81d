package main

import (
	"strconv"

	"github.com/ikemen-engine/kfclip/src/clip"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Converts with the shortest decimal that round-trips as float32, so 0.1
// is written as 0.1 and not 0.10000000149011612.
func f64(v float32) float64 {
	f, _ := strconv.ParseFloat(strconv.FormatFloat(float64(v), 'f', -1, 32), 64)
	return f
}

// Makes s usable as one sjson path component, numeric names included.
func jsonKey(s string) string {
	return ":" + gjson.Escape(s)
}

// Builds the clip definition document.
func exportClips(clips clip.Clips, indent bool) ([]byte, error) {
	data := []byte(`{"clips":{}}`)
	var err error
	set := func(path string, value interface{}) {
		if err == nil {
			data, err = sjson.SetBytes(data, path, value)
		}
	}

	for _, d := range clips.Sorted() {
		base := "clips." + jsonKey(d.Name)
		set(base+".label", d.Label)
		set(base+".start", f64(d.Start))
		set(base+".end", f64(d.End))
		set(base+".duration", f64(d.Duration))
		set(base+".next", d.Next)
		set(base+".mask", int(d.Mask))
		set(base+".maskRegions", append([]string{}, d.Mask.Regions()...))
		set(base+".velocity", []float32{d.BaseVelocity[0], d.BaseVelocity[1], d.BaseVelocity[2]})
		set(base+".minAttack", f64(d.MinAttackTimeRelative))
		set(base+".maxAttack", f64(d.MaxAttackTimeRelative))
		set(base+".hit", f64(d.HitTimeRelative))
		set(base+".minHit", f64(d.MinHitTimeRelative))
		set(base+".events", append([]string{}, d.Events...))
		set(base+".bones", map[string]interface{}{})
		for _, c := range d.Curves {
			bone := base + ".bones." + jsonKey(c.Bone)
			rot := make([][5]float32, 0, len(c.Rotation))
			for _, k := range c.Rotation {
				rot = append(rot, [5]float32{k.Time, k.Value.V[0], k.Value.V[1], k.Value.V[2], k.Value.W})
			}
			trans := make([][4]float32, 0, len(c.Translation))
			for _, k := range c.Translation {
				trans = append(trans, [4]float32{k.Time, k.Value[0], k.Value[1], k.Value[2]})
			}
			set(bone+".rotation", rot)
			set(bone+".translation", trans)
		}
		if err != nil {
			return nil, err
		}
	}

	if indent {
		data = []byte(gjson.GetBytes(data, "@pretty").Raw)
	}
	return data, nil
}
