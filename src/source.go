package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	mgl "github.com/go-gl/mathgl/mgl32"
	"github.com/ikemen-engine/kfclip/src/clip"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/tidwall/gjson"
)

// Decodes a glTF/glb model into engine input. Text keys come from the
// animation extras, the sidecar file at textKeyPath, or the sidecar next to
// the model when textKeyPath is empty.
func loadSource(path, textKeyPath string) (clip.Input, error) {
	var in clip.Input

	f, err := os.Open(path)
	if err != nil {
		return in, err
	}
	defer f.Close()

	// Use the directory of the file as the file system for resolving relative resources
	decoder := gltf.NewDecoderFS(f, os.DirFS(filepath.Dir(path)))
	doc := new(gltf.Document)
	if err = decoder.Decode(doc); err != nil {
		return in, fmt.Errorf("failed to decode gltf from file '%s': %w", path, err)
	}

	in.Skeleton = buildSkeleton(doc.Nodes)
	tracks, err := readTracks(doc)
	if err != nil {
		return in, fmt.Errorf("failed to read animation of '%s': %w", path, err)
	}
	in.Tracks = clip.MergeTracks(tracks)

	for _, a := range doc.Animations {
		keys, err := extrasTextKeys(a.Extras)
		if err != nil {
			return in, fmt.Errorf("animation %q of '%s': %w", a.Name, path, err)
		}
		in.Annotations = append(in.Annotations, keys...)
	}

	if len(textKeyPath) == 0 {
		textKeyPath = FileExist(sidecarPath(path))
	}
	if len(textKeyPath) > 0 {
		keys, err := loadTextKeys(textKeyPath)
		if err != nil {
			return in, err
		}
		in.Annotations = append(in.Annotations, keys...)
	}
	return in, nil
}

func nodeName(nodes []*gltf.Node, idx uint32) string {
	if int(idx) < len(nodes) && len(nodes[idx].Name) > 0 {
		return nodes[idx].Name
	}
	return fmt.Sprintf("node%d", idx)
}

// Every node becomes a bone whose id is the node index.
func buildSkeleton(nodes []*gltf.Node) *clip.Skeleton {
	skel := clip.NewSkeleton()
	for i := range nodes {
		skel.AddBone(nodeName(nodes, uint32(i)), clip.NoBone)
	}
	for i, n := range nodes {
		for _, c := range n.Children {
			if int(c) < len(nodes) {
				skel.SetParent(clip.BoneId(c), clip.BoneId(i))
			}
		}
	}
	return skel
}

// Reads every translation and rotation channel of every animation as one
// track per channel.
func readTracks(doc *gltf.Document) ([]clip.BoneTrack, error) {
	var tracks []clip.BoneTrack
	for _, a := range doc.Animations {
		for _, c := range a.Channels {
			if c.Target.Node == nil || c.Sampler == nil || int(*c.Sampler) >= len(a.Samplers) {
				continue
			}
			if c.Target.Path != gltf.TRSTranslation && c.Target.Path != gltf.TRSRotation {
				continue
			}
			s := a.Samplers[*c.Sampler]
			if int(s.Input) >= len(doc.Accessors) || int(s.Output) >= len(doc.Accessors) {
				return nil, fmt.Errorf("sampler of animation %q references a missing accessor", a.Name)
			}
			var timeBuffer []float32
			times, err := modeler.ReadAccessor(doc, doc.Accessors[s.Input], timeBuffer)
			if err != nil {
				return nil, err
			}
			input, ok := times.([]float32)
			if !ok {
				return nil, fmt.Errorf("animation %q: sampler input is %T, want float", a.Name, times)
			}
			output, err := modeler.ReadAccessor(doc, doc.Accessors[s.Output], nil)
			if err != nil {
				return nil, err
			}

			track := clip.BoneTrack{Bone: nodeName(doc.Nodes, *c.Target.Node)}
			switch c.Target.Path {
			case gltf.TRSTranslation:
				vecs, ok := output.([][3]float32)
				if !ok {
					return nil, fmt.Errorf("animation %q: translation output is %T", a.Name, output)
				}
				track.Translation = sampleKeys(input, vecs, s.Interpolation, func(v [3]float32) mgl.Vec3 {
					return mgl.Vec3(v)
				})
			case gltf.TRSRotation:
				quats, err := rotationValues(output)
				if err != nil {
					return nil, fmt.Errorf("animation %q: %w", a.Name, err)
				}
				track.Rotation = sampleKeys(input, quats, s.Interpolation, func(v [4]float32) mgl.Quat {
					return mgl.Quat{W: v[3], V: mgl.Vec3{v[0], v[1], v[2]}}
				})
			}
			tracks = append(tracks, track)
		}
	}
	return tracks, nil
}

// Pairs sampler times with output values. Cubic spline outputs hold
// in-tangent, value and out-tangent per key; only the value is kept.
func sampleKeys[T, V any](times []float32, output []T, interp gltf.Interpolation,
	conv func(T) V) []clip.Key[V] {
	stride, offset := 1, 0
	if interp == gltf.InterpolationCubicSpline {
		stride, offset = 3, 1
	}
	n := len(times)
	if m := len(output) / stride; m < n {
		n = m
	}
	keys := make([]clip.Key[V], 0, n)
	for i := 0; i < n; i++ {
		keys = append(keys, clip.Key[V]{Time: times[i], Value: conv(output[i*stride+offset])})
	}
	return keys
}

// Decodes rotation outputs, including normalized integer encodings.
func rotationValues(output interface{}) ([][4]float32, error) {
	switch v := output.(type) {
	case [][4]float32:
		return v, nil
	case [][4]int8:
		return normalizeQuats(v, func(c int8) float32 { return mgl.Clamp(float32(c)/127, -1, 1) }), nil
	case [][4]uint8:
		return normalizeQuats(v, func(c uint8) float32 { return float32(c) / 255 }), nil
	case [][4]int16:
		return normalizeQuats(v, func(c int16) float32 { return mgl.Clamp(float32(c)/32767, -1, 1) }), nil
	case [][4]uint16:
		return normalizeQuats(v, func(c uint16) float32 { return float32(c) / 65535 }), nil
	}
	return nil, fmt.Errorf("unsupported rotation output %T", output)
}

func normalizeQuats[T any](in [][4]T, f func(T) float32) [][4]float32 {
	out := make([][4]float32, len(in))
	for i, q := range in {
		out[i] = [4]float32{f(q[0]), f(q[1]), f(q[2]), f(q[3])}
	}
	return out
}

// Text keys stored in animation extras under "textKeys".
func extrasTextKeys(extras interface{}) ([]clip.Annotation, error) {
	if extras == nil {
		return nil, nil
	}
	raw, err := json.Marshal(extras)
	if err != nil {
		return nil, err
	}
	return parseTextKeys(gjson.GetBytes(raw, "textKeys"))
}

// Reads a text key file: either a bare list or an object with "textKeys".
func loadTextKeys(path string) ([]clip.Annotation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("text key file '%s' is not valid JSON", path)
	}
	root := gjson.ParseBytes(data)
	if root.IsObject() {
		root = root.Get("textKeys")
	}
	keys, err := parseTextKeys(root)
	if err != nil {
		return nil, fmt.Errorf("text key file '%s': %w", path, err)
	}
	return keys, nil
}

// Accepts [[time, "text"], ...] and [{"time": t, "text": "..."}, ...].
func parseTextKeys(res gjson.Result) ([]clip.Annotation, error) {
	if !res.Exists() {
		return nil, nil
	}
	if !res.IsArray() {
		return nil, Error("textKeys is not a list")
	}
	var out []clip.Annotation
	var err error
	res.ForEach(func(i, v gjson.Result) bool {
		var t, text gjson.Result
		switch {
		case v.IsArray():
			arr := v.Array()
			if len(arr) >= 2 {
				t, text = arr[0], arr[1]
			}
		case v.IsObject():
			t, text = v.Get("time"), v.Get("text")
		}
		if t.Type != gjson.Number || text.Type != gjson.String {
			err = fmt.Errorf("text key %v: want a time and a text", i.Int())
			return false
		}
		out = append(out, clip.Annotation{Time: float32(t.Float()), Text: text.Str})
		return true
	})
	return out, err
}
