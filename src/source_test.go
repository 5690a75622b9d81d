package main

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	mgl "github.com/go-gl/mathgl/mgl32"
	"github.com/ikemen-engine/kfclip/src/clip"
	"github.com/qmuntal/gltf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestBuildSkeleton(t *testing.T) {
	skel := buildSkeleton([]*gltf.Node{
		{Name: "Bip01 Pelvis", Children: []uint32{2}},
		{Name: "Bip01", Children: []uint32{0, 7}},
		{},
	})
	require.Equal(t, 3, skel.Len())
	root, ok := skel.Lookup("bip01")
	require.True(t, ok)
	assert.Equal(t, clip.BoneId(1), root)
	assert.Equal(t, "node2", skel.Bone(2).Name)
	assert.Equal(t, clip.BoneId(0), skel.Bone(2).Parent)
	assert.True(t, skel.IsAncestor(root, 2))
	assert.Equal(t, clip.NoBone, skel.Bone(1).Parent)
}

func TestSampleKeys(t *testing.T) {
	times := []float32{0, 1}
	ident := func(v float32) float32 { return v }

	keys := sampleKeys(times, []float32{10, 11}, gltf.InterpolationLinear, ident)
	assert.Equal(t, []clip.Key[float32]{{Time: 0, Value: 10}, {Time: 1, Value: 11}}, keys)

	keys = sampleKeys(times, []float32{-1, 10, 1, -2, 11, 2}, gltf.InterpolationCubicSpline, ident)
	assert.Equal(t, []clip.Key[float32]{{Time: 0, Value: 10}, {Time: 1, Value: 11}}, keys)

	// Short outputs are truncated rather than read past the end.
	keys = sampleKeys(times, []float32{10}, gltf.InterpolationStep, ident)
	assert.Len(t, keys, 1)
}

func TestRotationValues(t *testing.T) {
	q, err := rotationValues([][4]int16{{0, 0, 0, 32767}, {-32768, 0, 0, 0}})
	require.NoError(t, err)
	assert.Equal(t, [][4]float32{{0, 0, 0, 1}, {-1, 0, 0, 0}}, q)

	q, err = rotationValues([][4]uint8{{0, 0, 0, 255}})
	require.NoError(t, err)
	assert.Equal(t, [][4]float32{{0, 0, 0, 1}}, q)

	_, err = rotationValues([][3]float32{{0, 0, 0}})
	assert.Error(t, err)
}

func TestParseTextKeys(t *testing.T) {
	keys, err := parseTextKeys(gjson.Parse(`[[0.5, "Idle: Start"], {"time": 1, "text": "Idle: Stop"}]`))
	require.NoError(t, err)
	assert.Equal(t, []clip.Annotation{
		{Time: 0.5, Text: "Idle: Start"},
		{Time: 1, Text: "Idle: Stop"},
	}, keys)

	keys, err = parseTextKeys(gjson.Parse(`{}`).Get("textKeys"))
	assert.NoError(t, err)
	assert.Nil(t, keys)

	_, err = parseTextKeys(gjson.Parse(`{"a": 1}`))
	assert.Error(t, err)
	_, err = parseTextKeys(gjson.Parse(`[[0.5, "ok"], ["late", 1]]`))
	assert.EqualError(t, err, "text key 1: want a time and a text")
}

func TestExtrasTextKeys(t *testing.T) {
	keys, err := extrasTextKeys(map[string]interface{}{
		"textKeys": []interface{}{[]interface{}{1.5, "Walk: Start"}},
		"id":       3,
	})
	require.NoError(t, err)
	assert.Equal(t, []clip.Annotation{{Time: 1.5, Text: "Walk: Start"}}, keys)

	keys, err = extrasTextKeys(nil)
	assert.NoError(t, err)
	assert.Nil(t, keys)
}

func TestLoadTextKeys(t *testing.T) {
	p := writeFile(t, "a.json", `{"textKeys": [[2, "Walk: Stop"]]}`)
	keys, err := loadTextKeys(p)
	require.NoError(t, err)
	assert.Equal(t, []clip.Annotation{{Time: 2, Text: "Walk: Stop"}}, keys)

	p = writeFile(t, "b.json", `[{"time": 0, "text": "Walk: Start"}]`)
	keys, err = loadTextKeys(p)
	require.NoError(t, err)
	assert.Len(t, keys, 1)

	p = writeFile(t, "c.json", `[[0, "x"`)
	_, err = loadTextKeys(p)
	assert.Error(t, err)

	_, err = loadTextKeys(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func writeFileAt(p, content string) error {
	return os.WriteFile(p, []byte(content), 0o644)
}

// Writes a small glTF with a translated root and a rotated child, both
// animated over [0, 2].
func writeTestModel(t *testing.T, dir string) string {
	t.Helper()
	var buf bytes.Buffer
	le := func(v ...float32) {
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, v))
	}
	// times, translations and rotations: 12, 36 and 48 bytes
	le(0, 1, 2)
	le(0, 0, 0, 1, 0, 0, 2, 0, 0)
	le(0, 0, 0, 1, 0, 0, 0, 1, 0, 0, 0, 1)
	uri := "data:application/octet-stream;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())

	doc := fmt.Sprintf(`{
  "asset": {"version": "2.0"},
  "nodes": [{"name": "Bip01", "children": [1]}, {"name": "Bip01 Pelvis"}],
  "buffers": [{"byteLength": %d, "uri": %q}],
  "bufferViews": [
    {"buffer": 0, "byteOffset": 0, "byteLength": 12},
    {"buffer": 0, "byteOffset": 12, "byteLength": 36},
    {"buffer": 0, "byteOffset": 48, "byteLength": 48}
  ],
  "accessors": [
    {"bufferView": 0, "componentType": 5126, "count": 3, "type": "SCALAR", "min": [0], "max": [2]},
    {"bufferView": 1, "componentType": 5126, "count": 3, "type": "VEC3"},
    {"bufferView": 2, "componentType": 5126, "count": 3, "type": "VEC4"}
  ],
  "animations": [{
    "name": "all",
    "samplers": [{"input": 0, "output": 1}, {"input": 0, "output": 2}],
    "channels": [
      {"sampler": 0, "target": {"node": 0, "path": "translation"}},
      {"sampler": 1, "target": {"node": 1, "path": "rotation"}}
    ],
    "extras": {"textKeys": [[0, "Walk: Start"], [2, "Walk: Stop"]]}
  }]
}`, buf.Len(), uri)
	p := filepath.Join(dir, "walk.gltf")
	require.NoError(t, writeFileAt(p, doc))
	return p
}

func TestLoadSource(t *testing.T) {
	dir := t.TempDir()
	model := writeTestModel(t, dir)
	require.NoError(t, writeFileAt(sidecarPath(model), `[{"time": 1, "text": "SoundGen: Left"}]`))

	in, err := loadSource(model, "")
	require.NoError(t, err)
	assert.Equal(t, 2, in.Skeleton.Len())
	assert.Len(t, in.Annotations, 3)
	require.Len(t, in.Tracks, 2)
	assert.Equal(t, "Bip01", in.Tracks[0].Bone)
	assert.Equal(t, []clip.TranslationKey{
		{Time: 0, Value: mgl.Vec3{0, 0, 0}},
		{Time: 1, Value: mgl.Vec3{1, 0, 0}},
		{Time: 2, Value: mgl.Vec3{2, 0, 0}},
	}, in.Tracks[0].Translation)
	assert.Equal(t, mgl.QuatIdent(), in.Tracks[1].Rotation[0].Value)

	clips := clip.Build(in, clip.DefaultOptions())
	require.Contains(t, clips, "walk")
	assert.Equal(t, []string{"'SoundGen: Left' @ 1.000"}, clips["walk"].Events)
	assert.Equal(t, clip.MaskLowerBody, clips["walk"].Mask)

	// An explicit text key file replaces the sidecar lookup.
	other := writeFile(t, "keys.json", `[]`)
	in, err = loadSource(model, other)
	require.NoError(t, err)
	assert.Len(t, in.Annotations, 2)
}

func TestLoadSourceErrors(t *testing.T) {
	_, err := loadSource(filepath.Join(t.TempDir(), "none.gltf"), "")
	assert.Error(t, err)

	p := writeFile(t, "bad.gltf", `{"asset": `)
	_, err = loadSource(p, "")
	assert.Error(t, err)
}
