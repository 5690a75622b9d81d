package main

import (
	"testing"

	mgl "github.com/go-gl/mathgl/mgl32"
	"github.com/ikemen-engine/kfclip/src/clip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func walkClips() clip.Clips {
	skel := clip.NewSkeleton()
	root := skel.AddBone("Bip01", clip.NoBone)
	skel.AddBone("Bip01 Pelvis", root)
	return clip.Build(clip.Input{
		Annotations: []clip.Annotation{
			{Time: 0.1, Text: "Walk: Start"},
			{Time: 0.5, Text: "SoundGen: Left"},
			{Time: 1.1, Text: "Walk: Loop Start"},
			{Time: 3.1, Text: "Walk: Loop Stop"},
			{Time: 4.1, Text: "Walk: Stop"},
		},
		Tracks: []clip.BoneTrack{
			{
				Bone: "Bip01",
				Translation: []clip.TranslationKey{
					{Time: 0, Value: mgl.Vec3{0, 0, 0}},
					{Time: 5, Value: mgl.Vec3{5, 0, 0}},
				},
			},
			{
				Bone:     "Bip01 Pelvis",
				Rotation: []clip.RotationKey{{Time: 0, Value: mgl.QuatIdent()}},
			},
		},
		Skeleton: skel,
	}, clip.DefaultOptions())
}

func TestExportClips(t *testing.T) {
	data, err := exportClips(walkClips(), false)
	require.NoError(t, err)
	require.True(t, gjson.ValidBytes(data))

	doc := gjson.ParseBytes(data)
	names := []string{}
	doc.Get("clips").ForEach(func(k, _ gjson.Result) bool {
		names = append(names, k.Str)
		return true
	})
	assert.Equal(t, []string{"walk", "walk_loop", "walk_outro"}, names)

	walk := doc.Get("clips.walk")
	assert.Equal(t, "Walk", walk.Get("label").Str)
	assert.Equal(t, 0.1, walk.Get("start").Float())
	assert.Equal(t, 1.1, walk.Get("end").Float())
	assert.Equal(t, "walk_loop", walk.Get("next").Str)
	assert.Equal(t, int64(clip.MaskLowerBody), walk.Get("mask").Int())
	assert.Equal(t, `["lowerbody"]`, walk.Get("maskRegions").Raw)
	assert.Equal(t, `["'SoundGen: Left' @ 0.500"]`, walk.Get("events").Raw)
	assert.InDelta(t, 1.0, walk.Get("velocity.0").Float(), 1e-5)
	assert.Equal(t, int64(3), walk.Get("velocity.#").Int())
	assert.Equal(t, int64(2), walk.Get("bones.Bip01.translation.#").Int())
	assert.Equal(t, `[]`, walk.Get("bones.Bip01.rotation").Raw)
	assert.Equal(t, `[0,0,0,0,1]`, walk.Get(`bones.Bip01 Pelvis.rotation.0`).Raw)

	loop := doc.Get("clips.walk_loop")
	assert.Equal(t, "", loop.Get("next").Str)
	assert.True(t, loop.Get("next").Exists())
	assert.Equal(t, `[]`, loop.Get("events").Raw)
	assert.Equal(t, 0.0, loop.Get("hit").Float())
}

func TestExportEscapesNames(t *testing.T) {
	clips := clip.Build(clip.Input{Annotations: []clip.Annotation{
		{Time: 0, Text: "1: Start"},
		{Time: 1, Text: "1: Stop"},
		{Time: 2, Text: "Odd.Name*: Start"},
		{Time: 3, Text: "Odd.Name*: Stop"},
	}}, clip.DefaultOptions())
	require.Len(t, clips, 2)

	data, err := exportClips(clips, false)
	require.NoError(t, err)
	doc := gjson.ParseBytes(data)
	assert.True(t, doc.Get("clips").IsObject())
	assert.Equal(t, "1", doc.Get("clips.1.label").Str)
	assert.Equal(t, "Odd.Name*", doc.Get("clips."+gjson.Escape("odd.name*")+".label").Str)
}

func TestExportPretty(t *testing.T) {
	flat, err := exportClips(walkClips(), false)
	require.NoError(t, err)
	pretty, err := exportClips(walkClips(), true)
	require.NoError(t, err)
	assert.Contains(t, string(pretty), "\n  \"clips\": {")
	assert.Equal(t, string(flat), gjson.GetBytes(pretty, "@ugly").Raw)
}

func TestExportEmpty(t *testing.T) {
	data, err := exportClips(clip.Clips{}, false)
	require.NoError(t, err)
	assert.JSONEq(t, `{"clips":{}}`, string(data))
}

func TestF64(t *testing.T) {
	assert.Equal(t, 0.1, f64(0.1))
	assert.Equal(t, 2.5, f64(2.5))
}
