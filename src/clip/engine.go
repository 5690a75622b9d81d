// Package clip cuts a shared keyframe timeline into named, independently
// playable animation clips.
//
// The input is the decoded content of one asset: timestamped text keys,
// raw per-bone samples and the skeleton. Text keys are tokenized, grouped
// into blocks by clip-defining name and split into loop, attack or plain
// clips. Each clip then receives its gameplay events, retimed bone curves,
// a root-motion velocity, a body-region blend mask and an optional link to
// the clip that follows it.
package clip

import (
	"fmt"
	"io"
	"log"
	"sort"
	"strings"

	mgl "github.com/go-gl/mathgl/mgl32"
	"golang.org/x/text/cases"
)

type Error string

func (e Error) Error() string {
	return string(e)
}

// Input is everything Build needs from one source asset.
type Input struct {
	Annotations []Annotation
	Tracks      []BoneTrack
	Skeleton    *Skeleton
}

type Options struct {
	// Epsilon is the time tolerance used for boundary comparisons.
	Epsilon float32
	// UpAxis is zeroed in root-motion velocities.
	UpAxis   Axis
	RootBone string
	Regions  RegionRoots

	LoopingNames   []string
	WeaponSuffixes []string

	// SkipDegenerate drops clips whose end is not after their start. By
	// default they are kept with empty curves.
	SkipDegenerate bool

	Logger *log.Logger
}

func DefaultOptions() Options {
	return Options{
		Epsilon:  1e-4,
		UpAxis:   AxisZ,
		RootBone: "Bip01",
		Regions: RegionRoots{
			LowerBody: "Bip01 Pelvis",
			Torso:     "Bip01 Spine1",
			LeftArm:   "Bip01 L Clavicle",
			RightArm:  "Bip01 R Clavicle",
		},
		LoopingNames:   append([]string(nil), DefaultLoopingNames...),
		WeaponSuffixes: append([]string(nil), DefaultWeaponSuffixes...),
	}
}

// Validate checks option values that Build cannot recover from.
func (o *Options) Validate() error {
	if o.Epsilon < 0 {
		return Error(fmt.Sprintf("negative epsilon: %v", o.Epsilon))
	}
	if o.UpAxis < AxisX || o.UpAxis > AxisZ {
		return Error(fmt.Sprintf("invalid up axis: %v", o.UpAxis))
	}
	return nil
}

// BoneCurve is the retimed animation of one bone inside a clip.
type BoneCurve struct {
	Bone        string
	Id          BoneId
	Rotation    []RotationKey
	Translation []TranslationKey
}

// Definition is a finished clip as handed to the playback host.
type Definition struct {
	Name  string
	Label string
	// Start and End locate the clip on the source timeline.
	Start    float32
	End      float32
	Duration float32

	Curves       []BoneCurve
	BaseVelocity mgl.Vec3
	Next         string
	Mask         BlendMask
	Events       []string

	MinAttackTimeRelative float32
	MaxAttackTimeRelative float32
	HitTimeRelative       float32
	MinHitTimeRelative    float32
}

// Curve returns the curve of the named bone, if the clip animates it.
func (d *Definition) Curve(bone string) *BoneCurve {
	for i := range d.Curves {
		if strings.EqualFold(d.Curves[i].Bone, bone) {
			return &d.Curves[i]
		}
	}
	return nil
}

// Clips maps final clip names to their definitions.
type Clips map[string]*Definition

// Sorted returns the definitions by start time, then name.
func (c Clips) Sorted() []*Definition {
	out := make([]*Definition, 0, len(c))
	for _, d := range c {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Start != out[j].Start {
			return out[i].Start < out[j].Start
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func (c Clips) Names() []string {
	defs := c.Sorted()
	out := make([]string, len(defs))
	for i, d := range defs {
		out[i] = d.Name
	}
	return out
}

// uniqueNames renames clips whose names collide case-insensitively with an
// earlier clip by appending a counter.
func uniqueNames(clips []ProcessedClip, logf func(string, ...interface{})) {
	fold := cases.Fold()
	seen := map[string]bool{}
	for i := range clips {
		pc := &clips[i]
		key := fold.String(pc.Name)
		if seen[key] {
			n := 2
			for seen[fold.String(fmt.Sprintf("%s_%d", pc.Name, n))] {
				n++
			}
			suffix := fmt.Sprintf("_%d", n)
			logf("Clip name %q already in use, renamed to %q", pc.Name, pc.Name+suffix)
			pc.Name += suffix
			pc.Label += suffix
			key = fold.String(pc.Name)
		}
		seen[key] = true
	}
}

// Build runs the whole segmentation for one asset. It never fails; bad
// input degrades to fewer or simpler clips. An asset without text keys
// yields an empty map.
func Build(in Input, opt Options) Clips {
	logger := opt.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	logf := logger.Printf
	eps := opt.Epsilon

	events := Tokenize(in.Annotations, logf)
	clips := Clips{}
	if len(events) == 0 {
		return clips
	}
	blocks := ResolveBlocks(events, logf)
	for i := range events {
		if len(events[i].Block) == 0 && isStructural(events[i].Command) {
			logf("Text key %q has no clip to belong to", events[i].RawLine)
		}
	}

	var processed []ProcessedClip
	for _, b := range blocks {
		processed = append(processed, Split(b, eps)...)
	}
	uniqueNames(processed, logf)
	sort.SliceStable(processed, func(i, j int) bool {
		if processed[i].Start != processed[j].Start {
			return processed[i].Start < processed[j].Start
		}
		return processed[i].Name < processed[j].Name
	})
	if n := AttachEvents(events, processed, eps); n > 0 {
		logf("%v text key events fall outside every clip", n)
	}

	tracks := MergeTracks(in.Tracks)
	sort.SliceStable(tracks, func(i, j int) bool {
		return tracks[i].Bone < tracks[j].Bone
	})
	ids := make([]BoneId, len(tracks))
	for i := range tracks {
		ids[i] = NoBone
		if id, ok := in.Skeleton.Lookup(tracks[i].Bone); ok {
			ids[i] = id
		}
	}
	rc := newRegionClassifier(in.Skeleton, opt.Regions)

	order := make([]string, 0, len(processed))
	for i := range processed {
		pc := &processed[i]
		if pc.End <= pc.Start {
			if opt.SkipDegenerate {
				logf("Skipping empty clip %q [%v, %v]", pc.Name, pc.Start, pc.End)
				continue
			}
			logf("Clip %q is empty [%v, %v]", pc.Name, pc.Start, pc.End)
		}
		d := newDefinition(pc)
		for j := range tracks {
			bc := BoneCurve{
				Bone:        tracks[j].Bone,
				Id:          ids[j],
				Rotation:    Retime(tracks[j].Rotation, pc.Start, pc.End, eps),
				Translation: Retime(tracks[j].Translation, pc.Start, pc.End, eps),
			}
			if len(bc.Rotation) == 0 && len(bc.Translation) == 0 {
				continue
			}
			d.Curves = append(d.Curves, bc)
			d.Mask |= rc.classify(bc.Id)
		}
		clips[d.Name] = d
		order = append(order, d.Name)
	}

	var root []TranslationKey
	if len(opt.RootBone) > 0 {
		for i := range tracks {
			if strings.EqualFold(tracks[i].Bone, opt.RootBone) {
				root = tracks[i].Translation
				break
			}
		}
		if len(root) == 0 {
			logf("Root bone %q has no translation keys, root motion disabled", opt.RootBone)
		}
	}
	applyRootMotion(clips, order, root, newLoopTable(opt.LoopingNames, opt.WeaponSuffixes), eps, opt.UpAxis)
	linkClips(clips)
	return clips
}

func newDefinition(pc *ProcessedClip) *Definition {
	return &Definition{
		Name:                  pc.Name,
		Label:                 pc.Label,
		Start:                 pc.Start,
		End:                   pc.End,
		Duration:              pc.Duration(),
		Events:                pc.Events,
		MinAttackTimeRelative: pc.MinAttackTimeRelative,
		MaxAttackTimeRelative: pc.MaxAttackTimeRelative,
		HitTimeRelative:       pc.HitTimeRelative,
		MinHitTimeRelative:    pc.MinHitTimeRelative,
	}
}
