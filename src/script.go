package main

import (
	"fmt"
	"log"
	"reflect"

	"github.com/ikemen-engine/kfclip/src/clip"
	lua "github.com/yuin/gopher-lua"
)

// Data handlers
func luaRegister(l *lua.LState, name string, f func(*lua.LState) int) {
	l.Register(name, f)
}
func nilArg(l *lua.LState, argi int) bool {
	lv := l.Get(argi)
	return lua.LVIsFalse(lv) && lv != lua.LFalse
}
func strArg(l *lua.LState, argi int) string {
	if !lua.LVCanConvToString(l.Get(argi)) {
		l.RaiseError("\nArgument %v is not a string: %v\n", argi, l.Get(argi))
	}
	return l.ToString(argi)
}

// Table view of a clip handed to scripts.
type clipInfo struct {
	Name      string               `lua:"name"`
	Label     string               `lua:"label"`
	Start     float32              `lua:"start"`
	End       float32              `lua:"end"`
	Duration  float32              `lua:"duration"`
	Next      string               `lua:"next"`
	Mask      int                  `lua:"mask"`
	Regions   []string             `lua:"regions"`
	Velocity  []float32            `lua:"velocity"`
	Events    []string             `lua:"events"`
	Bones     []string             `lua:"bones"`
	Curves    map[string]curveInfo `lua:"curves"`
	MinAttack float32              `lua:"minAttack"`
	MaxAttack float32              `lua:"maxAttack"`
	Hit       float32              `lua:"hit"`
	MinHit    float32              `lua:"minHit"`
}

// Key counts of one bone curve.
type curveInfo struct {
	Rotation    int `lua:"rotationKeys"`
	Translation int `lua:"translationKeys"`
}

func newClipInfo(d *clip.Definition) clipInfo {
	ci := clipInfo{
		Name:      d.Name,
		Label:     d.Label,
		Start:     d.Start,
		End:       d.End,
		Duration:  d.Duration,
		Next:      d.Next,
		Mask:      int(d.Mask),
		Regions:   d.Mask.Regions(),
		Velocity:  d.BaseVelocity[:],
		Events:    d.Events,
		Curves:    make(map[string]curveInfo, len(d.Curves)),
		MinAttack: d.MinAttackTimeRelative,
		MaxAttack: d.MaxAttackTimeRelative,
		Hit:       d.HitTimeRelative,
		MinHit:    d.MinHitTimeRelative,
	}
	for _, c := range d.Curves {
		ci.Bones = append(ci.Bones, c.Bone)
		ci.Curves[c.Bone] = curveInfo{Rotation: len(c.Rotation), Translation: len(c.Translation)}
	}
	return ci
}

// Converts Go values to Lua. Structs become tables keyed by their lua tag,
// maps become tables keyed by the printed key, slices become sequences.
func toLValue(l *lua.LState, v interface{}) lua.LValue {
	rv := reflect.Indirect(reflect.ValueOf(v))
	switch rv.Kind() {
	case reflect.Invalid:
		return lua.LNil
	case reflect.Struct:
		t := l.NewTable()
		rt := rv.Type()
		for i := 0; i < rt.NumField(); i++ {
			f := rt.Field(i)
			if !f.IsExported() {
				continue
			}
			key := f.Tag.Get("lua")
			if key == "-" {
				continue
			} else if key == "" {
				key = f.Name
			}
			t.RawSetString(key, toLValue(l, rv.Field(i).Interface()))
		}
		return t
	case reflect.Map:
		t := l.NewTable()
		iter := rv.MapRange()
		for iter.Next() {
			t.RawSetString(fmt.Sprint(iter.Key().Interface()), toLValue(l, iter.Value().Interface()))
		}
		return t
	case reflect.Array, reflect.Slice:
		t := l.CreateTable(rv.Len(), 0)
		for i := 0; i < rv.Len(); i++ {
			t.Append(toLValue(l, rv.Index(i).Interface()))
		}
		return t
	case reflect.String:
		return lua.LString(rv.String())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return lua.LNumber(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return lua.LNumber(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return lua.LNumber(rv.Float())
	case reflect.Bool:
		return lua.LBool(rv.Bool())
	}
	return lua.LNil
}

// Creates a Lua state with the clip functions registered. Mutations made by
// the script apply to clips directly.
func newScriptState(clips clip.Clips, logger *log.Logger) *lua.LState {
	l := lua.NewState()
	clipArg := func(l *lua.LState, argi int) *clip.Definition {
		name := strArg(l, argi)
		d, ok := clips[name]
		if !ok {
			l.RaiseError("\nClip does not exist: %v\n", name)
		}
		return d
	}
	luaRegister(l, "clipNames", func(l *lua.LState) int {
		l.Push(toLValue(l, clips.Names()))
		return 1
	})
	luaRegister(l, "clipExists", func(l *lua.LState) int {
		_, ok := clips[strArg(l, 1)]
		l.Push(lua.LBool(ok))
		return 1
	})
	luaRegister(l, "clipInfo", func(l *lua.LState) int {
		l.Push(toLValue(l, newClipInfo(clipArg(l, 1))))
		return 1
	})
	luaRegister(l, "clipDuration", func(l *lua.LState) int {
		l.Push(lua.LNumber(clipArg(l, 1).Duration))
		return 1
	})
	luaRegister(l, "clipNext", func(l *lua.LState) int {
		if next := clipArg(l, 1).Next; len(next) > 0 {
			l.Push(lua.LString(next))
		} else {
			l.Push(lua.LNil)
		}
		return 1
	})
	luaRegister(l, "clipMask", func(l *lua.LState) int {
		l.Push(lua.LNumber(clipArg(l, 1).Mask))
		return 1
	})
	luaRegister(l, "clipDrives", func(l *lua.LState) int {
		d := clipArg(l, 1)
		r, ok := clip.ParseRegion(strArg(l, 2))
		if !ok {
			l.RaiseError("\nInvalid region: %v\n", l.ToString(2))
		}
		l.Push(lua.LBool(d.Mask.Has(r)))
		return 1
	})
	luaRegister(l, "clipVelocity", func(l *lua.LState) int {
		v := clipArg(l, 1).BaseVelocity
		l.Push(lua.LNumber(v[0]))
		l.Push(lua.LNumber(v[1]))
		l.Push(lua.LNumber(v[2]))
		return 3
	})
	luaRegister(l, "clipEvents", func(l *lua.LState) int {
		l.Push(toLValue(l, clipArg(l, 1).Events))
		return 1
	})
	luaRegister(l, "setNext", func(l *lua.LState) int {
		d := clipArg(l, 1)
		if nilArg(l, 2) {
			d.Next = ""
			return 0
		}
		d.Next = clipArg(l, 2).Name
		return 0
	})
	luaRegister(l, "dropClip", func(l *lua.LState) int {
		name := clipArg(l, 1).Name
		delete(clips, name)
		for _, d := range clips {
			if d.Next == name {
				d.Next = ""
			}
		}
		return 0
	})
	luaRegister(l, "log", func(l *lua.LState) int {
		logger.Println(strArg(l, 1))
		return 0
	})
	return l
}

func runScript(l *lua.LState, file string) error {
	if len(FileExist(file)) == 0 {
		return Error("Script file \"" + file + "\" not found")
	}
	if err := l.DoFile(file); err != nil {
		return fmt.Errorf("script %v: %w", file, err)
	}
	return nil
}
