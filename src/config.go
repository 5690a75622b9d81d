package main

import (
	_ "embed" // Support for go:embed resources
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/ikemen-engine/kfclip/src/clip"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/ini.v1"
)

//go:embed resources/defaultConfig.ini
var defaultConfig []byte

type RegionProperties struct {
	LowerBody string `ini:"LowerBody" toml:"LowerBody"`
	Torso     string `ini:"Torso" toml:"Torso"`
	LeftArm   string `ini:"LeftArm" toml:"LeftArm"`
	RightArm  string `ini:"RightArm" toml:"RightArm"`
}

// Config represents the tool configuration.
type Config struct {
	Def     string    `ini:"-" toml:"-"`
	IniFile *ini.File `ini:"-" toml:"-"`
	Engine  struct {
		Epsilon        float32 `ini:"Epsilon" toml:"Epsilon"`
		UpAxis         string  `ini:"UpAxis" toml:"UpAxis"`
		RootBone       string  `ini:"RootBone" toml:"RootBone"`
		SkipDegenerate bool    `ini:"SkipDegenerate" toml:"SkipDegenerate"`
	} `ini:"Engine" toml:"Engine"`
	Regions RegionProperties `ini:"Regions" toml:"Regions"`
	Looping struct {
		Names          string `ini:"Names" toml:"Names"`
		WeaponSuffixes string `ini:"WeaponSuffixes" toml:"WeaponSuffixes"`
	} `ini:"Looping" toml:"Looping"`
	Output struct {
		Path   string `ini:"Path" toml:"Path"`
		Indent bool   `ini:"Indent" toml:"Indent"`
	} `ini:"Output" toml:"Output"`
}

var axisNames = map[string]clip.Axis{
	"x": clip.AxisX,
	"y": clip.AxisY,
	"z": clip.AxisZ,
}

// Loads the embedded defaults and layers the file at def on top. A .toml
// file is decoded over the defaults instead of being merged as INI.
func loadConfig(def string) (*Config, error) {
	options := ini.LoadOptions{
		Insensitive:             false,
		IgnoreInlineComment:     false,
		SkipUnrecognizableLines: true,
		AllowShadows:            false,
	}

	isToml := strings.EqualFold(filepath.Ext(def), ".toml")

	var iniFile *ini.File
	var err error
	if fp := FileExist(def); len(fp) == 0 || isToml {
		iniFile, err = ini.LoadSources(options, defaultConfig)
	} else {
		iniFile, err = ini.LoadSources(options, defaultConfig, fp)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config %v: %w", def, err)
	}

	var c Config
	if err := iniFile.MapTo(&c); err != nil {
		return nil, fmt.Errorf("failed to map config %v: %w", def, err)
	}
	if fp := FileExist(def); len(fp) > 0 && isToml {
		data, err := os.ReadFile(fp)
		if err != nil {
			return nil, fmt.Errorf("failed to read config %v: %w", def, err)
		}
		if err := toml.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("failed to decode config %v: %w", def, err)
		}
		// Keep IniFile in step so Save writes what was decoded.
		if err := iniFile.ReflectFrom(&c); err != nil {
			return nil, fmt.Errorf("failed to map config %v: %w", def, err)
		}
	}
	c.Def = def
	c.IniFile = iniFile
	c.normalize()
	return &c, nil
}

// Normalize values
func (c *Config) normalize() {
	if c.Engine.Epsilon <= 0 {
		c.SetValueUpdate("Engine", "Epsilon", float32(1e-4))
	} else if c.Engine.Epsilon > 0.1 {
		c.SetValueUpdate("Engine", "Epsilon", float32(0.1))
	}

	axis := strings.ToLower(strings.TrimSpace(c.Engine.UpAxis))
	if _, ok := axisNames[axis]; !ok {
		if sys.errLog != nil {
			sys.errLog.Printf("Warning: invalid UpAxis %q, using z", c.Engine.UpAxis)
		}
		axis = "z"
	}
	if axis != c.Engine.UpAxis {
		c.SetValueUpdate("Engine", "UpAxis", axis)
	}

	if root := strings.TrimSpace(c.Engine.RootBone); root != c.Engine.RootBone {
		c.SetValueUpdate("Engine", "RootBone", root)
	}

	path := strings.TrimSpace(c.Output.Path)
	if path == "-" {
		path = ""
	}
	if path != c.Output.Path {
		c.SetValueUpdate("Output", "Path", path)
	}
}

// SetValueUpdate sets a field of the struct and mirrors it into the IniFile.
func (c *Config) SetValueUpdate(section, key string, value interface{}) {
	switch section + "." + key {
	case "Engine.Epsilon":
		c.Engine.Epsilon = value.(float32)
	case "Engine.UpAxis":
		c.Engine.UpAxis = value.(string)
	case "Engine.RootBone":
		c.Engine.RootBone = value.(string)
	case "Output.Path":
		c.Output.Path = value.(string)
	default:
		return
	}
	if c.IniFile != nil {
		c.IniFile.Section(section).Key(key).SetValue(fmt.Sprint(value))
	}
}

// Save writes the current IniFile to disk, preserving comments and syntax.
func (c *Config) Save(file string) error {
	if c.IniFile == nil {
		return Error("config has no ini source")
	}
	return c.IniFile.SaveTo(file)
}

// Converts the configuration into engine options.
func (c *Config) options(logger *log.Logger) clip.Options {
	opt := clip.DefaultOptions()
	opt.Epsilon = c.Engine.Epsilon
	opt.UpAxis = axisNames[c.Engine.UpAxis]
	opt.RootBone = c.Engine.RootBone
	opt.SkipDegenerate = c.Engine.SkipDegenerate
	opt.Regions = clip.RegionRoots{
		LowerBody: strings.TrimSpace(c.Regions.LowerBody),
		Torso:     strings.TrimSpace(c.Regions.Torso),
		LeftArm:   strings.TrimSpace(c.Regions.LeftArm),
		RightArm:  strings.TrimSpace(c.Regions.RightArm),
	}
	if names := SplitAndTrim(c.Looping.Names, ","); len(names) > 0 {
		opt.LoopingNames = names
	}
	if suffixes := SplitAndTrim(c.Looping.WeaponSuffixes, ","); len(suffixes) > 0 {
		opt.WeaponSuffixes = suffixes
	}
	opt.Logger = logger
	return opt
}
