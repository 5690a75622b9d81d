package main

import (
	"log"
	"os"

	"github.com/ikemen-engine/kfclip/src/clip"
	lua "github.com/yuin/gopher-lua"
)

// sys
// The only instance of a System struct.
// Do not create more than 1.
var sys = System{
	errLog: log.New(NewLogWriter(), "", log.LstdFlags),
}

// System struct, holds the state of one tool invocation.
type System struct {
	cmdFlags  map[string]string
	cfg       Config
	errLog    *log.Logger
	luaLState *lua.LState
	clips     clip.Clips
}

// Loads the model, cuts it into clips, runs the optional script and writes
// the definitions.
func (s *System) run(model string) error {
	in, err := loadSource(model, s.cmdFlags["-textkeys"])
	if err != nil {
		return err
	}
	if len(in.Annotations) == 0 {
		s.errLog.Printf("Warning: %v has no text keys, no clips defined", model)
	}

	opt := s.cfg.options(s.errLog)
	if err := opt.Validate(); err != nil {
		return err
	}
	s.clips = clip.Build(in, opt)
	s.errLog.Printf("%v: %d bones, %d clips", model, in.Skeleton.Len(), len(s.clips))

	if script := s.cmdFlags["-script"]; len(script) > 0 {
		s.luaLState = newScriptState(s.clips, s.errLog)
		defer func() {
			s.luaLState.Close()
			s.luaLState = nil
		}()
		if err := runScript(s.luaLState, script); err != nil {
			return err
		}
	}

	data, err := exportClips(s.clips, s.cfg.Output.Indent)
	if err != nil {
		return err
	}
	return writeOutput(s.cfg.Output.Path, data)
}

// Writes data to path, or to stdout when path is empty.
func writeOutput(path string, data []byte) error {
	if len(path) == 0 {
		_, err := os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
