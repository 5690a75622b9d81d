package main

import (
	"io"
	"os"
	"path/filepath"
	"strings"
)

type Error string

func (e Error) Error() string { return string(e) }

// Log writer implementation
func NewLogWriter() io.Writer {
	return os.Stderr
}

// FileExist returns the path if it names a regular file, otherwise "".
func FileExist(filename string) string {
	if len(filename) == 0 {
		return ""
	}
	if info, err := os.Stat(filename); err == nil && !info.IsDir() {
		return filename
	}
	return ""
}

// Splits a comma separated list, dropping blanks.
func SplitAndTrim(str, sep string) (ss []string) {
	for _, s := range strings.Split(str, sep) {
		if s = strings.TrimSpace(s); len(s) > 0 {
			ss = append(ss, s)
		}
	}
	return
}

// Path of the text key file stored next to a model: walk.glb -> walk.textkeys.json
func sidecarPath(model string) string {
	return strings.TrimSuffix(model, filepath.Ext(model)) + ".textkeys.json"
}
