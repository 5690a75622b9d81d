package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strconv"

	"github.com/joho/godotenv"
)

var Version = "development"
var BuildTime = "" // Set automatically by the release build

const helpText = `Options (case sensitive):
-h -?                   Help
-config <path>          Loads configuration <path> (.ini or .toml). eg. -config kfclip.ini
-o <path>               Writes clip definitions to <path> instead of stdout
-textkeys <path>        Reads text keys from the JSON file <path>
-script <path>          Runs the Lua script <path> over the clips before export
-writeconfig <path>     Saves the effective configuration to <path> and exits
-version                Prints version information

Environment (also read from .env):
KFCLIP_CONFIG           Default for -config
KFCLIP_OUTPUT           Default for -o`

// Checks if error is not null, if there is an error it is logged and the
// program exits.
func chk(err error) {
	if err != nil {
		sys.errLog.Println(err)
		os.Exit(1)
	}
}

// Extended version of 'chk()'
func chkEX(err error, txt string, crash bool) bool {
	if err != nil {
		sys.errLog.Println(txt + err.Error())
		if crash {
			os.Exit(1)
		}
		return true
	}
	return false
}

func main() {
	// Missing .env is fine, a broken one is reported.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		chkEX(err, "Failed to load .env: ", false)
	}

	sys.cmdFlags = processCommandLine(os.Args[1:])

	if _, ok := sys.cmdFlags["-h"]; ok {
		fmt.Printf("kfclip command line options\n\n%s\n", helpText)
		return
	}
	if _, ok := sys.cmdFlags["-version"]; ok {
		fmt.Printf("Version: %s\nBuild Time: %s\n", Version, BuildTime)
		return
	}

	applyEnvDefaults(sys.cmdFlags)

	// Config file path
	if _, ok := sys.cmdFlags["-config"]; !ok {
		sys.cmdFlags["-config"] = "kfclip.ini"
	}
	cfg, err := loadConfig(sys.cmdFlags["-config"])
	chk(err)
	sys.cfg = *cfg
	if out, ok := sys.cmdFlags["-o"]; ok {
		sys.cfg.SetValueUpdate("Output", "Path", out)
		sys.cfg.normalize()
	}

	if out, ok := sys.cmdFlags["-writeconfig"]; ok {
		chkEX(sys.cfg.Save(out), "Failed to save config: ", true)
		return
	}

	model, ok := sys.cmdFlags["-model"]
	if !ok {
		chk(Error("No model file given, see -h"))
	}
	chk(sys.run(model))
}

// Fills flags missing from the command line with KFCLIP_* variables.
func applyEnvDefaults(flags map[string]string) {
	for flag, env := range map[string]string{
		"-config": "KFCLIP_CONFIG",
		"-o":      "KFCLIP_OUTPUT",
	} {
		if _, ok := flags[flag]; ok {
			continue
		}
		if v, ok := os.LookupEnv(env); ok && len(v) > 0 {
			flags[flag] = v
		}
	}
}

// Loops through given command line arguments and processes them for later use
func processCommandLine(args []string) map[string]string {
	flags := make(map[string]string)
	boolFlags := map[string]bool{
		"-version": true,
	}
	key := ""
	r1, _ := regexp.Compile("^-[h%?]$")
	r2, _ := regexp.Compile("^-")
	for _, a := range args {
		// A number is always a value, even when negative
		_, err := strconv.ParseFloat(a, 64)
		isNumber := err == nil

		if key != "" && (isNumber || !r2.MatchString(a)) {
			flags[key] = a
			key = ""
		} else if r2.MatchString(a) {
			if r1.MatchString(a) {
				flags["-h"] = "true"
				continue
			}
			if _, isBool := boolFlags[a]; isBool {
				flags[a] = "true"
			} else {
				flags[a] = ""
				key = a
			}
		} else if _, ok := flags["-model"]; !ok {
			// First positional argument is the model
			flags["-model"] = a
		}
	}
	// A trailing flag without a value is set to "true"
	if key != "" {
		flags[key] = "true"
	}
	return flags
}
