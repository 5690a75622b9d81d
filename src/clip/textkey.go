package clip

import (
	"sort"
	"strings"
	"unicode"
)

// Annotation is a timestamped text key as stored in the source timeline.
// Text may hold several newline separated command lines.
type Annotation struct {
	Time float32
	Text string
}

// RawEvent holds one tokenized annotation line.
type RawEvent struct {
	Time    float32
	RawLine string
	Name    string
	Command string
	// Block is the longest clip-defining prefix of Name, filled in by the
	// boundary resolver. Empty for orphan events.
	Block string
}

const (
	cmdStart     = "start"
	cmdStop      = "stop"
	cmdLoopStart = "loop start"
	cmdLoopStop  = "loop stop"
	cmdMinAttack = "min attack"
	cmdMaxAttack = "max attack"
	cmdHit       = "hit"
	cmdMinHit    = "min hit"

	followStart = "follow start"
	followStop  = "follow stop"
)

// Known command phrases. A phrase that ends with another phrase must be
// listed before it.
var commandPhrases = []string{
	"small follow start",
	"small follow stop",
	"medium follow start",
	"medium follow stop",
	"large follow start",
	"large follow stop",
	followStart,
	followStop,
	cmdLoopStart,
	cmdLoopStop,
	cmdMinAttack,
	cmdMaxAttack,
	cmdMinHit,
	cmdHit,
	cmdStart,
	cmdStop,
	"release",
	"attach",
	"land",
	"swim",
}

// ParseTextKey splits a single annotation line into its qualifier name and
// command. The command is lower case, the name keeps the case of the line.
func ParseTextKey(line string) (name, command string, ok bool) {
	t := strings.TrimSpace(line)
	l, off := lowerOffsets(t)
	if len(l) == 0 {
		return "", "", false
	}
	for _, p := range commandPhrases {
		if !strings.HasSuffix(l, p) {
			continue
		}
		cut := len(l) - len(p)
		if cut > 0 && !isSpace(l[cut-1]) {
			continue
		}
		name = strings.TrimSpace(t[:off[cut]])
		name = strings.TrimSpace(strings.TrimSuffix(name, ":"))
		return name, p, true
	}
	i := strings.IndexByte(l, ':')
	if i < 0 {
		return "", "", false
	}
	name = strings.TrimSpace(t[:off[i]])
	command = strings.TrimSpace(l[i+1:])
	if len(command) == 0 {
		return "", "", false
	}
	return name, command, true
}

// lowerOffsets lower-cases s and maps every byte offset of the result, plus
// its end, back to the offset of the rune it came from in s. Lowering can
// change the encoded length of a rune.
func lowerOffsets(s string) (string, []int) {
	var b strings.Builder
	off := make([]int, 0, len(s)+1)
	for i, r := range s {
		n := b.Len()
		b.WriteRune(unicode.ToLower(r))
		for ; n < b.Len(); n++ {
			off = append(off, i)
		}
	}
	return b.String(), append(off, len(s))
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == '\v' || c == '\f'
}

// Tokenize parses every line of every annotation and returns the events
// sorted by time. Events sharing a time keep their input order.
func Tokenize(annotations []Annotation, logf func(format string, v ...interface{})) []RawEvent {
	var events []RawEvent
	for _, a := range annotations {
		for _, line := range strings.Split(a.Text, "\n") {
			line = strings.TrimSpace(line)
			if len(line) == 0 {
				continue
			}
			name, cmd, ok := ParseTextKey(line)
			if !ok {
				if logf != nil {
					logf("Unrecognized text key at %v: %q", a.Time, line)
				}
				continue
			}
			events = append(events, RawEvent{
				Time:    a.Time,
				RawLine: line,
				Name:    name,
				Command: cmd,
			})
		}
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Time < events[j].Time
	})
	return events
}

// isStructural reports whether the command only delimits clips and is not
// a gameplay event.
func isStructural(cmd string) bool {
	switch cmd {
	case cmdStart, cmdStop, cmdLoopStart, cmdLoopStop:
		return true
	}
	return false
}

// followQualifier returns the qualifier of a "<q> follow start" or
// "<q> follow stop" command.
func followQualifier(cmd, suffix string) (string, bool) {
	if cmd == suffix {
		return "", true
	}
	if strings.HasSuffix(cmd, " "+suffix) {
		return strings.TrimSpace(strings.TrimSuffix(cmd, suffix)), true
	}
	return "", false
}
