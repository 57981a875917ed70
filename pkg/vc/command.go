package vc

import (
	"math"
	"strconv"
)

// Verb is the leading letter of a command line.
type Verb byte

// Verbs. M and L are the same operation in different protocol
// variants; only Variant.CeilingVerb is accepted.
const (
	VerbTimeout     Verb = 'D'
	VerbInfo        Verb = 'I'
	VerbLimit       Verb = 'L'
	VerbMaxThrottle Verb = 'M'
	VerbReset       Verb = 'R'
	VerbSteer       Verb = 'S'
	VerbThrottle    Verb = 'T'
)

// String implements fmt.Stringer.
func (v Verb) String() string {
	if v < 0x20 || v >= 0x80 {
		return "0x" + strconv.FormatUint(uint64(v), 16)
	}
	return string(rune(v))
}

// Result is the outcome of a command. The numeric value is the code
// sent in error replies.
type Result int

// Results.
const (
	ResultOK Result = iota
	ResultInvalidCommand
	ResultInvalidParam
	ResultInvalidState
)

var resultNames = [...]string{
	ResultOK:             "ok",
	ResultInvalidCommand: "invalid_command",
	ResultInvalidParam:   "invalid_param",
	ResultInvalidState:   "invalid_state",
}

// String implements fmt.Stringer.
func (r Result) String() string {
	if r >= 0 && int(r) < len(resultNames) {
		return resultNames[r]
	}
	return "result_" + strconv.Itoa(int(r))
}

// AppendReply appends the wire reply, "OK" or "E<code>" followed by
// terminator.
func (r Result) AppendReply(b []byte, terminator byte) []byte {
	if r == ResultOK {
		b = append(b, 'O', 'K')
	} else {
		b = append(b, 'E')
		b = strconv.AppendInt(b, int64(r), 10)
	}
	return append(b, terminator)
}

// Command is a parsed command line.
type Command struct {
	Verb Verb
	Arg  []byte
}

// ParseCommand splits a line into verb and argument.
// It returns false for an empty line.
func ParseCommand(line []byte) (Command, bool) {
	if len(line) == 0 {
		return Command{}, false
	}
	return Command{Verb: Verb(line[0]), Arg: line[1:]}, true
}

// String implements fmt.Stringer.
func (c Command) String() string {
	return c.Verb.String() + string(c.Arg)
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func startsWithDigit(arg []byte) bool {
	return len(arg) > 0 && isDigit(arg[0])
}

// parseUnsigned parses the leading digits of arg, saturating at
// math.MaxUint32. Anything after the digits is ignored.
func parseUnsigned(arg []byte) (uint32, bool) {
	if !startsWithDigit(arg) {
		return 0, false
	}
	var v uint64
	for _, b := range arg {
		if !isDigit(b) {
			break
		}
		if v = v*10 + uint64(b-'0'); v > math.MaxUint32 {
			return math.MaxUint32, true
		}
	}
	return uint32(v), true
}

// parseMagnitude parses the numeric prefix of arg which must start
// with a digit: digits, an optional fraction and an optional exponent.
// Anything after the prefix is ignored, so "1x2" is 1.
func parseMagnitude(arg []byte) (float64, bool) {
	if !startsWithDigit(arg) {
		return 0, false
	}
	end := scanDigits(arg, 0)
	if end < len(arg) && arg[end] == '.' {
		end = scanDigits(arg, end+1)
	}
	if end < len(arg) && (arg[end] == 'e' || arg[end] == 'E') {
		exp := end + 1
		if exp < len(arg) && (arg[exp] == '+' || arg[exp] == '-') {
			exp++
		}
		if expEnd := scanDigits(arg, exp); expEnd > exp {
			end = expEnd
		}
	}
	// the prefix is always well-formed; overflow yields +Inf which
	// fails every range check.
	v, _ := strconv.ParseFloat(string(arg[:end]), 64)
	return v, true
}

// parseSigned is parseMagnitude with an optional leading '-'.
func parseSigned(arg []byte) (neg bool, mag float64, ok bool) {
	if len(arg) > 0 && arg[0] == '-' {
		neg, arg = true, arg[1:]
	}
	mag, ok = parseMagnitude(arg)
	return
}

func scanDigits(b []byte, from int) int {
	for from < len(b) && isDigit(b[from]) {
		from++
	}
	return from
}
