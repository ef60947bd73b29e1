package command

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
)

// Args is a parsed invocation. Getters coerce raw flag text to typed values
// and report failures as ArgumentError values naming the flag.
type Args struct {
	command string
	syntax  *Syntax
	values  map[string]*rawValue
	rest    []string
}

// ParseArgs parses raw against the syntax of command. Unknown flags and
// malformed command lines are ArgumentErrors; values are not coerced yet.
func ParseArgs(command string, syntax *Syntax, raw []string) (*Args, error) {
	fs, values := syntax.flagSet(command)
	if err := fs.Parse(raw); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			err = errors.New("help requested")
		}
		return nil, &ArgumentError{Command: command, Reason: ReasonUnknown, Err: err}
	}
	return &Args{
		command: command,
		syntax:  syntax,
		values:  values,
		rest:    fs.Args(),
	}, nil
}

// Command returns the name of the command being parsed.
func (a *Args) Command() string {
	return a.command
}

// Positionals returns the arguments left after flag parsing.
func (a *Args) Positionals() []string {
	return a.rest
}

// Has reports whether the flag was given on the command line.
func (a *Args) Has(name string) bool {
	v, ok := a.values[name]
	return ok && v.set()
}

// Invalid returns an ArgumentError for a value the caller found unusable.
func (a *Args) Invalid(flag string, err error) error {
	return Invalid(a.command, flag, err)
}

// Unresolved returns an ArgumentError for a value naming a missing object.
func (a *Args) Unresolved(flag string, err error) error {
	return Unresolved(a.command, flag, err)
}

// Mismatch returns an ArgumentError for flags whose values disagree, such as
// lists of different lengths.
func (a *Args) Mismatch(flag string, err error) error {
	return &ArgumentError{Command: a.command, Flag: flag, Reason: ReasonMismatch, Err: err}
}

// raw returns the textual values of a flag, falling back to its default.
// A flag that was not declared for this command is a record bug and is
// reported as a contract violation.
func (a *Args) raw(name string, kind FlagKind) ([]string, error) {
	f, ok := a.syntax.Lookup(name)
	if !ok {
		return nil, &ContractError{Command: a.command, Call: "extract", State: StateValidating, Err: fmt.Errorf("flag %q not declared", name)}
	}
	if f.Kind != kind {
		return nil, &ContractError{Command: a.command, Call: "extract", State: StateValidating, Err: fmt.Errorf("flag %q is %s, read as %s", name, f.Kind, kind)}
	}
	if v := a.values[name]; v.set() {
		return v.values, nil
	}
	if f.Required {
		return nil, Missing(a.command, name)
	}
	if f.Default == "" {
		return nil, nil
	}
	return []string{f.Default}, nil
}

// String returns the last value given for a string flag.
func (a *Args) String(name string) (string, error) {
	vals, err := a.raw(name, KindString)
	if err != nil || len(vals) == 0 {
		return "", err
	}
	return vals[len(vals)-1], nil
}

// StringList returns every value of a list flag. Values may be repeated or
// comma-separated; blanks are dropped.
func (a *Args) StringList(name string) ([]string, error) {
	vals, err := a.raw(name, KindStringList)
	if err != nil {
		return nil, err
	}
	return splitList(vals), nil
}

// Bool returns the value of a boolean flag.
func (a *Args) Bool(name string) (bool, error) {
	vals, err := a.raw(name, KindBool)
	if err != nil || len(vals) == 0 {
		return false, err
	}
	b, err := strconv.ParseBool(vals[len(vals)-1])
	if err != nil {
		return false, Invalid(a.command, name, err)
	}
	return b, nil
}

// Int returns the value of an integer flag.
func (a *Args) Int(name string) (int, error) {
	vals, err := a.raw(name, KindInt)
	if err != nil || len(vals) == 0 {
		return 0, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(vals[len(vals)-1]))
	if err != nil {
		return 0, Invalid(a.command, name, err)
	}
	return n, nil
}

// Float returns the value of a floating point flag.
func (a *Args) Float(name string) (float64, error) {
	vals, err := a.raw(name, KindFloat)
	if err != nil || len(vals) == 0 {
		return 0, err
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(vals[len(vals)-1]), 64)
	if err != nil {
		return 0, Invalid(a.command, name, err)
	}
	return f, nil
}

// FloatList returns the values of a float list flag.
func (a *Args) FloatList(name string) ([]float64, error) {
	vals, err := a.raw(name, KindFloatList)
	if err != nil {
		return nil, err
	}
	items := splitList(vals)
	out := make([]float64, len(items))
	for i, s := range items {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, Invalid(a.command, name, err)
		}
		out[i] = f
	}
	return out, nil
}

// UintList returns the values of an unsigned index list flag.
func (a *Args) UintList(name string) ([]uint, error) {
	vals, err := a.raw(name, KindUintList)
	if err != nil {
		return nil, err
	}
	items := splitList(vals)
	out := make([]uint, len(items))
	for i, s := range items {
		n, err := strconv.ParseUint(s, 10, 0)
		if err != nil {
			return nil, Invalid(a.command, name, err)
		}
		out[i] = uint(n)
	}
	return out, nil
}

// Pair returns two float flags read together, such as a position or a size.
func (a *Args) Pair(first, second string) (float64, float64, error) {
	x, err := a.Float(first)
	if err != nil {
		return 0, 0, err
	}
	y, err := a.Float(second)
	if err != nil {
		return 0, 0, err
	}
	return x, y, nil
}

func splitList(vals []string) []string {
	var out []string
	for _, v := range vals {
		for _, item := range strings.Split(v, ",") {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
	}
	return out
}
