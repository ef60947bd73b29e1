package command

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"
)

// FlagKind is the value type a flag coerces to.
type FlagKind int

const (
	KindString FlagKind = iota
	KindStringList
	KindBool
	KindInt
	KindFloat
	KindFloatList
	KindUintList
)

var flagKindNames = map[FlagKind]string{
	KindString:     "string",
	KindStringList: "strings",
	KindBool:       "bool",
	KindInt:        "int",
	KindFloat:      "float",
	KindFloatList:  "floats",
	KindUintList:   "uints",
}

// String implements fmt.Stringer.
func (k FlagKind) String() string {
	if name, ok := flagKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("FlagKind(%d)", int(k))
}

// Flag declares one named argument of a command.
type Flag struct {
	// Name is the long flag name, given as --name on the command line.
	Name string

	// Short is an optional one-letter alias.
	Short string

	Kind     FlagKind
	Required bool

	// Default is the textual value used when an optional flag is absent.
	// List defaults are comma-separated.
	Default string

	Usage string
}

// Syntax is the ordered set of flags a command accepts. A command's syntax is
// built once from its argument record and is read-only afterwards.
type Syntax struct {
	flags  []Flag
	byName map[string]int
	shorts map[string]string
}

// NewSyntax returns an empty syntax.
func NewSyntax() *Syntax {
	return &Syntax{
		byName: make(map[string]int),
		shorts: make(map[string]string),
	}
}

// Add declares a flag. Declaring a name or short alias twice is a programming
// error in the record chain and panics.
func (s *Syntax) Add(f Flag) *Syntax {
	if f.Name == "" {
		panic("command: flag name is required")
	}
	if _, dup := s.byName[f.Name]; dup {
		panic(fmt.Sprintf("command: flag %q declared twice", f.Name))
	}
	if f.Short != "" {
		if owner, dup := s.shorts[f.Short]; dup {
			panic(fmt.Sprintf("command: short flag %q of %q already used by %q", f.Short, f.Name, owner))
		}
		s.shorts[f.Short] = f.Name
	}
	s.byName[f.Name] = len(s.flags)
	s.flags = append(s.flags, f)
	return s
}

// Required declares a flag that must be given.
func (s *Syntax) Required(name, short string, kind FlagKind, usage string) *Syntax {
	return s.Add(Flag{Name: name, Short: short, Kind: kind, Required: true, Usage: usage})
}

// Optional declares a flag that falls back to def when absent.
func (s *Syntax) Optional(name, short string, kind FlagKind, def, usage string) *Syntax {
	return s.Add(Flag{Name: name, Short: short, Kind: kind, Default: def, Usage: usage})
}

// Lookup returns the flag declared under name.
func (s *Syntax) Lookup(name string) (Flag, bool) {
	i, ok := s.byName[name]
	if !ok {
		return Flag{}, false
	}
	return s.flags[i], true
}

// Flags returns the declared flags in declaration order.
func (s *Syntax) Flags() []Flag {
	out := make([]Flag, len(s.flags))
	copy(out, s.flags)
	return out
}

// Len returns the number of declared flags.
func (s *Syntax) Len() int {
	return len(s.flags)
}

// FlagSet returns a pflag set accepting exactly the declared flags. Values
// are collected as raw text and coerced later by Args.
func (s *Syntax) FlagSet(command string) *pflag.FlagSet {
	fs, _ := s.flagSet(command)
	return fs
}

func (s *Syntax) flagSet(command string) (*pflag.FlagSet, map[string]*rawValue) {
	fs := pflag.NewFlagSet(command, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.SortFlags = false
	values := make(map[string]*rawValue, len(s.flags))
	for _, f := range s.flags {
		v := &rawValue{kind: f.Kind}
		values[f.Name] = v
		usage := f.Usage
		if f.Required {
			usage += " (required)"
		}
		fs.VarP(v, f.Name, f.Short, usage)
		if f.Kind == KindBool {
			fs.Lookup(f.Name).NoOptDefVal = "true"
		}
		if f.Default != "" {
			fs.Lookup(f.Name).DefValue = f.Default
		}
	}
	return fs, values
}

// Usage renders the flag table of the syntax.
func (s *Syntax) Usage(command string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Usage: %s [flags]\n", command)
	if len(s.flags) == 0 {
		return b.String()
	}
	b.WriteString("\nFlags:\n")
	b.WriteString(s.FlagSet(command).FlagUsages())
	return b.String()
}

// rawValue collects every occurrence of a flag without interpreting it.
type rawValue struct {
	kind   FlagKind
	values []string
}

func (v *rawValue) String() string {
	return strings.Join(v.values, ",")
}

func (v *rawValue) Set(s string) error {
	v.values = append(v.values, s)
	return nil
}

func (v *rawValue) Type() string {
	return v.kind.String()
}

func (v *rawValue) set() bool {
	return len(v.values) > 0
}
