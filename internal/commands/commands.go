package commands

import (
	"errors"
	"flag"
	"fmt"
	"slices"
	"strings"
)

const prefix = "cmd "

var (
	ErrMissingCommand = errors.New("missing subcommand")
	ErrUnknownCommand = errors.New("unknown command")
)

// Command is a subcommand with its own flags and a Run function.
// Flags are defined on FlagSet; Run is called after Parse and can read flag state.
type Command struct {
	Name    string
	FlagSet *flag.FlagSet
	Run     func() error
}

// Registry holds subcommands by name. Add commands with Register; run with Execute.
type Registry struct {
	cmds map[string]*Command
}

// NewRegistry returns an empty command registry.
func NewRegistry() *Registry {
	return &Registry{cmds: make(map[string]*Command)}
}

// Register adds a subcommand. name is the first token after "cmd" (e.g. "spawn").
// fs is that command's FlagSet; run is called after fs.Parse(args[1:]) succeeds.
func (r *Registry) Register(name string, fs *flag.FlagSet, run func() error) {
	r.cmds[name] = &Command{Name: name, FlagSet: fs, Run: run}
}

// Names returns the registered subcommands in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.cmds))
	for name := range r.cmds {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Usage returns a one-line synopsis of a command built from its flags, e.g.
// "step [-dt 0.016666668] [-n 1]".
func (r *Registry) Usage(name string) (string, error) {
	cmd, ok := r.cmds[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}
	var b strings.Builder
	b.WriteString(name)
	cmd.FlagSet.VisitAll(func(f *flag.Flag) {
		if f.DefValue == "false" {
			fmt.Fprintf(&b, " [-%s]", f.Name)
			return
		}
		fmt.Fprintf(&b, " [-%s %s]", f.Name, f.DefValue)
	})
	return b.String(), nil
}

// Parse interprets line as a terminal line. If line starts with "cmd " (case-sensitive),
// the rest is tokenized by spaces and returned with ok true. Otherwise nil, false.
func Parse(line string) (args []string, ok bool) {
	if !strings.HasPrefix(line, prefix) {
		return nil, false
	}
	return Fields(line[len(prefix):]), true
}

// Fields tokenizes a bare command line without the "cmd " prefix. Blank lines and lines
// starting with # yield nil.
func Fields(line string) []string {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return nil
	}
	return strings.Fields(line)
}

// Execute runs the subcommand in args[0] with args[1:] as flag/positional arguments.
// Flags start from their defaults on every call.
func (r *Registry) Execute(args []string) error {
	if len(args) == 0 {
		return ErrMissingCommand
	}
	name := args[0]
	cmd, ok := r.cmds[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}
	cmd.FlagSet.VisitAll(func(f *flag.Flag) {
		_ = f.Value.Set(f.DefValue)
	})
	if err := cmd.FlagSet.Parse(args[1:]); err != nil {
		usage, _ := r.Usage(name)
		return fmt.Errorf("%w (usage: %s)", err, usage)
	}
	return cmd.Run()
}
