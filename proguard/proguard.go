// Package proguard generates keep rules for and runs `proguard`, or any
// shrinker that accepts its arguments such as R8 in compatibility mode.
package proguard

import (
	"context"
	"io"
	"os/exec"
)

// Run finds `proguard` on the PATH and runs Run against it.
// See Command.Run.
func Run(ctx context.Context, opts *RunOpts, args ...string) error {
	return Command("proguard").Run(ctx, opts, args...)
}

// Command represents the path to a `proguard` executable.
type Command string

func (c Command) String() string {
	return string(c)
}

// RunOpts represent where the output of `proguard` goes.
type RunOpts struct {
	Stdout io.Writer
	Stderr io.Writer
}

// Args returns args followed by rules, the argument vector to hand to
// Command.Run. args is not modified.
func Args(args []string, rules []string) []string {
	return append(append(make([]string, 0, len(args)+len(rules)), args...), rules...)
}

// Run executes `proguard` found at Command with args.
func (c Command) Run(ctx context.Context, opts *RunOpts, args ...string) error {
	//nolint:gosec
	cmd := exec.CommandContext(ctx, c.String(), args...)

	if opts != nil {
		cmd.Stdout = opts.Stdout
		cmd.Stderr = opts.Stderr
	}

	return cmd.Run()
}
