// Package command holds the named local commands a user can invoke from the
// input line and the registry used to look them up.
package command

import (
	"context"
	"errors"
)

// Names of the built-in commands.
const (
	NameNames  = "names"
	NameJoin   = "join"
	NameSwitch = "swch"
)

var (
	ErrDuplicate = errors.New("duplicate command")
	ErrEmptyName = errors.New("command name is empty")
)

// State is the slice of session state a command may touch.
type State interface {
	CurrentChannel() (string, bool)
	SetCurrentChannel(name string)
	Println(text string)
}

// Invocation describes one dispatched command line.
type Invocation struct {
	Name  string
	Args  string
	State State
}

// Action performs the effect of a command.
type Action func(ctx context.Context, inv Invocation) error

// Descriptor is a named, dispatchable command.
type Descriptor interface {
	Name() string
	Dispatch(ctx context.Context, inv Invocation) error
}

type descriptor struct {
	name   string
	action Action
}

// New returns a descriptor named name that runs action on dispatch.
// A nil action makes dispatch a no-op.
func New(name string, action Action) Descriptor {
	return &descriptor{name: name, action: action}
}

func (d *descriptor) Name() string { return d.name }

func (d *descriptor) Dispatch(ctx context.Context, inv Invocation) error {
	if d.action == nil {
		return nil
	}
	return d.action(ctx, inv)
}

// Builtins returns the names, join and swch descriptors in that order, each
// bound to the matching entry of actions.
func Builtins(actions map[string]Action) []Descriptor {
	names := []string{NameNames, NameJoin, NameSwitch}
	descs := make([]Descriptor, 0, len(names))
	for _, name := range names {
		descs = append(descs, New(name, actions[name]))
	}
	return descs
}
