package wirechat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/vovakirdan/wirechat-cli/internal/command"
)

var errMissingRoom = errors.New("room name required")

// Actions binds the built-in commands to c.
func Actions(c *Conn) map[string]command.Action {
	return map[string]command.Action{
		command.NameJoin:   c.joinAction,
		command.NameSwitch: c.switchAction,
		command.NameNames:  c.namesAction,
	}
}

func (c *Conn) joinAction(ctx context.Context, inv command.Invocation) error {
	room := strings.TrimSpace(inv.Args)
	if room == "" {
		return errMissingRoom
	}
	if err := c.Join(ctx, room); err != nil {
		return err
	}
	inv.State.SetCurrentChannel(room)
	inv.State.Println("joined " + room)
	return nil
}

func (c *Conn) switchAction(_ context.Context, inv command.Invocation) error {
	room := strings.TrimSpace(inv.Args)
	if room == "" {
		return errMissingRoom
	}
	if err := c.Switch(room); err != nil {
		return err
	}
	inv.State.SetCurrentChannel(room)
	inv.State.Println("now talking in " + room)
	return nil
}

func (c *Conn) namesAction(_ context.Context, inv command.Invocation) error {
	room := strings.TrimSpace(inv.Args)
	if room == "" {
		if ch, ok := inv.State.CurrentChannel(); ok {
			room = ch
		} else {
			room = c.Room()
		}
	}
	if room == "" {
		return ErrNoRoom
	}

	members := c.roster.Members(room)
	if len(members) == 0 {
		inv.State.Println(fmt.Sprintf("[%s] nobody seen yet", room))
		return nil
	}
	inv.State.Println(fmt.Sprintf("[%s] %s", room, strings.Join(members, " ")))
	return nil
}
