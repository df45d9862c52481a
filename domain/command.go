package domain

import (
	"errors"
	"fmt"

	"github.com/bytedance/sonic"
)

const (
	CommandAdd    = "add"
	CommandMove   = "move"
	CommandDelete = "delete"
)

// ErrInvalidCommand is returned when a command cannot be turned into an action.
var ErrInvalidCommand = errors.New("invalid command")

// Command is the wire form of an Action. Data holds the type specific
// payload and is decoded lazily.
type Command struct {
	Type string                 `json:"type"`
	Data sonic.NoCopyRawMessage `json:"data,omitempty"`
}

type addCommandData struct {
	Column ColumnID `json:"column"`
	TaskDraft
}

type moveCommandData struct {
	From   ColumnID `json:"from"`
	To     ColumnID `json:"to"`
	TaskID string   `json:"taskId"`
}

type deleteCommandData struct {
	Column ColumnID `json:"column"`
	TaskID string   `json:"taskId"`
}

// Action decodes the command. Add commands carry a normalized, validated draft.
func (c Command) Action() (Action, error) {
	switch c.Type {
	case CommandAdd:
		var d addCommandData
		if err := c.decode(&d); err != nil {
			return nil, err
		}
		draft := d.TaskDraft.Normalize()
		if err := draft.Validate(); err != nil {
			return nil, err
		}
		return AddTask{Column: d.Column, Draft: draft}, nil
	case CommandMove:
		var d moveCommandData
		if err := c.decode(&d); err != nil {
			return nil, err
		}
		return MoveTask(d), nil
	case CommandDelete:
		var d deleteCommandData
		if err := c.decode(&d); err != nil {
			return nil, err
		}
		return DeleteTask(d), nil
	}
	return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidCommand, c.Type)
}

func (c Command) decode(v any) error {
	if len(c.Data) == 0 {
		return fmt.Errorf("%w: %s command without data", ErrInvalidCommand, c.Type)
	}
	if err := sonic.ConfigStd.Unmarshal(c.Data, v); err != nil {
		return fmt.Errorf("%w: %s data: %v", ErrInvalidCommand, c.Type, err)
	}
	return nil
}

// CommandFor returns the wire form of a.
func CommandFor(a Action) (Command, error) {
	var (
		typ  string
		data any
	)
	switch act := a.(type) {
	case AddTask:
		typ, data = CommandAdd, addCommandData{Column: act.Column, TaskDraft: act.Draft}
	case MoveTask:
		typ, data = CommandMove, moveCommandData(act)
	case DeleteTask:
		typ, data = CommandDelete, deleteCommandData(act)
	default:
		return Command{}, fmt.Errorf("%w: unsupported action %T", ErrInvalidCommand, a)
	}
	raw, err := sonic.ConfigStd.Marshal(data)
	if err != nil {
		return Command{}, err
	}
	return Command{Type: typ, Data: sonic.NoCopyRawMessage(raw)}, nil
}
