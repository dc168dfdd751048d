package session

import (
	"errors"
	"fmt"

	"github.com/bytedance/sonic"
)

// Inbound command types
const (
	TypeSimulateFailure = "SIMULATE_FAILURE"
	TypeRestartProcess  = "RESTART_PROCESS"
)

var (
	// ErrInvalidCommand is returned for frames that are not a well-formed command
	ErrInvalidCommand = errors.New("invalid command")
	// ErrUnknownCommand is returned for well-formed frames of an unknown type
	ErrUnknownCommand = errors.New("unknown command type")
)

// Command is an inbound control command
type Command interface {
	Type() string
	Target() string
	isCommand()
}

// SimulateFailure marks the named process Crashed
type SimulateFailure struct {
	ProcessName string
}

// RestartProcess brings the named process back to Running at once
type RestartProcess struct {
	ProcessName string
}

func (SimulateFailure) Type() string     { return TypeSimulateFailure }
func (c SimulateFailure) Target() string { return c.ProcessName }
func (SimulateFailure) isCommand()       {}

func (RestartProcess) Type() string     { return TypeRestartProcess }
func (c RestartProcess) Target() string { return c.ProcessName }
func (RestartProcess) isCommand()       {}

// frame is the wire shape of a command
type frame struct {
	Type        string `json:"type"`
	ProcessName string `json:"processName"`
}

// ParseCommand decodes and validates a command frame
func ParseCommand(data []byte) (Command, error) {
	var f frame
	if err := sonic.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCommand, err)
	}
	if f.Type == "" {
		return nil, fmt.Errorf("%w: missing type", ErrInvalidCommand)
	}

	var cmd Command
	switch f.Type {
	case TypeSimulateFailure:
		cmd = SimulateFailure{ProcessName: f.ProcessName}
	case TypeRestartProcess:
		cmd = RestartProcess{ProcessName: f.ProcessName}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, f.Type)
	}

	if f.ProcessName == "" {
		return nil, fmt.Errorf("%w: %s without processName", ErrInvalidCommand, f.Type)
	}
	return cmd, nil
}

// EncodeCommand produces the wire frame for cmd
func EncodeCommand(cmd Command) ([]byte, error) {
	return sonic.Marshal(frame{Type: cmd.Type(), ProcessName: cmd.Target()})
}
