package dispatch

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Invocation is the parsed command handed to a child: the command name,
// its positional arguments and its options.
type Invocation struct {
	Command string
	Args    []string
	Options map[string]any
}

type descriptor struct {
	Command string         `json:"command"`
	Args    []string       `json:"args"`
	Options map[string]any `json:"options"`
}

// Serialize encodes the invocation for the child. Option keys starting with
// '_' and the "parent" key are dropped.
func (inv Invocation) Serialize() (string, error) {
	d := descriptor{
		Command: inv.Command,
		Args:    inv.Args,
		Options: make(map[string]any, len(inv.Options)),
	}
	if d.Args == nil {
		d.Args = []string{}
	}
	for k, v := range inv.Options {
		if strings.HasPrefix(k, "_") || k == "parent" {
			continue
		}
		d.Options[k] = v
	}

	data, err := json.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("serializing invocation: %w", err)
	}
	return string(data), nil
}
