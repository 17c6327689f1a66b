// Package process runs actions as allow-listed local commands.
//
// Entities reach the command as JARVIS_ENTITY_<NAME> environment variables, never as
// arguments. A command that prints a JSON object with a "status" field reports a
// structured result; any other output becomes the result detail.
package process

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/jarvis/pkg/domain"
	"gopkg.in/yaml.v3"
)

// Command describes the local command serving one action kind.
type Command struct {
	Action      domain.ActionKind `yaml:"action" json:"action"`
	Command     string            `yaml:"command" json:"command"`
	Args        []string          `yaml:"args" json:"args"`
	Environment map[string]string `yaml:"env" json:"env"`
	Description string            `yaml:"description" json:"description"`
}

// ConfigFile is the structure of actions.yaml.
type ConfigFile struct {
	Actions []Command `yaml:"actions" json:"actions"`
}

// LoadCommands reads a YAML or JSON file of commands keyed by action kind.
// A missing file means no commands are configured.
func LoadCommands(path string) (map[domain.ActionKind]Command, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[domain.ActionKind]Command{}, nil
		}
		return nil, fmt.Errorf("failed to read actions config: %w", err)
	}

	var cfg ConfigFile
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		err = json.Unmarshal(data, &cfg)
	} else {
		err = yaml.Unmarshal(data, &cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}

	commands := make(map[domain.ActionKind]Command, len(cfg.Actions))
	for _, c := range cfg.Actions {
		if !c.Action.Valid() {
			return nil, fmt.Errorf("unknown action %q in %s", c.Action, path)
		}
		if c.Command == "" {
			return nil, fmt.Errorf("action %s has no command", c.Action)
		}
		if _, dup := commands[c.Action]; dup {
			return nil, fmt.Errorf("action %s is configured twice", c.Action)
		}
		commands[c.Action] = c
	}
	return commands, nil
}
