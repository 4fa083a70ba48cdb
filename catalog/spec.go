package catalog

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Spec is the YAML form of the AI configuration.
type Spec struct {
	Common    CommonSpec     `yaml:"common"`
	Processes []ProcessSpec  `yaml:"processes"`
	Checks    []CheckSpec    `yaml:"checks"`
	Events    []EventSpec    `yaml:"events"`
	Computers []ComputerSpec `yaml:"computers"`
}

type CommonSpec struct {
	ComputerAssists []int `yaml:"computer_assists"`
	SkirmishFirst   int   `yaml:"skirmish_first"`
	SkirmishLast    int   `yaml:"skirmish_last"`
}

// ProcessSpec values are priority, width, height, target and cap; functions
// are check, setup, task, complete and pause.
type ProcessSpec struct {
	Mnemonic  string   `yaml:"mnemonic"`
	Name      string   `yaml:"name"`
	Values    []int    `yaml:"values"`
	Functions []string `yaml:"functions"`
	Params    []int    `yaml:"params"`
	Disabled  bool     `yaml:"disabled"`
}

// CheckSpec values are disabled (0 or 1) and interval.
type CheckSpec struct {
	Mnemonic  string   `yaml:"mnemonic"`
	Name      string   `yaml:"name"`
	Values    []int    `yaml:"values"`
	Functions []string `yaml:"functions"`
	Params    []int    `yaml:"params"`
}

// EventSpec values are kind, game event kind and test interval; functions
// are handler and test.
type EventSpec struct {
	Mnemonic  string   `yaml:"mnemonic"`
	Name      string   `yaml:"name"`
	Values    []int    `yaml:"values"`
	Functions []string `yaml:"functions"`
	Process   string   `yaml:"process"`
	Params    []int    `yaml:"params"`
}

// ComputerSpec values are dig_stack_size, processes_time, click_rate,
// max_room_build_tasks, turn_begin, sim_before_dig and rest_turns.
type ComputerSpec struct {
	ID        int      `yaml:"id"`
	Name      string   `yaml:"name"`
	Values    []int    `yaml:"values"`
	Processes []string `yaml:"processes"`
	Checks    []string `yaml:"checks"`
	Events    []string `yaml:"events"`
}

// LoadSpec reads a YAML file through Load and decodes it into T.
func LoadSpec[T any](dir, filename string) (T, error) {
	var zero T
	data, err := Load(dir, filename)
	if err != nil {
		return zero, fmt.Errorf("catalog: load %s: %w", filename, err)
	}

	var spec T
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return zero, fmt.Errorf("catalog: unmarshal %s: %w", filename, err)
	}

	return spec, nil
}
