package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so task files can use readable values
// like "45s" or "2m" instead of nanosecond integers.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Std returns the wrapped time.Duration
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// GardenTask configures the watering loop
type GardenTask struct {
	Enabled       bool     `yaml:"enabled"`
	Interval      Duration `yaml:"interval"`
	JitterPercent int      `yaml:"jitter_percent"`
}

// BossTask configures the MVP/Mini farming loop
type BossTask struct {
	Enabled       bool     `yaml:"enabled"`
	CheckInterval Duration `yaml:"check_interval"`
	FightTimeout  Duration `yaml:"fight_timeout"`
	SelectedMVPs  []string `yaml:"selected_mvps"`
	SelectedMinis []string `yaml:"selected_minis"`
	ReadyTokens   []string `yaml:"ready_tokens,omitempty"`
}

// TextTask configures a generic text-region watcher: read the region,
// classify it against the token sets, and click when the action is ready.
type TextTask struct {
	Name        string   `yaml:"name"`
	Enabled     bool     `yaml:"enabled"`
	Region      string   `yaml:"region"` // calibration point name, kind text_region
	Click       string   `yaml:"click"`  // calibration point name, kind click
	Interval    Duration `yaml:"interval"`
	ReadyTokens []string `yaml:"ready_tokens"`
	IdleTokens  []string `yaml:"idle_tokens"`
}

// Tasks is the tasks.yaml document
type Tasks struct {
	Garden    GardenTask `yaml:"garden"`
	Boss      BossTask   `yaml:"boss"`
	TextTasks []TextTask `yaml:"text_tasks"`
}

// NewDefaultTasks creates the task set used when no tasks.yaml exists yet
func NewDefaultTasks() *Tasks {
	return &Tasks{
		Garden: GardenTask{
			Enabled:       true,
			Interval:      Duration(3 * time.Second),
			JitterPercent: 30,
		},
		Boss: BossTask{
			Enabled:       false,
			CheckInterval: Duration(60 * time.Second),
			FightTimeout:  Duration(5 * time.Minute),
			SelectedMVPs:  []string{},
			SelectedMinis: []string{},
		},
		TextTasks: []TextTask{},
	}
}

// LoadTasks reads the task definitions from a YAML file. A missing file
// yields the defaults so first runs work without any setup.
func LoadTasks(path string) (*Tasks, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewDefaultTasks(), nil
		}
		return nil, fmt.Errorf("failed to read tasks file: %w", err)
	}

	tasks := NewDefaultTasks()
	if err := yaml.Unmarshal(data, tasks); err != nil {
		return nil, fmt.Errorf("failed to parse tasks file: %w", err)
	}

	if err := tasks.Validate(); err != nil {
		return nil, err
	}
	return tasks, nil
}

// SaveTasks writes the task definitions back to disk. Used by the GUI
// to persist boss selections and task toggles.
func SaveTasks(tasks *Tasks, path string) error {
	data, err := yaml.Marshal(tasks)
	if err != nil {
		return fmt.Errorf("failed to encode tasks: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks that the task definitions are internally consistent
func (t *Tasks) Validate() error {
	if t.Garden.Enabled && t.Garden.Interval <= 0 {
		return fmt.Errorf("garden task: interval must be positive")
	}
	if t.Garden.JitterPercent < 0 || t.Garden.JitterPercent > 100 {
		return fmt.Errorf("garden task: jitter_percent must be 0-100")
	}
	if t.Boss.Enabled && t.Boss.CheckInterval <= 0 {
		return fmt.Errorf("boss task: check_interval must be positive")
	}
	seen := make(map[string]bool)
	for i, tt := range t.TextTasks {
		if tt.Name == "" {
			return fmt.Errorf("text task %d: name is required", i)
		}
		if seen[tt.Name] {
			return fmt.Errorf("text task %q: duplicate name", tt.Name)
		}
		seen[tt.Name] = true
		if tt.Region == "" || tt.Click == "" {
			return fmt.Errorf("text task %q: region and click are required", tt.Name)
		}
		if tt.Enabled && tt.Interval <= 0 {
			return fmt.Errorf("text task %q: interval must be positive", tt.Name)
		}
	}
	return nil
}
