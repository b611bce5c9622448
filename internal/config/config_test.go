package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadSettingsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Settings.ini")
	if err := os.WriteFile(path, []byte("[Settings]\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	s, err := LoadSettings(path)
	if err != nil {
		t.Fatalf("LoadSettings() error = %v", err)
	}

	defaults := NewDefaultSettings()
	if s.GameWindowMatch != defaults.GameWindowMatch {
		t.Errorf("GameWindowMatch = %q, want %q", s.GameWindowMatch, defaults.GameWindowMatch)
	}
	if s.MinPollSeconds != defaults.MinPollSeconds {
		t.Errorf("MinPollSeconds = %d, want %d", s.MinPollSeconds, defaults.MinPollSeconds)
	}
	if !s.HistoryEnabled {
		t.Error("HistoryEnabled should default to true")
	}
}

func TestLoadSettingsMissingFile(t *testing.T) {
	_, err := LoadSettings(filepath.Join(t.TempDir(), "nope.ini"))
	if err == nil {
		t.Fatal("expected error for missing settings file")
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Settings.ini")

	s := NewDefaultSettings()
	s.GameWindowMatch = "RagnarokX"
	s.WindowOverride = "10,20,1280,720"
	s.OCRTimeoutSeconds = 9
	s.AlertsEnabled = false
	s.VerboseLogging = true

	if err := SaveSettings(s, path); err != nil {
		t.Fatalf("SaveSettings() error = %v", err)
	}

	loaded, err := LoadSettings(path)
	if err != nil {
		t.Fatalf("LoadSettings() error = %v", err)
	}
	if loaded.GameWindowMatch != "RagnarokX" {
		t.Errorf("GameWindowMatch = %q", loaded.GameWindowMatch)
	}
	if loaded.WindowOverride != "10,20,1280,720" {
		t.Errorf("WindowOverride = %q", loaded.WindowOverride)
	}
	if loaded.OCRTimeoutSeconds != 9 {
		t.Errorf("OCRTimeoutSeconds = %d", loaded.OCRTimeoutSeconds)
	}
	if loaded.AlertsEnabled {
		t.Error("AlertsEnabled should be false")
	}
	if !loaded.VerboseLogging {
		t.Error("VerboseLogging should be true")
	}
}

func TestLoadTasksMissingFileUsesDefaults(t *testing.T) {
	tasks, err := LoadTasks(filepath.Join(t.TempDir(), "tasks.yaml"))
	if err != nil {
		t.Fatalf("LoadTasks() error = %v", err)
	}
	if !tasks.Garden.Enabled {
		t.Error("garden should be enabled by default")
	}
	if tasks.Boss.Enabled {
		t.Error("boss farming should be disabled by default")
	}
	if tasks.Garden.Interval.Std() != 3*time.Second {
		t.Errorf("garden interval = %v, want 3s", tasks.Garden.Interval.Std())
	}
}

func TestLoadTasksParsesDocument(t *testing.T) {
	doc := `
garden:
  enabled: false
  interval: 10s
  jitter_percent: 20
boss:
  enabled: true
  check_interval: 2m
  fight_timeout: 4m
  selected_mvps: [Phreeoni, Mistress]
text_tasks:
  - name: daily-reward
    enabled: true
    region: reward_text
    click: reward_button
    interval: 30m
    ready_tokens: [claim, ready]
    idle_tokens: [claimed]
`
	path := filepath.Join(t.TempDir(), "tasks.yaml")
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	tasks, err := LoadTasks(path)
	if err != nil {
		t.Fatalf("LoadTasks() error = %v", err)
	}
	if tasks.Garden.Enabled {
		t.Error("garden should be disabled")
	}
	if tasks.Boss.CheckInterval.Std() != 2*time.Minute {
		t.Errorf("boss check_interval = %v, want 2m", tasks.Boss.CheckInterval.Std())
	}
	if len(tasks.Boss.SelectedMVPs) != 2 || tasks.Boss.SelectedMVPs[0] != "Phreeoni" {
		t.Errorf("SelectedMVPs = %v", tasks.Boss.SelectedMVPs)
	}
	if len(tasks.TextTasks) != 1 {
		t.Fatalf("TextTasks count = %d, want 1", len(tasks.TextTasks))
	}
	tt := tasks.TextTasks[0]
	if tt.Name != "daily-reward" || tt.Region != "reward_text" || tt.Click != "reward_button" {
		t.Errorf("text task = %+v", tt)
	}
	if tt.Interval.Std() != 30*time.Minute {
		t.Errorf("text task interval = %v, want 30m", tt.Interval.Std())
	}
}

func TestTasksValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Tasks)
		wantErr bool
	}{
		{"defaults valid", func(*Tasks) {}, false},
		{"negative garden interval", func(ts *Tasks) {
			ts.Garden.Interval = Duration(-time.Second)
		}, true},
		{"jitter out of range", func(ts *Tasks) {
			ts.Garden.JitterPercent = 150
		}, true},
		{"boss enabled without interval", func(ts *Tasks) {
			ts.Boss.Enabled = true
			ts.Boss.CheckInterval = 0
		}, true},
		{"text task missing name", func(ts *Tasks) {
			ts.TextTasks = []TextTask{{Region: "r", Click: "c", Interval: Duration(time.Second)}}
		}, true},
		{"text task missing click", func(ts *Tasks) {
			ts.TextTasks = []TextTask{{Name: "x", Region: "r", Interval: Duration(time.Second)}}
		}, true},
		{"duplicate text task names", func(ts *Tasks) {
			ts.TextTasks = []TextTask{
				{Name: "x", Region: "r", Click: "c", Interval: Duration(time.Second)},
				{Name: "x", Region: "r2", Click: "c2", Interval: Duration(time.Second)},
			}
		}, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tasks := NewDefaultTasks()
			tc.mutate(tasks)
			err := tasks.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() error = %v, wantErr = %v", err, tc.wantErr)
			}
		})
	}
}

func TestSaveTasksRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.yaml")

	tasks := NewDefaultTasks()
	tasks.Boss.Enabled = true
	tasks.Boss.SelectedMVPs = []string{"Osiris"}
	tasks.Boss.SelectedMinis = []string{"Ghostring"}

	if err := SaveTasks(tasks, path); err != nil {
		t.Fatalf("SaveTasks() error = %v", err)
	}

	loaded, err := LoadTasks(path)
	if err != nil {
		t.Fatalf("LoadTasks() error = %v", err)
	}
	if !loaded.Boss.Enabled {
		t.Error("boss should stay enabled")
	}
	if len(loaded.Boss.SelectedMVPs) != 1 || loaded.Boss.SelectedMVPs[0] != "Osiris" {
		t.Errorf("SelectedMVPs = %v", loaded.Boss.SelectedMVPs)
	}
	if len(loaded.Boss.SelectedMinis) != 1 || loaded.Boss.SelectedMinis[0] != "Ghostring" {
		t.Errorf("SelectedMinis = %v", loaded.Boss.SelectedMinis)
	}
}
