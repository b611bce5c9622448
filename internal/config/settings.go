package config

import (
	"fmt"

	"gopkg.in/ini.v1"
)

// Settings holds engine configuration loaded from Settings.ini
type Settings struct {
	// Game window
	GameWindowMatch string // process-name substring for auto-detection
	WindowOverride  string // manual "x,y,w,h" override, empty = auto

	// Recognition bridge
	OCRHelperPath     string
	OCRTimeoutSeconds int

	// Paths
	CalibrationPath string
	GardenRefPath   string
	TasksPath       string
	HistoryDBPath   string
	LogDir          string

	// Scheduling defaults (per-task config may override)
	MinPollSeconds    int
	ShortRetrySeconds int
	UnknownLimit      int

	// Switches
	HistoryEnabled bool
	AlertsEnabled  bool
	LogLevel       string
	VerboseLogging bool
}

// NewDefaultSettings creates settings with default values
func NewDefaultSettings() *Settings {
	return &Settings{
		GameWindowMatch:   "Ragnarok",
		WindowOverride:    "",
		OCRHelperPath:     "./ocr_helper",
		OCRTimeoutSeconds: 5,
		CalibrationPath:   "calibration.ini",
		GardenRefPath:     "garden_ref.png",
		TasksPath:         "tasks.yaml",
		HistoryDBPath:     "data/history.db",
		LogDir:            "logs",
		MinPollSeconds:    5,
		ShortRetrySeconds: 5,
		UnknownLimit:      5,
		HistoryEnabled:    true,
		AlertsEnabled:     true,
		LogLevel:          "INFO",
		VerboseLogging:    false,
	}
}

// LoadSettings loads configuration from the Settings.ini file. Missing
// keys fall back to defaults; a missing file is an error so a typo'd path
// is reported instead of silently running on defaults.
func LoadSettings(path string) (*Settings, error) {
	cfg, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings file: %w", err)
	}

	section := cfg.Section("Settings")
	defaults := NewDefaultSettings()

	s := &Settings{}
	s.GameWindowMatch = section.Key("gameWindowMatch").MustString(defaults.GameWindowMatch)
	s.WindowOverride = section.Key("windowOverride").MustString("")
	s.OCRHelperPath = section.Key("ocrHelperPath").MustString(defaults.OCRHelperPath)
	s.OCRTimeoutSeconds = section.Key("ocrTimeoutSeconds").MustInt(defaults.OCRTimeoutSeconds)
	s.CalibrationPath = section.Key("calibrationPath").MustString(defaults.CalibrationPath)
	s.GardenRefPath = section.Key("gardenRefPath").MustString(defaults.GardenRefPath)
	s.TasksPath = section.Key("tasksPath").MustString(defaults.TasksPath)
	s.HistoryDBPath = section.Key("historyDbPath").MustString(defaults.HistoryDBPath)
	s.LogDir = section.Key("logDir").MustString(defaults.LogDir)
	s.MinPollSeconds = section.Key("minPollSeconds").MustInt(defaults.MinPollSeconds)
	s.ShortRetrySeconds = section.Key("shortRetrySeconds").MustInt(defaults.ShortRetrySeconds)
	s.UnknownLimit = section.Key("unknownLimit").MustInt(defaults.UnknownLimit)
	s.HistoryEnabled = section.Key("historyEnabled").MustBool(defaults.HistoryEnabled)
	s.AlertsEnabled = section.Key("alertsEnabled").MustBool(defaults.AlertsEnabled)
	s.LogLevel = section.Key("logLevel").MustString(defaults.LogLevel)
	s.VerboseLogging = section.Key("debugMode").MustBool(false)

	return s, nil
}

// SaveSettings writes settings back to an INI file, mirroring LoadSettings
func SaveSettings(s *Settings, path string) error {
	cfg := ini.Empty()
	section := cfg.Section("Settings")

	section.Key("gameWindowMatch").SetValue(s.GameWindowMatch)
	section.Key("windowOverride").SetValue(s.WindowOverride)
	section.Key("ocrHelperPath").SetValue(s.OCRHelperPath)
	section.Key("ocrTimeoutSeconds").SetValue(fmt.Sprintf("%d", s.OCRTimeoutSeconds))
	section.Key("calibrationPath").SetValue(s.CalibrationPath)
	section.Key("gardenRefPath").SetValue(s.GardenRefPath)
	section.Key("tasksPath").SetValue(s.TasksPath)
	section.Key("historyDbPath").SetValue(s.HistoryDBPath)
	section.Key("logDir").SetValue(s.LogDir)
	section.Key("minPollSeconds").SetValue(fmt.Sprintf("%d", s.MinPollSeconds))
	section.Key("shortRetrySeconds").SetValue(fmt.Sprintf("%d", s.ShortRetrySeconds))
	section.Key("unknownLimit").SetValue(fmt.Sprintf("%d", s.UnknownLimit))
	section.Key("historyEnabled").SetValue(fmt.Sprintf("%t", s.HistoryEnabled))
	section.Key("alertsEnabled").SetValue(fmt.Sprintf("%t", s.AlertsEnabled))
	section.Key("logLevel").SetValue(s.LogLevel)
	section.Key("debugMode").SetValue(fmt.Sprintf("%t", s.VerboseLogging))

	return cfg.SaveTo(path)
}
