package calibration

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/ini.v1"
)

// Store persists anchor points to a flat name-keyed INI record. Writes
// happen only during an explicit calibration pass; the polling loop works
// from an immutable LoadAll snapshot taken at start.
type Store struct {
	path string
}

// NewStore creates a store backed by the INI file at path
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file path
func (s *Store) Path() string {
	return s.path
}

// Save writes a point, overwriting any existing entry of the same name
func (s *Store) Save(p Point) error {
	if p.Name == "" {
		return fmt.Errorf("cannot save point with empty name")
	}

	cfg, err := s.loadOrEmpty()
	if err != nil {
		return err
	}

	s.writePoint(cfg, p)
	return s.saveTo(cfg)
}

// SaveAll writes a batch of points in one file write
func (s *Store) SaveAll(points []Point) error {
	cfg, err := s.loadOrEmpty()
	if err != nil {
		return err
	}

	for _, p := range points {
		if p.Name == "" {
			return fmt.Errorf("cannot save point with empty name")
		}
		s.writePoint(cfg, p)
	}
	return s.saveTo(cfg)
}

// Load returns a point by name, failing with *NotCalibratedError if absent
func (s *Store) Load(name string) (Point, error) {
	cfg, err := ini.Load(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Point{}, &NotCalibratedError{Name: name}
		}
		return Point{}, fmt.Errorf("load calibration file: %w", err)
	}

	if !cfg.HasSection(name) {
		return Point{}, &NotCalibratedError{Name: name}
	}

	return readPoint(cfg.Section(name), name), nil
}

// LoadAll returns a snapshot of every saved point keyed by name
func (s *Store) LoadAll() (map[string]Point, error) {
	points := make(map[string]Point)

	cfg, err := ini.Load(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return points, nil
		}
		return nil, fmt.Errorf("load calibration file: %w", err)
	}

	for _, section := range cfg.Sections() {
		if section.Name() == ini.DefaultSection {
			continue
		}
		points[section.Name()] = readPoint(section, section.Name())
	}

	return points, nil
}

func (s *Store) loadOrEmpty() (*ini.File, error) {
	cfg, err := ini.Load(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return ini.Empty(), nil
		}
		return nil, fmt.Errorf("load calibration file: %w", err)
	}
	return cfg, nil
}

func (s *Store) writePoint(cfg *ini.File, p Point) {
	cfg.DeleteSection(p.Name)
	section := cfg.Section(p.Name)
	section.Key("kind").SetValue(string(p.Kind))
	section.Key("x").SetValue(fmt.Sprintf("%d", p.X))
	section.Key("y").SetValue(fmt.Sprintf("%d", p.Y))
	if p.Kind == KindTextRegion {
		section.Key("w").SetValue(fmt.Sprintf("%d", p.W))
		section.Key("h").SetValue(fmt.Sprintf("%d", p.H))
	}
}

func (s *Store) saveTo(cfg *ini.File) error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create calibration directory: %w", err)
		}
	}
	if err := cfg.SaveTo(s.path); err != nil {
		return fmt.Errorf("save calibration file: %w", err)
	}
	return nil
}

func readPoint(section *ini.Section, name string) Point {
	return Point{
		Name: name,
		Kind: Kind(section.Key("kind").MustString(string(KindClick))),
		X:    section.Key("x").MustInt(0),
		Y:    section.Key("y").MustInt(0),
		W:    section.Key("w").MustInt(0),
		H:    section.Key("h").MustInt(0),
	}
}
