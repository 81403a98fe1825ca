package model

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ClockHours is a time of day in decimal hours. It decodes from a number
// (18.5) or a "HH:MM" string ("18:30").
type ClockHours float64

// ParseClock parses decimal hours or "HH:MM".
func ParseClock(s string) (ClockHours, error) {
	s = strings.TrimSpace(s)
	if h, m, ok := strings.Cut(s, ":"); ok {
		hh, err := strconv.Atoi(h)
		if err != nil {
			return 0, fmt.Errorf("invalid clock %q: %w", s, err)
		}
		mm, err := strconv.Atoi(m)
		if err != nil {
			return 0, fmt.Errorf("invalid clock %q: %w", s, err)
		}
		if hh < 0 || hh > 24 || mm < 0 || mm >= 60 || (hh == 24 && mm != 0) {
			return 0, fmt.Errorf("invalid clock %q", s)
		}
		return ClockHours(float64(hh) + float64(mm)/60), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid clock %q: %w", s, err)
	}
	return ClockHours(f), nil
}

// String renders the value as "HH:MM".
func (c ClockHours) String() string {
	total := int(float64(c)*60 + 0.5)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (c *ClockHours) UnmarshalYAML(n *yaml.Node) error {
	v, err := ParseClock(n.Value)
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *ClockHours) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		v, err := ParseClock(s)
		if err != nil {
			return err
		}
		*c = v
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return fmt.Errorf("invalid clock %s", string(b))
	}
	*c = ClockHours(f)
	return nil
}

// LoadFleet loads a Fleet from a JSON or YAML file.
func LoadFleet(path string) (Fleet, error) {
	f, err := os.Open(path)
	if err != nil {
		return Fleet{}, err
	}
	defer f.Close()
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	fl, err := DecodeFleet(f, ext)
	if err != nil {
		return Fleet{}, fmt.Errorf("fleet %s: %w", path, err)
	}
	return fl, nil
}

// DecodeFleet reads from r to decode a Fleet.
func DecodeFleet(r io.Reader, format string) (Fleet, error) {
	var fl Fleet
	switch strings.ToLower(format) {
	case "yaml", "yml":
		if err := yaml.NewDecoder(r).Decode(&fl); err != nil && err != io.EOF {
			return fl, err
		}
	case "json":
		if err := json.NewDecoder(r).Decode(&fl); err != nil {
			return fl, err
		}
	default:
		return fl, fmt.Errorf("unsupported format: %s", format)
	}
	return fl, nil
}
