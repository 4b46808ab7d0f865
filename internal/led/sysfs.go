package led

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

const sysfsLEDPath = "/sys/class/leds"

// sysfs implements Controller on the Linux LED class interface.
type sysfs struct {
	root string
	leds map[string]string // LED type -> sysfs directory name
}

func newSysfs(root string, leds map[string]string) *sysfs {
	return &sysfs{root: root, leds: leds}
}

// Set writes trigger and brightness. Solid light needs the "none" trigger,
// any other trigger would take over the brightness.
func (s *sysfs) Set(ledType string, enabled bool, pattern string) error {
	name, ok := s.leds[ledType]
	if !ok {
		return fmt.Errorf("LED type %q not supported on this board", ledType)
	}
	dir := filepath.Join(s.root, name)
	if _, err := os.Stat(dir); err != nil {
		return fmt.Errorf("LED %q not found at %s: %w", ledType, dir, err)
	}

	trigger := ""
	switch pattern {
	case "":
	case PatternSolid:
		trigger = "none"
	case PatternBlink:
		trigger = "timer"
	default:
		trigger = pattern
	}
	if !enabled {
		trigger = "none"
	}
	if trigger != "" {
		if err := writeAttr(dir, "trigger", trigger); err != nil {
			return err
		}
	}

	brightness := "0"
	if enabled {
		brightness = "1"
	}
	return writeAttr(dir, "brightness", brightness)
}

func writeAttr(dir, attr, value string) error {
	if err := os.WriteFile(filepath.Join(dir, attr), []byte(value), 0o644); err != nil {
		return fmt.Errorf("set LED %s: %w", attr, err)
	}
	return nil
}

func (s *sysfs) Available() []string {
	types := make([]string, 0, len(s.leds))
	for ledType := range s.leds {
		types = append(types, ledType)
	}
	sort.Strings(types)
	return types
}

func (s *sysfs) Patterns() []string {
	return []string{PatternSolid, PatternBlink, PatternHeartbeat}
}
