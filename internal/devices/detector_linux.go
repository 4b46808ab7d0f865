//go:build linux

package devices

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/smazurov/restream/internal/logging"
)

// sysfsDetector reads device lists from sysfs and procfs without opening the devices,
// so nodes held by a running pipeline are listed too.
type sysfsDetector struct {
	sysRoot  string
	devRoot  string
	procRoot string
	logger   *slog.Logger
}

func newDetector() Detector {
	return &sysfsDetector{
		sysRoot:  "/sys",
		devRoot:  "/dev",
		procRoot: "/proc",
		logger:   logging.GetLogger("devices"),
	}
}

// VideoDevices returns one entry per V4L2 capture device.
func (d *sysfsDetector) VideoDevices() ([]Device, error) {
	classDir := filepath.Join(d.sysRoot, "class", "video4linux")
	entries, err := os.ReadDir(classDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Device{}, nil
		}
		return nil, fmt.Errorf("failed to read video4linux directory: %w", err)
	}

	devices := []Device{}
	for _, entry := range entries {
		node := entry.Name()
		if !strings.HasPrefix(node, "video") {
			continue
		}
		// Higher indexes of one device are metadata nodes.
		index := readSysfsInt(filepath.Join(classDir, node, "index"))
		if index != 0 {
			d.logger.Debug("Skipping secondary video node", "node", node, "index", index)
			continue
		}

		devices = append(devices, Device{
			Kind: KindVideo,
			Path: filepath.Join(d.devRoot, node),
			Name: readSysfsString(filepath.Join(classDir, node, "name")),
			ID:   d.findStableID(node, index),
		})
	}
	return devices, nil
}

// findStableID looks for a symlink in /dev/v4l/by-id pointing at node.
func (d *sysfsDetector) findStableID(node string, index int) string {
	byIDDir := filepath.Join(d.devRoot, "v4l", "by-id")
	entries, err := os.ReadDir(byIDDir)
	if err != nil {
		return ""
	}

	suffix := fmt.Sprintf("-video-index%d", index)
	for _, entry := range entries {
		if entry.Type()&os.ModeSymlink == 0 || !strings.HasSuffix(entry.Name(), suffix) {
			continue
		}
		target, err := os.Readlink(filepath.Join(byIDDir, entry.Name()))
		if err != nil {
			continue
		}
		if filepath.Base(target) == node {
			return entry.Name()
		}
	}
	return ""
}

// AudioDevices parses /proc/asound/pcm, where each line looks like
// "01-00: USB Audio : USB Audio : capture 1".
func (d *sysfsDetector) AudioDevices() ([]Device, error) {
	file, err := os.Open(filepath.Join(d.procRoot, "asound", "pcm"))
	if err != nil {
		if os.IsNotExist(err) {
			return []Device{}, nil
		}
		return nil, fmt.Errorf("failed to read ALSA PCM list: %w", err)
	}
	defer file.Close()

	devices := []Device{}
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		card, device, name, capture, ok := parsePCMLine(scanner.Text())
		if !ok {
			d.logger.Debug("Skipping malformed PCM line", "line", scanner.Text())
			continue
		}
		if !capture {
			continue
		}
		devices = append(devices, Device{
			Kind: KindAudio,
			Path: fmt.Sprintf("hw:%d,%d", card, device),
			Name: name,
			ID:   readSysfsString(filepath.Join(d.procRoot, "asound", fmt.Sprintf("card%d", card), "id")),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read ALSA PCM list: %w", err)
	}
	return devices, nil
}

func parsePCMLine(line string) (card, device int, name string, capture bool, ok bool) {
	fields := strings.Split(line, ":")
	if len(fields) < 3 {
		return 0, 0, "", false, false
	}
	numbers := strings.SplitN(strings.TrimSpace(fields[0]), "-", 2)
	if len(numbers) != 2 {
		return 0, 0, "", false, false
	}
	card, cardErr := strconv.Atoi(numbers[0])
	device, deviceErr := strconv.Atoi(numbers[1])
	if cardErr != nil || deviceErr != nil {
		return 0, 0, "", false, false
	}
	for _, field := range fields[3:] {
		if strings.HasPrefix(strings.TrimSpace(field), "capture") {
			capture = true
		}
	}
	return card, device, strings.TrimSpace(fields[1]), capture, true
}

func readSysfsString(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func readSysfsInt(path string) int {
	val, _ := strconv.Atoi(readSysfsString(path))
	return val
}
