package led

import (
	"log/slog"
	"os"
	"strings"
)

const deviceTreeModelPath = "/proc/device-tree/model"

// boards maps a device tree model substring to the board's LED names.
var boards = []struct {
	model string
	leds  map[string]string
}{
	{"NanoPC-T6", map[string]string{"user": "usr_led", "system": "sys_led"}},
	{"Orange Pi", map[string]string{"blue": "blue_led", "green": "green_led"}},
	{"Raspberry Pi", map[string]string{"act": "ACT", "pwr": "PWR"}},
}

// New returns the LED controller of the board this runs on, or a no-op
// controller when the board is unknown.
func New(logger *slog.Logger) Controller {
	return newForModel(detectBoard(deviceTreeModelPath), sysfsLEDPath, logger)
}

func newForModel(model, root string, logger *slog.Logger) Controller {
	for _, b := range boards {
		if strings.Contains(model, b.model) {
			logger.Info("Using sysfs LED controller", "board_model", model)
			return newSysfs(root, b.leds)
		}
	}
	logger.Info("No LED support detected, using no-op controller", "board_model", model)
	return newNoop(logger)
}

// detectBoard reads the device tree model, "unknown" when there is none.
func detectBoard(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return "unknown"
	}
	return strings.TrimRight(string(data), "\x00\n")
}
