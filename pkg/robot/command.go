package robot

import (
	"fmt"
	"strconv"
	"strings"
)

// commandPrefix starts every line-oriented pan command.
const commandPrefix = "PAN:"

// FormatPan encodes a pan command as the ASCII line understood by the motor
// driver firmware, e.g. "PAN:-12.50\n".
func FormatPan(command float64) []byte {
	return []byte(fmt.Sprintf("%s%.2f\n", commandPrefix, command))
}

// ParsePan decodes a line produced by FormatPan.
func ParsePan(line string) (float64, error) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, commandPrefix) {
		return 0, fmt.Errorf("robot: malformed pan line %q", line)
	}
	v, err := strconv.ParseFloat(strings.TrimPrefix(line, commandPrefix), 64)
	if err != nil {
		return 0, fmt.Errorf("robot: malformed pan value: %w", err)
	}
	return v, nil
}
