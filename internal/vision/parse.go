package vision

import (
	"strconv"
	"strings"
)

// ParseResponse parses a model response in format: class | score
// One detection per line.
func ParseResponse(raw string) []Detection {
	lines := strings.Split(raw, "\n")
	detections := make([]Detection, 0)

	for _, line := range lines {
		if d := ParseLine(line); d != nil {
			detections = append(detections, *d)
		}
	}

	return detections
}

// ParseLine parses a single "class | score" line. It returns nil for blank
// lines, preamble, and lines without a pipe separator. A missing or
// unparsable score defaults to 1.
func ParseLine(line string) *Detection {
	line = strings.TrimSpace(line)
	line = strings.TrimLeft(line, "-*• ")
	if line == "" {
		return nil
	}

	// Skip common headers or non-detection lines
	if strings.HasPrefix(line, "Here") || strings.HasPrefix(line, "I see") || strings.HasPrefix(line, "Based on") {
		return nil
	}

	parts := strings.Split(line, "|")
	if len(parts) < 2 {
		return nil
	}

	class := strings.ToLower(strings.TrimSpace(parts[0]))
	if class == "" || class == "class" {
		return nil
	}

	score := 1.0
	if v, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64); err == nil && v >= 0 && v <= 1 {
		score = v
	}

	return &Detection{Class: class, Score: score}
}
