package event

import (
	"fmt"
	"strings"

	"github.com/eyelog/eyelog-go/internal/token"
)

// headerMarkers start the recording-block lines that name the recorded eyes:
//
//	START	10350638 	LEFT	RIGHT	SAMPLES	EVENTS
//	SAMPLES	GAZE	LEFT	RATE	1000.00	TRACKING	CR	FILTER	2
var headerMarkers = map[string]struct{}{
	"START":   {},
	"SAMPLES": {},
	"EVENTS":  {},
}

// DetectEyes reads the recorded eyes from a recording header line.
// ok is false for any other line, or for a header naming no eye.
func DetectEyes(l token.Line) (eyes Eyes, ok bool) {
	if len(l) == 0 || !l[0].IsText() {
		return EyesUnknown, false
	}
	if _, isHeader := headerMarkers[l[0].Raw]; !isHeader {
		return EyesUnknown, false
	}

	var left, right bool
	for _, t := range l[1:] {
		switch {
		case t.Is("LEFT"):
			left = true
		case t.Is("RIGHT"):
			right = true
		}
	}
	switch {
	case left && right:
		return EyesBoth, true
	case left:
		return EyesLeft, true
	case right:
		return EyesRight, true
	}
	return EyesUnknown, false
}

// ParseEyes parses a configuration value: "left", "right", "both", or
// "auto"/"" for detection from the file header.
func ParseEyes(s string) (Eyes, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto", "unknown":
		return EyesUnknown, nil
	case "left", "l":
		return EyesLeft, nil
	case "right", "r":
		return EyesRight, nil
	case "both", "lr", "binocular":
		return EyesBoth, nil
	}
	return EyesUnknown, fmt.Errorf("unknown eyes value %q (want auto, left, right or both)", s)
}
