// Package event decodes EyeLink sample and event records from tokenized lines.
package event

import "math"

// Kind identifies the record variant.
type Kind string

const (
	KindSample   Kind = "sample"
	KindFixation Kind = "fixation"
	KindSaccade  Kind = "saccade"
	KindBlink    Kind = "blink"
)

// Record is a decoded instrument record. The concrete type is one of
// *Sample, *Fixation, *Saccade or *Blink.
type Record interface {
	Kind() Kind
}

// Eyes is the set of eyes recorded in a file. It is fixed once per file.
type Eyes int

const (
	EyesUnknown Eyes = iota
	EyesLeft
	EyesRight
	EyesBoth
)

func (e Eyes) String() string {
	switch e {
	case EyesLeft:
		return "left"
	case EyesRight:
		return "right"
	case EyesBoth:
		return "both"
	default:
		return "unknown"
	}
}

// Sample is one raw gaze measurement. Missing values are NaN; values for an
// eye that was not recorded are NaN as well.
type Sample struct {
	Time   float64
	Eyes   Eyes
	LX     float64
	LY     float64
	LPupil float64
	RX     float64
	RY     float64
	RPupil float64
}

func (*Sample) Kind() Kind { return KindSample }

// Gaze returns the x, y and pupil values that feed phase traces: the right
// eye for right-only recordings, the left eye otherwise.
func (s *Sample) Gaze() (x, y, pupil float64) {
	if s.Eyes == EyesRight {
		return s.RX, s.RY, s.RPupil
	}
	return s.LX, s.LY, s.LPupil
}

// Fixation is an EFIX record.
type Fixation struct {
	Eye      string
	Start    float64
	End      float64
	Duration float64
	X        float64
	Y        float64
	Pupil    float64
}

func (*Fixation) Kind() Kind { return KindFixation }

// Saccade is an ESACC record.
type Saccade struct {
	Eye       string
	Start     float64
	End       float64
	Duration  float64
	SX        float64
	SY        float64
	EX        float64
	EY        float64
	Amplitude float64
}

func (*Saccade) Kind() Kind { return KindSaccade }

// Blink is an EBLINK record.
type Blink struct {
	Eye      string
	Start    float64
	End      float64
	Duration float64
}

func (*Blink) Kind() Kind { return KindBlink }

var nan = math.NaN()
