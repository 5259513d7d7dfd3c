package event

import (
	"fmt"
	"math"

	"github.com/eyelog/eyelog-go/internal/token"
)

// Record markers as written by the EyeLink EDF2ASC converter.
const (
	markerBlink    = "EBLINK"
	markerFixation = "EFIX"
	markerSaccade  = "ESACC"

	// missing is the placeholder for a value lost during a blink.
	missing = "."
)

// Token counts of the known layouts.
const (
	blinkLen        = 5
	fixationLen     = 8
	saccadeShortLen = 11
	saccadeLongLen  = 15
	binocularMinLen = 7
)

// Classify decodes l into the first record kind whose shape it matches,
// trying Blink, Fixation, Saccade and Sample in that order.
//
// Returns:
//   - (Record, nil): successfully decoded
//   - (nil, nil): not a known record shape
//   - (nil, error): shape matched but decoding failed
func Classify(l token.Line, eyes Eyes) (rec Record, err error) {
	defer func() {
		if r := recover(); r != nil {
			rec = nil
			err = &DecodeError{Field: -1, Err: fmt.Errorf("%w: %v", ErrUnexpected, r)}
		}
	}()

	switch {
	case MatchBlink(l):
		b, err := DecodeBlink(l)
		if err != nil {
			return nil, err
		}
		return b, nil
	case MatchFixation(l):
		f, err := DecodeFixation(l)
		if err != nil {
			return nil, err
		}
		return f, nil
	case MatchSaccade(l):
		s, err := DecodeSaccade(l)
		if err != nil {
			return nil, err
		}
		return s, nil
	case MatchSample(l):
		s, err := DecodeSample(l, eyes)
		if s == nil {
			// keep a typed nil out of the interface
			return nil, err
		}
		return s, nil
	}
	return nil, nil
}

// MatchBlink reports whether l has the EBLINK shape:
//
//	EBLINK R 5294685	5294774	90
func MatchBlink(l token.Line) bool {
	return len(l) == blinkLen && l[0].Is(markerBlink)
}

// DecodeBlink decodes an EBLINK line. l must satisfy MatchBlink.
func DecodeBlink(l token.Line) (*Blink, error) {
	v, err := positives(KindBlink, l, 2, 3, 4)
	if err != nil {
		return nil, err
	}
	return &Blink{
		Eye:      l[1].Raw,
		Start:    v[0],
		End:      v[1],
		Duration: v[1] - v[0],
	}, nil
}

// MatchFixation reports whether l has the EFIX shape:
//
//	EFIX R   1651574	1654007	2434	  653.3	  557.8	   4710
func MatchFixation(l token.Line) bool {
	return len(l) == fixationLen && l[0].Is(markerFixation)
}

// DecodeFixation decodes an EFIX line. l must satisfy MatchFixation.
func DecodeFixation(l token.Line) (*Fixation, error) {
	v, err := positives(KindFixation, l, 2, 3, 4, 5, 6, 7)
	if err != nil {
		return nil, err
	}
	return &Fixation{
		Eye:      l[1].Raw,
		Start:    v[0],
		End:      v[1],
		Duration: v[1] - v[0],
		X:        v[3],
		Y:        v[4],
		Pupil:    v[5],
	}, nil
}

// MatchSaccade reports whether l has one of the ESACC shapes. Short:
//
//	ESACC R  3216221	3216233	13	  515.2	  381.6	  531.2	  390.7	   0.51	     58
//
// The long layout has 15 tokens with start and end points at 9..12.
func MatchSaccade(l token.Line) bool {
	return (len(l) == saccadeShortLen || len(l) == saccadeLongLen) && l[0].Is(markerSaccade)
}

// DecodeSaccade decodes an ESACC line. l must satisfy MatchSaccade.
func DecodeSaccade(l token.Line) (*Saccade, error) {
	geom := 5
	if len(l) == saccadeLongLen {
		geom = 9
	}
	v, err := positives(KindSaccade, l, 2, 3, geom, geom+1, geom+2, geom+3)
	if err != nil {
		return nil, err
	}
	s := &Saccade{
		Eye:   l[1].Raw,
		Start: v[0],
		End:   v[1],
		SX:    v[2],
		SY:    v[3],
		EX:    v[4],
		EY:    v[5],
	}
	s.Duration = s.End - s.Start
	dx, dy := s.SX-s.EX, s.SY-s.EY
	s.Amplitude = math.Sqrt(dx*dx + dy*dy)
	return s, nil
}

// MatchSample reports whether l can be a sample line: a numeric timestamp
// followed by per-eye fields and optional status columns.
//
//	4815155   168.2   406.5  2141.0 ...
//	661781	   .	   .	    0.0	...
//	548367    514.0   354.5  1340.0 ...      -619.0  -161.0    88.9 ...CFT..R.BLR
func MatchSample(l token.Line) bool {
	switch len(l) {
	case 4, 5, 6, 8, 9:
		return !l[0].IsText()
	}
	return false
}

// DecodeSample decodes a sample line for a file recording the given eyes.
// An unknown eye set decodes as a left-eye recording. A binocular line
// needs at least seven tokens; shorter lines are not samples.
func DecodeSample(l token.Line, eyes Eyes) (*Sample, error) {
	t, err := positives(KindSample, l, 0)
	if err != nil {
		return nil, err
	}
	s := &Sample{Time: t[0], Eyes: eyes, LX: nan, LY: nan, LPupil: nan, RX: nan, RY: nan, RPupil: nan}

	var ok bool
	switch eyes {
	case EyesBoth:
		if len(l) < binocularMinLen {
			return nil, nil
		}
		if s.LX, s.LY, s.LPupil, ok = eyeFields(l[1:4]); !ok {
			return nil, nil
		}
		if s.RX, s.RY, s.RPupil, ok = eyeFields(l[4:7]); !ok {
			return nil, nil
		}
	case EyesRight:
		if s.RX, s.RY, s.RPupil, ok = eyeFields(l[1:4]); !ok {
			return nil, nil
		}
	default:
		s.Eyes = EyesLeft
		if s.LX, s.LY, s.LPupil, ok = eyeFields(l[1:4]); !ok {
			return nil, nil
		}
	}
	return s, nil
}

// eyeFields decodes an x, y, pupil triple. The missing placeholder and a
// zero pupil become NaN; any other text fails the triple.
func eyeFields(f token.Line) (x, y, pupil float64, ok bool) {
	if x, ok = field(f[0]); !ok {
		return
	}
	if y, ok = field(f[1]); !ok {
		return
	}
	if pupil, ok = field(f[2]); !ok {
		return
	}
	if pupil == 0 {
		pupil = nan
	}
	return x, y, pupil, true
}

func field(t token.Token) (float64, bool) {
	if t.Is(missing) {
		return nan, true
	}
	return t.Number()
}

// positives returns the values at the given indices, failing on the first
// one that is not a number greater than zero.
func positives(kind Kind, l token.Line, idx ...int) ([]float64, error) {
	out := make([]float64, len(idx))
	for i, j := range idx {
		v, ok := l[j].Number()
		if !ok || !(v > 0) {
			return nil, &DecodeError{Kind: kind, Field: j, Err: ErrNotNumeric}
		}
		out[i] = v
	}
	return out, nil
}
