package parser

import "github.com/eyelog/eyelog-go/internal/token"

// Control messages are MSG lines carrying a keyword at position 2:
//
//	MSG	6735155 start_trial 1
//	MSG	6740629 var rt 805
//	MSG	6736001 start_phase probe
//	MSG	6736900 end_phase probe
//	MSG	6740629 end_trial
const (
	msgMarker = "MSG"

	kwStartTrial = "start_trial"
	kwEndTrial   = "end_trial"
	kwVar        = "var"
	kwStartPhase = "start_phase"
	kwEndPhase   = "end_phase"
)

// markerLen is the exact token count of each control message.
var markerLen = map[string]int{
	kwStartTrial: 4,
	kwEndTrial:   3,
	kwVar:        5,
	kwStartPhase: 4,
	kwEndPhase:   4,
}

// marker returns the control keyword of l, or "" if l is not a well-formed
// control message.
func marker(l token.Line) string {
	if len(l) < 3 || !l[0].Is(msgMarker) || !l[2].IsText() {
		return ""
	}
	kw := l[2].Raw
	if n, ok := markerLen[kw]; ok && n == len(l) {
		return kw
	}
	return ""
}
