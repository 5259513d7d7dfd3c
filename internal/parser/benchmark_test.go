package parser

import (
	"testing"

	"github.com/eyelog/eyelog-go/internal/event"
	"github.com/eyelog/eyelog-go/internal/token"
)

// BenchmarkStep_Sample benchmarks the hot path: a sample inside a phase.
func BenchmarkStep_Sample(b *testing.B) {
	m := New(event.EyesLeft)
	m.Step(token.Tokenize("MSG 1 start_trial 1"))
	m.Step(token.Tokenize("MSG 2 start_phase probe"))
	l := token.Tokenize("4815155   168.2   406.5  2141.0 ...")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = m.Step(l)
	}
}

// BenchmarkStep_Fixation benchmarks an event line inside a trial.
func BenchmarkStep_Fixation(b *testing.B) {
	m := New(event.EyesRight)
	m.Step(token.Tokenize("MSG 1 start_trial 1"))
	l := token.Tokenize("EFIX R   1651574	1654007	2434	  653.3	  557.8	   4710")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = m.Step(l)
	}
}

// BenchmarkStep_Idle benchmarks a line outside any trial.
func BenchmarkStep_Idle(b *testing.B) {
	m := New(event.EyesUnknown)
	l := token.Tokenize("MSG 6735155 !CAL CALIBRATION HV9 R RIGHT GOOD")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = m.Step(l)
	}
}

// BenchmarkTokenizeAndStep benchmarks the full per-line cost of a sample.
func BenchmarkTokenizeAndStep(b *testing.B) {
	m := New(event.EyesLeft)
	m.Step(token.Tokenize("MSG 1 start_trial 1"))
	m.Step(token.Tokenize("MSG 2 start_phase probe"))
	line := "548367	  514.0	  354.5	 1340.0	 -619.0	 -161.0	   88.9	...CFT..R.BLR"

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = m.Step(token.Tokenize(line))
	}
}
