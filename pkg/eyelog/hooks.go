package eyelog

import "context"

// Hooks is a set of optional callbacks invoked while a file is parsed.
// Nil fields are skipped. One Hooks value is shared by all files of a
// corpus run and may be called from several goroutines at once; per-trial
// state belongs on the *Trial.
//
// Error handling:
//   - OnStartFile, OnEndFile: the file fails with a *FileError.
//   - OnStartTrial, OnEndTrial: the trial is dropped and counted as skipped.
//   - ParseExtraLine: logged as a warning and counted in Stats.Warnings.
type Hooks struct {
	OnStartFile  func(ctx context.Context, path string) error
	OnEndFile    func(ctx context.Context, path string, stats Stats) error
	OnStartTrial func(ctx context.Context, tr *Trial) error
	OnEndTrial   func(ctx context.Context, tr *Trial) error

	// ParseExtraLine sees every line of an open trial other than the
	// start_trial and end_trial markers, after the machine handled it.
	ParseExtraLine func(ctx context.Context, tr *Trial, l Line) error
}

// ChainHooks combines hook sets. Each callback runs the non-nil callbacks of
// hs in order and stops at the first error.
func ChainHooks(hs ...Hooks) Hooks {
	var out Hooks
	var (
		startFile  []func(context.Context, string) error
		endFile    []func(context.Context, string, Stats) error
		startTrial []func(context.Context, *Trial) error
		endTrial   []func(context.Context, *Trial) error
		extra      []func(context.Context, *Trial, Line) error
	)
	for _, h := range hs {
		if h.OnStartFile != nil {
			startFile = append(startFile, h.OnStartFile)
		}
		if h.OnEndFile != nil {
			endFile = append(endFile, h.OnEndFile)
		}
		if h.OnStartTrial != nil {
			startTrial = append(startTrial, h.OnStartTrial)
		}
		if h.OnEndTrial != nil {
			endTrial = append(endTrial, h.OnEndTrial)
		}
		if h.ParseExtraLine != nil {
			extra = append(extra, h.ParseExtraLine)
		}
	}

	if len(startFile) > 0 {
		out.OnStartFile = func(ctx context.Context, path string) error {
			for _, f := range startFile {
				if err := f(ctx, path); err != nil {
					return err
				}
			}
			return nil
		}
	}
	if len(endFile) > 0 {
		out.OnEndFile = func(ctx context.Context, path string, stats Stats) error {
			for _, f := range endFile {
				if err := f(ctx, path, stats); err != nil {
					return err
				}
			}
			return nil
		}
	}
	if len(startTrial) > 0 {
		out.OnStartTrial = trialChain(startTrial)
	}
	if len(endTrial) > 0 {
		out.OnEndTrial = trialChain(endTrial)
	}
	if len(extra) > 0 {
		out.ParseExtraLine = func(ctx context.Context, tr *Trial, l Line) error {
			for _, f := range extra {
				if err := f(ctx, tr, l); err != nil {
					return err
				}
			}
			return nil
		}
	}
	return out
}

func trialChain(fs []func(context.Context, *Trial) error) func(context.Context, *Trial) error {
	return func(ctx context.Context, tr *Trial) error {
		for _, f := range fs {
			if err := f(ctx, tr); err != nil {
				return err
			}
		}
		return nil
	}
}

// Variables set by EventCounts.
const (
	VarFixations = "n_fixations"
	VarSaccades  = "n_saccades"
	VarBlinks    = "n_blinks"
)

// EventCounts returns hooks that count the fixations, saccades and blinks of
// each trial into the n_fixations, n_saccades and n_blinks variables.
func EventCounts() Hooks {
	return Hooks{
		OnStartTrial: func(_ context.Context, tr *Trial) error {
			tr.SetVar(VarFixations, int64(0))
			tr.SetVar(VarSaccades, int64(0))
			tr.SetVar(VarBlinks, int64(0))
			return nil
		},
		ParseExtraLine: func(_ context.Context, tr *Trial, l Line) error {
			var name string
			switch l.Record.(type) {
			case *Fixation:
				name = VarFixations
			case *Saccade:
				name = VarSaccades
			case *Blink:
				name = VarBlinks
			default:
				return nil
			}
			v, _ := tr.Var(name)
			n, _ := v.(int64)
			tr.SetVar(name, n+1)
			return nil
		},
	}
}
