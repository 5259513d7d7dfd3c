// Package eyelog converts EyeLink ASCII recordings (.asc) into trial tables.
//
// A recording marks its structure with MSG lines:
//
//	MSG	6735155 start_trial 1
//	MSG	6735160 var cond A
//	MSG	6736001 start_phase probe
//	4815155   168.2   406.5  2141.0 ...
//	MSG	6736900 end_phase probe
//	MSG	6740629 end_trial
//
// Each trial becomes one table row with its identifier (trialid), the file
// it came from (path), its variables, and for each phase the pupil, x and y
// series of the samples recorded while the phase was open (ptrace_<phase>,
// xtrace_<phase>, ytrace_<phase>).
//
// # Basic Usage
//
// To parse every .asc file in a folder:
//
//	res, err := eyelog.ParseCorpus(ctx, eyelog.WithDir("data"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, fe := range res.Failed {
//	    log.Printf("skipped %s: %v", fe.Path, fe.Err)
//	}
//	_ = res.Table.WriteJSONL(os.Stdout)
//
// To walk the trials of a single file:
//
//	for tr, err := range eyelog.Trials(ctx, "data/s01.asc") {
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    rt, _ := tr.Var("rt")
//	    fmt.Println(tr.ID, rt)
//	}
//
// # Error Handling
//
// Lines that are not records are ignored. Record lines with non-numeric
// fields are rejected and counted in Stats.Rejected. Control messages that
// break the trial/phase nesting drop the trial (DiscardTrial, the default)
// or fail the file (AbortFile); see WithPolicy. A failing file never stops a
// corpus run.
//
// # Hooks
//
// [Hooks] add behavior per file, per trial and per line without changing
// the parser. [EventCounts] counts fixations, saccades and blinks per trial.
// A [Parser] extracts variables from arbitrary lines; the [pattern]
// subpackage builds one from YAML regex patterns:
//
//	rp, err := pattern.NewRegexParserFromFile("patterns.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	res, err := eyelog.ParseCorpus(ctx, eyelog.WithParsers(rp))
package eyelog
