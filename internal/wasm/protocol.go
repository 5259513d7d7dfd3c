package wasm

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/eyelog/eyelog-go/internal/token"
	"github.com/eyelog/eyelog-go/pkg/eyelog"
)

type request struct {
	Line   string   `json:"line"`
	Num    int      `json:"num"`
	Tokens []string `json:"tokens"`
	Record string   `json:"record,omitempty"`
	Phase  string   `json:"phase,omitempty"`
}

type reply struct {
	OK    bool   `json:"ok"`
	Vars  []rvar `json:"vars"`
	Error string `json:"error,omitempty"`
	Code  string `json:"code,omitempty"`
}

type rvar struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

func encodeRequest(l eyelog.Line) ([]byte, error) {
	req := request{
		Line:   l.Text,
		Num:    l.Num,
		Tokens: make([]string, len(l.Tokens)),
		Phase:  l.Phase,
	}
	for i, t := range l.Tokens {
		req.Tokens[i] = t.Raw
	}
	if l.Record != nil {
		req.Record = string(l.Record.Kind())
	}
	return json.Marshal(req)
}

// decodeReply turns a plugin reply into a parse result. Numbers become
// int64 when integral and float64 otherwise; strings, booleans and null
// are kept. Arrays and objects are rejected.
func decodeReply(data []byte) (eyelog.ParseResult, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var r reply
	if err := dec.Decode(&r); err != nil {
		return eyelog.ParseResult{}, fmt.Errorf("failed to decode plugin reply: %w", err)
	}
	if !r.OK {
		msg := r.Error
		if msg == "" {
			msg = "unknown error"
		}
		return eyelog.ParseResult{}, &PluginError{Code: r.Code, Message: msg}
	}
	if len(r.Vars) == 0 {
		return eyelog.ParseResult{}, nil
	}

	vars := make([]eyelog.Var, 0, len(r.Vars))
	for i, v := range r.Vars {
		if v.Name == "" {
			return eyelog.ParseResult{}, &PluginError{Code: "invalid_reply", Message: fmt.Sprintf("vars[%d]: empty name", i)}
		}
		switch x := v.Value.(type) {
		case json.Number:
			v.Value = token.New(x.String()).Value()
		case string, bool, nil:
		default:
			return eyelog.ParseResult{}, &PluginError{
				Code:    "invalid_reply",
				Message: fmt.Sprintf("vars[%d] %q: value must be a number, string, boolean or null", i, v.Name),
			}
		}
		vars = append(vars, eyelog.Var{Name: v.Name, Value: v.Value})
	}
	return eyelog.ParseResult{Vars: vars, Matched: true}, nil
}
