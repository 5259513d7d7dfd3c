package wasm

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"golang.org/x/time/rate"
)

const (
	// MaxLogSize bounds one plugin log message.
	MaxLogSize = 256

	// LogRateLimit is the number of plugin log calls allowed per second,
	// shared by all instances of a plugin.
	LogRateLimit = 10

	// submatchOverflow is returned by regex_find_submatch when the output
	// buffer is too small.
	submatchOverflow = 0xFFFFFFFF
)

// host implements the functions exported to plugins in the "env" module.
type host struct {
	regexes *regexCache
	logger  *slog.Logger
	limiter *rate.Limiter
	now     func() time.Time
}

func newHost(logger *slog.Logger) *host {
	return &host{
		regexes: newRegexCache(DefaultRegexCacheSize),
		logger:  logger,
		limiter: rate.NewLimiter(LogRateLimit, LogRateLimit),
		now:     time.Now,
	}
}

// instantiate registers the env module in rt.
func (h *host) instantiate(ctx context.Context, rt wazero.Runtime) error {
	_, err := rt.NewHostModuleBuilder("env").
		// (str_ptr, str_len, re_ptr, re_len) -> 1 on match, else 0
		NewFunctionBuilder().WithFunc(h.regexMatch).Export("regex_match").
		// (str_ptr, str_len, re_ptr, re_len, out_ptr, out_len) -> bytes written
		NewFunctionBuilder().WithFunc(h.regexFindSubmatch).Export("regex_find_submatch").
		// (level, ptr, len)
		NewFunctionBuilder().WithFunc(h.log).Export("log").
		// () -> unix milliseconds
		NewFunctionBuilder().WithFunc(h.nowMs).Export("now_ms").
		Instantiate(ctx)
	return err
}

// readArgs reads the subject string and the pattern of a regex host call.
func readArgs(m api.Module, strPtr, strLen, rePtr, reLen uint32) (string, string, bool) {
	s, ok := m.Memory().Read(strPtr, strLen)
	if !ok {
		return "", "", false
	}
	re, ok := m.Memory().Read(rePtr, reLen)
	if !ok {
		return "", "", false
	}
	return string(s), string(re), true
}

func (h *host) regexMatch(ctx context.Context, m api.Module, strPtr, strLen, rePtr, reLen uint32) uint32 {
	s, pattern, ok := readArgs(m, strPtr, strLen, rePtr, reLen)
	if !ok {
		return 0
	}
	re, err := h.regexes.Get(pattern)
	if err != nil {
		h.logger.WarnContext(ctx, "plugin regex rejected", "pattern", pattern, "error", err)
		return 0
	}
	if re.MatchString(s) {
		return 1
	}
	return 0
}

// regexFindSubmatch writes the submatches as a JSON string array. It
// returns 0 for no match and submatchOverflow if out_len is too small.
func (h *host) regexFindSubmatch(ctx context.Context, m api.Module, strPtr, strLen, rePtr, reLen, outPtr, outLen uint32) uint32 {
	s, pattern, ok := readArgs(m, strPtr, strLen, rePtr, reLen)
	if !ok {
		return 0
	}
	re, err := h.regexes.Get(pattern)
	if err != nil {
		h.logger.WarnContext(ctx, "plugin regex rejected", "pattern", pattern, "error", err)
		return 0
	}

	matches := re.FindStringSubmatch(s)
	if matches == nil {
		return 0
	}
	out, err := json.Marshal(matches)
	if err != nil {
		return 0
	}
	if uint32(len(out)) > outLen {
		return submatchOverflow
	}
	if !m.Memory().Write(outPtr, out) {
		return 0
	}
	return uint32(len(out))
}

// log forwards a plugin message to the logger. Levels are 0 debug, 1 info,
// 2 warn and 3 error. Messages over the rate limit are dropped.
func (h *host) log(ctx context.Context, m api.Module, level, ptr, n uint32) {
	if !h.limiter.Allow() {
		return
	}

	truncated := n > MaxLogSize
	if truncated {
		n = MaxLogSize
	}
	b, ok := m.Memory().Read(ptr, n)
	if !ok {
		return
	}
	msg := strings.ToValidUTF8(string(b), "�")
	if truncated {
		msg += " [truncated]"
	}

	lvl := slog.LevelInfo
	switch level {
	case 0:
		lvl = slog.LevelDebug
	case 2:
		lvl = slog.LevelWarn
	case 3:
		lvl = slog.LevelError
	}
	h.logger.Log(ctx, lvl, "[plugin] "+msg, "module", m.Name())
}

func (h *host) nowMs() int64 {
	return h.now().UnixMilli()
}
