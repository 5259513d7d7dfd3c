package wasm

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/eyelog/eyelog-go/internal/token"
	"github.com/eyelog/eyelog-go/pkg/eyelog"
)

// testPlugin returns the path of a prebuilt test plugin, skipping the test
// when it has not been built:
//
//	tinygo build -o testdata/echo.wasm -target=wasi ./testdata/echo
func testPlugin(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join("testdata", name+".wasm")
	if _, err := os.Stat(path); err != nil {
		t.Skipf("%s not built; see testdata/README", path)
	}
	return path
}

func openTest(t *testing.T, name string, opts ...Option) *Plugin {
	t.Helper()
	opts = append([]Option{WithCacheDir("")}, opts...)
	p, err := Open(context.Background(), testPlugin(t, name), opts...)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { p.Close() })
	return p
}

func line(num int, text string) eyelog.Line {
	return eyelog.Line{Num: num, Text: text, Tokens: token.Tokenize(text)}
}

func TestOpen_Errors(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	t.Run("not found", func(t *testing.T) {
		_, err := Open(ctx, filepath.Join(dir, "nope.wasm"), WithCacheDir(""))
		if !errors.Is(err, os.ErrNotExist) {
			t.Errorf("error = %v, want not exist", err)
		}
	})

	t.Run("not wasm", func(t *testing.T) {
		path := filepath.Join(dir, "bad.wasm")
		if err := os.WriteFile(path, []byte("not a wasm file"), 0o644); err != nil {
			t.Fatal(err)
		}
		_, err := Open(ctx, path, WithCacheDir(""))
		var re *RuntimeError
		if !errors.As(err, &re) || re.Op != "compilation" {
			t.Errorf("error = %v, want compilation error", err)
		}
	})

	t.Run("missing exports", func(t *testing.T) {
		path := filepath.Join(dir, "mem.wasm")
		if err := os.WriteFile(path, memoryOnly, 0o644); err != nil {
			t.Fatal(err)
		}
		_, err := Open(ctx, path, WithCacheDir(""))
		var ae *ABIError
		if !errors.As(err, &ae) || ae.Function != "abi_version" {
			t.Errorf("error = %v, want missing abi_version", err)
		}
	})

	t.Run("too large", func(t *testing.T) {
		path := filepath.Join(dir, "big.wasm")
		if err := os.WriteFile(path, make([]byte, MaxWasmFileSize+1), 0o644); err != nil {
			t.Fatal(err)
		}
		_, err := Open(ctx, path, WithCacheDir(""))
		if !errors.Is(err, ErrFileTooLarge) {
			t.Errorf("error = %v, want ErrFileTooLarge", err)
		}
	})

	t.Run("bad timeout", func(t *testing.T) {
		_, err := Open(ctx, filepath.Join(dir, "x.wasm"), WithTimeout(0))
		if err == nil {
			t.Error("expected error")
		}
	})
}

func TestPlugin_Closed(t *testing.T) {
	var p Plugin
	if _, err := p.ParseLine(context.Background(), line(1, "MSG 1 x")); !errors.Is(err, ErrClosed) {
		t.Errorf("ParseLine() on closed plugin error = %v", err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestPlugin_Minimal(t *testing.T) {
	p := openTest(t, "minimal")
	res, err := p.ParseLine(context.Background(), line(3, "MSG 100 anything"))
	if err != nil {
		t.Fatalf("ParseLine() error = %v", err)
	}
	if res.Matched || len(res.Vars) != 0 {
		t.Errorf("minimal plugin matched: %+v", res)
	}
}

func TestPlugin_Echo(t *testing.T) {
	p := openTest(t, "echo")
	res, err := p.ParseLine(context.Background(), line(7, "MSG 100 RESP left"))
	if err != nil {
		t.Fatalf("ParseLine() error = %v", err)
	}
	if !res.Matched || len(res.Vars) != 2 {
		t.Fatalf("result = %+v", res)
	}
	if res.Vars[0] != (eyelog.Var{Name: "last_line", Value: int64(7)}) {
		t.Errorf("Vars[0] = %+v", res.Vars[0])
	}
	if res.Vars[1] != (eyelog.Var{Name: "last_word", Value: "left"}) {
		t.Errorf("Vars[1] = %+v", res.Vars[1])
	}
}

func TestPlugin_Regex(t *testing.T) {
	p := openTest(t, "regex")
	ctx := context.Background()

	res, err := p.ParseLine(ctx, line(1, "MSG 100 RESP right 512"))
	if err != nil {
		t.Fatalf("ParseLine() error = %v", err)
	}
	want := []eyelog.Var{{Name: "response", Value: "right"}, {Name: "rt", Value: int64(512)}}
	if len(res.Vars) != len(want) || res.Vars[0] != want[0] || res.Vars[1] != want[1] {
		t.Errorf("Vars = %+v, want %+v", res.Vars, want)
	}

	res, err = p.ParseLine(ctx, line(2, "MSG 101 start_phase probe"))
	if err != nil || res.Matched {
		t.Errorf("non-matching line: %+v, %v", res, err)
	}
}

func TestPlugin_Timeout(t *testing.T) {
	p := openTest(t, "slow", WithTimeout(20*time.Millisecond))
	if _, err := p.ParseLine(context.Background(), line(1, "MSG 1 x")); !errors.Is(err, ErrTimeout) {
		t.Errorf("error = %v, want ErrTimeout", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.ParseLine(ctx, line(1, "MSG 1 x")); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestPlugin_InputTooLarge(t *testing.T) {
	p := openTest(t, "minimal")
	big := make([]byte, InputRegionSize)
	for i := range big {
		big[i] = 'a'
	}
	if _, err := p.ParseLine(context.Background(), eyelog.Line{Text: string(big)}); err == nil {
		t.Error("expected error for oversized line")
	}
}

func TestPlugin_Concurrent(t *testing.T) {
	p := openTest(t, "echo")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				if _, err := p.ParseLine(context.Background(), line(i*100+j, "MSG 1 RESP up")); err != nil {
					t.Errorf("ParseLine() error = %v", err)
					return
				}
			}
		}(i)
	}
	wg.Wait()
}

func TestPlugin_WithParsers(t *testing.T) {
	p := openTest(t, "regex")
	path := filepath.Join(t.TempDir(), "s01.asc")
	content := "MSG 1 start_trial 4\nMSG 2 RESP left 640\nMSG 3 end_trial\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	res, err := eyelog.ParseFile(context.Background(), path, eyelog.WithParsers(p))
	if err != nil {
		t.Fatalf("ParseFile() error = %v", err)
	}
	if len(res.Trials) != 1 {
		t.Fatalf("got %d trials", len(res.Trials))
	}
	if v, _ := res.Trials[0].Var("rt"); v != int64(640) {
		t.Errorf("rt = %v", v)
	}
}
