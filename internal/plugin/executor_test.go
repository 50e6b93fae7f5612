package plugin

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

// scriptPlugin writes a shell script plugin into a temp dir.
func scriptPlugin(t *testing.T, script string) *Plugin {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("skipping test on Windows")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "alert.sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}
	return &Plugin{
		Manifest: Manifest{
			Name:       "alert",
			Executable: "alert.sh",
			Events:     []string{EventPostureBad},
		},
		Path:       dir,
		Executable: path,
	}
}

func badRequest() *Request {
	return &Request{
		Event:      EventPostureBad,
		Posture:    "bad",
		NeckAngle:  52,
		TorsoAngle: 14,
		BadSeconds: 31.5,
		Config:     json.RawMessage(`{"sound":"ping"}`),
	}
}

func TestExecutor_Execute(t *testing.T) {
	p := scriptPlugin(t, `cat <<'EOF'
{"success":true,"data":{"message":"sit up"}}
EOF
`)

	resp, err := NewExecutor(5*time.Second).Execute(context.Background(), p, badRequest())
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}
	if !resp.Success || resp.Error != "" {
		t.Errorf("unexpected response %+v", resp)
	}

	var data map[string]interface{}
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		t.Fatalf("failed to unmarshal response data: %v", err)
	}
	if data["message"] != "sit up" {
		t.Errorf("expected message 'sit up', got %v", data["message"])
	}
}

func TestExecutor_Execute_ReadsStdin(t *testing.T) {
	// echo the request back inside data
	p := scriptPlugin(t, `input=$(cat)
printf '{"success":true,"data":%s}' "$input"
`)

	resp, err := NewExecutor(5*time.Second).Execute(context.Background(), p, badRequest())
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}

	var echoed Request
	if err := json.Unmarshal(resp.Data, &echoed); err != nil {
		t.Fatalf("failed to unmarshal echoed request: %v", err)
	}
	if echoed.Event != EventPostureBad || echoed.NeckAngle != 52 || echoed.BadSeconds != 31.5 {
		t.Errorf("plugin saw %+v", echoed)
	}
	if string(echoed.Config) != `{"sound":"ping"}` {
		t.Errorf("config = %s", echoed.Config)
	}
}

func TestExecutor_Failures(t *testing.T) {
	tests := []struct {
		name    string
		script  string
		timeout time.Duration
		check   func(t *testing.T, resp *Response, err error)
	}{
		{
			name:    "timeout",
			script:  "exec sleep 5\n",
			timeout: 100 * time.Millisecond,
			check: func(t *testing.T, _ *Response, err error) {
				if !errors.Is(err, ErrTimeout) {
					t.Errorf("expected ErrTimeout, got %v", err)
				}
			},
		},
		{
			name:   "error response",
			script: `echo '{"success":false,"error":"no display"}'` + "\n",
			check: func(t *testing.T, resp *Response, err error) {
				if err != nil {
					t.Fatalf("Execute() failed: %v", err)
				}
				if resp.Success || resp.Error != "no display" {
					t.Errorf("unexpected response %+v", resp)
				}
			},
		},
		{
			name:   "invalid json",
			script: "echo 'not json'\n",
			check: func(t *testing.T, _ *Response, err error) {
				if err == nil || !strings.Contains(err.Error(), "parse plugin response") {
					t.Errorf("expected parse error, got %v", err)
				}
			},
		},
		{
			name:   "non-zero exit",
			script: "echo 'boom' >&2\nexit 3\n",
			check: func(t *testing.T, _ *Response, err error) {
				if err == nil || !strings.Contains(err.Error(), "boom") {
					t.Errorf("expected error carrying stderr, got %v", err)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := scriptPlugin(t, tt.script)
			timeout := tt.timeout
			if timeout == 0 {
				timeout = 5 * time.Second
			}
			resp, err := NewExecutor(timeout).Execute(context.Background(), p, badRequest())
			tt.check(t, resp, err)
		})
	}
}

func TestNewExecutor_DefaultTimeout(t *testing.T) {
	if e := NewExecutor(0); e.timeout != DefaultTimeout {
		t.Errorf("timeout = %v, want %v", e.timeout, DefaultTimeout)
	}
}
