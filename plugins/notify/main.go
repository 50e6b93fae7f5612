// Package main provides a desktop notification plugin. It shows a
// notification when posture has been bad for a while and when it recovers,
// via AppleScript on macOS and notify-send elsewhere.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// Request represents the input from the plugin executor.
type Request struct {
	Event      string          `json:"event"`
	Posture    string          `json:"posture"`
	NeckAngle  int             `json:"neck_angle"`
	TorsoAngle int             `json:"torso_angle"`
	BadSeconds float64         `json:"bad_seconds"`
	Config     json.RawMessage `json:"config"`
}

// Response represents the output to the plugin executor.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeResponse(Response{Error: fmt.Sprintf("failed to decode request: %v", err)})
		return
	}

	title, body, err := message(req)
	if err != nil {
		writeResponse(Response{Error: err.Error()})
		return
	}
	if err := notify(title, body); err != nil {
		writeResponse(Response{Error: fmt.Sprintf("notification failed: %v", err)})
		return
	}
	writeResponse(Response{Success: true})
}

func message(req Request) (title, body string, err error) {
	switch req.Event {
	case "posture_bad":
		return "Sit up straight",
			fmt.Sprintf("You have been slouching for %.0fs (neck %d°, torso %d°).", req.BadSeconds, req.NeckAngle, req.TorsoAngle),
			nil
	case "posture_recovered":
		return "Nice posture", "Back to good posture.", nil
	}
	return "", "", fmt.Errorf("unknown event: %s", req.Event)
}

func notify(title, body string) error {
	var cmd *exec.Cmd
	if runtime.GOOS == "darwin" {
		script := fmt.Sprintf("display notification %q with title %q", body, title)
		cmd = exec.Command("osascript", "-e", script)
	} else {
		cmd = exec.Command("notify-send", title, body)
	}
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}

func writeResponse(resp Response) {
	json.NewEncoder(os.Stdout).Encode(resp)
}
