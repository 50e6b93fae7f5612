// Package plugin discovers and runs external alert plugins. A plugin is a
// directory holding a plugin.json manifest and an executable that reads one
// JSON Request on stdin and writes one JSON Response on stdout.
package plugin

import (
	"encoding/json"
	"slices"
)

// Events a plugin can subscribe to.
const (
	EventPostureBad       = "posture_bad"
	EventPostureRecovered = "posture_recovered"
)

// Manifest describes a plugin's metadata and the events it handles.
type Manifest struct {
	Name         string          `json:"name"`
	Version      string          `json:"version"`
	Description  string          `json:"description"`
	Executable   string          `json:"executable"`
	Events       []string        `json:"events"`
	ConfigSchema json.RawMessage `json:"configSchema,omitempty"`
}

// Handles reports whether the plugin subscribed to event.
func (m Manifest) Handles(event string) bool {
	return slices.Contains(m.Events, event)
}

// Request is sent to a plugin when an event fires.
type Request struct {
	Event      string          `json:"event"`
	Posture    string          `json:"posture"`
	NeckAngle  int             `json:"neck_angle"`
	TorsoAngle int             `json:"torso_angle"`
	BadSeconds float64         `json:"bad_seconds"`
	SessionID  string          `json:"session_id,omitempty"`
	Config     json.RawMessage `json:"config,omitempty"`
}

// Response represents the response from a plugin execution.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Plugin represents a discovered plugin with its manifest and location.
type Plugin struct {
	Manifest   Manifest
	Path       string
	Executable string
}
