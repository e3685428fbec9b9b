package project

import (
	"encoding/json"
	"fmt"

	"github.com/cutroom/cutroom-agent/internal/playback"
	"github.com/cutroom/cutroom-agent/internal/timeline"
)

// DocumentVersion is bumped whenever the persisted shape changes in a way
// older agents cannot read.
const DocumentVersion = 1

// Document is the persisted form of one project's timeline. It is stored as
// JSON in the projects table and is the unit of cloud sync.
type Document struct {
	Version   int              `json:"version"`
	Name      string           `json:"name"`
	Tracks    []timeline.Track `json:"tracks"`
	Clips     []timeline.Clip  `json:"clips"`
	Selection string           `json:"selection,omitempty"`
	Position  float64          `json:"position"`
}

// FromSnapshot wraps a live session snapshot into a persistable document.
func FromSnapshot(name string, snap playback.Snapshot) Document {
	return Document{
		Version:   DocumentVersion,
		Name:      name,
		Tracks:    snap.Tracks,
		Clips:     snap.Clips,
		Selection: snap.Selected,
		Position:  snap.Position,
	}
}

// Snapshot converts the document back into the form the session restores.
func (d Document) Snapshot() playback.Snapshot {
	return playback.Snapshot{
		Tracks:   d.Tracks,
		Clips:    d.Clips,
		Selected: d.Selection,
		Position: d.Position,
	}
}

// EncodeDocument renders the document as indented JSON. Indentation keeps
// the column diffable when people inspect the database by hand.
func EncodeDocument(d Document) ([]byte, error) {
	if d.Version == 0 {
		d.Version = DocumentVersion
	}
	return json.MarshalIndent(d, "", "  ")
}

// DecodeDocument parses a stored document and refuses versions this build
// does not understand.
func DecodeDocument(data []byte) (Document, error) {
	var d Document
	if err := json.Unmarshal(data, &d); err != nil {
		return Document{}, fmt.Errorf("parse document: %w", err)
	}
	if d.Version < 1 || d.Version > DocumentVersion {
		return Document{}, fmt.Errorf("unsupported document version %d", d.Version)
	}
	return d, nil
}
