package agentloop

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/opencoder/agentcore/unifiedllm"
)

// persistenceSchemaVersion is bumped whenever the on-disk document shape
// changes incompatibly.
const persistenceSchemaVersion = 1

// persistedConversation is the §6 save/load document: schema version, the
// full message list, the active model colour, and cumulative usage.
type persistedConversation struct {
	SchemaVersion int               `json:"schema_version"`
	Colour        Colour            `json:"colour"`
	Usage         unifiedllm.Usage  `json:"usage"`
	History       []Turn            `json:"history"`
}

// Save serialises the session's full message list, active colour, and
// cumulative usage counters to path.
func (s *Session) Save(path string) error {
	doc := persistedConversation{
		SchemaVersion: persistenceSchemaVersion,
		Colour:        s.CurrentColour(),
		Usage:         s.CumulativeUsage(),
		History:       s.History(),
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return NewFatalError("marshaling conversation for save", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return NewFatalError(fmt.Sprintf("writing conversation to %s", path), err)
	}
	return nil
}

// Load restores a conversation previously written by Save, replacing the
// session's history, colour, and usage counters wholesale.
func (s *Session) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return NewFatalError(fmt.Sprintf("reading conversation from %s", path), err)
	}
	var doc persistedConversation
	if err := json.Unmarshal(data, &doc); err != nil {
		return NewFatalError("parsing saved conversation", err)
	}
	if doc.SchemaVersion != persistenceSchemaVersion {
		return NewFatalError(fmt.Sprintf("unsupported conversation schema version %d", doc.SchemaVersion), nil)
	}

	s.ReplaceHistory(doc.History)
	s.SetCumulativeUsage(doc.Usage)
	if doc.Colour.Valid() {
		s.mu.Lock()
		s.colour = doc.Colour
		s.mu.Unlock()
	}
	return nil
}
