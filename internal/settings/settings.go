// Package settings holds the flat options record that drives timeline curation.
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	MinExpansionLimit = 1
	MaxExpansionLimit = 99
)

// Record keys, shared by the store, the wire message and the settings panel.
const (
	KeyEnabled                      = "enabled"
	KeyHideSuccessfulDeployments    = "hideSuccessfulDeployments"
	KeyHideOldSuccessfulDeployments = "hideOldSuccessfulDeployments"
	KeyHideDestroyedDeployments     = "hideDestroyedDeployments"
	KeyHideFailedDeployments        = "hideFailedDeployments"
	KeyAutoExpandEnvironments       = "autoExpandEnvironments"
	KeyEnvironmentsFullHeight       = "environmentsFullHeight"
	KeyAutoExpandLoadMore           = "autoExpandLoadMore"
	KeyExpansionLimit               = "expansionLimit"
)

// Snapshot is an immutable copy of the options in effect for one
// reconciliation. Changes produce a new Snapshot via Merge.
type Snapshot struct {
	Enabled                      bool `json:"enabled" yaml:"enabled"`
	HideSuccessfulDeployments    bool `json:"hideSuccessfulDeployments" yaml:"hideSuccessfulDeployments"`
	HideOldSuccessfulDeployments bool `json:"hideOldSuccessfulDeployments" yaml:"hideOldSuccessfulDeployments"`
	HideDestroyedDeployments     bool `json:"hideDestroyedDeployments" yaml:"hideDestroyedDeployments"`
	HideFailedDeployments        bool `json:"hideFailedDeployments" yaml:"hideFailedDeployments"`
	AutoExpandEnvironments       bool `json:"autoExpandEnvironments" yaml:"autoExpandEnvironments"`
	EnvironmentsFullHeight       bool `json:"environmentsFullHeight" yaml:"environmentsFullHeight"`
	AutoExpandLoadMore           bool `json:"autoExpandLoadMore" yaml:"autoExpandLoadMore"`
	ExpansionLimit               int  `json:"expansionLimit" yaml:"expansionLimit"`
}

func Defaults() Snapshot {
	return Snapshot{
		Enabled:                      true,
		HideOldSuccessfulDeployments: true,
		HideDestroyedDeployments:     true,
		ExpansionLimit:               3,
	}
}

// FieldKind tells the settings panel how to edit a field.
type FieldKind int

const (
	FieldBool FieldKind = iota
	FieldLimit
)

type Field struct {
	Key   string
	Label string
	Kind  FieldKind
}

var fields = []Field{
	{Key: KeyEnabled, Label: "Enabled", Kind: FieldBool},
	{Key: KeyHideSuccessfulDeployments, Label: "Hide all successful deployments", Kind: FieldBool},
	{Key: KeyHideOldSuccessfulDeployments, Label: "Hide old successful deployments", Kind: FieldBool},
	{Key: KeyHideDestroyedDeployments, Label: "Hide destroyed deployments", Kind: FieldBool},
	{Key: KeyHideFailedDeployments, Label: "Hide failed deployments", Kind: FieldBool},
	{Key: KeyAutoExpandEnvironments, Label: "Auto-expand environments", Kind: FieldBool},
	{Key: KeyEnvironmentsFullHeight, Label: "Environments full height", Kind: FieldBool},
	{Key: KeyAutoExpandLoadMore, Label: "Auto-click \"Load more\"", Kind: FieldBool},
	{Key: KeyExpansionLimit, Label: "Load more limit", Kind: FieldLimit},
}

// Fields returns the settings fields in display order.
func Fields() []Field {
	return append([]Field(nil), fields...)
}

func IsKnownKey(key string) bool {
	for _, f := range fields {
		if f.Key == key {
			return true
		}
	}
	return false
}

// Bool reports the value of a boolean field. Unknown keys report false.
func (s Snapshot) Bool(key string) bool {
	switch key {
	case KeyEnabled:
		return s.Enabled
	case KeyHideSuccessfulDeployments:
		return s.HideSuccessfulDeployments
	case KeyHideOldSuccessfulDeployments:
		return s.HideOldSuccessfulDeployments
	case KeyHideDestroyedDeployments:
		return s.HideDestroyedDeployments
	case KeyHideFailedDeployments:
		return s.HideFailedDeployments
	case KeyAutoExpandEnvironments:
		return s.AutoExpandEnvironments
	case KeyEnvironmentsFullHeight:
		return s.EnvironmentsFullHeight
	case KeyAutoExpandLoadMore:
		return s.AutoExpandLoadMore
	default:
		return false
	}
}

func (s *Snapshot) setBool(key string, v bool) {
	switch key {
	case KeyEnabled:
		s.Enabled = v
	case KeyHideSuccessfulDeployments:
		s.HideSuccessfulDeployments = v
	case KeyHideOldSuccessfulDeployments:
		s.HideOldSuccessfulDeployments = v
	case KeyHideDestroyedDeployments:
		s.HideDestroyedDeployments = v
	case KeyHideFailedDeployments:
		s.HideFailedDeployments = v
	case KeyAutoExpandEnvironments:
		s.AutoExpandEnvironments = v
	case KeyEnvironmentsFullHeight:
		s.EnvironmentsFullHeight = v
	case KeyAutoExpandLoadMore:
		s.AutoExpandLoadMore = v
	}
}

// Merge returns a copy of s with the partial record applied. Unknown keys and
// values that cannot be read as booleans are ignored; the expansion limit is
// always clamped into range.
func (s Snapshot) Merge(partial map[string]any) Snapshot {
	out := s
	for key, raw := range partial {
		if key == KeyExpansionLimit {
			out.ExpansionLimit = ClampLimit(raw)
			continue
		}
		if !IsKnownKey(key) {
			continue
		}
		if v, ok := parseBool(raw); ok {
			out.setBool(key, v)
		}
	}
	out.ExpansionLimit = ClampLimit(out.ExpansionLimit)
	return out
}

// Record returns every field as a flat key/value map.
func (s Snapshot) Record() map[string]any {
	rec := make(map[string]any, len(fields))
	for _, f := range fields {
		if f.Kind == FieldLimit {
			rec[f.Key] = s.ExpansionLimit
			continue
		}
		rec[f.Key] = s.Bool(f.Key)
	}
	return rec
}

// ClampLimit converts raw into a valid expansion limit. Numbers are clamped to
// [MinExpansionLimit, MaxExpansionLimit]; anything non-numeric becomes the
// lower bound.
func ClampLimit(raw any) int {
	var f float64
	switch v := raw.(type) {
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case float64:
		f = v
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return MinExpansionLimit
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return MinExpansionLimit
		}
		f = parsed
	default:
		return MinExpansionLimit
	}
	if math.IsNaN(f) {
		return MinExpansionLimit
	}
	f = math.Trunc(f)
	if f < MinExpansionLimit {
		return MinExpansionLimit
	}
	if f > MaxExpansionLimit {
		return MaxExpansionLimit
	}
	return int(f)
}

func parseBool(raw any) (bool, bool) {
	switch v := raw.(type) {
	case bool:
		return v, true
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return false, false
		}
		return b, true
	default:
		return false, false
	}
}

// MessageSettingsChanged is the only message type the curation engine reacts to.
const MessageSettingsChanged = "settingsChanged"

// Message is the change notification pushed from the settings UI.
type Message struct {
	Type     string         `json:"type"`
	Settings map[string]any `json:"settings"`
}

func NewChangeMessage(partial map[string]any) Message {
	return Message{Type: MessageSettingsChanged, Settings: partial}
}

var ErrUnsupportedMessage = errors.New("unsupported message type")

func DecodeMessage(data []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return Message{}, fmt.Errorf("decode settings message: %w", err)
	}
	if msg.Type != MessageSettingsChanged {
		return Message{}, fmt.Errorf("%w: %q", ErrUnsupportedMessage, msg.Type)
	}
	if msg.Settings == nil {
		msg.Settings = map[string]any{}
	}
	return msg, nil
}
