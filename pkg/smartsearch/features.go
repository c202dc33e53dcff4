package smartsearch

import (
	"strings"

	"github.com/google/uuid"
)

type FeatureType string

const (
	FeatureText    FeatureType = "text"
	FeatureBoolean FeatureType = "boolean"
	FeatureScore   FeatureType = "score"
)

type ScoreOptions struct {
	Min  float64 `json:"min" yaml:"min"`
	Max  float64 `json:"max" yaml:"max"`
	Step float64 `json:"step,omitempty" yaml:"step,omitempty"`
}

// FeatureDefinition is an extraction request; the id also labels the
// extracted value on each article.
type FeatureDefinition struct {
	ID          string        `json:"id" yaml:"id"`
	Name        string        `json:"name" yaml:"name"`
	Description string        `json:"description" yaml:"description"`
	Type        FeatureType   `json:"type" yaml:"type"`
	Options     *ScoreOptions `json:"options,omitempty" yaml:"options,omitempty"`
}

func (f FeatureDefinition) validate() error {
	if strings.TrimSpace(f.Name) == "" {
		return validationErr("name", "feature name is required")
	}
	if strings.TrimSpace(f.Description) == "" {
		return validationErr("description", "extraction prompt is required")
	}
	switch f.Type {
	case FeatureText, FeatureBoolean:
		if f.Options != nil {
			return validationErr("options", "only score features take options")
		}
	case FeatureScore:
		if o := f.Options; o != nil {
			if o.Min >= o.Max {
				return validationErr("options", "min must be below max")
			}
			if o.Step < 0 {
				return validationErr("options", "step cannot be negative")
			}
		}
	default:
		return validationErr("type", "unknown feature type "+string(f.Type))
	}
	return nil
}

// FeatureLedger keeps pending and applied feature definitions. A feature id is
// in at most one of the two sets.
type FeatureLedger struct {
	pending []FeatureDefinition
	applied []FeatureDefinition
}

func NewFeatureLedger() *FeatureLedger {
	return &FeatureLedger{}
}

func (l *FeatureLedger) has(id string) bool {
	return indexOf(l.pending, id) >= 0 || indexOf(l.applied, id) >= 0
}

// AddPending validates f and queues it. An empty id gets a fresh uuid.
func (l *FeatureLedger) AddPending(f FeatureDefinition) (FeatureDefinition, error) {
	if err := f.validate(); err != nil {
		return FeatureDefinition{}, err
	}
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	if l.has(f.ID) {
		return FeatureDefinition{}, validationErr("id", "feature "+f.ID+" already exists")
	}
	l.pending = append(l.pending, f)
	return f, nil
}

func (l *FeatureLedger) RemovePending(id string) bool {
	var ok bool
	l.pending, ok = without(l.pending, id)
	return ok
}

func (l *FeatureLedger) RemoveApplied(id string) bool {
	var ok bool
	l.applied, ok = without(l.applied, id)
	return ok
}

// Apply moves the extracted definitions from pending into the applied set and
// returns the ids it moved. Definitions no longer pending are skipped, and
// anything queued after the extraction started stays pending. A re-extracted
// feature replaces its earlier applied definition in place.
func (l *FeatureLedger) Apply(extracted []FeatureDefinition) map[string]bool {
	moved := make(map[string]bool, len(extracted))
	for _, sent := range extracted {
		i := indexOf(l.pending, sent.ID)
		if i < 0 {
			continue
		}
		f := l.pending[i]
		l.pending = append(l.pending[:i:i], l.pending[i+1:]...)
		if j := indexOf(l.applied, f.ID); j >= 0 {
			l.applied[j] = f
		} else {
			l.applied = append(l.applied, f)
		}
		moved[f.ID] = true
	}
	return moved
}

// ReplaceApplied resets both sets, e.g. when restoring from a session record.
func (l *FeatureLedger) ReplaceApplied(applied []FeatureDefinition) {
	l.pending = nil
	l.applied = cloneFeatures(applied)
}

func (l *FeatureLedger) Pending() []FeatureDefinition {
	return cloneFeatures(l.pending)
}

func (l *FeatureLedger) Applied() []FeatureDefinition {
	return cloneFeatures(l.applied)
}

func indexOf(defs []FeatureDefinition, id string) int {
	for i, f := range defs {
		if f.ID == id {
			return i
		}
	}
	return -1
}

func without(defs []FeatureDefinition, id string) ([]FeatureDefinition, bool) {
	i := indexOf(defs, id)
	if i < 0 {
		return defs, false
	}
	out := make([]FeatureDefinition, 0, len(defs)-1)
	out = append(out, defs[:i]...)
	return append(out, defs[i+1:]...), true
}

func cloneFeatures(defs []FeatureDefinition) []FeatureDefinition {
	if len(defs) == 0 {
		return nil
	}
	out := make([]FeatureDefinition, len(defs))
	for i, f := range defs {
		out[i] = f
		if f.Options != nil {
			o := *f.Options
			out[i].Options = &o
		}
	}
	return out
}
