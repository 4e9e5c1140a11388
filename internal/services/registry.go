package services

import (
	"fmt"
	"os"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"queue-system/internal/status"
	"queue-system/models"
)

// DefaultActivities is the activity list used when no activities file is configured.
func DefaultActivities() []models.Activity {
	return []models.Activity{
		{ID: "pay-fees", Label: "Pay Fees", Prefix: "F", Icon: "💰"},
		{ID: "request-transcript", Label: "Request Transcript", Prefix: "T", Icon: "📄"},
		{ID: "general-inquiry", Label: "General Inquiry", Prefix: "G", Icon: "❓"},
		{ID: "course-registration", Label: "Course Registration", Prefix: "C", Icon: "📚"},
	}
}

// ActivityRegistry is the immutable set of known activities, kept in
// declaration order.
type ActivityRegistry struct {
	activities []models.Activity
	byID       map[string]models.Activity
}

func NewActivityRegistry(activities []models.Activity) (*ActivityRegistry, error) {
	if len(activities) == 0 {
		return nil, fmt.Errorf("activity registry: no activities defined")
	}

	r := &ActivityRegistry{
		activities: make([]models.Activity, 0, len(activities)),
		byID:       make(map[string]models.Activity, len(activities)),
	}
	for _, a := range activities {
		if a.ID == "" {
			return nil, fmt.Errorf("activity registry: activity %q has no id", a.Label)
		}
		if _, dup := r.byID[a.ID]; dup {
			return nil, fmt.Errorf("activity registry: duplicate activity id %q", a.ID)
		}
		if utf8.RuneCountInString(a.Prefix) != 1 {
			return nil, fmt.Errorf("activity registry: activity %q prefix must be one character, got %q", a.ID, a.Prefix)
		}
		if a.Label == "" {
			a.Label = a.ID
		}
		r.activities = append(r.activities, a)
		r.byID[a.ID] = a
	}
	return r, nil
}

type activitiesFile struct {
	Activities []models.Activity `yaml:"activities"`
}

// LoadActivitiesFile reads a YAML document of the form
//
//	activities:
//	  - id: pay-fees
//	    label: Pay Fees
//	    prefix: F
//	    icon: "💰"
func LoadActivitiesFile(path string) (*ActivityRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read activities file: %w", err)
	}

	var doc activitiesFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse activities file %s: %w", path, err)
	}

	return NewActivityRegistry(doc.Activities)
}

func (r *ActivityRegistry) Get(id string) (models.Activity, error) {
	a, ok := r.byID[id]
	if !ok {
		return models.Activity{}, fmt.Errorf("%w: %q", status.ErrUnknownActivity, id)
	}
	return a, nil
}

func (r *ActivityRegistry) All() []models.Activity {
	out := make([]models.Activity, len(r.activities))
	copy(out, r.activities)
	return out
}

func (r *ActivityRegistry) IDs() []string {
	ids := make([]string, len(r.activities))
	for i, a := range r.activities {
		ids[i] = a.ID
	}
	return ids
}
