package remote

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Makepad-fr/tada/internal/model"
)

// Patch is a partial update of one item. It carries only the fields that
// changed, and encodes to a JSON object holding exactly those keys.
type Patch struct {
	SetCompletion bool
	Completed     bool
	CompletedAt   *time.Time

	SetDeadline bool
	Deadline    *model.Date
}

// Wire field names.
const (
	FieldCompleted   = "completed"
	FieldCompletedAt = "completedAt"
	FieldDeadline    = "deadline"
)

var errEmptyPatch = errors.New("empty patch")

func CompletionPatch(done bool, at *time.Time) Patch {
	return Patch{SetCompletion: true, Completed: done, CompletedAt: at}
}

func DeadlinePatch(d *model.Date) Patch {
	return Patch{SetDeadline: true, Deadline: d}
}

func (p Patch) Empty() bool { return !p.SetCompletion && !p.SetDeadline }

// Fields returns the changed fields keyed by wire name.
func (p Patch) Fields() map[string]any {
	out := map[string]any{}
	if p.SetCompletion {
		out[FieldCompleted] = p.Completed
		out[FieldCompletedAt] = p.CompletedAt
	}
	if p.SetDeadline {
		out[FieldDeadline] = p.Deadline
	}
	return out
}

// Apply writes the patched fields onto it.
func (p Patch) Apply(it *model.Item) {
	if p.SetCompletion {
		it.Completed = p.Completed
		it.CompletedAt = nil
		if p.CompletedAt != nil {
			t := *p.CompletedAt
			it.CompletedAt = &t
		}
	}
	if p.SetDeadline {
		it.Deadline = nil
		if p.Deadline != nil {
			d := *p.Deadline
			it.Deadline = &d
		}
	}
}

func (p Patch) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Fields())
}

func (p *Patch) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	var out Patch
	_, hasDone := raw[FieldCompleted]
	_, hasAt := raw[FieldCompletedAt]
	if hasDone != hasAt {
		return fmt.Errorf("patch: %s and %s must be updated together", FieldCompleted, FieldCompletedAt)
	}
	for k, v := range raw {
		switch k {
		case FieldCompleted:
			out.SetCompletion = true
			if err := json.Unmarshal(v, &out.Completed); err != nil {
				return fmt.Errorf("patch %s: %w", k, err)
			}
		case FieldCompletedAt:
			if err := json.Unmarshal(v, &out.CompletedAt); err != nil {
				return fmt.Errorf("patch %s: %w", k, err)
			}
		case FieldDeadline:
			out.SetDeadline = true
			if err := json.Unmarshal(v, &out.Deadline); err != nil {
				return fmt.Errorf("patch %s: %w", k, err)
			}
			if out.Deadline != nil {
				d, err := model.ParseDate(string(*out.Deadline))
				if err != nil {
					return fmt.Errorf("patch %s: %w", k, err)
				}
				out.Deadline = &d
			}
		default:
			return fmt.Errorf("patch: unknown field %q", k)
		}
	}
	if out.SetCompletion && out.Completed != (out.CompletedAt != nil) {
		return fmt.Errorf("patch: %w", model.ErrCompletionMismatch)
	}
	if out.Empty() {
		return errEmptyPatch
	}
	*p = out
	return nil
}
