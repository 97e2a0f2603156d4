package domain

// Option is one selectable answer of a question.
type Option struct {
	ID   string `json:"id" yaml:"id"`
	Text string `json:"text" yaml:"text"`
}

// Question is a quiz question as served by the backend. The same shape is
// edited in the admin panel, where an empty ID marks an unsaved draft.
type Question struct {
	ID      string   `json:"id,omitempty" yaml:"id,omitempty"`
	Text    string   `json:"text" yaml:"text"`
	Options []Option `json:"options" yaml:"options"`
}

// RecordID implements Record.
func (q Question) RecordID() string { return q.ID }

// HasOption reports whether optionID belongs to the question.
func (q Question) HasOption(optionID string) bool {
	for _, opt := range q.Options {
		if opt.ID == optionID {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so drafts never alias list items.
func (q Question) Clone() Question {
	out := q
	out.Options = append([]Option(nil), q.Options...)
	return out
}

// Validate checks the question invariants: text present, at least one
// option, option identifiers unique and non-empty.
func (q Question) Validate() error {
	var errs ValidationErrors
	if q.Text == "" {
		errs = append(errs, NewMissingFieldError("text"))
	}
	if len(q.Options) == 0 {
		errs = append(errs, NewMissingFieldError("options"))
	}
	seen := make(map[string]struct{}, len(q.Options))
	for _, opt := range q.Options {
		if opt.ID == "" {
			errs = append(errs, NewMissingFieldError("options.id"))
			continue
		}
		if _, dup := seen[opt.ID]; dup {
			errs = append(errs, NewDuplicateValueError("options.id", opt.ID))
		}
		seen[opt.ID] = struct{}{}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// NewQuestionTemplate is the empty draft loaded by "New" in the admin panel.
func NewQuestionTemplate() Question {
	return Question{
		Options: []Option{{ID: "A"}, {ID: "B"}, {ID: "C"}, {ID: "D"}},
	}
}

// AnswerMap maps a question identifier to the selected option identifier.
type AnswerMap map[string]string

// Clone copies the map so callers can't mutate controller state.
func (m AnswerMap) Clone() AnswerMap {
	out := make(AnswerMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// SubmissionResult is the backend's answer to a quiz submission.
type SubmissionResult struct {
	ResultID    string
	Character   string
	Description string
}

// MashupResult is the composite image reference, optionally carrying the
// character profile when the backend includes it.
type MashupResult struct {
	ResultID    string
	ImageURL    string
	Character   string
	Description string
}

// Handoff is the immutable transfer record carried from one screen to the
// next: quiz -> upload -> result.
type Handoff struct {
	ResultID    string `json:"resultId,omitempty"`
	Character   string `json:"character,omitempty"`
	Description string `json:"description,omitempty"`
	MashupURL   string `json:"mashupUrl,omitempty"`
}

// Record is an admin-managed entity. An empty RecordID means "not yet persisted".
type Record interface {
	RecordID() string
}
