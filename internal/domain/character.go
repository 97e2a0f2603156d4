package domain

// Character is a matchable character managed from the admin panel.
type Character struct {
	ID           string `json:"id,omitempty" yaml:"id,omitempty"`
	Name         string `json:"name" yaml:"name"`
	Description  string `json:"description" yaml:"description"`
	BaseImageURL string `json:"baseImageUrl" yaml:"baseImageUrl"`
}

// RecordID implements Record.
func (c Character) RecordID() string { return c.ID }

// Clone returns a copy of the character.
func (c Character) Clone() Character { return c }

// Validate requires a name; the other fields are free-form.
func (c Character) Validate() error {
	if c.Name == "" {
		return ValidationErrors{NewMissingFieldError("name")}
	}
	return nil
}

// NewCharacterTemplate is the empty draft loaded by "New" in the admin panel.
func NewCharacterTemplate() Character {
	return Character{}
}
