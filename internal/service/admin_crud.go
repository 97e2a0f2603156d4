package service

import (
	"context"
	"errors"
	"sync"

	"starmatch/internal/domain"
	"starmatch/internal/logger"
	"starmatch/internal/port"

	"go.uber.org/zap"
)

// ListPhase is the state of an admin list.
type ListPhase string

const (
	ListLoading ListPhase = "loading"
	ListLoaded  ListPhase = "loaded"
	// ListFailed renders an empty list plus a visible failure notice.
	ListFailed ListPhase = "failed"
)

// Editable is a record the admin panel can draft, validate and persist.
type Editable[T any] interface {
	domain.Record
	Clone() T
	Validate() error
}

// AdminView is an immutable snapshot of one admin manager.
type AdminView[T any] struct {
	Kind  string
	Phase ListPhase
	Items []T
	Draft *T
	Busy  bool
	// Notice reports a failed list load.
	Notice  string
	Message string
	// Invalid lists the draft fields rejected by the last save.
	Invalid domain.ValidationErrors
}

// AdminCRUD is the list + draft editor for one record type.
type AdminCRUD[T Editable[T]] struct {
	kind     string
	api      port.RecordAPI[T]
	template func() T
	lifetime Lifetime

	mu      sync.Mutex
	phase   ListPhase
	items   []T
	draft   *T
	busy    bool
	notice  string
	message string
	invalid domain.ValidationErrors
}

// NewAdminCRUD creates a manager for records of the given kind ("questions",
// "characters"); template builds the empty draft used by New.
func NewAdminCRUD[T Editable[T]](kind string, api port.RecordAPI[T], template func() T) *AdminCRUD[T] {
	return &AdminCRUD[T]{
		kind:     kind,
		api:      api,
		template: template,
		phase:    ListLoading,
	}
}

// NewQuestionAdmin is the Questions instance of the admin panel.
func NewQuestionAdmin(api port.RecordAPI[domain.Question]) *AdminCRUD[domain.Question] {
	return NewAdminCRUD("questions", api, domain.NewQuestionTemplate)
}

// NewCharacterAdmin is the Characters instance of the admin panel.
func NewCharacterAdmin(api port.RecordAPI[domain.Character]) *AdminCRUD[domain.Character] {
	return NewAdminCRUD("characters", api, domain.NewCharacterTemplate)
}

// Kind returns the record kind managed.
func (a *AdminCRUD[T]) Kind() string {
	return a.kind
}

// Load (re)fetches the list. A failure empties the list and leaves a
// visible notice instead of swallowing the error.
func (a *AdminCRUD[T]) Load(ctx context.Context) error {
	a.mu.Lock()
	a.phase = ListLoading
	a.mu.Unlock()

	items, err := a.api.List(ctx)

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.lifetime.Ended() {
		return ErrFlowEnded
	}
	if err != nil {
		logger.Get().Error("Failed to load admin list", zap.String("kind", a.kind), zap.Error(err))
		a.phase = ListFailed
		a.items = nil
		a.notice = "Failed to load " + a.kind
		return err
	}
	a.phase = ListLoaded
	a.items = items
	a.notice = ""
	return nil
}

// Select loads a copy of the listed record with id into the draft.
func (a *AdminCRUD[T]) Select(id string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, item := range a.items {
		if item.RecordID() == id {
			draft := item.Clone()
			a.draft = &draft
			a.invalid = nil
			return nil
		}
	}
	return domain.NewNotFoundError(a.kind + " record not found: " + id)
}

// New loads the empty template into the draft.
func (a *AdminCRUD[T]) New() {
	a.mu.Lock()
	defer a.mu.Unlock()
	draft := a.template()
	a.draft = &draft
	a.invalid = nil
}

// Edit mutates the active draft.
func (a *AdminCRUD[T]) Edit(fn func(draft *T)) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.draft == nil {
		return domain.NewActionDisabledError("no active draft")
	}
	fn(a.draft)
	return nil
}

// Save validates and persists the draft (create without ID, update with
// one), reloads the list and re-selects the persisted record.
func (a *AdminCRUD[T]) Save(ctx context.Context) (T, error) {
	var zero T
	a.mu.Lock()
	if a.draft == nil {
		a.mu.Unlock()
		return zero, domain.NewActionDisabledError("no active draft")
	}
	if a.busy {
		a.mu.Unlock()
		return zero, domain.NewActionDisabledError("another operation is in progress")
	}
	draft := (*a.draft).Clone()
	if err := draft.Validate(); err != nil {
		var verrs domain.ValidationErrors
		errors.As(err, &verrs)
		a.invalid = verrs
		a.message = "Failed to save"
		a.mu.Unlock()
		return zero, err
	}
	a.busy = true
	a.message = ""
	a.invalid = nil
	a.mu.Unlock()

	saved, err := a.api.Save(ctx, draft)
	if err != nil {
		logger.Get().Error("Failed to save admin record", zap.String("kind", a.kind), zap.String("id", draft.RecordID()), zap.Error(err))
		a.finish("Failed to save")
		return zero, err
	}

	// A failed reload shows up as the list notice; the save itself succeeded.
	_ = a.Load(ctx)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.busy = false
	if a.lifetime.Ended() {
		return saved, nil
	}
	selected := saved.Clone()
	a.draft = &selected
	return saved, nil
}

// Delete removes the record after explicit confirmation, reloads the list
// and clears the active draft.
func (a *AdminCRUD[T]) Delete(ctx context.Context, id string, confirmed bool) error {
	if !confirmed {
		return domain.NewActionDisabledError("delete must be confirmed")
	}
	a.mu.Lock()
	if a.busy {
		a.mu.Unlock()
		return domain.NewActionDisabledError("another operation is in progress")
	}
	a.busy = true
	a.message = ""
	a.mu.Unlock()

	if err := a.api.Delete(ctx, id); err != nil {
		logger.Get().Error("Failed to delete admin record", zap.String("kind", a.kind), zap.String("id", id), zap.Error(err))
		a.finish("Failed to delete")
		return err
	}

	_ = a.Load(ctx)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.busy = false
	a.draft = nil
	a.invalid = nil
	return nil
}

// View snapshots the manager for rendering.
func (a *AdminCRUD[T]) View() AdminView[T] {
	a.mu.Lock()
	defer a.mu.Unlock()
	v := AdminView[T]{
		Kind:    a.kind,
		Phase:   a.phase,
		Items:   append([]T(nil), a.items...),
		Busy:    a.busy,
		Notice:  a.notice,
		Message: a.message,
		Invalid: append(domain.ValidationErrors(nil), a.invalid...),
	}
	if a.draft != nil {
		draft := (*a.draft).Clone()
		v.Draft = &draft
	}
	return v
}

// Unmount ends the manager's lifetime.
func (a *AdminCRUD[T]) Unmount() {
	a.lifetime.End()
}

func (a *AdminCRUD[T]) finish(message string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.busy = false
	a.message = message
}
