package apiclient

import (
	"context"

	"starmatch/internal/domain"
	"starmatch/internal/port"
)

type recordAPI[T domain.Record] struct {
	list func(context.Context) ([]T, error)
	save func(context.Context, T) (T, error)
	del  func(context.Context, string) error
}

func (r recordAPI[T]) List(ctx context.Context) ([]T, error)         { return r.list(ctx) }
func (r recordAPI[T]) Save(ctx context.Context, record T) (T, error) { return r.save(ctx, record) }
func (r recordAPI[T]) Delete(ctx context.Context, id string) error   { return r.del(ctx, id) }

// Questions exposes the question endpoints as a port.RecordAPI.
func (c *Client) Questions() port.RecordAPI[domain.Question] {
	return recordAPI[domain.Question]{list: c.ListQuestions, save: c.SaveQuestion, del: c.DeleteQuestion}
}

// Characters exposes the character endpoints as a port.RecordAPI.
func (c *Client) Characters() port.RecordAPI[domain.Character] {
	return recordAPI[domain.Character]{list: c.ListCharacters, save: c.SaveCharacter, del: c.DeleteCharacter}
}
