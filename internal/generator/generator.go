package generator

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Generator is an interface that defines a method to generate a new value of type T.
type Generator[T any] interface {
	Next() (T, error)
}

// UUIDV4Generator produces UUIDv4 strings. Moderation events use it for their IDs.
type UUIDV4Generator struct{}

func (g *UUIDV4Generator) Next() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

var _ Generator[string] = &UUIDV4Generator{}

// SequenceGenerator yields Prefix-1, Prefix-2, ... and is handy where
// deterministic IDs are needed.
type SequenceGenerator struct {
	Prefix string

	mu sync.Mutex
	n  int
}

func (g *SequenceGenerator) Next() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%d", g.Prefix, g.n), nil
}

var _ Generator[string] = &SequenceGenerator{}
