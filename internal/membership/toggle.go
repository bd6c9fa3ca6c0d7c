// Package membership implements the add/remove protocol shared by the
// favorite, shopping cart and subscription relations.
package membership

import (
	"context"
	"errors"
	"fmt"

	"foodgram/internal/metrics"
)

// Op is a toggle direction.
type Op int

const (
	Add Op = iota
	Remove
)

func (o Op) String() string {
	if o == Remove {
		return "remove"
	}
	return "add"
}

var (
	ErrAlreadyExists        = errors.New("already exists")
	ErrNotFound             = errors.New("not found")
	ErrInvalidSelfReference = errors.New("container and item are the same")
)

// Relation is one many-to-many association, addressed by container and item.
type Relation interface {
	Name() string
	Exists(ctx context.Context, containerID, itemID int64) (bool, error)
	Add(ctx context.Context, containerID, itemID int64) error
	Remove(ctx context.Context, containerID, itemID int64) error
}

// Toggle applies Add/Remove to a Relation and serializes the added item.
type Toggle[T any] struct {
	Relation  Relation
	Serialize func(ctx context.Context, itemID int64) (T, error)
	// RejectSelf forbids containerID == itemID in both directions.
	RejectSelf bool
}

// Apply runs op. Add returns the serialized item; Remove returns the zero T.
func (t Toggle[T]) Apply(ctx context.Context, containerID, itemID int64, op Op) (T, error) {
	res, err := t.apply(ctx, containerID, itemID, op)
	metrics.MembershipToggles.WithLabelValues(t.Relation.Name(), op.String(), outcome(err)).Inc()
	return res, err
}

func (t Toggle[T]) apply(ctx context.Context, containerID, itemID int64, op Op) (T, error) {
	var zero T

	if t.RejectSelf && containerID == itemID {
		return zero, ErrInvalidSelfReference
	}

	exists, err := t.Relation.Exists(ctx, containerID, itemID)
	if err != nil {
		return zero, fmt.Errorf("check %s membership: %w", t.Relation.Name(), err)
	}

	switch op {
	case Add:
		if exists {
			return zero, ErrAlreadyExists
		}
		if err := t.Relation.Add(ctx, containerID, itemID); err != nil {
			return zero, err
		}
		if t.Serialize == nil {
			return zero, nil
		}
		return t.Serialize(ctx, itemID)
	case Remove:
		if !exists {
			return zero, ErrNotFound
		}
		return zero, t.Relation.Remove(ctx, containerID, itemID)
	default:
		return zero, fmt.Errorf("unknown op %d", op)
	}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrAlreadyExists):
		return "already_exists"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidSelfReference):
		return "self_reference"
	default:
		return "error"
	}
}
