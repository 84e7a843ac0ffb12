package store

import (
	"context"

	"github.com/aide-ai/aide/internal/analyze"
)

// Directory adapts a Store to the analyze.ContactDirectory interface
// consumed by the cross-reference resolver.
type Directory struct {
	s Store
}

// NewDirectory wraps a Store as a contact directory.
func NewDirectory(s Store) *Directory {
	return &Directory{s: s}
}

func (d *Directory) FindByNameOrEmail(ctx context.Context, name, email string) (*analyze.DirectoryMatch, error) {
	rec, err := d.s.FindContactByNameOrEmail(ctx, name, email)
	if err != nil || rec == nil {
		return nil, err
	}
	return &analyze.DirectoryMatch{
		ID:    rec.ID,
		Name:  rec.Name,
		Email: rec.Email,
	}, nil
}
