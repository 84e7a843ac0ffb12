package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ContactRecord is a row in the contact directory.
type ContactRecord struct {
	ID        int64
	Name      string
	Company   string
	Position  string
	Email     string
	Phone     string
	Type      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

const contactColumns = "id, name, company, position, email, phone, type, created_at, updated_at"

// AddContact inserts a contact and returns its ID.
func (s *SQLiteStore) AddContact(ctx context.Context, c *ContactRecord) (int64, error) {
	if strings.TrimSpace(c.Name) == "" {
		return 0, errors.New("contact name is required")
	}
	if c.Type == "" {
		c.Type = "individual"
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO contacts (name, company, position, email, phone, type)
		VALUES (?, ?, ?, ?, ?, ?)`,
		c.Name, c.Company, c.Position, c.Email, c.Phone, c.Type,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting contact: %w", err)
	}
	return result.LastInsertId()
}

// GetContact returns a contact by ID, or nil if not found.
func (s *SQLiteStore) GetContact(ctx context.Context, id int64) (*ContactRecord, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+contactColumns+" FROM contacts WHERE id = ?", id)
	return scanContact(row)
}

// ListContacts returns contacts ordered by name.
func (s *SQLiteStore) ListContacts(ctx context.Context, limit int) ([]*ContactRecord, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+contactColumns+" FROM contacts ORDER BY lower(name) LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("listing contacts: %w", err)
	}
	defer rows.Close()

	var contacts []*ContactRecord
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}

// FindContactByNameOrEmail returns the first contact whose name matches
// exactly (case-insensitive) or whose email contains the given email as a
// substring. Returns (nil, nil) when nothing matches; empty arguments
// never match.
func (s *SQLiteStore) FindContactByNameOrEmail(ctx context.Context, name, email string) (*ContactRecord, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" && email == "" {
		return nil, nil
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT `+contactColumns+` FROM contacts
		WHERE (? != '' AND lower(name) = lower(?))
		   OR (? != '' AND email != '' AND instr(lower(email), lower(?)) > 0)
		ORDER BY id
		LIMIT 1`,
		name, name, email, email,
	)
	return scanContact(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContact(row rowScanner) (*ContactRecord, error) {
	var c ContactRecord
	err := row.Scan(&c.ID, &c.Name, &c.Company, &c.Position, &c.Email, &c.Phone, &c.Type, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning contact row: %w", err)
	}
	return &c, nil
}
