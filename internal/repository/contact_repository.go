package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/contacts-api/internal/model"
)

// contactColumns is the select list shared by every contact query.
const contactColumns = "id, user_id, name, surname, email, phonenumber, birthday, description, created_at, updated_at"

// ContactRepo encapsulates all database queries related to contacts. Every
// method is scoped to an owner: a contact is only ever visible or mutable
// through the user_id it was created with.
type ContactRepo struct {
	db *sql.DB
}

// NewContactRepo constructs a ContactRepo with the provided DB handle.
func NewContactRepo(db *sql.DB) *ContactRepo {
	return &ContactRepo{db: db}
}

// ContactFilter holds the optional equality filters of the list operation.
// An empty string means the field was not supplied.
type ContactFilter struct {
	Name    string
	Surname string
	Email   string
}

// empty reports whether no filter field was supplied.
func (f ContactFilter) empty() bool {
	return f.Name == "" && f.Surname == "" && f.Email == ""
}

// ListByOwner returns the owner's contacts, optionally narrowed by filter.
// When at least one filter field is supplied, a contact qualifies if it
// matches ANY supplied field (logical OR); fields that were not supplied
// are not compared at all. When no field is supplied the OR clause is
// omitted entirely and all of the owner's contacts are returned. Results
// are ordered by primary key and paginated with skip/limit. A limit <= 0
// means no limit.
func (r *ContactRepo) ListByOwner(ctx context.Context, ownerID uint64, filter ContactFilter, skip, limit int) ([]*model.Contact, error) {
	q := "SELECT " + contactColumns + " FROM contacts WHERE user_id = ?"
	args := []any{ownerID}

	if !filter.empty() {
		// Fold the supplied (column, value) pairs into a single OR
		// predicate ANDed with the ownership check.
		var preds []string
		for _, p := range []struct {
			column string
			value  string
		}{
			{"name", filter.Name},
			{"surname", filter.Surname},
			{"email", filter.Email},
		} {
			if p.value != "" {
				preds = append(preds, p.column+" = ?")
				args = append(args, p.value)
			}
		}
		q += " AND (" + strings.Join(preds, " OR ") + ")"
	}

	q += " ORDER BY id"
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}
	if skip > 0 {
		q += " OFFSET ?"
		args = append(args, skip)
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanContacts(rows)
}

// GetByIDAndOwner fetches a contact by id but only if it belongs to the
// specified owner. If the contact doesn't exist or is owned by someone
// else, ErrContactNotFound is returned.
func (r *ContactRepo) GetByIDAndOwner(ctx context.Context, id, ownerID uint64) (*model.Contact, error) {
	const q = "SELECT " + contactColumns + " FROM contacts WHERE id = ? AND user_id = ?"
	var c model.Contact
	if err := scanContact(r.db.QueryRowContext(ctx, q, id, ownerID), &c); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrContactNotFound
		}
		return nil, err
	}
	return &c, nil
}

// Create inserts a new contact for its owner. On success the ID field is
// populated with the auto-generated value and a follow-up SELECT fills the
// timestamp columns so callers receive a fully populated record.
func (r *ContactRepo) Create(ctx context.Context, c *model.Contact) error {
	const qInsert = `INSERT INTO contacts (user_id, name, surname, email, phonenumber, birthday, description)
	                 VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, qInsert,
		c.UserID, c.Name, c.Surname, c.Email, c.PhoneNumber, c.Birthday, c.Description)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)

	const qSelect = "SELECT created_at, updated_at FROM contacts WHERE id = ?"
	return r.db.QueryRowContext(ctx, qSelect, c.ID).Scan(&c.CreatedAt, &c.UpdatedAt)
}

// UpdateByIDAndOwner replaces every mutable field of the contact. This is a
// full overwrite, not a patch; the handler guarantees all fields are
// present. Returns ErrContactNotFound (and performs no mutation) when the
// contact does not exist or belongs to a different user.
func (r *ContactRepo) UpdateByIDAndOwner(ctx context.Context, id, ownerID uint64, c *model.Contact) (*model.Contact, error) {
	// Verify ownership first. An UPDATE's affected-row count cannot
	// distinguish "not owned" from "no column changed".
	if _, err := r.GetByIDAndOwner(ctx, id, ownerID); err != nil {
		return nil, err
	}
	const q = `UPDATE contacts
	           SET name = ?, surname = ?, email = ?, phonenumber = ?, birthday = ?, description = ?,
	               updated_at = CURRENT_TIMESTAMP
	           WHERE id = ? AND user_id = ?`
	if _, err := r.db.ExecContext(ctx, q,
		c.Name, c.Surname, c.Email, c.PhoneNumber, c.Birthday, c.Description, id, ownerID); err != nil {
		return nil, err
	}
	return r.GetByIDAndOwner(ctx, id, ownerID)
}

// DeleteByIDAndOwner removes the contact and returns its pre-deletion
// snapshot. Returns ErrContactNotFound when the contact does not exist or
// belongs to a different user.
func (r *ContactRepo) DeleteByIDAndOwner(ctx context.Context, id, ownerID uint64) (*model.Contact, error) {
	c, err := r.GetByIDAndOwner(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}
	const q = "DELETE FROM contacts WHERE id = ? AND user_id = ?"
	if _, err := r.db.ExecContext(ctx, q, id, ownerID); err != nil {
		return nil, err
	}
	return c, nil
}

// UpcomingBirthdays returns the owner's contacts whose next birthday falls
// within the closed interval [today, today+days]. The comparison uses full
// date arithmetic on the birthday re-anchored to the current year (or the
// next year when it already passed), so windows that cross a month or year
// boundary are handled correctly. Filtering happens in Go because
// independent month/day range checks in SQL misbehave at month boundaries.
func (r *ContactRepo) UpcomingBirthdays(ctx context.Context, ownerID uint64, today time.Time, days int) ([]*model.Contact, error) {
	const q = "SELECT " + contactColumns + " FROM contacts WHERE user_id = ? ORDER BY id"
	rows, err := r.db.QueryContext(ctx, q, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	all, err := scanContacts(rows)
	if err != nil {
		return nil, err
	}

	out := make([]*model.Contact, 0)
	for _, c := range all {
		if birthdayInWindow(c.Birthday.Time, today, days) {
			out = append(out, c)
		}
	}
	return out, nil
}

// birthdayInWindow reports whether the next occurrence of birthday's
// month/day (year ignored) falls within [today, today+days], both ends
// inclusive, at day granularity. Feb 29 normalizes to Mar 1 in non-leap
// years via time.Date.
func birthdayInWindow(birthday, today time.Time, days int) bool {
	start := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	next := time.Date(start.Year(), birthday.Month(), birthday.Day(), 0, 0, 0, 0, time.UTC)
	if next.Before(start) {
		next = time.Date(start.Year()+1, birthday.Month(), birthday.Day(), 0, 0, 0, 0, time.UTC)
	}
	end := start.AddDate(0, 0, days)
	return !next.After(end)
}

// scanContact scans a single row into c using the shared column order.
func scanContact(row *sql.Row, c *model.Contact) error {
	return row.Scan(&c.ID, &c.UserID, &c.Name, &c.Surname, &c.Email,
		&c.PhoneNumber, &c.Birthday, &c.Description, &c.CreatedAt, &c.UpdatedAt)
}

func scanContacts(rows *sql.Rows) ([]*model.Contact, error) {
	var out []*model.Contact
	for rows.Next() {
		c := new(model.Contact)
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Surname, &c.Email,
			&c.PhoneNumber, &c.Birthday, &c.Description, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
