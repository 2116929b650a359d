package store

import (
	"database/sql"
	"fmt"

	"github.com/dmaclean/jot/internal/model"
)

type NoteStore struct {
	db *sql.DB
}

func NewNoteStore(db *sql.DB) *NoteStore {
	return &NoteStore{db: db}
}

const noteCols = `id, title, content, location, tags, event_date, event_time, created_at, updated_at`

func scanNote(scanner interface{ Scan(...any) error }) (*model.Note, error) {
	var n model.Note
	var location, tags, eventDate, eventTime sql.NullString

	err := scanner.Scan(
		&n.ID, &n.Title, &n.Content, &location, &tags,
		&eventDate, &eventTime, &n.CreatedAt, &n.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if location.Valid {
		n.Location = &location.String
	}
	if tags.Valid {
		n.Tags = &tags.String
	}
	if eventDate.Valid {
		d, ok := model.ParseDate(eventDate.String)
		if !ok {
			return nil, fmt.Errorf("note %d: malformed event_date %q", n.ID, eventDate.String)
		}
		n.EventDate = &d
	}
	if eventTime.Valid {
		t, ok := model.ParseTimeOfDay(eventTime.String)
		if !ok {
			return nil, fmt.Errorf("note %d: malformed event_time %q", n.ID, eventTime.String)
		}
		n.EventTime = &t
	}
	return &n, nil
}

func nullString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func nullDate(d *model.Date) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func nullTimeOfDay(t *model.TimeOfDay) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.String(), Valid: true}
}

// Create inserts the note and returns the stored row with its assigned id
// and timestamps.
func (s *NoteStore) Create(n model.Note) (*model.Note, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(
		`INSERT INTO notes (title, content, location, tags, event_date, event_time) VALUES (?, ?, ?, ?, ?, ?)`,
		n.Title, n.Content, nullString(n.Location), nullString(n.Tags),
		nullDate(n.EventDate), nullTimeOfDay(n.EventTime),
	)
	if err != nil {
		return nil, fmt.Errorf("insert note: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	created, err := scanNote(tx.QueryRow(`SELECT `+noteCols+` FROM notes WHERE id = ?`, id))
	if err != nil {
		return nil, fmt.Errorf("read back note: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return created, nil
}

func (s *NoteStore) GetByID(id int64) (*model.Note, error) {
	row := s.db.QueryRow(`SELECT `+noteCols+` FROM notes WHERE id = ?`, id)
	n, err := scanNote(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get note: %w", err)
	}
	return n, nil
}

// List returns all notes, most recently updated first.
func (s *NoteStore) List() ([]model.Note, error) {
	rows, err := s.db.Query(`SELECT ` + noteCols + ` FROM notes ORDER BY updated_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	return collectNotes(rows)
}

// Search returns notes whose title or content contains the substring q,
// most recently updated first. Matching follows SQLite LIKE semantics.
func (s *NoteStore) Search(q string) ([]model.Note, error) {
	rows, err := s.db.Query(
		`SELECT `+noteCols+` FROM notes
		 WHERE title LIKE '%' || ?1 || '%' OR content LIKE '%' || ?1 || '%'
		 ORDER BY updated_at DESC, id DESC`,
		q,
	)
	if err != nil {
		return nil, fmt.Errorf("search notes: %w", err)
	}
	defer rows.Close()

	return collectNotes(rows)
}

func collectNotes(rows *sql.Rows) ([]model.Note, error) {
	var notes []model.Note
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		notes = append(notes, *n)
	}
	return notes, rows.Err()
}

// Update applies the patch to the note inside a transaction and returns the
// stored row. It returns (nil, nil) when no note has that id. Any failure
// rolls the transaction back, so partial writes never become visible.
func (s *NoteStore) Update(id int64, patch model.NotePatch) (*model.Note, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	existing, err := scanNote(tx.QueryRow(`SELECT `+noteCols+` FROM notes WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get note: %w", err)
	}

	patch.Apply(existing)

	_, err = tx.Exec(
		`UPDATE notes
		 SET title = ?, content = ?, location = ?, tags = ?, event_date = ?, event_time = ?,
		     updated_at = strftime('%Y-%m-%d %H:%M:%f', 'now')
		 WHERE id = ?`,
		existing.Title, existing.Content, nullString(existing.Location), nullString(existing.Tags),
		nullDate(existing.EventDate), nullTimeOfDay(existing.EventTime), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update note: %w", err)
	}

	updated, err := scanNote(tx.QueryRow(`SELECT `+noteCols+` FROM notes WHERE id = ?`, id))
	if err != nil {
		return nil, fmt.Errorf("read back note: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return updated, nil
}

func (s *NoteStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM notes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	return nil
}
