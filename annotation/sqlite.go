package annotation

import (
	"context"
	"fmt"

	"github.com/carbocation/exprannot"
	"github.com/jmoiron/sqlx"
	"github.com/minio/blake2b-simd"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS annotation_source (
		name          TEXT PRIMARY KEY,
		default_field TEXT NOT NULL DEFAULT '',
		checksum      TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS annotation_field (
		source TEXT NOT NULL,
		pos    INTEGER NOT NULL,
		field  TEXT NOT NULL,
		PRIMARY KEY (source, pos)
	)`,
	`CREATE TABLE IF NOT EXISTS annotation_identifier (
		source TEXT NOT NULL,
		pos    INTEGER NOT NULL,
		id     TEXT NOT NULL,
		PRIMARY KEY (source, pos)
	)`,
	`CREATE TABLE IF NOT EXISTS annotation_value (
		source TEXT NOT NULL,
		id     TEXT NOT NULL,
		field  TEXT NOT NULL,
		value  TEXT NOT NULL,
		PRIMARY KEY (source, id, field)
	)`,
}

// SaveSQLite stores t under name, replacing any earlier snapshot of that name.
// Only present values are written, so absent and empty stay distinct. The
// default field of a DefaultFielder (a Source or a translator) is stored too.
func SaveSQLite(ctx context.Context, db *sqlx.DB, name string, t Table) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create annotation schema: %w", err)
		}
	}

	sum, err := Checksum(t)
	if err != nil {
		return err
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"annotation_source", "annotation_field", "annotation_identifier", "annotation_value"} {
		col := "source"
		if table == "annotation_source" {
			col = "name"
		}
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE %s = ?", table, col), name); err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx, "INSERT INTO annotation_source (name, default_field, checksum) VALUES (?, ?, ?)", name, defaultField(t), sum); err != nil {
		return err
	}

	fields := t.Fields()
	for pos, f := range fields {
		if _, err := tx.ExecContext(ctx, "INSERT INTO annotation_field (source, pos, field) VALUES (?, ?, ?)", name, pos, f); err != nil {
			return err
		}
	}

	insertID, err := tx.PreparexContext(ctx, "INSERT INTO annotation_identifier (source, pos, id) VALUES (?, ?, ?)")
	if err != nil {
		return err
	}
	defer insertID.Close()

	insertValue, err := tx.PreparexContext(ctx, "INSERT INTO annotation_value (source, id, field, value) VALUES (?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer insertValue.Close()

	for pos, id := range t.IDs() {
		if _, err := insertID.ExecContext(ctx, name, pos, id); err != nil {
			return err
		}
		for _, f := range fields {
			v := t.Value(id, f)
			if !v.Valid {
				continue
			}
			if _, err := insertValue.ExecContext(ctx, name, id, f, v.String); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

// LoadSQLite rebuilds the Source saved under name and checks it against the
// stored checksum.
func LoadSQLite(ctx context.Context, db *sqlx.DB, name string) (*Source, error) {
	var stored struct {
		DefaultField string `db:"default_field"`
		Checksum     string `db:"checksum"`
	}
	if err := db.GetContext(ctx, &stored, "SELECT default_field, checksum FROM annotation_source WHERE name = ?", name); err != nil {
		return nil, fmt.Errorf("annotation snapshot %q: %w", name, err)
	}

	var fields []string
	if err := db.SelectContext(ctx, &fields, "SELECT field FROM annotation_field WHERE source = ? ORDER BY pos", name); err != nil {
		return nil, err
	}

	var ids []string
	if err := db.SelectContext(ctx, &ids, "SELECT id FROM annotation_identifier WHERE source = ? ORDER BY pos", name); err != nil {
		return nil, err
	}

	var values []struct {
		ID    string `db:"id"`
		Field string `db:"field"`
		Value string `db:"value"`
	}
	if err := db.SelectContext(ctx, &values, "SELECT id, field, value FROM annotation_value WHERE source = ?", name); err != nil {
		return nil, err
	}

	records := make(map[string]Record, len(ids))
	for _, id := range ids {
		records[id] = Record{}
	}
	for _, v := range values {
		rec, ok := records[v.ID]
		if !ok {
			return nil, &exprannot.MalformedFileError{Path: name, Reason: fmt.Sprintf("value for unlisted identifier %q", v.ID)}
		}
		rec[v.Field] = v.Value
	}

	b, err := NewBuilder(fields...)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		if err := b.Add(id, records[id]); err != nil {
			return nil, &exprannot.MalformedFileError{Path: name, Reason: "bad snapshot row", Err: err}
		}
	}
	if stored.DefaultField != "" {
		if err := b.SetDefaultField(stored.DefaultField); err != nil {
			return nil, &exprannot.MalformedFileError{Path: name, Reason: "bad default field", Err: err}
		}
	}
	src := b.Build()

	sum, err := Checksum(src)
	if err != nil {
		return nil, err
	}
	if sum != stored.Checksum {
		return nil, &exprannot.MalformedFileError{Path: name, Reason: "checksum mismatch"}
	}

	return src, nil
}

// Checksum hashes the default field, fields, identifiers and present values
// of t in order.
func Checksum(t Table) (string, error) {
	h, err := blake2b.New(&blake2b.Config{Size: 32})
	if err != nil {
		return "", err
	}

	h.Write([]byte(defaultField(t)))
	h.Write([]byte{0})

	fields := t.Fields()
	for _, f := range fields {
		h.Write([]byte(f))
		h.Write([]byte{0})
	}
	h.Write([]byte{1})

	for _, id := range t.IDs() {
		h.Write([]byte(id))
		h.Write([]byte{0})
		for _, f := range fields {
			v := t.Value(id, f)
			if !v.Valid {
				h.Write([]byte{2})
				continue
			}
			h.Write([]byte{3})
			h.Write([]byte(v.String))
			h.Write([]byte{0})
		}
	}

	return fmt.Sprintf("%X", h.Sum(nil)), nil
}

func defaultField(t Table) string {
	if df, ok := t.(DefaultFielder); ok {
		return df.DefaultField()
	}
	return ""
}
