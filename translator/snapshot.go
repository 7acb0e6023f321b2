package translator

import "github.com/carbocation/exprannot/annotation"

// Snapshot materializes t over ids (or over t.IDs() when ids is nil) into an
// annotation source, for persistence with annotation.SaveSQLite. Only
// present values are copied. Duplicate and empty identifiers are skipped.
// The default field is kept, so FromSource over the result translates like t.
func Snapshot(t *Translator, ids []string) (*annotation.Source, error) {
	if ids == nil {
		ids = t.IDs()
	}

	b, err := annotation.NewBuilder(t.fields...)
	if err != nil {
		return nil, err
	}
	if t.defaultField != "" {
		if err := b.SetDefaultField(t.defaultField); err != nil {
			return nil, err
		}
	}

	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		rec := make(annotation.Record, len(t.fields))
		for i, v := range t.TranslateAll(id) {
			if v.Valid {
				rec[t.fields[i]] = v.String
			}
		}
		if err := b.Add(id, rec); err != nil {
			return nil, err
		}
	}

	return b.Build(), nil
}
