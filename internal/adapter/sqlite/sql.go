package sqlite

import (
	"encoding/json"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/heartmarshall/interestingtome-backend/internal/docstore"
)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
    collection TEXT NOT NULL,
    id         TEXT NOT NULL,
    data       TEXT NOT NULL CHECK (json_valid(data)),
    created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now')),
    updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now')),
    PRIMARY KEY (collection, id)
);
CREATE INDEX IF NOT EXISTS documents_topics_owner
    ON documents (json_extract(data, '$.userId'), json_extract(data, '$.createdAt'))
    WHERE collection = 'topics';
CREATE INDEX IF NOT EXISTS documents_users_display_name
    ON documents (json_extract(data, '$.displayName'))
    WHERE collection = 'users';
`

const (
	getSQL    = `SELECT id, data FROM documents WHERE collection = ? AND id = ?`
	insertSQL = `INSERT INTO documents (collection, id, data) VALUES (?, ?, ?)`
	upsertSQL = `INSERT INTO documents (collection, id, data) VALUES (?, ?, ?)
ON CONFLICT (collection, id) DO UPDATE SET data = excluded.data,
    updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')`
	replaceSQL = `UPDATE documents SET data = ?, updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')
WHERE collection = ? AND id = ?`
	deleteSQL = `DELETE FROM documents WHERE collection = ? AND id = ?`
	pingSQL   = `SELECT 1`
)

var sqlb = sq.StatementBuilder.PlaceholderFormat(sq.Question)

// fieldExpr extracts a top-level field as an SQL value. Field names are
// checked by Query.Validate before they reach SQL.
func fieldExpr(field string) string {
	return fmt.Sprintf("json_extract(data, '$.%s')", field)
}

// sqlArg converts v to the SQL value json_extract yields for it: booleans
// become 0/1, timestamps their stored string form.
func sqlArg(v any) (any, error) {
	switch x := docstore.EncodeValue(v).(type) {
	case nil, string, int, int64, float64:
		return x, nil
	case bool:
		if x {
			return 1, nil
		}
		return 0, nil
	default:
		// Composite values compare by their JSON text.
		b, err := json.Marshal(x)
		if err != nil {
			return nil, fmt.Errorf("encode value: %w", err)
		}
		return string(b), nil
	}
}

func filterSQL(f docstore.Filter) (sq.Sqlizer, error) {
	if f.Field == docstore.FieldID {
		switch f.Op {
		case docstore.OpEqual:
			return sq.Eq{"id": f.Value}, nil
		case docstore.OpIn:
			return sq.Eq{"id": docstore.AsSlice(f.Value)}, nil
		default:
			return nil, fmt.Errorf("filter on document id: unsupported operator %q", f.Op)
		}
	}

	switch f.Op {
	case docstore.OpEqual:
		arg, err := sqlArg(f.Value)
		if err != nil {
			return nil, err
		}
		return sq.Expr(fieldExpr(f.Field)+" = ?", arg), nil

	case docstore.OpArrayContains:
		arg, err := sqlArg(f.Value)
		if err != nil {
			return nil, err
		}
		return sq.Expr(fmt.Sprintf(
			"EXISTS (SELECT 1 FROM json_each(documents.data, '$.%s') e WHERE e.value = ?)", f.Field), arg), nil

	case docstore.OpIn:
		values := docstore.AsSlice(f.Value)
		args := make([]any, len(values))
		for i, v := range values {
			arg, err := sqlArg(v)
			if err != nil {
				return nil, err
			}
			args[i] = arg
		}
		return sq.Eq{fieldExpr(f.Field): args}, nil

	default:
		return nil, fmt.Errorf("unsupported operator %q", f.Op)
	}
}

// selectSQL compiles q. SQLite sorts NULL lowest, which is also the order
// of the memory store for missing fields.
func selectSQL(q docstore.Query) (string, []any, error) {
	if err := q.Validate(); err != nil {
		return "", nil, err
	}

	b := sqlb.Select("id", "data").From("documents").Where(sq.Eq{"collection": q.Collection})
	for _, f := range q.Filters {
		cond, err := filterSQL(f)
		if err != nil {
			return "", nil, err
		}
		b = b.Where(cond)
	}
	for _, o := range q.OrderBy {
		dir := "ASC"
		if o.Direction == docstore.Desc {
			dir = "DESC"
		}
		b = b.OrderBy(fmt.Sprintf("%s %s", fieldExpr(o.Field), dir))
	}
	b = b.OrderBy("id ASC")
	if q.Limit > 0 {
		b = b.Limit(uint64(q.Limit))
	}

	return b.ToSql()
}
