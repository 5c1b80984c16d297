package postgres

import (
	"encoding/json"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/heartmarshall/interestingtome-backend/internal/docstore"
)

const table = "documents"

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// fieldExpr addresses a top-level JSONB field. Field names are checked by
// Query.Validate before they reach SQL.
func fieldExpr(field string) string {
	return fmt.Sprintf("data -> '%s'", field)
}

// jsonArg encodes a Go value as a JSONB parameter.
func jsonArg(v any) (string, error) {
	b, err := json.Marshal(docstore.EncodeValue(v))
	if err != nil {
		return "", fmt.Errorf("encode value: %w", err)
	}
	return string(b), nil
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
		arg, err := jsonArg(f.Value)
		if err != nil {
			return nil, err
		}
		return sq.Expr(fieldExpr(f.Field)+" = ?::jsonb", arg), nil

	case docstore.OpArrayContains:
		arg, err := jsonArg([]any{f.Value})
		if err != nil {
			return nil, err
		}
		return sq.Expr(fieldExpr(f.Field)+" @> ?::jsonb", arg), nil

	case docstore.OpIn:
		values := docstore.AsSlice(f.Value)
		if len(values) == 0 {
			return sq.Expr("FALSE"), nil
		}
		or := make(sq.Or, 0, len(values))
		for _, v := range values {
			arg, err := jsonArg(v)
			if err != nil {
				return nil, err
			}
			or = append(or, sq.Expr(fieldExpr(f.Field)+" = ?::jsonb", arg))
		}
		return or, nil

	default:
		return nil, fmt.Errorf("unsupported operator %q", f.Op)
	}
}

// selectSQL compiles q. Results without explicit order come back by id.
func selectSQL(q docstore.Query) (string, []any, error) {
	if err := q.Validate(); err != nil {
		return "", nil, err
	}

	b := psql.Select("id", "data").From(table).Where(sq.Eq{"collection": q.Collection})
	for _, f := range q.Filters {
		cond, err := filterSQL(f)
		if err != nil {
			return "", nil, err
		}
		b = b.Where(cond)
	}
	for _, o := range q.OrderBy {
		// Missing fields sort lowest, as in the memory store.
		dir := "ASC NULLS FIRST"
		if o.Direction == docstore.Desc {
			dir = "DESC NULLS LAST"
		}
		b = b.OrderBy(fmt.Sprintf("%s %s", fieldExpr(o.Field), dir))
	}
	b = b.OrderBy("id ASC")
	if q.Limit > 0 {
		b = b.Limit(uint64(q.Limit))
	}

	return b.ToSql()
}

// arrayAddSQL appends value to an array field unless an equal element exists.
func arrayAddSQL(field string) string {
	arr := fmt.Sprintf("COALESCE(data -> '%s', '[]'::jsonb)", field)
	return fmt.Sprintf(`UPDATE %s SET
    data = jsonb_set(data, '{%s}',
        CASE WHEN EXISTS (SELECT 1 FROM jsonb_array_elements(%s) e WHERE e = $3::jsonb)
             THEN %s
             ELSE %s || jsonb_build_array($3::jsonb)
        END),
    updated_at = now()
WHERE collection = $1 AND id = $2`, table, field, arr, arr, arr)
}

// arrayRemoveSQL drops every element equal to value from an array field.
func arrayRemoveSQL(field string) string {
	arr := fmt.Sprintf("COALESCE(data -> '%s', '[]'::jsonb)", field)
	return fmt.Sprintf(`UPDATE %s SET
    data = jsonb_set(data, '{%s}',
        COALESCE((SELECT jsonb_agg(e) FROM jsonb_array_elements(%s) e WHERE e <> $3::jsonb), '[]'::jsonb)),
    updated_at = now()
WHERE collection = $1 AND id = $2`, table, field, arr)
}

const (
	getSQL    = `SELECT id, data FROM documents WHERE collection = $1 AND id = $2`
	insertSQL = `INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3::jsonb)`
	upsertSQL = `INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3::jsonb)
ON CONFLICT (collection, id) DO UPDATE SET data = EXCLUDED.data, updated_at = now()`
	mergeSQL  = `UPDATE documents SET data = data || $3::jsonb, updated_at = now() WHERE collection = $1 AND id = $2`
	deleteSQL = `DELETE FROM documents WHERE collection = $1 AND id = $2`
	pingSQL   = `SELECT 1`
)
