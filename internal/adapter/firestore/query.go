package firestore

import (
	"fmt"

	"cloud.google.com/go/firestore"

	"github.com/heartmarshall/interestingtome-backend/internal/docstore"
)

var errTooManyValues = fmt.Errorf("in filter accepts at most %d values", maxIn)

// compile translates q. ok is false when q cannot match anything, which
// Firestore would otherwise reject as an empty "in" filter.
func (s *Store) compile(q docstore.Query) (fq firestore.Query, ok bool, err error) {
	if err := q.Validate(); err != nil {
		return firestore.Query{}, false, err
	}

	coll := s.client.Collection(q.Collection)
	fq = coll.Query
	for _, f := range q.Filters {
		path, value := f.Field, f.Value
		if f.Field == docstore.FieldID {
			path = firestore.DocumentID
			value = idRefs(coll, f.Value)
		}

		switch f.Op {
		case docstore.OpEqual:
			fq = fq.Where(path, "==", value)
		case docstore.OpArrayContains:
			fq = fq.Where(path, "array-contains", value)
		case docstore.OpIn:
			n := inLen(value)
			if n == 0 {
				return firestore.Query{}, false, nil
			}
			if n > maxIn {
				return firestore.Query{}, false, errTooManyValues
			}
			fq = fq.Where(path, "in", value)
		default:
			return firestore.Query{}, false, fmt.Errorf("unsupported operator %q", f.Op)
		}
	}

	for _, o := range q.OrderBy {
		dir := firestore.Asc
		if o.Direction == docstore.Desc {
			dir = firestore.Desc
		}
		fq = fq.OrderBy(o.Field, dir)
	}
	if q.Limit > 0 {
		fq = fq.Limit(q.Limit)
	}
	return fq, true, nil
}

// idRefs converts document ID filter values to references, which is what
// Firestore compares __name__ against.
func idRefs(coll *firestore.CollectionRef, v any) any {
	switch x := v.(type) {
	case string:
		return coll.Doc(x)
	case []any, []string:
		values := docstore.AsSlice(x)
		refs := make([]*firestore.DocumentRef, 0, len(values))
		for _, el := range values {
			if id, ok := el.(string); ok {
				refs = append(refs, coll.Doc(id))
			}
		}
		return refs
	default:
		return v
	}
}

func inLen(v any) int {
	if refs, ok := v.([]*firestore.DocumentRef); ok {
		return len(refs)
	}
	return len(docstore.AsSlice(v))
}

func fromSnapshot(snap *firestore.DocumentSnapshot) docstore.Document {
	data := snap.Data()
	if data == nil {
		data = map[string]any{}
	}
	return docstore.Document{ID: snap.Ref.ID, Data: data}
}

func fromSnapshots(snaps []*firestore.DocumentSnapshot) []docstore.Document {
	docs := make([]docstore.Document, 0, len(snaps))
	for _, snap := range snaps {
		if snap.Exists() {
			docs = append(docs, fromSnapshot(snap))
		}
	}
	return docs
}

func nonNil(data map[string]any) map[string]any {
	if data == nil {
		return map[string]any{}
	}
	return data
}
