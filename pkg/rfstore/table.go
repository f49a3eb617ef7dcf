package rfstore

import "context"

// Table is the typed collection spec.md §4.1 describes, over a Driver.
// newRecord must return a freshly zeroed T for decoding each scan result.
type Table[T Record] struct {
	driver    Driver
	name      string
	newRecord func() T
}

// NewTable builds a Table bound to the given driver and table name.
func NewTable[T Record](driver Driver, name string, newRecord func() T) *Table[T] {
	return &Table[T]{driver: driver, name: name, newRecord: newRecord}
}

// Get looks up every record matching the filter (spec.md §4.1 "get(filter) → list").
func (t *Table[T]) Get(ctx context.Context, filter map[string]string) ([]T, error) {
	rows, err := t.driver.Scan(ctx, t.name, filter)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		rec := t.newRecord()
		if err := rec.FromFields(row.Fields); err != nil {
			return nil, err
		}
		rec.SetID(row.ID)
		out = append(out, rec)
	}
	return out, nil
}

// GetOne returns the first matching record, or (zero, false) if there is none.
func (t *Table[T]) GetOne(ctx context.Context, filter map[string]string) (T, bool, error) {
	var zero T
	rows, err := t.Get(ctx, filter)
	if err != nil {
		return zero, false, err
	}
	if len(rows) == 0 {
		return zero, false, nil
	}
	return rows[0], true, nil
}

// InsertOrUpdate assigns a record id on first insert (mirroring spec.md
// §4.1) or overwrites the existing record's fields.
func (t *Table[T]) InsertOrUpdate(ctx context.Context, rec T) error {
	fields := rec.ToFields()
	if rec.ID() == 0 {
		id, err := t.driver.Insert(ctx, t.name, fields)
		if err != nil {
			return err
		}
		rec.SetID(id)
		return nil
	}
	return t.driver.Update(ctx, t.name, rec.ID(), fields)
}

// Remove deletes a record.
func (t *Table[T]) Remove(ctx context.Context, rec T) error {
	return t.driver.Delete(ctx, t.name, rec.ID())
}

// All returns every record in the table (empty filter).
func (t *Table[T]) All(ctx context.Context) ([]T, error) {
	return t.Get(ctx, nil)
}
