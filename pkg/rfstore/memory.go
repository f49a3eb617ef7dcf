package rfstore

import (
	"context"
	"sync"
)

// MemoryDriver is the in-memory Driver implementation (spec.md §4.1). It is
// the default for unit tests and for rfserverctl's offline/dry-run mode.
type MemoryDriver struct {
	mu     sync.Mutex
	tables map[string]map[int64]map[string]string
	nextID map[string]int64
}

// NewMemoryDriver builds an empty MemoryDriver.
func NewMemoryDriver() *MemoryDriver {
	return &MemoryDriver{
		tables: make(map[string]map[int64]map[string]string),
		nextID: make(map[string]int64),
	}
}

func (d *MemoryDriver) Scan(_ context.Context, table string, filter map[string]string) ([]StoredRecord, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var out []StoredRecord
	for id, fields := range d.tables[table] {
		if matches(fields, filter) {
			out = append(out, StoredRecord{ID: id, Fields: cloneFields(fields)})
		}
	}
	return out, nil
}

func (d *MemoryDriver) Insert(_ context.Context, table string, fields map[string]string) (int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.tables[table] == nil {
		d.tables[table] = make(map[int64]map[string]string)
	}
	d.nextID[table]++
	id := d.nextID[table]
	d.tables[table][id] = cloneFields(fields)
	return id, nil
}

func (d *MemoryDriver) Update(_ context.Context, table string, id int64, fields map[string]string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.tables[table] == nil {
		d.tables[table] = make(map[int64]map[string]string)
	}
	d.tables[table][id] = cloneFields(fields)
	return nil
}

func (d *MemoryDriver) Delete(_ context.Context, table string, id int64) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	delete(d.tables[table], id)
	return nil
}

func cloneFields(f map[string]string) map[string]string {
	out := make(map[string]string, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}
