//go:build integration

package rfstore_test

import (
	"context"
	"testing"

	"github.com/routeflow/rfserver/internal/rftestutil"
	"github.com/routeflow/rfserver/pkg/rfstore"
)

func TestRedisDriver_InsertScanUpdateDelete(t *testing.T) {
	rftestutil.SkipIfNoRedis(t)
	rftestutil.FlushTestDB(t)
	t.Cleanup(func() { rftestutil.FlushTestDB(t) })

	driver, err := rfstore.NewRedisDriverAt(rftestutil.RedisAddr())
	if err != nil {
		t.Fatalf("NewRedisDriverAt: %v", err)
	}
	ctx := context.Background()

	id, err := driver.Insert(ctx, "RFTABLE", map[string]string{"vm_id": "1", "vm_port": "1"})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}

	rows, err := driver.Scan(ctx, "RFTABLE", map[string]string{"vm_id": "1"})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != id {
		t.Fatalf("Scan after insert = %+v, want one row with id %d", rows, id)
	}

	if err := driver.Update(ctx, "RFTABLE", id, map[string]string{"vm_id": "1", "vm_port": "2"}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	rows, err = driver.Scan(ctx, "RFTABLE", nil)
	if err != nil {
		t.Fatalf("Scan after update: %v", err)
	}
	if len(rows) != 1 || rows[0].Fields["vm_port"] != "2" {
		t.Fatalf("Scan after update = %+v, want vm_port=2", rows)
	}

	if err := driver.Delete(ctx, "RFTABLE", id); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	rows, err = driver.Scan(ctx, "RFTABLE", nil)
	if err != nil {
		t.Fatalf("Scan after delete: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("Scan after delete = %+v, want no rows", rows)
	}
}
