package rfhealth

import (
	"context"
	"testing"

	"github.com/routeflow/rfserver/pkg/rfconfig"
	"github.com/routeflow/rfserver/pkg/rfengine"
	"github.com/routeflow/rfserver/pkg/rfentry"
	"github.com/routeflow/rfserver/pkg/rfstore"
	"github.com/routeflow/rfserver/pkg/rftransport"
)

func newTestServer() *rfengine.Server {
	return rfengine.NewServer(rfstore.NewMemoryDriver(), rfconfig.NewMappingConfig(nil), rfconfig.NewISLConfig(nil), nil, rftransport.NewMemTransport())
}

func TestChecker_Run_CleanServerIsAllOK(t *testing.T) {
	s := newTestServer()
	ctx := context.Background()

	if err := s.RegisterVMPort(ctx, 1, 1, "aa:aa:aa:aa:aa:01"); err != nil {
		t.Fatalf("RegisterVMPort: %v", err)
	}

	report, err := NewChecker().Run(ctx, s)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Overall != StatusOK {
		t.Fatalf("expected overall OK, got %v: %+v", report.Overall, report.Results)
	}
	if len(report.Results) != 5 {
		t.Fatalf("expected 5 results, got %d", len(report.Results))
	}
}

func TestISLMirrorCheck_UnmirroredActiveEntryIsCritical(t *testing.T) {
	s := newTestServer()
	ctx := context.Background()

	entry := rfentry.NewLocalISL(0, 0, 0x10, 1, "aa:aa:aa:aa:aa:01")
	entry.AssociateRemote(1, 0x20, 2, "aa:aa:aa:aa:aa:02")
	if err := s.ISLs().InsertOrUpdate(ctx, entry); err != nil {
		t.Fatalf("seeding ISL entry: %v", err)
	}

	result, err := NewChecker().RunCheck(ctx, s, "isl-mirror")
	if err != nil {
		t.Fatalf("RunCheck: %v", err)
	}
	if result.Status != StatusCritical {
		t.Fatalf("expected critical for an unmirrored ACTIVE entry, got %v: %s", result.Status, result.Message)
	}
}

func TestISLMirrorCheck_MirroredPairIsOK(t *testing.T) {
	s := newTestServer()
	ctx := context.Background()

	a := rfentry.NewLocalISL(0, 0, 0x10, 1, "aa:aa:aa:aa:aa:01")
	a.AssociateRemote(1, 0x20, 2, "aa:aa:aa:aa:aa:02")
	b := rfentry.NewLocalISL(0, 1, 0x20, 2, "aa:aa:aa:aa:aa:02")
	b.AssociateRemote(0, 0x10, 1, "aa:aa:aa:aa:aa:01")

	if err := s.ISLs().InsertOrUpdate(ctx, a); err != nil {
		t.Fatalf("seeding ISL entry a: %v", err)
	}
	if err := s.ISLs().InsertOrUpdate(ctx, b); err != nil {
		t.Fatalf("seeding ISL entry b: %v", err)
	}

	result, err := NewChecker().RunCheck(ctx, s, "isl-mirror")
	if err != nil {
		t.Fatalf("RunCheck: %v", err)
	}
	if result.Status != StatusOK {
		t.Fatalf("expected OK for a mirrored ACTIVE pair, got %v: %s", result.Status, result.Message)
	}
}

func TestRunCheck_UnknownNameErrors(t *testing.T) {
	s := newTestServer()
	if _, err := NewChecker().RunCheck(context.Background(), s, "nonexistent"); err == nil {
		t.Fatal("expected an error for an unknown check name")
	}
}
