package rfcli

import "testing"

func TestNewTable_StartsWithNoRows(t *testing.T) {
	tbl := NewTable("VM_ID", "STATUS")
	if len(tbl.rows) != 0 {
		t.Fatal("expected no rows before any Row call")
	}
}

func TestVisualLen_IgnoresANSICodes(t *testing.T) {
	if got := visualLen(Green("ACTIVE")); got != len("ACTIVE") {
		t.Errorf("visualLen(Green(%q)) = %d, want %d", "ACTIVE", got, len("ACTIVE"))
	}
}

func TestColorizeBindingStatus_KnownStates(t *testing.T) {
	cases := map[string]string{
		"ACTIVE":     Green("ACTIVE"),
		"ASSOCIATED": Yellow("ASSOCIATED"),
		"IDLE_VM":    Dim("IDLE_VM"),
		"IDLE_DP":    Dim("IDLE_DP"),
	}
	for status, want := range cases {
		if got := ColorizeBindingStatus(status); got != want {
			t.Errorf("ColorizeBindingStatus(%q) = %q, want %q", status, got, want)
		}
	}
}

func TestColorizeHealthStatus_Critical(t *testing.T) {
	got := ColorizeHealthStatus("critical")
	want := Bold(Red("critical"))
	if got != want {
		t.Errorf("ColorizeHealthStatus(critical) = %q, want %q", got, want)
	}
}
