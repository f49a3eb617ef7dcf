package rfconfig

import (
	"os"
	"path/filepath"
	"testing"
)

func TestValidate_AcceptsWellFormedConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	doc := `{
		"port-groups": [{"name": "pg0", "dp-id": "1", "num-ports": 1, "port-offset": 0}],
		"virtual-machines": [{"vm-id": "a", "mappings": [{"port-group": "pg0", "num-ports": 1, "port-offset": 0}]}]
	}`
	os.WriteFile(path, []byte(doc), 0o644)
	if err := Validate(path); err != nil {
		t.Fatalf("expected valid config to pass, got %v", err)
	}
}

func TestValidate_RejectsUndefinedPortGroupReference(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	doc := `{
		"port-groups": [],
		"virtual-machines": [{"vm-id": "a", "mappings": [{"port-group": "pg0", "num-ports": 1, "port-offset": 0}]}]
	}`
	os.WriteFile(path, []byte(doc), 0o644)
	if err := Validate(path); err == nil {
		t.Fatal("expected schema error for undefined port-group reference")
	}
}

func TestValidate_RejectsMissingTopLevelFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	os.WriteFile(path, []byte(`{}`), 0o644)
	if err := Validate(path); err == nil {
		t.Fatal("expected schema error for missing top-level fields")
	}
}

func TestValidateISL_RejectsWrongArity(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "islconf.json")
	doc := `{"inter-switch-links": [{"vm-id": "1", "datapaths": ["1"], "ports": [1, 2], "dl-addrs": ["a", "b"]}]}`
	os.WriteFile(path, []byte(doc), 0o644)
	if err := ValidateISL(path); err == nil {
		t.Fatal("expected schema error for wrong datapaths arity")
	}
}

func TestValidateISL_AcceptsWellFormed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "islconf.json")
	doc := `{"inter-switch-links": [{"vm-id": "1", "datapaths": ["1", "2"], "ports": [1, 2], "dl-addrs": ["a", "b"]}]}`
	os.WriteFile(path, []byte(doc), 0o644)
	if err := ValidateISL(path); err != nil {
		t.Fatalf("expected valid ISL config to pass, got %v", err)
	}
}
