package rfconfig

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/routeflow/rfserver/pkg/rfrule"
)

// LoadRules reads a default-rules JSON document from disk and compiles it
// into the flat, ordered Entry list the engine installs on every datapath
// it configures (spec.md §4.2, §6 "-d/--default-rules").
func LoadRules(path string) ([]rfrule.Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("rfconfig: reading default rules %s: %w", path, err)
	}
	var doc rfrule.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("rfconfig: parsing default rules %s: %w", path, err)
	}
	return rfrule.Compile(doc), nil
}
