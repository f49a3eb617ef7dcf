package rfconfig

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/routeflow/rfserver/pkg/rferr"
)

// Validate performs a minimal structural check of a mapping config
// document — the cheap stand-in for the excluded JSON-schema collaborator
// spec.md §1 mentions. It checks the shapes LoadMappingConfig depends on
// (required keys present, arrays where arrays are expected) without trying
// to reproduce a full schema validator.
func Validate(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return rferr.NewConfigError(path, err.Error())
	}

	var doc map[string]interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return &rferr.SchemaError{File: path, Issues: []string{fmt.Sprintf("not valid JSON: %s", err)}}
	}

	v := rferr.NewValidationBuilder(path)

	portGroups, pgOK := doc["port-groups"].([]interface{})
	v.Require(pgOK, "missing or non-array top-level field %q", "port-groups")

	vms, vmOK := doc["virtual-machines"].([]interface{})
	v.Require(vmOK, "missing or non-array top-level field %q", "virtual-machines")

	knownGroups := map[string]bool{}
	if pgOK {
		for i, raw := range portGroups {
			pg, ok := raw.(map[string]interface{})
			if !ok {
				v.Require(false, "port-groups[%d] is not an object", i)
				continue
			}
			name, nameOK := pg["name"].(string)
			v.Require(nameOK, "port-groups[%d] missing string %q", i, "name")
			_, dpOK := pg["dp-id"].(string)
			v.Require(dpOK, "port-groups[%d] missing string %q", i, "dp-id")
			_, numOK := pg["num-ports"].(float64)
			v.Require(numOK, "port-groups[%d] missing numeric %q", i, "num-ports")
			_, offOK := pg["port-offset"].(float64)
			v.Require(offOK, "port-groups[%d] missing numeric %q", i, "port-offset")
			if nameOK {
				knownGroups[name] = true
			}
		}
	}

	if vmOK {
		for i, raw := range vms {
			vm, ok := raw.(map[string]interface{})
			if !ok {
				v.Require(false, "virtual-machines[%d] is not an object", i)
				continue
			}
			_, vmIDOK := vm["vm-id"].(string)
			v.Require(vmIDOK, "virtual-machines[%d] missing string %q", i, "vm-id")
			mappings, mapOK := vm["mappings"].([]interface{})
			v.Require(mapOK, "virtual-machines[%d] missing array %q", i, "mappings")
			if !mapOK {
				continue
			}
			for j, rawM := range mappings {
				m, ok := rawM.(map[string]interface{})
				if !ok {
					v.Require(false, "virtual-machines[%d].mappings[%d] is not an object", i, j)
					continue
				}
				pg, pgRefOK := m["port-group"].(string)
				v.Require(pgRefOK, "virtual-machines[%d].mappings[%d] missing string %q", i, j, "port-group")
				if pgRefOK && pgOK {
					v.Require(knownGroups[pg], "virtual-machines[%d].mappings[%d] references undefined port-group %q", i, j, pg)
				}
				_, npOK := m["num-ports"].(float64)
				v.Require(npOK, "virtual-machines[%d].mappings[%d] missing numeric %q", i, j, "num-ports")
				_, poOK := m["port-offset"].(float64)
				v.Require(poOK, "virtual-machines[%d].mappings[%d] missing numeric %q", i, j, "port-offset")
			}
		}
	}

	return v.Build()
}

// ValidateISL performs the same kind of minimal structural check for an
// ISL config document.
func ValidateISL(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return rferr.NewConfigError(path, err.Error())
	}

	var doc map[string]interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return &rferr.SchemaError{File: path, Issues: []string{fmt.Sprintf("not valid JSON: %s", err)}}
	}

	v := rferr.NewValidationBuilder(path)

	links, ok := doc["inter-switch-links"].([]interface{})
	v.Require(ok, "missing or non-array top-level field %q", "inter-switch-links")
	if !ok {
		return v.Build()
	}

	for i, raw := range links {
		link, ok := raw.(map[string]interface{})
		if !ok {
			v.Require(false, "inter-switch-links[%d] is not an object", i)
			continue
		}
		_, vmIDOK := link["vm-id"].(string)
		v.Require(vmIDOK, "inter-switch-links[%d] missing string %q", i, "vm-id")

		dps, dpOK := link["datapaths"].([]interface{})
		v.Require(dpOK && len(dps) == 2, "inter-switch-links[%d].datapaths must have exactly two elements", i)

		ports, portOK := link["ports"].([]interface{})
		v.Require(portOK && len(ports) == 2, "inter-switch-links[%d].ports must have exactly two elements", i)

		addrs, addrOK := link["dl-addrs"].([]interface{})
		v.Require(addrOK && len(addrs) == 2, "inter-switch-links[%d].dl-addrs must have exactly two elements", i)
	}

	return v.Build()
}
