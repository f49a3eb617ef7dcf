// Command rfgen compiles an rftopo topology YAML definition into the
// mapping-config and ISL-config JSON documents rfserver loads at startup.
//
// Usage:
//
//	rfgen -topology <file> -output <dir>
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/routeflow/rfserver/pkg/rftopo"
)

func main() {
	topoFile := flag.String("topology", "", "Path to topology YAML file (required)")
	outputDir := flag.String("output", "", "Output directory for generated artifacts (required)")
	flag.Parse()

	if *topoFile == "" || *outputDir == "" {
		fmt.Fprintf(os.Stderr, "Usage: rfgen -topology <file> -output <dir>\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	topo, err := rftopo.Load(*topoFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := os.MkdirAll(*outputDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output directory: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Generating rfserver config for topology %q\n", topo.Name)

	mappingPath := filepath.Join(*outputDir, "mapping.json")
	if err := rftopo.GenerateMapping(topo, mappingPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error generating mapping config: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("  %s\n", mappingPath)

	islPath := filepath.Join(*outputDir, "islconf.json")
	if err := rftopo.GenerateISL(topo, islPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error generating ISL config: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("  %s\n", islPath)

	fmt.Printf("\nDone. Run with: rfserver %s -i %s\n", mappingPath, islPath)
}
