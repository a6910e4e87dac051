//go:build ignore

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/muurk/luxws/internal/locale"
	"github.com/muurk/luxws/internal/protocol"
	"github.com/muurk/luxws/internal/units"
)

// Statistics tracks parsing results
type Statistics struct {
	TotalFiles int
	Kinds      map[protocol.MessageKind]int
	Leaves     int
	Skipped    map[string]int // label -> count
	Failed     map[string]string
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: validate_capture <directory-or-file> [language]")
		fmt.Println("Example: validate_capture captures/")
		fmt.Println("         validate_capture content-20261016.xml en")
		os.Exit(1)
	}

	lang := locale.DefaultLanguage
	if len(os.Args) > 2 {
		lang = os.Args[2]
	}
	table, err := locale.Load(lang)
	if err != nil {
		fmt.Printf("Error loading locale: %v\n", err)
		os.Exit(1)
	}
	registry, err := units.NewRegistry(table)
	if err != nil {
		fmt.Printf("Error building registry: %v\n", err)
		os.Exit(1)
	}
	dec := units.Converter{Locale: table}

	path := os.Args[1]
	info, err := os.Stat(path)
	if err != nil {
		fmt.Printf("Error accessing path: %v\n", err)
		os.Exit(1)
	}

	var files []string
	if info.IsDir() {
		files, err = filepath.Glob(filepath.Join(path, "*.xml"))
		if err != nil {
			fmt.Printf("Error finding files: %v\n", err)
			os.Exit(1)
		}
	} else {
		files = []string{path}
	}

	stats := Statistics{
		Kinds:   make(map[protocol.MessageKind]int),
		Skipped: make(map[string]int),
		Failed:  make(map[string]string),
	}

	for _, file := range files {
		stats.TotalFiles++
		body, err := os.ReadFile(file)
		if err != nil {
			stats.Failed[file] = err.Error()
			continue
		}

		msg, err := protocol.Decode(body, registry, dec)
		if err != nil {
			stats.Failed[file] = err.Error()
			continue
		}
		stats.Kinds[msg.Kind()]++

		if content, ok := msg.(protocol.ContentMessage); ok {
			stats.Leaves += len(content.Tree.Flatten())
			for _, s := range content.Skipped {
				stats.Skipped[s.Label]++
			}
		}
	}

	fmt.Println("=== Capture Validation ===")
	fmt.Printf("Files:  %d\n", stats.TotalFiles)
	for kind, n := range stats.Kinds {
		fmt.Printf("  %-12s %d\n", kind, n)
	}
	fmt.Printf("Leaves: %d\n", stats.Leaves)

	if len(stats.Skipped) > 0 {
		fmt.Println("\nUnknown or unparseable labels:")
		labels := make([]string, 0, len(stats.Skipped))
		for l := range stats.Skipped {
			labels = append(labels, l)
		}
		sort.Strings(labels)
		for _, l := range labels {
			fmt.Printf("  %-40s %d\n", l, stats.Skipped[l])
		}
	}

	if len(stats.Failed) > 0 {
		fmt.Println("\nFailed files:")
		for f, e := range stats.Failed {
			fmt.Printf("  %s: %s\n", f, e)
		}
		os.Exit(1)
	}
}
