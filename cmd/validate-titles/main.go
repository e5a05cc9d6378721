package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mydehq/covermux/internal/naming"
	"github.com/mydehq/covermux/internal/scan"
)

func main() {
	root := "."
	if len(os.Args) > 1 {
		root = os.Args[1]
	}
	formats := []string{"mkv", "mp4", "avi", "webm"}

	files, err := scan.Videos(root, formats)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	for path, err := range files {
		if err != nil {
			fmt.Printf("Error walking path: %v\n", err)
			continue
		}
		title := naming.Parse(filepath.Base(path))
		fmt.Printf("File: %s\nGUESS: %s\n\n", filepath.Base(path), title.String())
	}
}
