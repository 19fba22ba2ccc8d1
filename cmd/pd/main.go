// Command pd is a dev CLI for postdeck maintenance and debugging tasks.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/pkg/browser"

	"github.com/ibeckermayer/postdeck/internal/config"
	"github.com/ibeckermayer/postdeck/internal/report"
	"github.com/ibeckermayer/postdeck/internal/store"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "paths":
		runPaths()
	case "open":
		if len(os.Args) < 3 {
			fmt.Println("Usage: pd open <config|cache|data|report>")
			os.Exit(1)
		}
		runOpen(os.Args[2])
	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: pd <command>")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  paths          Print the config, cache, data and export locations")
	fmt.Println("  open config    Open config file in default editor")
	fmt.Println("  open cache     Open cache directory in file explorer")
	fmt.Println("  open data      Open the directory holding the sqlite database")
	fmt.Println("  open report    Open the latest analytics report in the browser")
}

func runPaths() {
	for _, p := range []struct {
		name string
		fn   func() (string, error)
	}{
		{"config", config.ConfigPath},
		{"cache", config.CacheDir},
		{"data", config.DataDir},
		{"exports", store.ExportDir},
		{"reports", report.Dir},
	} {
		path, err := p.fn()
		if err != nil {
			path = "error: " + err.Error()
		}
		fmt.Printf("%-8s %s\n", p.name, path)
	}
}

func runOpen(target string) {
	var path string
	var err error

	switch target {
	case "config":
		path, err = config.ConfigPath()
	case "cache":
		path, err = config.CacheDir()
	case "data":
		path, err = config.DataDir()
	case "report":
		var dir string
		if dir, err = report.Dir(); err == nil {
			path, err = report.LatestReport(dir)
		}
	default:
		fmt.Printf("Unknown target: %s\n", target)
		os.Exit(1)
	}

	if err != nil {
		log.Fatalf("Failed to get path: %v", err)
	}

	if err := browser.OpenFile(path); err != nil {
		log.Fatalf("Failed to open: %v", err)
	}
}
