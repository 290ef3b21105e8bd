// Command dqa analyzes tabular data quality. It scores a CSV file against
// optional YAML rules and writes summary, issue and report artifacts, or
// serves the same analysis over HTTP.
package main

import (
	"fmt"
	"os"
)

const usageText = `usage: dqa <command> [flags]

commands:
  run     analyze a CSV file and write report artifacts
  serve   start the HTTP API server

Run "dqa <command> -h" for command flags.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usageText)
		os.Exit(2)
	}

	switch os.Args[1] {
	case "run":
		os.Exit(runCommand(os.Args[2:]))
	case "serve":
		os.Exit(serveCommand(os.Args[2:]))
	case "help", "-h", "--help":
		fmt.Print(usageText)
	default:
		fmt.Fprintf(os.Stderr, "dqa: unknown command %q\n\n%s", os.Args[1], usageText)
		os.Exit(2)
	}
}
