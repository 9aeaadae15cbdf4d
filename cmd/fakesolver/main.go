package main

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// fakesolver stands in for an external multi-core solver engine: it sleeps
// for a requested duration, writes an artifact file, and exits with a
// requested code. Batch files point at it for end-to-end runs without a
// real Meep/DEVSIM installation.
//
// Usage: fakesolver <duration> <artifact-path> [exit-code]

func main() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: fakesolver <duration> <artifact-path> [exit-code]")
		os.Exit(2)
	}

	d, err := time.ParseDuration(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "bad duration %q: %v\n", os.Args[1], err)
		os.Exit(2)
	}
	artifact := os.Args[2]

	code := 0
	if len(os.Args) > 3 {
		code, err = strconv.Atoi(os.Args[3])
		if err != nil {
			fmt.Fprintf(os.Stderr, "bad exit code %q: %v\n", os.Args[3], err)
			os.Exit(2)
		}
	}

	cores := os.Getenv("SIMBATCH_CORES")
	fmt.Printf("fakesolver: cores=%s duration=%s artifact=%s\n", cores, d, artifact)

	time.Sleep(d)

	if code != 0 {
		fmt.Fprintf(os.Stderr, "fakesolver: simulated solver failure (exit %d)\n", code)
		os.Exit(code)
	}

	body := fmt.Sprintf("# fake sparameters\ncores: %s\nfinished: %s\n",
		cores, time.Now().UTC().Format(time.RFC3339))
	if err := os.WriteFile(artifact, []byte(body), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "fakesolver: cannot write artifact: %v\n", err)
		os.Exit(1)
	}
}
