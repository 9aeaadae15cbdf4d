package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"simbatch/internal/core"
	"simbatch/internal/journal"
	"simbatch/internal/storage"
)

func usage() {
	fmt.Println("Usage:")
	fmt.Println("  simbatch run <batch.yaml>")
	fmt.Println("  simbatch submit <batch.yaml> [server-url]")
	fmt.Println("  simbatch inspect <journal.jsonl>")
	fmt.Println("  simbatch verify <journal.jsonl>")
	os.Exit(1)
}

func main() {
	if len(os.Args) < 3 {
		usage()
	}

	switch os.Args[1] {

	case "run":
		if err := runBatch(os.Args[2]); err != nil {
			fmt.Printf("batch rejected: %v\n", err)
			os.Exit(1)
		}

	case "submit":
		url := "http://localhost:8080"
		if len(os.Args) > 3 {
			url = os.Args[3]
		}
		data, err := os.ReadFile(os.Args[2])
		if err != nil {
			fmt.Println("cannot read batch file:", err)
			os.Exit(1)
		}
		resp, err := http.Post(url+"/batches", "application/x-yaml", bytes.NewBuffer(data))
		if err != nil {
			fmt.Println("cannot reach server:", err)
			os.Exit(1)
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		fmt.Println("server response:", string(body))

	case "inspect":
		j, err := journal.Open(os.Args[2])
		if err != nil {
			fmt.Printf("cannot open journal: %v\n", err)
			os.Exit(1)
		}
		for _, e := range j.Entries() {
			fmt.Printf("seq=%d batch=%s job=%d status=%s hash=%s\n",
				e.Seq, e.BatchID, e.JobIndex, e.Status, e.Hash[:16])
		}

	case "verify":
		j, err := journal.Open(os.Args[2])
		if err != nil {
			fmt.Printf("cannot open journal: %v\n", err)
			os.Exit(1)
		}
		if err := j.Verify(); err != nil {
			fmt.Printf("journal verification FAILED: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("journal verification ok")

	default:
		usage()
	}
}

// runBatch loads a batch file and executes it locally. Per-job failures are
// reported in the printed outcome, never as a process error; only invalid
// configuration makes the command fail.
func runBatch(path string) error {
	bf, err := core.LoadBatch(path)
	if err != nil {
		return err
	}
	jobs, err := bf.Descriptors()
	if err != nil {
		return err
	}
	mode, err := core.ParseMode(bf.Mode)
	if err != nil {
		return err
	}

	name := bf.Name
	if name == "" {
		name = "batch"
	}
	ws := storage.NewWorkspace(filepath.Join("runs", name))

	fmt.Printf("Running %s: %d jobs, %d cores, %s mode\n", name, len(jobs), bf.Cores, mode)

	outcome, err := core.RunBatch(context.Background(), jobs, core.Options{
		TotalCores: bf.Cores,
		Mode:       mode,
		Runner:     core.NewProcessSupervisor(ws),
	})
	if err != nil {
		return err
	}

	for _, res := range outcome.Results {
		line := fmt.Sprintf("job %d: %-9s %s", res.Index, res.Status, res.Duration.Round(time.Millisecond))
		if res.ArtifactPath != "" {
			line += "  -> " + res.ArtifactPath
		}
		if res.ErrorDetail != "" {
			line += "  (" + res.ErrorDetail + ")"
		}
		fmt.Println(line)
	}
	fmt.Printf("%d/%d jobs succeeded\n", len(outcome.Results)-outcome.Failures, len(outcome.Results))
	return nil
}
