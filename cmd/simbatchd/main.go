package main

import (
	"context"
	"crypto/ed25519"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"simbatch/internal/core"
	"simbatch/internal/journal"
	"simbatch/internal/security"
	"simbatch/internal/storage"
	"simbatch/pkg/utils"
)

// batchRun tracks one submitted batch through its lifetime.
type batchRun struct {
	ID      string             `json:"id"`
	Name    string             `json:"name"`
	Status  string             `json:"status"` // running | finished | rejected
	Error   string             `json:"error,omitempty"`
	Outcome *core.BatchOutcome `json:"-"`
}

type server struct {
	mu      sync.Mutex
	batches map[string]*batchRun
	journal *journal.Journal
	privKey ed25519.PrivateKey
	pubKey  ed25519.PublicKey
	workDir string
}

func newServer(workDir string) *server {
	j, err := journal.Open(filepath.Join(workDir, "journal.jsonl"))
	if err != nil {
		fmt.Printf("WARN: cannot open journal: %v\n", err)
	}

	pub, priv, err := ensureServerKey(
		filepath.Join(workDir, "keys", "server.pub"),
		filepath.Join(workDir, "keys", "server.priv"),
	)
	if err != nil {
		panic(fmt.Sprintf("failed to init server keys: %v", err))
	}

	return &server{
		batches: make(map[string]*batchRun),
		journal: j,
		privKey: priv,
		pubKey:  pub,
		workDir: workDir,
	}
}

// ensureServerKey loads the journal signing keypair or generates one.
func ensureServerKey(pubPath, privPath string) (ed25519.PublicKey, ed25519.PrivateKey, error) {
	if _, err := os.Stat(pubPath); os.IsNotExist(err) {
		pub, priv, err := security.GenerateKeyPair()
		if err != nil {
			return nil, nil, err
		}
		if err := os.MkdirAll(filepath.Dir(pubPath), 0o700); err != nil {
			return nil, nil, err
		}
		if err := security.SaveKeyPair(pub, priv, pubPath, privPath); err != nil {
			return nil, nil, err
		}
		fmt.Println("Generated new server keys")
		return pub, priv, nil
	}

	pub, err := security.LoadPublicKey(pubPath)
	if err != nil {
		return nil, nil, err
	}
	priv, err := security.LoadPrivateKey(privPath)
	if err != nil {
		return nil, nil, err
	}
	fmt.Println("Loaded existing server keys")
	return pub, priv, nil
}

// POST /batches -> submit a batch YAML; config errors are rejected here,
// before anything is dispatched.
func (s *server) handleSubmitBatch(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "cannot read body", http.StatusBadRequest)
		return
	}

	bf, err := core.ParseBatch(data)
	if err != nil {
		http.Error(w, "invalid batch file: "+err.Error(), http.StatusBadRequest)
		return
	}
	jobs, err := bf.Descriptors()
	if err != nil {
		http.Error(w, "invalid batch file: "+err.Error(), http.StatusBadRequest)
		return
	}
	mode, err := core.ParseMode(bf.Mode)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ledger := core.NewCoreLedger(bf.Cores)
	if err := core.ValidateJobs(jobs, ledger.Total()); err != nil {
		http.Error(w, "invalid batch: "+err.Error(), http.StatusBadRequest)
		return
	}

	run := &batchRun{
		ID:     uuid.NewString(),
		Name:   bf.Name,
		Status: "running",
	}
	s.mu.Lock()
	s.batches[run.ID] = run
	s.mu.Unlock()

	go s.execute(run, jobs, bf.Cores, mode)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{
		"id":     run.ID,
		"name":   bf.Name,
		"status": "running",
	})
}

// execute runs a validated batch and records every result in the journal.
func (s *server) execute(run *batchRun, jobs []core.JobDescriptor, cores int, mode core.Mode) {
	ws := storage.NewWorkspace(filepath.Join(s.workDir, "runs", run.ID))

	outcome, err := core.RunBatch(context.Background(), jobs, core.Options{
		TotalCores: cores,
		Mode:       mode,
		Runner:     core.NewProcessSupervisor(ws),
	})

	s.mu.Lock()
	if err != nil {
		run.Status = "rejected"
		run.Error = err.Error()
		s.mu.Unlock()
		return
	}
	run.Status = "finished"
	run.Outcome = outcome
	s.mu.Unlock()

	if s.journal == nil {
		return
	}
	for _, res := range outcome.Results {
		artifactHash := ""
		if res.ArtifactPath != "" {
			if h, err := utils.HashFile(res.ArtifactPath); err == nil {
				artifactHash = h
			}
		}
		entry, err := journal.NewEntry(s.journal.NextSeq(), run.ID, res, artifactHash, s.journal.LastHash())
		if err != nil {
			fmt.Printf("WARN: cannot create journal entry: %v\n", err)
			continue
		}
		if err := s.journal.Append(entry, s.privKey, s.pubKey); err != nil {
			fmt.Printf("WARN: cannot append journal entry: %v\n", err)
		}
	}
}

// GET /batches/{id} -> batch status
func (s *server) handleBatchStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	run, ok := s.batches[id]
	var view batchRun
	if ok {
		view = *run
	}
	s.mu.Unlock()
	if !ok {
		http.Error(w, "batch not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(view)
}

// GET /batches/{id}/outcome -> full results, once the batch has finished
func (s *server) handleBatchOutcome(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	run, ok := s.batches[id]
	var outcome *core.BatchOutcome
	if ok {
		outcome = run.Outcome
	}
	s.mu.Unlock()
	if !ok {
		http.Error(w, "batch not found", http.StatusNotFound)
		return
	}
	if outcome == nil {
		http.Error(w, "batch still running", http.StatusConflict)
		return
	}

	type jobView struct {
		Index    int    `json:"index"`
		Status   string `json:"status"`
		ExitCode int    `json:"exitCode"`
		Artifact string `json:"artifact,omitempty"`
		Detail   string `json:"detail,omitempty"`
	}
	views := make([]jobView, len(outcome.Results))
	for i, res := range outcome.Results {
		views[i] = jobView{
			Index:    res.Index,
			Status:   res.Status.String(),
			ExitCode: res.ExitCode,
			Artifact: res.ArtifactPath,
			Detail:   res.ErrorDetail,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"id":       id,
		"failures": outcome.Failures,
		"results":  views,
	})
}

// GET /journal/verify -> walk the hash chain
func (s *server) handleVerifyJournal(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		http.Error(w, "journal unavailable", http.StatusServiceUnavailable)
		return
	}
	if err := s.journal.Verify(); err != nil {
		http.Error(w, "journal verification failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Write([]byte("journal verification ok"))
}

func main() {
	workDir := os.Getenv("SIMBATCH_DIR")
	if workDir == "" {
		workDir = "."
	}
	s := newServer(workDir)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Post("/batches", s.handleSubmitBatch)
	r.Get("/batches/{id}", s.handleBatchStatus)
	r.Get("/batches/{id}/outcome", s.handleBatchOutcome)
	r.Get("/journal/verify", s.handleVerifyJournal)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	fmt.Println("simbatchd running on port", port)
	http.ListenAndServe(":"+port, r)
}
