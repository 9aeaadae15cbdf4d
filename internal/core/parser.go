package core

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// BatchFile mirrors the on-disk YAML layout of a batch description.
type BatchFile struct {
	Name  string    `yaml:"name"`  // batch label, used for workspace naming
	Cores int       `yaml:"cores"` // total budget; zero means host core count
	Mode  string    `yaml:"mode"`  // "lazy" (default) or "eager"
	Jobs  []JobSpec `yaml:"jobs"`
}

// JobSpec is one job entry in a batch file. Indices are assigned from file
// order when descriptors are built.
type JobSpec struct {
	Command  string   `yaml:"command"`
	Args     []string `yaml:"args"`
	Dir      string   `yaml:"dir"`
	Artifact string   `yaml:"artifact"`
	Cores    int      `yaml:"cores"`
	Timeout  string   `yaml:"timeout"` // Go duration string, e.g. "30s"
}

// ParseBatch parses YAML content into a BatchFile.
func ParseBatch(data []byte) (*BatchFile, error) {
	var bf BatchFile
	if err := yaml.Unmarshal(data, &bf); err != nil {
		return nil, fmt.Errorf("parse batch file: %w", err)
	}
	return &bf, nil
}

// LoadBatch reads and parses a batch file from disk.
func LoadBatch(path string) (*BatchFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseBatch(data)
}

// Descriptors converts the file entries into scheduler descriptors, with
// indices following file order. Jobs defaulting Cores to 1 keeps small
// sweep files terse.
func (bf *BatchFile) Descriptors() ([]JobDescriptor, error) {
	jobs := make([]JobDescriptor, 0, len(bf.Jobs))
	for i, spec := range bf.Jobs {
		cores := spec.Cores
		if cores == 0 {
			cores = 1
		}

		var timeout time.Duration
		if spec.Timeout != "" {
			d, err := time.ParseDuration(spec.Timeout)
			if err != nil {
				return nil, fmt.Errorf("job %d: bad timeout %q: %w", i, spec.Timeout, err)
			}
			timeout = d
		}

		jobs = append(jobs, JobDescriptor{
			Index:         i,
			CoresRequired: cores,
			Invocation: Invocation{
				Command:      spec.Command,
				Args:         spec.Args,
				Dir:          spec.Dir,
				ArtifactPath: spec.Artifact,
			},
			Timeout: timeout,
		})
	}
	return jobs, nil
}
