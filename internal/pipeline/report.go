// SPDX-License-Identifier: MPL-2.0

package pipeline

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/archcrate/archcrate/internal/cargo"
)

type (
	reportDoc struct {
		Version  string     `yaml:"version"`
		Source   string     `yaml:"source"`
		Describe string     `yaml:"describe,omitempty"`
		Phases   []phaseDoc `yaml:"phases"`
		Failed   *phaseDoc  `yaml:"failed,omitempty"`
	}

	phaseDoc struct {
		Phase      string `yaml:"phase"`
		Command    string `yaml:"command,omitempty"`
		ExitCode   int    `yaml:"exit_code"`
		Skipped    bool   `yaml:"skipped,omitempty"`
		Error      string `yaml:"error,omitempty"`
		Diagnostic string `yaml:"diagnostic,omitempty"`
	}
)

// WriteYAML writes the report as a YAML document for CI logs. A failed phase
// appears both in phases and under failed.
func (r *Report) WriteYAML(w io.Writer) error {
	doc := reportDoc{
		Version:  r.Version.Version,
		Source:   string(r.Version.Source),
		Describe: r.Version.Describe,
		Phases:   make([]phaseDoc, 0, len(r.Phases)),
	}
	for _, res := range r.Phases {
		doc.Phases = append(doc.Phases, newPhaseDoc(res))
	}
	if failed := r.Failed(); failed != nil {
		pd := newPhaseDoc(failed)
		doc.Failed = &pd
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	return enc.Close()
}

func newPhaseDoc(res *cargo.PhaseResult) phaseDoc {
	pd := phaseDoc{
		Phase:      string(res.Phase),
		Command:    res.Command,
		ExitCode:   int(res.ExitCode),
		Skipped:    res.Skipped,
		Diagnostic: res.Diagnostic,
	}
	if res.Err != nil {
		pd.Error = res.Err.Error()
	}
	return pd
}
