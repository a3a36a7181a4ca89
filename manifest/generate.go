package manifest

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/osdu-tools/dataload/errors"
	"github.com/osdu-tools/dataload/logger"
	"github.com/osdu-tools/dataload/template"
)

// Generator turns tabular sources into manifest files on disk, one
// mapping entry at a time. Templates are loaded once per entry and
// resolved against every row of the paired source.
type Generator struct {
	TemplateDir string
	SourceDir   string
	OutputDir   string

	// Namespace replaces the <namespace> token at generation time.
	// Empty leaves the token for the orchestrator to substitute at
	// submission time.
	Namespace string

	// DropUnmatchedOneOf is passed through to template resolution.
	DropUnmatchedOneOf bool

	Log logger.Logger
}

// GenSummary accumulates per-run generation totals. A row that fails
// resolution is counted and logged, never fatal to the run.
type GenSummary struct {
	Rows      int
	Manifests int
	Failed    int
}

// Run generates manifests for every entry of the mapping. Only a broken
// mapping (unreadable template or source) aborts; row-level failures are
// tolerated per the partial-failure policy.
func (g *Generator) Run(mapping *Mapping) (*GenSummary, error) {
	log := g.Log
	if log == nil {
		log = logger.NopLogger
	}
	sum := &GenSummary{}
	for _, entry := range mapping.Entries {
		if err := g.runEntry(entry, sum, log); err != nil {
			return sum, err
		}
	}
	log.Infof("generated %d manifests from %d rows (%d rows failed)", sum.Manifests, sum.Rows, sum.Failed)
	return sum, nil
}

func (g *Generator) runEntry(entry Entry, sum *GenSummary, log logger.Logger) error {
	entityType, err := entry.EntityType()
	if err != nil {
		return err
	}
	tmplData, err := os.ReadFile(filepath.Join(g.TemplateDir, entry.Template))
	if err != nil {
		return errors.Wrapf(err, "reading template %s", entry.Template)
	}
	tmpl, err := template.Parse(tmplData)
	if err != nil {
		return errors.Wrapf(err, "parsing template %s", entry.Template)
	}

	source := NewRowSource(filepath.Join(g.SourceDir, entry.Source), log)
	log.Infof("generating %s manifests from %s with %s", entityType, entry.Source, entry.Template)

	var grouped []interface{}
	rowNum := 0
	for {
		row, err := source.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return errors.Wrapf(err, "reading rows from %s", entry.Source)
		}
		rowNum++
		sum.Rows++

		opts := template.Options{
			Namespace:          g.Namespace,
			DropUnmatchedOneOf: g.DropUnmatchedOneOf,
		}
		if entry.GroupFile {
			opts.GroupFileName = entry.Output
		}
		doc, err := tmpl.Resolve(row, opts)
		if err != nil {
			// A bad row must not abort the batch.
			sum.Failed++
			log.Errorf("row %d of %s failed: %v", rowNum, entry.Source, err)
			continue
		}

		if entry.GroupFile && entityType != TypeWorkProduct {
			grouped = append(grouped, doc)
			continue
		}

		var out map[string]interface{}
		if entityType == TypeWorkProduct {
			out = WrapData(doc)
		} else {
			out = Wrap(entityType, []interface{}{doc})
		}
		name := perRowFileName(entry, rowNum)
		if err := writeManifest(filepath.Join(g.OutputDir, name), out); err != nil {
			return err
		}
		sum.Manifests++
	}

	if entry.GroupFile && entityType != TypeWorkProduct {
		if len(grouped) == 0 {
			log.Warnf("%s produced no records, skipping %s", entry.Source, entry.Output)
			return nil
		}
		if err := writeManifest(filepath.Join(g.OutputDir, entry.Output), Wrap(entityType, grouped)); err != nil {
			return err
		}
		sum.Manifests++
	}
	return nil
}

func perRowFileName(entry Entry, rowNum int) string {
	base := entry.Output
	if base == "" {
		base = strings.TrimSuffix(entry.Source, filepath.Ext(entry.Source))
	}
	base = strings.TrimSuffix(base, ".json")
	return fmt.Sprintf("%s_%d.json", base, rowNum)
}

func writeManifest(path string, doc map[string]interface{}) error {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return errors.Wrapf(err, "creating output dir for %s", path)
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.Wrapf(err, "encoding manifest %s", path)
	}
	if err := os.WriteFile(path, data, 0640); err != nil {
		return errors.Wrapf(err, "writing manifest %s", path)
	}
	return nil
}
