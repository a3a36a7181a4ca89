package manifest

import (
	"encoding/csv"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/osdu-tools/dataload/logger"
	"github.com/osdu-tools/dataload/template"
	"github.com/pkg/errors"
)

// RowSource streams rows out of one tabular source file. The first line
// is the header; every following line becomes a template.Row keyed by the
// trimmed, lowercased column names.
type RowSource struct {
	Path string
	Log  logger.Logger

	rows chan rowRecord
	once sync.Once
}

type rowRecord struct {
	row template.Row
	err error
}

func NewRowSource(path string, log logger.Logger) *RowSource {
	if log == nil {
		log = logger.NopLogger
	}
	return &RowSource{
		Path: path,
		Log:  log,
		rows: make(chan rowRecord),
	}
}

// Next returns the next row, or io.EOF when the source is exhausted.
func (s *RowSource) Next() (template.Row, error) {
	s.once.Do(func() { go s.run() })

	rec, ok := <-s.rows
	if !ok {
		return nil, io.EOF
	}
	return rec.row, rec.err
}

func (s *RowSource) run() {
	defer close(s.rows)

	f, err := os.Open(s.Path)
	if err != nil {
		s.rows <- rowRecord{err: errors.Wrapf(err, "opening %s", s.Path)}
		return
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		s.rows <- rowRecord{err: errors.Wrapf(err, "reading header from '%s'", s.Path)}
		return
	}
	columns := make([]string, len(header))
	seen := map[string]bool{}
	for i, name := range header {
		name = strings.TrimSpace(strings.ToLower(stripBOM(name)))
		if seen[name] {
			s.rows <- rowRecord{err: errors.Errorf("duplicate column %q in '%s'", name, s.Path)}
			return
		}
		seen[name] = true
		columns[i] = name
	}

	extraColumnsCount := 0
	record, err := reader.Read()
	for ; err == nil; record, err = reader.Read() {
		row := make(template.Row, len(columns))
		for j, val := range record {
			if len(columns) <= j {
				if extraColumnsCount == 0 {
					s.Log.Warnf("'%s': ignoring additional column(s) not included in the header", s.Path)
				}
				extraColumnsCount++
				break
			}
			row[columns[j]] = val
		}
		s.rows <- rowRecord{row: row}
	}
	if extraColumnsCount > 0 {
		s.Log.Infof("processing '%s': %d rows have more columns than the header", s.Path, extraColumnsCount)
	}
	if err != io.EOF {
		s.Log.Errorf("processing '%s': '%v', skipping rest of file", s.Path, err)
	}
}

func stripBOM(s string) string {
	return strings.TrimPrefix(s, "\uFEFF")
}
