package db

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

// IndexFieldType is the FT.CREATE schema keyword of a field.
type IndexFieldType string

// Field types the engine indexes.
const (
	IndexFieldNumeric IndexFieldType = "NUMERIC"
	IndexFieldTag     IndexFieldType = "TAG"
	IndexFieldText    IndexFieldType = "TEXT"
	IndexFieldVector  IndexFieldType = "VECTOR"
)

// HNSW configures a FLOAT32 vector field compared by cosine distance.
// Zero M or EFConstruct leaves the server default.
type HNSW struct {
	Dim         int
	M           int
	EFConstruct int
}

// IndexField is one schema entry.
type IndexField struct {
	Name     string
	Type     IndexFieldType
	Sortable bool

	TextWeight   float64 // 0 leaves the server default of 1.0
	TagSeparator string
	Vector       HNSW
}

// IndexDefinition is a HASH-backed FT index.
type IndexDefinition struct {
	Name     string
	Prefixes []string
	Language string // stemming language of TEXT fields; empty leaves the server default
	Fields   []IndexField
}

// IndexInfo is the part of FT.INFO the engine reports.
type IndexInfo struct {
	Name           string
	NumDocs        int64
	Indexing       bool
	PercentIndexed float64
}

var identifier = regexp.MustCompile(`^[A-Za-z0-9_:-]+$`)

// IsValidIdentifier reports whether s is usable as an index name.
func IsValidIdentifier(s string) bool {
	return identifier.MatchString(s)
}

// Validate reports every problem with the definition.
func (idx *IndexDefinition) Validate() error {
	var errs []error
	switch {
	case idx.Name == "":
		errs = append(errs, errors.New("index name is required"))
	case !IsValidIdentifier(idx.Name):
		errs = append(errs, fmt.Errorf("index name %q contains invalid characters", idx.Name))
	}
	if len(idx.Fields) == 0 {
		errs = append(errs, errors.New("at least one field is required"))
	}

	seen := make(map[string]bool, len(idx.Fields))
	for i, f := range idx.Fields {
		if f.Name == "" {
			errs = append(errs, fmt.Errorf("field #%d has no name", i))
			continue
		}
		if seen[f.Name] {
			errs = append(errs, fmt.Errorf("duplicate field %s", f.Name))
		}
		seen[f.Name] = true

		switch f.Type {
		case IndexFieldNumeric, IndexFieldTag:
		case IndexFieldText:
			if f.TextWeight < 0 {
				errs = append(errs, fmt.Errorf("text field %s has negative WEIGHT", f.Name))
			}
		case IndexFieldVector:
			if f.Vector.Dim <= 0 {
				errs = append(errs, fmt.Errorf("vector field %s requires positive DIM", f.Name))
			}
		default:
			errs = append(errs, fmt.Errorf("field %s has unknown type %q", f.Name, f.Type))
		}
	}
	return errors.Join(errs...)
}

// Args renders the FT.CREATE arguments that follow the command name.
func (idx *IndexDefinition) Args() ([]string, error) {
	if err := idx.Validate(); err != nil {
		return nil, err
	}

	out := []string{idx.Name, "ON", "HASH"}
	if n := len(idx.Prefixes); n > 0 {
		out = append(append(out, "PREFIX", strconv.Itoa(n)), idx.Prefixes...)
	}
	if idx.Language != "" {
		out = append(out, "LANGUAGE", idx.Language)
	}
	out = append(out, "SCHEMA")
	for _, f := range idx.Fields {
		out = f.appendArgs(out)
	}
	return out, nil
}

func (f IndexField) appendArgs(out []string) []string {
	out = append(out, f.Name, string(f.Type))

	switch f.Type {
	case IndexFieldText:
		if f.TextWeight > 0 {
			out = append(out, "WEIGHT", strconv.FormatFloat(f.TextWeight, 'f', -1, 64))
		}
	case IndexFieldTag:
		if f.TagSeparator != "" {
			out = append(out, "SEPARATOR", f.TagSeparator)
		}
	case IndexFieldVector:
		return append(out, f.Vector.args()...)
	}

	if f.Sortable {
		out = append(out, "SORTABLE")
	}
	return out
}

// args renders "HNSW <count> attr value ...".
func (h HNSW) args() []string {
	attrs := []string{"TYPE", "FLOAT32", "DIM", strconv.Itoa(h.Dim), "DISTANCE_METRIC", "COSINE"}
	if h.M > 0 {
		attrs = append(attrs, "M", strconv.Itoa(h.M))
	}
	if h.EFConstruct > 0 {
		attrs = append(attrs, "EF_CONSTRUCTION", strconv.Itoa(h.EFConstruct))
	}
	return append([]string{"HNSW", strconv.Itoa(len(attrs))}, attrs...)
}
