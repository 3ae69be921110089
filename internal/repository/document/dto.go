package document

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kailas-cloud/signalsearch/internal/domain/signal"
	"github.com/kailas-cloud/signalsearch/internal/repository/index"
)

// buildHashFields flattens doc for HSET. It also returns the optional fields that
// have no value and must not linger from a previous write.
func buildHashFields(doc *signal.IndexedDocument) (map[string]string, []string) {
	m := map[string]string{
		index.FieldSignalID:    doc.SignalID.String(),
		index.FieldWorkspaceID: doc.WorkspaceID.String(),
		index.FieldContent:     doc.Content,
		index.FieldSource:      doc.Source,
		index.FieldCreatedAt:   strconv.FormatInt(doc.CreatedAt.Unix(), 10),
		index.FieldEmbedding:   vectorToBytes(doc.Embedding),
	}
	var absent []string

	optional := []struct {
		name  string
		value string
	}{
		{index.FieldTitle, doc.Title},
		{index.FieldURL, doc.URL},
		{index.FieldIndustries, joinTags(doc.Entities.Industries)},
		{index.FieldTechnologies, joinTags(doc.Entities.Technologies)},
		{index.FieldCompanies, joinTags(doc.Entities.Companies)},
		{index.FieldMonetizationModels, joinTags(doc.Entities.MonetizationModels)},
	}
	for _, o := range optional {
		if o.value == "" {
			absent = append(absent, o.name)
			continue
		}
		m[o.name] = o.value
	}

	if doc.PublishedAt != nil {
		m[index.FieldPublishedAt] = strconv.FormatInt(doc.PublishedAt.Unix(), 10)
	} else {
		absent = append(absent, index.FieldPublishedAt)
	}

	return m, absent
}

// parseHashFields rebuilds an IndexedDocument from its hash.
func parseHashFields(m map[string]string) (signal.IndexedDocument, error) {
	var doc signal.IndexedDocument
	var err error

	if doc.SignalID, err = uuid.Parse(m[index.FieldSignalID]); err != nil {
		return doc, fmt.Errorf("parse signal_id: %w", err)
	}
	if doc.WorkspaceID, err = uuid.Parse(m[index.FieldWorkspaceID]); err != nil {
		return doc, fmt.Errorf("parse workspace_id: %w", err)
	}
	doc.Title = m[index.FieldTitle]
	doc.Content = m[index.FieldContent]
	doc.Source = m[index.FieldSource]
	doc.URL = m[index.FieldURL]
	doc.Entities = signal.Entities{
		Industries:         splitTags(m[index.FieldIndustries]),
		Technologies:       splitTags(m[index.FieldTechnologies]),
		Companies:          splitTags(m[index.FieldCompanies]),
		MonetizationModels: splitTags(m[index.FieldMonetizationModels]),
	}

	created, err := strconv.ParseInt(m[index.FieldCreatedAt], 10, 64)
	if err != nil {
		return doc, fmt.Errorf("parse created_at: %w", err)
	}
	doc.CreatedAt = time.Unix(created, 0).UTC()

	if v, ok := m[index.FieldPublishedAt]; ok && v != "" {
		ts, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return doc, fmt.Errorf("parse published_at: %w", err)
		}
		p := time.Unix(ts, 0).UTC()
		doc.PublishedAt = &p
	}

	doc.Embedding = bytesToVector(m[index.FieldEmbedding])
	return doc, nil
}

// joinTags drops empty values and the separator itself from tag values.
func joinTags(values []string) string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(strings.ReplaceAll(v, index.TagSeparator, " "))
		if v != "" {
			out = append(out, v)
		}
	}
	return strings.Join(out, index.TagSeparator)
}

func splitTags(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, index.TagSeparator)
}

// vectorToBytes serializes []float32 to a binary string (4 bytes per float, little-endian).
func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}

// bytesToVector deserializes a binary string back to []float32.
func bytesToVector(s string) []float32 {
	b := []byte(s)
	if len(b)%4 != 0 {
		return nil
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}
