// Package knowledge defines the FAQ dataset model and its loaders.
// The dataset is a CSV of question/answer pairs grouped by category, with a
// comma-separated keyword list per entry. Keywords are normalized once at
// load time so the retrieval layers never re-normalize them.
package knowledge

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"

	apperrors "github.com/shanle1117/workshop2-sub001/internal/errors"
	"github.com/shanle1117/workshop2-sub001/internal/textutil"
)

// Entry is a single FAQ item.
type Entry struct {
	Question string
	Answer   string
	Category string
	Keywords []string
}

// MatchText returns the text the vector index should embed for this entry:
// the question plus its keywords, space-joined.
func (e Entry) MatchText() string {
	if len(e.Keywords) == 0 {
		return e.Question
	}
	return e.Question + " " + strings.Join(e.Keywords, " ")
}

// LoadCSV reads the dataset from a CSV file on disk.
func LoadCSV(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewLoaderError(path, 0, err)
	}
	defer func() { _ = f.Close() }()

	return ParseCSV(f, path)
}

// LoadSnapshot reads a zstd-compressed dataset CSV, as stored in object
// storage snapshots.
func LoadSnapshot(r io.Reader, source string) ([]Entry, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, apperrors.NewLoaderError(source, 0, fmt.Errorf("zstd reader: %w", err))
	}
	defer dec.Close()

	return ParseCSV(dec, source)
}

// ParseCSV parses dataset records from r. The expected columns are
// question, answer, category, keywords; a header row is detected and
// skipped. Records with missing question or answer fail the whole load so a
// broken dataset never half-serves.
func ParseCSV(r io.Reader, source string) ([]Entry, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // validated per record below

	var entries []Entry
	record := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		record++
		if err != nil {
			return nil, apperrors.NewLoaderError(source, record, err)
		}
		if record == 1 && isHeader(row) {
			continue
		}
		if len(row) < 2 {
			return nil, apperrors.NewLoaderError(source, record, fmt.Errorf("%w: expected at least question and answer columns, got %d", apperrors.ErrInvalidInput, len(row)))
		}

		entry := Entry{
			Question: strings.TrimSpace(row[0]),
			Answer:   strings.TrimSpace(row[1]),
		}
		if len(row) > 2 {
			entry.Category = strings.TrimSpace(row[2])
		}
		if len(row) > 3 {
			entry.Keywords = parseKeywords(row[3])
		}

		if entry.Question == "" || entry.Answer == "" {
			return nil, apperrors.NewLoaderError(source, record, fmt.Errorf("%w: question and answer are required", apperrors.ErrInvalidInput))
		}

		entries = append(entries, entry)
	}

	if len(entries) == 0 {
		return nil, apperrors.NewLoaderError(source, 0, fmt.Errorf("%w: dataset is empty", apperrors.ErrNotFound))
	}

	return entries, nil
}

func isHeader(row []string) bool {
	return len(row) > 0 && strings.EqualFold(strings.TrimSpace(row[0]), "question")
}

// parseKeywords splits a comma-separated keyword list and normalizes each
// keyword. Empty keywords after normalization are dropped.
func parseKeywords(raw string) []string {
	parts := strings.Split(raw, ",")
	keywords := make([]string, 0, len(parts))
	for _, p := range parts {
		if kw := textutil.Normalize(p); kw != "" {
			keywords = append(keywords, kw)
		}
	}
	if len(keywords) == 0 {
		return nil
	}
	return keywords
}
