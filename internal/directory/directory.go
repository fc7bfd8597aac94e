// Package directory serves staff contact questions. It assembles the staff
// roster from a CSV file, the SQLite cache, or the live staff page (in that
// order), projects each member into an FAQ entry, and answers through its
// own retriever so staff questions never compete with the main dataset.
package directory

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	apperrors "github.com/shanle1117/workshop2-sub001/internal/errors"
	"github.com/shanle1117/workshop2-sub001/internal/knowledge"
	"github.com/shanle1117/workshop2-sub001/internal/logger"
	"github.com/shanle1117/workshop2-sub001/internal/metrics"
	"github.com/shanle1117/workshop2-sub001/internal/rag"
	"github.com/shanle1117/workshop2-sub001/internal/storage"
	"github.com/shanle1117/workshop2-sub001/internal/textutil"
)

// StaffCategory is the category staff entries are filed under.
const StaffCategory = "staff_contact"

// Source fetches a fresh staff roster, typically by scraping the public
// staff page.
type Source interface {
	Fetch(ctx context.Context) ([]storage.StaffMember, error)
}

// Directory answers staff contact questions.
type Directory struct {
	repo      *storage.StaffRepository
	source    Source // optional
	retriever *rag.Retriever
	logger    *logger.Logger
	metrics   *metrics.Metrics
}

// New creates a Directory. repo may be nil when persistence is disabled;
// source may be nil when no staff page is configured.
func New(log *logger.Logger, m *metrics.Metrics, repo *storage.StaffRepository, source Source) *Directory {
	return &Directory{
		repo:    repo,
		source:  source,
		logger:  log.WithModule("directory"),
		metrics: m,
	}
}

// Load assembles the roster and builds the retriever. Resolution order:
// the CSV file when csvPath is set, then the SQLite cache, then the live
// source. A CSV or source roster is written back to the cache. Load returns
// ErrNotFound when no source yields any staff.
func (d *Directory) Load(ctx context.Context, csvPath string) error {
	members, err := d.resolveMembers(ctx, csvPath)
	if err != nil {
		return err
	}

	entries := EntriesFromStaff(members)
	retriever, err := rag.NewRetriever(d.logger, d.metrics, entries)
	if err != nil {
		return err
	}
	d.retriever = retriever

	d.logger.WithField("staff", len(members)).Info("Staff directory loaded")
	return nil
}

func (d *Directory) resolveMembers(ctx context.Context, csvPath string) ([]storage.StaffMember, error) {
	if csvPath != "" {
		members, err := LoadCSV(csvPath)
		if err != nil {
			return nil, err
		}
		d.cache(ctx, members)
		return members, nil
	}

	if d.repo != nil {
		members, err := d.repo.GetAll(ctx)
		if err != nil {
			return nil, err
		}
		if len(members) > 0 {
			d.metrics.RecordCacheHit("directory")
			return members, nil
		}
		d.metrics.RecordCacheMiss("directory")
	}

	if d.source != nil {
		members, err := d.source.Fetch(ctx)
		if err != nil {
			return nil, err
		}
		d.cache(ctx, members)
		return members, nil
	}

	return nil, fmt.Errorf("%w: no staff source available", apperrors.ErrNotFound)
}

func (d *Directory) cache(ctx context.Context, members []storage.StaffMember) {
	if d.repo == nil || len(members) == 0 {
		return
	}
	if err := d.repo.ReplaceAll(ctx, members); err != nil {
		// The in-memory roster still works; only the cache write failed.
		d.logger.WithError(err).Warn("Failed to cache staff directory")
	}
}

// Refresh re-fetches the roster from the live source and rebuilds the
// retriever. No-op error when no source is configured.
func (d *Directory) Refresh(ctx context.Context) error {
	if d.source == nil {
		return fmt.Errorf("%w: no staff source configured", apperrors.ErrNotFound)
	}
	members, err := d.source.Fetch(ctx)
	if err != nil {
		return err
	}
	d.cache(ctx, members)
	if d.retriever == nil {
		retriever, err := rag.NewRetriever(d.logger, d.metrics, EntriesFromStaff(members))
		if err != nil {
			return err
		}
		d.retriever = retriever
		return nil
	}
	return d.retriever.Reload(EntriesFromStaff(members))
}

// Answer retrieves the best staff answer for the message. The second return
// is false when the directory is empty or nothing matched.
func (d *Directory) Answer(message string) (string, bool) {
	if d.retriever == nil {
		return "", false
	}
	entry, _, err := d.retriever.Retrieve(StaffCategory, message)
	if err != nil {
		return "", false
	}
	return entry.Answer, true
}

// Count returns the number of staff entries loaded.
func (d *Directory) Count() int {
	if d.retriever == nil {
		return 0
	}
	return d.retriever.Count()
}

// LoadCSV reads a staff roster from a CSV file with columns
// name, title, email, phone, office. A header row is detected and skipped.
func LoadCSV(path string) ([]storage.StaffMember, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewLoaderError(path, 0, err)
	}
	defer func() { _ = f.Close() }()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	var members []storage.StaffMember
	record := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		record++
		if err != nil {
			return nil, apperrors.NewLoaderError(path, record, err)
		}
		if record == 1 && strings.EqualFold(strings.TrimSpace(row[0]), "name") {
			continue
		}

		m := storage.StaffMember{Name: strings.TrimSpace(row[0])}
		if len(row) > 1 {
			m.Title = strings.TrimSpace(row[1])
		}
		if len(row) > 2 {
			m.Email = strings.TrimSpace(row[2])
		}
		if len(row) > 3 {
			m.Phone = strings.TrimSpace(row[3])
		}
		if len(row) > 4 {
			m.Office = strings.TrimSpace(row[4])
		}
		if m.Name == "" {
			return nil, apperrors.NewLoaderError(path, record, fmt.Errorf("%w: staff name is required", apperrors.ErrInvalidInput))
		}
		members = append(members, m)
	}

	if len(members) == 0 {
		return nil, apperrors.NewLoaderError(path, 0, fmt.Errorf("%w: staff roster is empty", apperrors.ErrNotFound))
	}
	return members, nil
}

// EntriesFromStaff projects staff members into FAQ entries. The keywords
// combine the member's name and title tokens with the standing contact
// vocabulary, so both "smith email" and "department head phone" resolve.
func EntriesFromStaff(members []storage.StaffMember) []knowledge.Entry {
	entries := make([]knowledge.Entry, 0, len(members))
	for _, m := range members {
		keywords := textutil.Tokenize(m.Name)
		keywords = append(keywords, textutil.Tokenize(m.Title)...)
		keywords = append(keywords, "contact", "email", "phone", "office")

		entries = append(entries, knowledge.Entry{
			Question: fmt.Sprintf("How can I contact %s?", m.Name),
			Answer:   formatContactCard(m),
			Category: StaffCategory,
			Keywords: keywords,
		})
	}
	return entries
}

func formatContactCard(m storage.StaffMember) string {
	var b strings.Builder
	b.WriteString(m.Name)
	if m.Title != "" {
		b.WriteString(" (" + m.Title + ")")
	}
	if m.Email != "" {
		b.WriteString(" - Email: " + m.Email)
	}
	if m.Phone != "" {
		b.WriteString(" - Phone: " + m.Phone)
	}
	if m.Office != "" {
		b.WriteString(" - Office: " + m.Office)
	}
	return b.String()
}
