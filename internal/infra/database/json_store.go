package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/xavierca1/leadflow/internal/entity"
)

// document is the on-disk layout of the JSON store.
type document struct {
	Leads            []entity.Lead       `json:"leads"`
	Conversions      []entity.Conversion `json:"conversions"`
	NextLeadID       int64               `json:"nextLeadId"`
	NextConversionID int64               `json:"nextConversionId"`
}

func emptyDocument() *document {
	return &document{
		Leads:            []entity.Lead{},
		Conversions:      []entity.Conversion{},
		NextLeadID:       1,
		NextConversionID: 1,
	}
}

// JSONStore keeps every lead and conversion in a single JSON file. Each mutation
// reads, modifies and rewrites the whole document under an exclusive lock, so one
// process never interleaves two writers.
type JSONStore struct {
	path string
	mu   sync.RWMutex
	now  func() time.Time
}

func NewJSONStore(path string) *JSONStore {
	return &JSONStore{
		path: path,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

func (s *JSONStore) Path() string {
	return s.path
}

// load never fails: a missing file starts a fresh store and an unreadable one is
// logged and replaced by an empty document on the next write.
func (s *JSONStore) load() *document {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Warn().Err(err).Str("path", s.path).Msg("lead store unreadable, starting empty")
		}
		return emptyDocument()
	}

	doc := emptyDocument()
	if err := json.Unmarshal(raw, doc); err != nil {
		log.Warn().Err(err).Str("path", s.path).Msg("lead store corrupt, starting empty")
		return emptyDocument()
	}
	if doc.Leads == nil {
		doc.Leads = []entity.Lead{}
	}
	if doc.Conversions == nil {
		doc.Conversions = []entity.Conversion{}
	}
	// A missing or stale counter must never hand out an id already in use.
	for _, l := range doc.Leads {
		doc.NextLeadID = max(doc.NextLeadID, l.ID+1)
	}
	for _, c := range doc.Conversions {
		doc.NextConversionID = max(doc.NextConversionID, c.ID+1)
	}
	doc.NextLeadID = max(doc.NextLeadID, 1)
	doc.NextConversionID = max(doc.NextConversionID, 1)
	return doc
}

func (s *JSONStore) save(doc *document) error {
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode lead store: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create lead store dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".leads-*.json")
	if err != nil {
		return fmt.Errorf("create temp lead store: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("write lead store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close lead store: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace lead store: %w", err)
	}
	return nil
}

func (s *JSONStore) Ingest(_ context.Context, lead *entity.Lead) (entity.IngestResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lead.Normalize()
	doc := s.load()

	for _, existing := range doc.Leads {
		if existing.ClientID == lead.ClientID {
			*lead = existing
			return entity.IngestResult{LeadID: existing.ID, ClientID: existing.ClientID}, nil
		}
	}

	lead.ID = doc.NextLeadID
	lead.CreatedAt = s.now()
	doc.NextLeadID++
	doc.Leads = append(doc.Leads, *lead)

	if err := s.save(doc); err != nil {
		return entity.IngestResult{}, err
	}
	return entity.IngestResult{LeadID: lead.ID, ClientID: lead.ClientID, Created: true}, nil
}

func (s *JSONStore) List(_ context.Context, filter entity.LeadFilter) ([]entity.Lead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc := s.load()
	leads := make([]entity.Lead, 0, len(doc.Leads))
	for i := len(doc.Leads) - 1; i >= 0; i-- {
		if filter.Match(doc.Leads[i]) {
			leads = append(leads, doc.Leads[i])
		}
	}
	return leads, nil
}

func (s *JSONStore) FindByID(_ context.Context, id int64) (*entity.Lead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc := s.load()
	idx := indexOfLead(doc, id)
	if idx < 0 {
		return nil, entity.ErrLeadNotFound
	}
	lead := doc.Leads[idx]
	return &lead, nil
}

func (s *JSONStore) Update(_ context.Context, id int64, patch entity.LeadPatch) (*entity.Lead, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.load()
	idx := indexOfLead(doc, id)
	if idx < 0 {
		return nil, entity.ErrLeadNotFound
	}

	patch.Apply(&doc.Leads[idx])
	if err := s.save(doc); err != nil {
		return nil, err
	}
	lead := doc.Leads[idx]
	return &lead, nil
}

func (s *JSONStore) RecordConversion(_ context.Context, input entity.ConversionInput) (*entity.Conversion, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.load()
	idx := indexOfLead(doc, input.LeadID)
	if idx < 0 {
		return nil, entity.ErrLeadNotFound
	}

	conversion := entity.Conversion{
		ID:        doc.NextConversionID,
		LeadID:    input.LeadID,
		Outcome:   input.Outcome,
		Revenue:   input.Revenue,
		CloseDate: input.CloseDate,
		Notes:     input.Notes,
		CreatedAt: s.now(),
	}
	doc.NextConversionID++
	doc.Conversions = append(doc.Conversions, conversion)
	doc.Leads[idx].Status = input.Outcome.Status()

	if err := s.save(doc); err != nil {
		return nil, err
	}
	return &conversion, nil
}

func (s *JSONStore) ListConversions(_ context.Context, leadID int64) ([]entity.Conversion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc := s.load()
	conversions := make([]entity.Conversion, 0)
	for _, c := range doc.Conversions {
		if leadID == 0 || c.LeadID == leadID {
			conversions = append(conversions, c)
		}
	}
	slices.Reverse(conversions)
	return conversions, nil
}

func (s *JSONStore) Snapshot(_ context.Context) ([]entity.Lead, []entity.Conversion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc := s.load()
	leads := slices.Clone(doc.Leads)
	conversions := slices.Clone(doc.Conversions)
	slices.Reverse(leads)
	slices.Reverse(conversions)
	return leads, conversions, nil
}

func indexOfLead(doc *document, id int64) int {
	return slices.IndexFunc(doc.Leads, func(l entity.Lead) bool { return l.ID == id })
}
