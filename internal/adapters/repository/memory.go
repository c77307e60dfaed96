package repository

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/shopspring/decimal"

	"github.com/okian/tariffa/internal/domain/model"
	"github.com/okian/tariffa/internal/domain/tariff"
	"github.com/okian/tariffa/pkg/metrics"
)

// MemoryRateStore keeps rate cards in memory. It is safe for concurrent use.
type MemoryRateStore struct {
	mu      sync.RWMutex
	entries []model.RateCardEntry
}

// NewMemoryRateStore creates a store seeded with entries.
func NewMemoryRateStore(entries ...model.RateCardEntry) *MemoryRateStore {
	return &MemoryRateStore{entries: append([]model.RateCardEntry(nil), entries...)}
}

// Name implements RateStore.
func (s *MemoryRateStore) Name() string { return "memory" }

// Candidates returns the entries that can apply to q.
func (s *MemoryRateStore) Candidates(ctx context.Context, q tariff.Query) ([]model.RateCardEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.RateCardEntry
	for _, e := range s.entries {
		if matches(e, q) {
			out = append(out, e)
		}
	}
	metrics.RecordRateLookup(s.Name(), lookupOutcome(len(out)))
	return out, nil
}

// Put validates and adds entries. An entry with an existing ID replaces it.
func (s *MemoryRateStore) Put(_ context.Context, entries ...model.RateCardEntry) error {
	for _, e := range entries {
		if err := e.Validate(); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range entries {
		replaced := false
		for i := range s.entries {
			if e.ID != "" && s.entries[i].ID == e.ID {
				s.entries[i] = e
				replaced = true
				break
			}
		}
		if !replaced {
			s.entries = append(s.entries, e)
		}
	}
	return nil
}

// All returns a copy of every entry sorted by ID.
func (s *MemoryRateStore) All() []model.RateCardEntry {
	s.mu.RLock()
	out := append([]model.RateCardEntry(nil), s.entries...)
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func lookupOutcome(n int) string {
	if n == 0 {
		return "empty"
	}
	return "found"
}

// rateCardRow is the file shape of a rate card.
type rateCardRow struct {
	ID            string `koanf:"id"`
	ClientID      string `koanf:"client_id"`
	Kind          string `koanf:"kind"`
	UnitOfMeasure string `koanf:"unit_of_measure"`
	ClientRate    string `koanf:"client_rate"`
	SupplierRate  string `koanf:"supplier_rate"`
	LocationID    string `koanf:"location_id"`
	SupplierID    string `koanf:"supplier_id"`
	ValidFrom     string `koanf:"valid_from"`
	ValidTo       string `koanf:"valid_to"`
}

func (r rateCardRow) entry() (model.RateCardEntry, error) { //nolint:gocritic // rows are decoded by value
	kind, err := model.ParseServiceKind(r.Kind)
	if err != nil {
		return model.RateCardEntry{}, fmt.Errorf("rate card %s: %w", r.ID, err)
	}
	e := model.RateCardEntry{
		ID:            r.ID,
		ClientID:      r.ClientID,
		Kind:          kind,
		UnitOfMeasure: r.UnitOfMeasure,
		LocationID:    r.LocationID,
		SupplierID:    r.SupplierID,
	}
	if e.ClientRate, err = parseRate(r.ClientRate); err != nil {
		return model.RateCardEntry{}, fmt.Errorf("rate card %s: client_rate: %w", r.ID, err)
	}
	if e.SupplierRate, err = parseRate(r.SupplierRate); err != nil {
		return model.RateCardEntry{}, fmt.Errorf("rate card %s: supplier_rate: %w", r.ID, err)
	}
	if e.ValidFrom, err = model.ParseDate(r.ValidFrom); err != nil {
		return model.RateCardEntry{}, fmt.Errorf("rate card %s: %w", r.ID, err)
	}
	if r.ValidTo != "" {
		to, err := model.ParseDate(r.ValidTo)
		if err != nil {
			return model.RateCardEntry{}, fmt.Errorf("rate card %s: %w", r.ID, err)
		}
		e.ValidTo = &to
	}
	return e, e.Validate()
}

func parseRate(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

// dateHook renders YAML timestamps back to dates so rows can keep string fields.
func dateHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	if t, ok := data.(time.Time); ok && to.Kind() == reflect.String {
		return t.Format(model.DateLayout), nil
	}
	return data, nil
}

// LoadRateCardsFile reads rate cards from a YAML file with a top-level
// rate_cards list.
func LoadRateCardsFile(path string) ([]model.RateCardEntry, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("load rate cards %s: %w", path, err)
	}

	var rows []rateCardRow
	conf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook:       mapstructure.ComposeDecodeHookFunc(dateHook),
			WeaklyTypedInput: true,
			Result:           &rows,
			TagName:          "koanf",
		},
	}
	if err := k.UnmarshalWithConf("rate_cards", &rows, conf); err != nil {
		return nil, fmt.Errorf("decode rate cards %s: %w", path, err)
	}

	out := make([]model.RateCardEntry, 0, len(rows))
	seen := make(map[string]struct{}, len(rows))
	for _, r := range rows {
		e, err := r.entry()
		if err != nil {
			return nil, err
		}
		if _, dup := seen[e.ID]; dup && e.ID != "" {
			return nil, fmt.Errorf("rate card %s: duplicate id", e.ID)
		}
		seen[e.ID] = struct{}{}
		out = append(out, e)
	}
	return out, nil
}
