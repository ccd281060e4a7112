package basket

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/hmansour/medilabel/internal/model"
	"github.com/hmansour/medilabel/internal/store"
)

// SnapshotKey is where the basket snapshot lives in the snapshots table.
const SnapshotKey = "medicationBasket"

const (
	MinQuantity = 1
	MaxQuantity = 10

	// DefaultInstruction fills in when a protocol drug carries no
	// instruction of its own.
	DefaultInstruction = "Take as directed"
)

var (
	ErrNoPatientSelected = errors.New("no patient selected")
	ErrEmptyGroup        = errors.New("group has no drugs")
	ErrEmpty             = errors.New("basket is empty")
	ErrNotFound          = errors.New("basket item not found")
)

// Store holds the shared medication basket. There is exactly one basket per
// running instance; it survives restarts through a write-through JSON
// snapshot and is only ever emptied by an explicit clear.
type Store struct {
	mu     sync.Mutex
	items  []model.LineItem
	snaps  *store.SnapshotStore
	logger *slog.Logger
}

func NewStore(snaps *store.SnapshotStore, logger *slog.Logger) *Store {
	return &Store{
		snaps:  snaps,
		logger: logger.With("component", "basket"),
	}
}

// Load restores the basket snapshot from disk. A missing or corrupt
// snapshot yields an empty basket rather than an error.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.snaps.Get(SnapshotKey)
	if err != nil {
		return fmt.Errorf("load basket snapshot: %w", err)
	}
	if data == nil {
		s.items = nil
		return nil
	}

	var items []model.LineItem
	if err := json.Unmarshal(data, &items); err != nil {
		s.logger.Warn("discarding corrupt basket snapshot", "error", err)
		s.items = nil
		return nil
	}
	s.items = items
	s.logger.Info("restored basket snapshot", "items", len(items))
	return nil
}

// Add stages one label line for a drug. The expiry requirement comes from
// the catalog flag and cannot be overridden by the caller; an unknown flag
// defaults to requiring an expiry date.
func (s *Store) Add(p *model.Patient, drug model.Drug, instructionOverride string) (model.LineItem, error) {
	if p == nil {
		return model.LineItem{}, ErrNoPatientSelected
	}

	instruction := drug.Instruction
	if instructionOverride != "" {
		instruction = instructionOverride
	}

	item := model.LineItem{
		ID:              uuid.NewString(),
		DrugName:        drug.DrugName,
		InstructionText: instruction,
		PrintQuantity:   MinQuantity,
		RequiresExpiry:  drug.RequiresExpiry.Bool(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return item, s.replaceLocked(append(s.copyLocked(), item))
}

// AddGroupItems expands a protocol into the basket, one line per drug, each
// tagged with the group name. Existing lines are left alone.
func (s *Store) AddGroupItems(p *model.Patient, groupName string, drugs []model.GroupDrug) ([]model.LineItem, error) {
	if p == nil {
		return nil, ErrNoPatientSelected
	}
	if len(drugs) == 0 {
		return nil, ErrEmptyGroup
	}

	added := make([]model.LineItem, 0, len(drugs))
	for _, d := range drugs {
		instruction := d.Instruction
		if instruction == "" {
			instruction = DefaultInstruction
		}
		qty := d.DefaultQuantity
		if qty < MinQuantity {
			qty = MinQuantity
		}
		added = append(added, model.LineItem{
			ID:              uuid.NewString(),
			DrugName:        d.DrugName,
			InstructionText: instruction,
			PrintQuantity:   qty,
			RequiresExpiry:  d.RequiresExpiry.Bool(),
			FromGroup:       groupName,
		})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.replaceLocked(append(s.copyLocked(), added...)); err != nil {
		return nil, err
	}
	return added, nil
}

// UpdateQuantity parses the raw quantity input and clamps it into
// [MinQuantity, MaxQuantity]. Anything unparseable falls back to the
// minimum instead of failing.
func (s *Store) UpdateQuantity(id, raw string) (model.LineItem, error) {
	qty, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		qty = MinQuantity
	}
	if qty < MinQuantity {
		qty = MinQuantity
	}
	if qty > MaxQuantity {
		qty = MaxQuantity
	}

	return s.update(id, func(item *model.LineItem) {
		item.PrintQuantity = qty
	})
}

// SetExpiryMonth sets one half of the expiry. The combined date only
// materializes once both month and year are present.
func (s *Store) SetExpiryMonth(id, month string) (model.LineItem, error) {
	return s.update(id, func(item *model.LineItem) {
		item.ExpiryMonth = month
		recomputeExpiry(item)
	})
}

func (s *Store) SetExpiryYear(id, year string) (model.LineItem, error) {
	return s.update(id, func(item *model.LineItem) {
		item.ExpiryYear = year
		recomputeExpiry(item)
	})
}

func recomputeExpiry(item *model.LineItem) {
	if item.ExpiryMonth != "" && item.ExpiryYear != "" {
		item.ExpiryDate = item.ExpiryMonth + "/" + item.ExpiryYear
	} else {
		item.ExpiryDate = ""
	}
}

// ResetAllExpiry wipes expiry month, year and date on every line. Quantities
// and instructions survive.
func (s *Store) ResetAllExpiry() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.copyLocked()
	for i := range next {
		next[i].ExpiryMonth = ""
		next[i].ExpiryYear = ""
		next[i].ExpiryDate = ""
	}
	return s.replaceLocked(next)
}

func (s *Store) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.copyLocked()
	for i, item := range next {
		if item.ID == id {
			return s.replaceLocked(append(next[:i], next[i+1:]...))
		}
	}
	return ErrNotFound
}

// Clear empties the basket and drops the snapshot. Clearing an already
// empty basket is an error so callers can surface it to the user.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.items) == 0 {
		return ErrEmpty
	}
	if err := s.snaps.Delete(SnapshotKey); err != nil {
		return fmt.Errorf("clear basket snapshot: %w", err)
	}
	s.items = nil
	return nil
}

// Duplicate replaces the basket with a copy of itself where every line has
// a fresh identifier. The whole basket is duplicated at once, never
// individual lines.
func (s *Store) Duplicate() ([]model.LineItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.items) == 0 {
		return nil, ErrEmpty
	}
	next := s.copyLocked()
	for i := range next {
		next[i].ID = uuid.NewString()
	}
	if err := s.replaceLocked(next); err != nil {
		return nil, err
	}
	return s.copyLocked(), nil
}

// Items returns a copy of the current basket lines in insertion order.
func (s *Store) Items() []model.LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyLocked()
}

// TotalLabels is the sum of print quantities across all lines, i.e. the
// number of physical labels a print run would produce.
func (s *Store) TotalLabels() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := 0
	for _, item := range s.items {
		total += item.PrintQuantity
	}
	return total
}

// MissingRequiredExpiry lists the drug names of lines that require an
// expiry date but do not have one yet. An empty result means printing may
// proceed.
func (s *Store) MissingRequiredExpiry() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var missing []string
	for _, item := range s.items {
		if item.RequiresExpiry && item.ExpiryDate == "" {
			missing = append(missing, item.DrugName)
		}
	}
	return missing
}

func (s *Store) update(id string, mutate func(*model.LineItem)) (model.LineItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.copyLocked()
	for i := range next {
		if next[i].ID == id {
			mutate(&next[i])
			if err := s.replaceLocked(next); err != nil {
				return model.LineItem{}, err
			}
			return next[i], nil
		}
	}
	return model.LineItem{}, ErrNotFound
}

func (s *Store) copyLocked() []model.LineItem {
	next := make([]model.LineItem, len(s.items))
	copy(next, s.items)
	return next
}

// replaceLocked persists the candidate state before exposing it, so a
// failed write leaves the in-memory basket unchanged.
func (s *Store) replaceLocked(next []model.LineItem) error {
	data, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("encode basket snapshot: %w", err)
	}
	if err := s.snaps.Put(SnapshotKey, data); err != nil {
		return fmt.Errorf("persist basket snapshot: %w", err)
	}
	s.items = next
	return nil
}
