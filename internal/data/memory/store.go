// Package memory is a single-process storage driver. Every transaction works
// on a copy of the committed state, and the copy replaces it only when the
// transaction succeeds.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/retail-pos-engine/internal/domain/outbox"
	"github.com/retail-pos-engine/internal/domain/storage"
)

// Operation names accepted by FailOn
const (
	OpWorkingCreate        = "working.create"
	OpWorkingSave          = "working.save"
	OpWorkingDelete        = "working.delete"
	OpDocumentsCreate      = "documents.create"
	OpClosuresCreate       = "closures.create"
	OpClosuresSaveProgress = "closures.save_progress"
	OpClosuresSeal         = "closures.seal"
	OpClosuresMark         = "closures.mark_ingested"
	OpSequencesNext        = "sequences.next"
	OpOutboxCreate         = "outbox.create"
)

type state struct {
	working    map[uuid.UUID][]byte
	documents  map[uuid.UUID][]byte
	periods    map[uuid.UUID][]byte
	ingestions map[uuid.UUID]uuid.UUID
	sequences  map[int]int64
	outbox     map[int64]outbox.Message
	outboxSeq  int64
}

func newState() *state {
	return &state{
		working:    map[uuid.UUID][]byte{},
		documents:  map[uuid.UUID][]byte{},
		periods:    map[uuid.UUID][]byte{},
		ingestions: map[uuid.UUID]uuid.UUID{},
		sequences:  map[int]int64{},
		outbox:     map[int64]outbox.Message{},
	}
}

// clone copies the maps. Stored values are immutable encodings or plain
// values, so they are shared.
func (s *state) clone() *state {
	c := &state{
		working:    make(map[uuid.UUID][]byte, len(s.working)),
		documents:  make(map[uuid.UUID][]byte, len(s.documents)),
		periods:    make(map[uuid.UUID][]byte, len(s.periods)),
		ingestions: make(map[uuid.UUID]uuid.UUID, len(s.ingestions)),
		sequences:  make(map[int]int64, len(s.sequences)),
		outbox:     make(map[int64]outbox.Message, len(s.outbox)),
		outboxSeq:  s.outboxSeq,
	}
	for k, v := range s.working {
		c.working[k] = v
	}
	for k, v := range s.documents {
		c.documents[k] = v
	}
	for k, v := range s.periods {
		c.periods[k] = v
	}
	for k, v := range s.ingestions {
		c.ingestions[k] = v
	}
	for k, v := range s.sequences {
		c.sequences[k] = v
	}
	for k, v := range s.outbox {
		c.outbox[k] = v
	}
	return c
}

// Store implements storage.UnitOfWork in memory
type Store struct {
	mu        sync.Mutex
	committed *state

	failMu   sync.Mutex
	failures map[string]error
}

var _ storage.UnitOfWork = (*Store)(nil)

func NewStore() *Store {
	return &Store{committed: newState(), failures: map[string]error{}}
}

// FailOn makes every later call of op return err until Reset is called.
// Tests use it to simulate a crash part-way through a transaction.
func (s *Store) FailOn(op string, err error) {
	s.failMu.Lock()
	defer s.failMu.Unlock()
	s.failures[op] = err
}

// Reset clears injected failures
func (s *Store) Reset() {
	s.failMu.Lock()
	defer s.failMu.Unlock()
	s.failures = map[string]error{}
}

func (s *Store) injected(op string) error {
	s.failMu.Lock()
	defer s.failMu.Unlock()
	if err, ok := s.failures[op]; ok {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Execute runs fn on a private copy of the state and commits it when fn
// succeeds. Transactions are serialized.
func (s *Store) Execute(ctx context.Context, fn func(ctx context.Context, repos storage.Repositories) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := s.committed.clone()
	if err := fn(ctx, s.bind(tx)); err != nil {
		return err
	}
	s.committed = tx
	return nil
}

// Repositories returns repositories where each call commits on its own
func (s *Store) Repositories() storage.Repositories {
	return s.bind(nil)
}

func (s *Store) bind(tx *state) storage.Repositories {
	b := binding{store: s, tx: tx}
	return storage.Repositories{
		Working:   &WorkingRepository{b},
		Documents: &DocumentRepository{b},
		Closures:  &ClosureRepository{b},
		Sequences: &SequenceRepository{b},
		Outbox:    &OutboxRepository{b},
	}
}

// binding points a repository at a transaction's state, or at the committed
// state when tx is nil
type binding struct {
	store *Store
	tx    *state
}

func (b binding) write(op string, fn func(st *state) error) error {
	if err := b.store.injected(op); err != nil {
		return err
	}
	if b.tx != nil {
		return fn(b.tx)
	}
	b.store.mu.Lock()
	defer b.store.mu.Unlock()
	st := b.store.committed.clone()
	if err := fn(st); err != nil {
		return err
	}
	b.store.committed = st
	return nil
}

func (b binding) read(fn func(st *state) error) error {
	if b.tx != nil {
		return fn(b.tx)
	}
	b.store.mu.Lock()
	defer b.store.mu.Unlock()
	return fn(b.store.committed)
}

func encode(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %T: %w", v, err)
	}
	return data, nil
}

func decode[T any](data []byte) (*T, error) {
	v := new(T)
	if err := json.Unmarshal(data, v); err != nil {
		return nil, fmt.Errorf("failed to decode %T: %w", v, err)
	}
	return v, nil
}
