package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/retail-pos-engine/internal/domain/closure"
	"github.com/retail-pos-engine/internal/domain/document"
	"github.com/retail-pos-engine/internal/domain/outbox"
	"github.com/retail-pos-engine/internal/domain/shared"
)

type WorkingRepository struct{ b binding }

func (r *WorkingRepository) Create(_ context.Context, doc *document.WorkingDocument) error {
	return r.b.write(OpWorkingCreate, func(st *state) error {
		data, err := encode(doc)
		if err != nil {
			return err
		}
		st.working[doc.ID] = data
		return nil
	})
}

func (r *WorkingRepository) Get(_ context.Context, id uuid.UUID) (*document.WorkingDocument, error) {
	var doc *document.WorkingDocument
	err := r.b.read(func(st *state) error {
		data, ok := st.working[id]
		if !ok {
			return document.ErrDocumentNotFound{DocumentID: id}
		}
		var err error
		doc, err = decode[document.WorkingDocument](data)
		return err
	})
	return doc, err
}

func (r *WorkingRepository) Save(_ context.Context, doc *document.WorkingDocument) error {
	return r.b.write(OpWorkingSave, func(st *state) error {
		data, ok := st.working[doc.ID]
		if !ok {
			return document.ErrDocumentNotFound{DocumentID: doc.ID}
		}
		stored, err := decode[document.WorkingDocument](data)
		if err != nil {
			return err
		}
		if stored.Version != doc.Version {
			return document.ErrConcurrentModification{DocumentID: doc.ID}
		}
		next := *doc
		next.Version++
		if data, err = encode(&next); err != nil {
			return err
		}
		st.working[doc.ID] = data
		doc.Version = next.Version
		return nil
	})
}

func (r *WorkingRepository) Delete(_ context.Context, id uuid.UUID) error {
	return r.b.write(OpWorkingDelete, func(st *state) error {
		if _, ok := st.working[id]; !ok {
			return document.ErrDocumentNotFound{DocumentID: id}
		}
		delete(st.working, id)
		return nil
	})
}

func (r *WorkingRepository) ListByStatus(_ context.Context, registerID int, statuses ...document.Status) ([]*document.WorkingDocument, error) {
	wanted := make(map[document.Status]bool, len(statuses))
	for _, s := range statuses {
		wanted[s] = true
	}
	var docs []*document.WorkingDocument
	err := r.b.read(func(st *state) error {
		for _, data := range st.working {
			doc, err := decode[document.WorkingDocument](data)
			if err != nil {
				return err
			}
			if doc.RegisterID == registerID && wanted[doc.Status] {
				docs = append(docs, doc)
			}
		}
		return nil
	})
	sort.Slice(docs, func(i, j int) bool {
		if docs[i].CreatedAt.Equal(docs[j].CreatedAt) {
			return docs[i].ReceiptNumber < docs[j].ReceiptNumber
		}
		return docs[i].CreatedAt.Before(docs[j].CreatedAt)
	})
	return docs, err
}

type DocumentRepository struct{ b binding }

func (r *DocumentRepository) Create(_ context.Context, doc *document.PermanentDocument) error {
	return r.b.write(OpDocumentsCreate, func(st *state) error {
		data, err := encode(doc)
		if err != nil {
			return err
		}
		st.documents[doc.ID] = data
		return nil
	})
}

func (r *DocumentRepository) Get(_ context.Context, id uuid.UUID) (*document.PermanentDocument, error) {
	var doc *document.PermanentDocument
	err := r.b.read(func(st *state) error {
		data, ok := st.documents[id]
		if !ok {
			return document.ErrDocumentNotFound{DocumentID: id}
		}
		var err error
		doc, err = decode[document.PermanentDocument](data)
		return err
	})
	return doc, err
}

// Count returns the number of permanent documents
func (r *DocumentRepository) Count() int {
	n := 0
	_ = r.b.read(func(st *state) error {
		n = len(st.documents)
		return nil
	})
	return n
}

type ClosureRepository struct{ b binding }

func openPeriod(st *state, registerID int) (*closure.Period, error) {
	for _, data := range st.periods {
		p, err := decode[closure.Period](data)
		if err != nil {
			return nil, err
		}
		if p.RegisterID == registerID && p.IsOpen() {
			return p, nil
		}
	}
	return nil, closure.ErrNoOpenPeriod
}

func (r *ClosureRepository) GetOpen(_ context.Context, registerID int) (*closure.Period, error) {
	var p *closure.Period
	err := r.b.read(func(st *state) error {
		var err error
		p, err = openPeriod(st, registerID)
		return err
	})
	return p, err
}

// LockOpen is GetOpen: transactions already run one at a time
func (r *ClosureRepository) LockOpen(ctx context.Context, registerID int) (*closure.Period, error) {
	return r.GetOpen(ctx, registerID)
}

func (r *ClosureRepository) Get(_ context.Context, id uuid.UUID) (*closure.Period, error) {
	var p *closure.Period
	err := r.b.read(func(st *state) error {
		data, ok := st.periods[id]
		if !ok {
			return closure.ErrPeriodNotFound{PeriodID: id}
		}
		var err error
		p, err = decode[closure.Period](data)
		return err
	})
	return p, err
}

func (r *ClosureRepository) NextSequenceNumber(_ context.Context, registerID int, businessDate time.Time) (int, error) {
	next := 1
	err := r.b.read(func(st *state) error {
		for _, data := range st.periods {
			p, err := decode[closure.Period](data)
			if err != nil {
				return err
			}
			if p.RegisterID == registerID && p.BusinessDate.Equal(businessDate) && p.SequenceNumber >= next {
				next = p.SequenceNumber + 1
			}
		}
		return nil
	})
	return next, err
}

func (r *ClosureRepository) Create(_ context.Context, p *closure.Period) error {
	return r.b.write(OpClosuresCreate, func(st *state) error {
		if p.IsOpen() {
			if _, err := openPeriod(st, p.RegisterID); err == nil {
				return closure.ErrOpenPeriodExists
			}
		}
		data, err := encode(p)
		if err != nil {
			return err
		}
		st.periods[p.ID] = data
		return nil
	})
}

func (r *ClosureRepository) SaveProgress(_ context.Context, p *closure.Period) error {
	return r.b.write(OpClosuresSaveProgress, func(st *state) error {
		return replaceOpen(st, p)
	})
}

func (r *ClosureRepository) Seal(_ context.Context, p *closure.Period) error {
	return r.b.write(OpClosuresSeal, func(st *state) error {
		return replaceOpen(st, p)
	})
}

// replaceOpen overwrites a period that is still open in storage
func replaceOpen(st *state, p *closure.Period) error {
	data, ok := st.periods[p.ID]
	if !ok {
		return closure.ErrPeriodNotFound{PeriodID: p.ID}
	}
	stored, err := decode[closure.Period](data)
	if err != nil {
		return err
	}
	if !stored.IsOpen() {
		return closure.ErrPeriodSealed
	}
	if data, err = encode(p); err != nil {
		return err
	}
	st.periods[p.ID] = data
	return nil
}

func (r *ClosureRepository) MarkIngested(_ context.Context, periodID, documentID uuid.UUID) (bool, error) {
	inserted := false
	err := r.b.write(OpClosuresMark, func(st *state) error {
		if _, ok := st.ingestions[documentID]; ok {
			return nil
		}
		st.ingestions[documentID] = periodID
		inserted = true
		return nil
	})
	return inserted, err
}

type SequenceRepository struct{ b binding }

func (r *SequenceRepository) NextReceiptNumber(_ context.Context, registerID int) (int64, error) {
	var next int64
	err := r.b.write(OpSequencesNext, func(st *state) error {
		st.sequences[registerID]++
		next = st.sequences[registerID]
		return nil
	})
	return next, err
}

type OutboxRepository struct{ b binding }

func (r *OutboxRepository) Create(_ context.Context, message *outbox.Message) error {
	return r.b.write(OpOutboxCreate, func(st *state) error {
		st.outboxSeq++
		message.ID = st.outboxSeq
		st.outbox[message.ID] = *message
		return nil
	})
}

func (r *OutboxRepository) GetPending(_ context.Context, limit int) ([]*outbox.Message, error) {
	var messages []*outbox.Message
	err := r.b.read(func(st *state) error {
		for _, m := range st.outbox {
			if m.Status == shared.OutboxStatusPending {
				m := m
				messages = append(messages, &m)
			}
		}
		return nil
	})
	sort.Slice(messages, func(i, j int) bool { return messages[i].ID < messages[j].ID })
	if limit > 0 && len(messages) > limit {
		messages = messages[:limit]
	}
	return messages, err
}

func (r *OutboxRepository) UpdateStatus(_ context.Context, id int64, status shared.OutboxStatus) error {
	return r.b.write("outbox.update_status", func(st *state) error {
		m, ok := st.outbox[id]
		if !ok {
			return outbox.ErrMessageNotFound{ID: id}
		}
		now := time.Now()
		m.Status = status
		m.LastAttemptAt = &now
		st.outbox[id] = m
		return nil
	})
}

func (r *OutboxRepository) IncrementAttempts(_ context.Context, id int64) error {
	return r.b.write("outbox.increment_attempts", func(st *state) error {
		m, ok := st.outbox[id]
		if !ok {
			return outbox.ErrMessageNotFound{ID: id}
		}
		m.IncrementAttempts()
		st.outbox[id] = m
		return nil
	})
}

func (r *OutboxRepository) Delete(_ context.Context, id int64) error {
	return r.b.write("outbox.delete", func(st *state) error {
		if _, ok := st.outbox[id]; !ok {
			return outbox.ErrMessageNotFound{ID: id}
		}
		delete(st.outbox, id)
		return nil
	})
}

func (r *OutboxRepository) GetByAggregateID(_ context.Context, aggregateID uuid.UUID) (*outbox.Message, error) {
	var found *outbox.Message
	err := r.b.read(func(st *state) error {
		for _, m := range st.outbox {
			if m.AggregateID == aggregateID && (found == nil || m.ID > found.ID) {
				m := m
				found = &m
			}
		}
		if found == nil {
			return outbox.ErrMessageNotFound{}
		}
		return nil
	})
	return found, err
}
