package mongo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/retail-pos-engine/internal/domain/journal"
	"github.com/retail-pos-engine/internal/domain/shared"
)

const (
	// JournalCollectionName is the name of the electronic journal collection in MongoDB
	JournalCollectionName = "electronic_journal"
)

// entryDocument is the stored shape of a journal.Entry. Amounts are kept as
// Decimal128 so they stay exact and remain queryable.
type entryDocument struct {
	AggregateID   string               `bson:"aggregate_id"`
	EventType     string               `bson:"event_type"`
	RegisterID    int                  `bson:"register_id"`
	StoreID       string               `bson:"store_id"`
	Reference     string               `bson:"reference"`
	Kind          string               `bson:"kind,omitempty"`
	Status        string               `bson:"status,omitempty"`
	CashierID     string               `bson:"cashier_id,omitempty"`
	Currency      string               `bson:"currency"`
	TotalAmount   primitive.Decimal128 `bson:"total_amount"`
	TaxAmount     primitive.Decimal128 `bson:"tax_amount"`
	CashAmount    primitive.Decimal128 `bson:"cash_amount"`
	LineCount     int                  `bson:"line_count"`
	CorrelationID string               `bson:"correlation_id,omitempty"`
	OccurredAt    time.Time            `bson:"occurred_at"`
	RecordedAt    time.Time            `bson:"recorded_at"`
	Payload       string               `bson:"payload"`
}

// JournalRepository implements the journal.Repository interface for MongoDB
type JournalRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewJournalRepository creates a new MongoDB journal repository
func NewJournalRepository(logger *slog.Logger, db *mongo.Database) *JournalRepository {
	return &JournalRepository{
		db:     db,
		logger: logger,
	}
}

// EnsureIndexes creates the unique aggregate index that backs duplicate
// detection, plus the register/time index used for listing.
func (r *JournalRepository) EnsureIndexes(ctx context.Context) error {
	collection := r.db.Collection(JournalCollectionName)

	models := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "aggregate_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("journal_aggregate_unique"),
		},
		{
			Keys:    bson.D{{Key: "register_id", Value: 1}, {Key: "occurred_at", Value: -1}},
			Options: options.Index().SetName("journal_register_time"),
		},
	}

	if _, err := collection.Indexes().CreateMany(ctx, models); err != nil {
		r.logger.Error("Failed to create journal indexes", "error", err)
		return fmt.Errorf("failed to create journal indexes: %w", err)
	}
	return nil
}

// Create stores a new journal entry.
// Returns ErrDuplicateEntry if the aggregate was already journaled.
func (r *JournalRepository) Create(ctx context.Context, entry *journal.Entry) error {
	doc, err := toEntryDocument(entry)
	if err != nil {
		return err
	}

	_, err = r.db.Collection(JournalCollectionName).InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return journal.ErrDuplicateEntry{AggregateID: entry.AggregateID}
		}
		r.logger.Error("Failed to create journal entry",
			"aggregate_id", entry.AggregateID.String(),
			"error", err)
		return fmt.Errorf("failed to create journal entry: %w", err)
	}

	return nil
}

// GetByAggregateID retrieves the journal entry of a document or period.
// Returns ErrEntryNotFound if nothing was journaled for it.
func (r *JournalRepository) GetByAggregateID(ctx context.Context, aggregateID uuid.UUID) (*journal.Entry, error) {
	filter := bson.M{"aggregate_id": aggregateID.String()}

	var doc entryDocument
	err := r.db.Collection(JournalCollectionName).FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, journal.ErrEntryNotFound{AggregateID: aggregateID}
		}
		r.logger.Error("Failed to get journal entry",
			"aggregate_id", aggregateID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to get journal entry: %w", err)
	}

	return doc.toEntry()
}

// ListByRegister retrieves paginated entries of one register whose event
// happened within [from, to]. Newest first.
func (r *JournalRepository) ListByRegister(ctx context.Context, registerID int, from, to time.Time, limit, offset int) ([]*journal.Entry, error) {
	filter := registerFilter(registerID, from, to)
	opts := options.Find().
		SetSort(bson.D{{Key: "occurred_at", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := r.db.Collection(JournalCollectionName).Find(ctx, filter, opts)
	if err != nil {
		r.logger.Error("Failed to list journal entries",
			"register_id", registerID,
			"error", err)
		return nil, fmt.Errorf("failed to list journal entries: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []entryDocument
	if err := cursor.All(ctx, &docs); err != nil {
		r.logger.Error("Failed to decode journal entries",
			"register_id", registerID,
			"error", err)
		return nil, fmt.Errorf("failed to decode journal entries: %w", err)
	}

	entries := make([]*journal.Entry, 0, len(docs))
	for i := range docs {
		e, err := docs[i].toEntry()
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// CountByRegister counts the total number of journal entries of a register
func (r *JournalRepository) CountByRegister(ctx context.Context, registerID int) (int64, error) {
	count, err := r.db.Collection(JournalCollectionName).CountDocuments(ctx, bson.M{"register_id": registerID})
	if err != nil {
		r.logger.Error("Failed to count journal entries",
			"register_id", registerID,
			"error", err)
		return 0, fmt.Errorf("failed to count journal entries: %w", err)
	}

	return count, nil
}

func registerFilter(registerID int, from, to time.Time) bson.M {
	filter := bson.M{"register_id": registerID}
	window := bson.M{}
	if !from.IsZero() {
		window["$gte"] = from
	}
	if !to.IsZero() {
		window["$lte"] = to
	}
	if len(window) > 0 {
		filter["occurred_at"] = window
	}
	return filter
}

func toEntryDocument(e *journal.Entry) (*entryDocument, error) {
	total, err := toDecimal128(e.TotalAmount)
	if err != nil {
		return nil, err
	}
	tax, err := toDecimal128(e.TaxAmount)
	if err != nil {
		return nil, err
	}
	cash, err := toDecimal128(e.CashAmount)
	if err != nil {
		return nil, err
	}

	return &entryDocument{
		AggregateID:   e.AggregateID.String(),
		EventType:     string(e.EventType),
		RegisterID:    e.RegisterID,
		StoreID:       e.StoreID,
		Reference:     e.Reference,
		Kind:          e.Kind,
		Status:        e.Status,
		CashierID:     e.CashierID,
		Currency:      e.Currency,
		TotalAmount:   total,
		TaxAmount:     tax,
		CashAmount:    cash,
		LineCount:     e.LineCount,
		CorrelationID: e.CorrelationID,
		OccurredAt:    e.OccurredAt,
		RecordedAt:    e.RecordedAt,
		Payload:       string(e.Payload),
	}, nil
}

func (d *entryDocument) toEntry() (*journal.Entry, error) {
	id, err := uuid.Parse(d.AggregateID)
	if err != nil {
		return nil, fmt.Errorf("failed to parse journal aggregate id: %w", err)
	}
	total, err := fromDecimal128(d.TotalAmount)
	if err != nil {
		return nil, err
	}
	tax, err := fromDecimal128(d.TaxAmount)
	if err != nil {
		return nil, err
	}
	cash, err := fromDecimal128(d.CashAmount)
	if err != nil {
		return nil, err
	}

	var payload json.RawMessage
	if d.Payload != "" {
		payload = json.RawMessage(d.Payload)
	}

	return &journal.Entry{
		AggregateID:   id,
		EventType:     shared.EventType(d.EventType),
		RegisterID:    d.RegisterID,
		StoreID:       d.StoreID,
		Reference:     d.Reference,
		Kind:          d.Kind,
		Status:        d.Status,
		CashierID:     d.CashierID,
		Currency:      d.Currency,
		TotalAmount:   total,
		TaxAmount:     tax,
		CashAmount:    cash,
		LineCount:     d.LineCount,
		CorrelationID: d.CorrelationID,
		OccurredAt:    d.OccurredAt,
		RecordedAt:    d.RecordedAt,
		Payload:       payload,
	}, nil
}

func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.Decimal128{}, fmt.Errorf("failed to encode amount %s: %w", d.String(), err)
	}
	return v, nil
}

func fromDecimal128(v primitive.Decimal128) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(v.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to decode amount %s: %w", v.String(), err)
	}
	return d, nil
}
