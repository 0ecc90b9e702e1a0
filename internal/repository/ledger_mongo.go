package repository

import (
    "context"
    "errors"
    "fmt"
    "time"

    "go.mongodb.org/mongo-driver/bson"
    "go.mongodb.org/mongo-driver/mongo"
    "go.mongodb.org/mongo-driver/mongo/options"

    "github.com/thivyan-jeyamohan/pearlora-travel-webapp-sub001/internal/ledger"
    "github.com/thivyan-jeyamohan/pearlora-travel-webapp-sub001/internal/model"
)

// MongoLedgerStore keeps one document per travel unit keyed by its id.
// Reserve and Release are single findOneAndUpdate calls whose filter holds
// the guard, so the server evaluates it and applies $inc atomically.
type MongoLedgerStore struct {
    coll *mongo.Collection
}

// NewMongoLedgerStore returns a store backed by coll.
func NewMongoLedgerStore(coll *mongo.Collection) *MongoLedgerStore {
    return &MongoLedgerStore{coll: coll}
}

type ledgerDocument struct {
    TravelUnitID string    `bson:"_id"`
    TotalSeats   int       `bson:"totalSeats"`
    BookedSeats  int       `bson:"bookedSeats"`
    UpdatedAt    time.Time `bson:"updatedAt"`
}

func (d ledgerDocument) entry() model.SeatLedgerEntry {
    return model.SeatLedgerEntry{
        TravelUnitID: d.TravelUnitID,
        TotalSeats:   d.TotalSeats,
        BookedSeats:  d.BookedSeats,
        UpdatedAt:    d.UpdatedAt.UTC(),
    }
}

// reserveFilter matches the document only while seats still fit into
// totalSeats - bookedSeats.
func reserveFilter(id string, seats int) bson.M {
    return bson.M{
        "_id": id,
        "$expr": bson.M{
            "$lte": bson.A{seats, bson.M{"$subtract": bson.A{"$totalSeats", "$bookedSeats"}}},
        },
    }
}

// releaseFilter matches the document only while at least seats are booked.
func releaseFilter(id string, seats int) bson.M {
    return bson.M{"_id": id, "bookedSeats": bson.M{"$gte": seats}}
}

func incUpdate(delta int, now time.Time) bson.M {
    return bson.M{
        "$inc": bson.M{"bookedSeats": delta},
        "$set": bson.M{"updatedAt": now},
    }
}

func openUpdate(totalSeats int, now time.Time) bson.M {
    return bson.M{"$setOnInsert": bson.M{
        "totalSeats":  totalSeats,
        "bookedSeats": 0,
        "updatedAt":   now,
    }}
}

func (s *MongoLedgerStore) Open(ctx context.Context, id string, totalSeats int) (model.SeatLedgerEntry, error) {
    opts := options.Update().SetUpsert(true)
    _, err := s.coll.UpdateOne(ctx, bson.M{"_id": id}, openUpdate(totalSeats, time.Now().UTC()), opts)
    // Two concurrent upserts may race on _id; the loser sees the winner's document.
    if err != nil && !mongo.IsDuplicateKeyError(err) {
        return model.SeatLedgerEntry{}, classifyMongo(err, true)
    }
    return s.Get(ctx, id)
}

func (s *MongoLedgerStore) Get(ctx context.Context, id string) (model.SeatLedgerEntry, error) {
    var doc ledgerDocument
    if err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
        if errors.Is(err, mongo.ErrNoDocuments) {
            return model.SeatLedgerEntry{}, ledger.ErrNotFound
        }
        return model.SeatLedgerEntry{}, classifyMongo(err, true)
    }
    return doc.entry(), nil
}

func (s *MongoLedgerStore) Reserve(ctx context.Context, id string, seats int) (model.SeatLedgerEntry, error) {
    return s.guardedInc(ctx, id, reserveFilter(id, seats), seats, ledger.ErrCapacityExceeded)
}

func (s *MongoLedgerStore) Release(ctx context.Context, id string, seats int) (model.SeatLedgerEntry, error) {
    return s.guardedInc(ctx, id, releaseFilter(id, seats), -seats, ledger.ErrInvalidRelease)
}

func (s *MongoLedgerStore) Remove(ctx context.Context, id string) error {
    if _, err := s.coll.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
        return classifyMongo(err, true)
    }
    return nil
}

func (s *MongoLedgerStore) guardedInc(ctx context.Context, id string, filter bson.M, delta int, guardErr error) (model.SeatLedgerEntry, error) {
    opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
    var doc ledgerDocument
    err := s.coll.FindOneAndUpdate(ctx, filter, incUpdate(delta, time.Now().UTC()), opts).Decode(&doc)
    if err == nil {
        return doc.entry(), nil
    }
    if !errors.Is(err, mongo.ErrNoDocuments) {
        return model.SeatLedgerEntry{}, classifyMongo(err, false)
    }
    // Nothing matched: either the entry is missing or the guard failed.
    if _, getErr := s.Get(ctx, id); getErr != nil {
        return model.SeatLedgerEntry{}, getErr
    }
    return model.SeatLedgerEntry{}, guardErr
}

// classifyMongo marks network failures of idempotent operations as
// transient.  Writes already get one retry from the driver's retryable
// writes, and a network error after that may hide an applied update.
func classifyMongo(err error, idempotent bool) error {
    if errors.Is(err, mongo.ErrClientDisconnected) {
        return fmt.Errorf("mongo: %w", err)
    }
    if idempotent && (mongo.IsNetworkError(err) || isDialError(err)) {
        return ledger.Transient(err)
    }
    return fmt.Errorf("mongo: %w", err)
}
