package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	// EventTypeRecordChanged is published by the API after a committed write.
	EventTypeRecordChanged = "record.changed"
	// EventTypeCollectionInvalidated is published by the dashboard after a successful
	// mutation. Anything caching data derived from the collection must drop it.
	EventTypeCollectionInvalidated = "collection.invalidated"
)

type Operation string

const (
	OpCreate Operation = "create"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

type RecordChangedEvent struct {
	BaseEvent
	Collection string    `json:"collection"`
	RecordID   int64     `json:"record_id"`
	Operation  Operation `json:"operation"`
	ActorID    int64     `json:"actor_id"`
}

func NewRecordChangedEvent(collection string, recordID int64, op Operation, actorID int64) *RecordChangedEvent {
	return &RecordChangedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeRecordChanged,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"collection": collection,
				"record_id":  recordID,
				"operation":  op,
				"actor_id":   actorID,
			},
		},
		Collection: collection,
		RecordID:   recordID,
		Operation:  op,
		ActorID:    actorID,
	}
}

// CollectionInvalidatedEvent names every collection whose cached derivatives are stale.
type CollectionInvalidatedEvent struct {
	BaseEvent
	Collections []string `json:"collections"`
}

func NewCollectionInvalidatedEvent(collections ...string) *CollectionInvalidatedEvent {
	return &CollectionInvalidatedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeCollectionInvalidated,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"collections": collections,
			},
		},
		Collections: collections,
	}
}
