package todo

// Wire names of domain events.
const (
	EventCreated     = "todoCreated"
	EventUpdated     = "todoUpdated"
	EventDeleted     = "todoDeleted"
	EventBulkUpdated = "todosBulkUpdated"
	EventBulkDeleted = "todosBulkDeleted"
)

// BulkDeleteKind says which rows a bulk delete removed.
type BulkDeleteKind string

const (
	BulkDeletedCompleted BulkDeleteKind = "completed"
	BulkDeletedAll       BulkDeleteKind = "all"
)

// Event describes one committed mutation.
type Event interface {
	// Name is the wire event name.
	Name() string
	// Payload is the value sent as the event's data.
	Payload() any
}

// Created is emitted after a create commits.
type Created struct{ Item Item }

// Updated is emitted after an update commits.
type Updated struct{ Item Item }

// Deleted is emitted after a single delete commits.
type Deleted struct{ ID string }

// BulkUpdated carries every item after a toggle-all.
type BulkUpdated struct{ Items []Item }

// BulkDeleted is emitted after clear-completed or clear-all.
type BulkDeleted struct{ Kind BulkDeleteKind }

// DeletedPayload is the data of a todoDeleted message.
type DeletedPayload struct {
	ID string `json:"id"`
}

// BulkDeletedPayload is the data of a todosBulkDeleted message.
type BulkDeletedPayload struct {
	Type BulkDeleteKind `json:"type"`
}

func (Created) Name() string     { return EventCreated }
func (Updated) Name() string     { return EventUpdated }
func (Deleted) Name() string     { return EventDeleted }
func (BulkUpdated) Name() string { return EventBulkUpdated }
func (BulkDeleted) Name() string { return EventBulkDeleted }

func (e Created) Payload() any { return e.Item }
func (e Updated) Payload() any { return e.Item }
func (e Deleted) Payload() any { return DeletedPayload{ID: e.ID} }
func (e BulkUpdated) Payload() any {
	if e.Items == nil {
		return []Item{}
	}
	return e.Items
}
func (e BulkDeleted) Payload() any { return BulkDeletedPayload{Type: e.Kind} }
