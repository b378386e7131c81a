package activity

import (
	"strings"
	"time"
)

const (
	VerbDocumentChanged     = "document.changed"
	VerbDocumentLoaded      = "document.loaded"
	VerbDocumentSaved       = "document.saved"
	VerbDocumentInitialized = "document.initialized"

	ObjectTypeDocument     = "document"
	ObjectTypeDocumentPath = "document.path"
)

// DocumentEventInput describes the common fields for document lifecycle
// events. Location identifies the backing store (usually the file path).
type DocumentEventInput struct {
	Location   string
	Path       string
	OldValue   any
	NewValue   any
	Size       int
	Metadata   map[string]any
	OccurredAt time.Time
}

// BuildDocumentChangedEvent describes a write observed at Path.
func BuildDocumentChangedEvent(input DocumentEventInput) Event {
	event := buildDocumentEvent(VerbDocumentChanged, ObjectTypeDocumentPath, input)
	event.ObjectID = strings.TrimSpace(input.Path)
	event.OldValue = input.OldValue
	event.NewValue = input.NewValue
	return event
}

// BuildDocumentLoadedEvent describes a successful read replacing the document.
func BuildDocumentLoadedEvent(input DocumentEventInput) Event {
	return buildDocumentEvent(VerbDocumentLoaded, ObjectTypeDocument, input)
}

// BuildDocumentSavedEvent describes a successful write of the document.
func BuildDocumentSavedEvent(input DocumentEventInput) Event {
	return buildDocumentEvent(VerbDocumentSaved, ObjectTypeDocument, input)
}

// BuildDocumentInitializedEvent describes the first write of a missing
// document.
func BuildDocumentInitializedEvent(input DocumentEventInput) Event {
	return buildDocumentEvent(VerbDocumentInitialized, ObjectTypeDocument, input)
}

func buildDocumentEvent(verb, objectType string, input DocumentEventInput) Event {
	metadata := cloneMap(input.Metadata)
	location := strings.TrimSpace(input.Location)
	if location != "" {
		metadata = ensureMetadata(metadata)
		metadata["location"] = location
	}
	if input.Size > 0 {
		metadata = ensureMetadata(metadata)
		metadata["size"] = input.Size
	}

	objectID := location
	if objectID == "" {
		objectID = objectType
	}

	return Event{
		Verb:       verb,
		ObjectType: objectType,
		ObjectID:   objectID,
		Path:       strings.TrimSpace(input.Path),
		Metadata:   metadata,
		OccurredAt: input.OccurredAt,
	}
}

func ensureMetadata(meta map[string]any) map[string]any {
	if meta == nil {
		return map[string]any{}
	}
	return meta
}
