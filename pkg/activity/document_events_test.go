package activity

import "testing"

func TestBuildDocumentChangedEvent(t *testing.T) {
	event := BuildDocumentChangedEvent(DocumentEventInput{
		Location: " /tmp/db.json ",
		Path:     "something.name",
		OldValue: "chat",
		NewValue: "new name",
		Metadata: map[string]any{"custom": "value"},
	})

	if event.Verb != VerbDocumentChanged || event.ObjectType != ObjectTypeDocumentPath {
		t.Fatalf("unexpected verb/object type: %+v", event)
	}
	if event.ObjectID != "something.name" || event.Path != "something.name" {
		t.Fatalf("expected path identity, got %+v", event)
	}
	if event.OldValue != "chat" || event.NewValue != "new name" {
		t.Fatalf("expected old/new values, got %v %v", event.OldValue, event.NewValue)
	}
	if event.Metadata["location"] != "/tmp/db.json" || event.Metadata["custom"] != "value" {
		t.Fatalf("unexpected metadata: %+v", event.Metadata)
	}
}

func TestBuildDocumentLifecycleEvents(t *testing.T) {
	cases := []struct {
		build func(DocumentEventInput) Event
		verb  string
	}{
		{BuildDocumentLoadedEvent, VerbDocumentLoaded},
		{BuildDocumentSavedEvent, VerbDocumentSaved},
		{BuildDocumentInitializedEvent, VerbDocumentInitialized},
	}
	for _, tc := range cases {
		event := tc.build(DocumentEventInput{Location: "db.json", Size: 42})
		if event.Verb != tc.verb {
			t.Fatalf("expected verb %s got %s", tc.verb, event.Verb)
		}
		if event.ObjectType != ObjectTypeDocument || event.ObjectID != "db.json" {
			t.Fatalf("unexpected object fields: %+v", event)
		}
		if event.Metadata["size"] != 42 {
			t.Fatalf("expected size metadata, got %v", event.Metadata["size"])
		}
	}

	anonymous := BuildDocumentSavedEvent(DocumentEventInput{})
	if anonymous.ObjectID != ObjectTypeDocument {
		t.Fatalf("expected object id fallback, got %q", anonymous.ObjectID)
	}
}
