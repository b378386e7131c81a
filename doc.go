// Package jsondb keeps a JSON document in memory, persists it to a single
// file and reports every write made through its view to watchers registered
// on the written path.
//
//	db, err := jsondb.New("db.json", map[string]any{"something": map[string]any{"name": "chat"}})
//	if err != nil {
//		return err
//	}
//	if err := db.Read(ctx); err != nil {
//		return err
//	}
//	handle := db.Watch("something.name", func(oldValue, newValue *document.Value) {
//		log.Printf("name: %s -> %s", document.Describe(oldValue), document.Describe(newValue))
//	})
//	defer handle.Remove()
//	_ = db.Data().SetAt("something.name", "new name")
//	db.Write(ctx)
//
// Only property assignment through the view is observed. Appending to an
// array with Push changes the document silently; assign a new array to get
// a notification.
package jsondb
