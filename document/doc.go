// Package document models a JSON document as a tree of tagged values and
// provides Wrapped, an intercepting view that attributes every read and
// write to its fully qualified dotted path.
//
// Reads through a Wrapped return plain scalars or a new Wrapped for nested
// objects and arrays, extending the path prefix one segment at a time:
//
//	root := document.Wrap(doc, notify, "")
//	something, _ := root.Child("something")
//	_ = something.Set("name", "new name") // notify("something.name", old, new)
//
// Writes capture the previous value, assign, and only then call the notify
// function. A failed assignment (frozen node, bad index) returns an error and
// notifies nobody. Assigning a whole object or array is a single change at
// the assigned path; in-place array appends through Push are not observed.
//
// Object keys keep insertion order, which Marshal preserves.
package document
