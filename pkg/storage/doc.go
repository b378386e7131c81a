// Package storage defines the persistence contract used by the store to load
// and save one serialized document, plus file and in-memory implementations.
//
// Responsibilities:
//   - Backend only moves bytes: encoding and decoding stay with the codec.
//   - A missing document is reported as ErrNotFound so callers can initialize
//     it; every other failure is returned wrapped.
//   - FileBackend writes through a temporary file and rename so a crash never
//     leaves a half-written document behind.
//
// Data flow:
//
//	codec.Encode -> Backend.Save ... Backend.Load -> codec.Decode
package storage
