// Package persistent implements several data structures featuring
// persistence, that is, whose values don't change on any operation; instead, new,
// independent values are derived from them when needed. Thus, these data structures
// are thread safe and reduce complexity due to mutability.
//
// Vectors, hash maps and hash sets can also be turned into transients: mutable
// views owned by a single goroutine that reuse the nodes they created for bulk
// construction, and that are turned back into persistent values with
// Persistent. Transients are not safe for concurrent use.
//
// The main purpose of this package is providing the core data structures Gojure values
// are made of, but it may be used independently. Keys and elements are compared with
// lang.Equiv and hashed with lang.Hash.
//
// Implementations are heavily based on Clojure's clojure.lang.Persistent* classes.
package persistent
