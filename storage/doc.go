// Copyright 2025 Stratum Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package storage defines the store abstraction shared by every stratum backend.
//
// A Store is a named, independently closable byte-oriented key-value container.
// Two implementations exist and are selected once, when the owning manager is
// constructed:
//
//   - storage/badger: persistent stores, each backed by a namespace of a shared
//     BadgerDB instance
//   - storage/memory: volatile stores backed by process memory
//
// # Constructor Return Type Pattern
//
// Public constructors in the backend packages return the storage.Store
// interface rather than their concrete types:
//
//	store := badger.NewStore(name, ns, engine, stripes) // returns storage.Store
//
// This keeps callers decoupled from backend specifics and lets tests substitute
// fake stores without modification.
//
// # Namespaces
//
// BadgerDB has no column families, so persistent stores carve the single key
// space into namespaces: every key is written under a fixed-width namespace ID
// prefix, and the set of namespaces is recorded in an on-disk catalog that can
// be read before the engine is opened. NamespaceRecord and its serializers in
// this package describe the catalog entries.
//
// The namespace name "default" is reserved. It exists implicitly in every
// database but is never exposed as a usable store.
//
// # Thread Safety
//
// All Store implementations must be safe for concurrent use from multiple
// goroutines. Lifecycle coordination (creation, close) is the owning manager's
// job; individual operations need no external locking.
package storage
