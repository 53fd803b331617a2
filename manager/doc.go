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


// Package manager turns one physical database directory into a set of
// independently addressable, named key-value stores.
//
// A Manager owns the single engine instance for its directory (persistent
// mode) or nothing at all (in-memory mode), plus a concurrent registry mapping
// store name to open store. The registry guarantees at most one live store
// instance per name and at most one concurrent creation per name, while
// creations for different names never block each other.
//
// Lifecycle:
//
//	m := manager.New(manager.Config{Path: dir})
//	if err := m.Start(ctx); err != nil { ... }   // discovers and adopts existing stores
//	s, err := m.GetStore("users")                // returns existing or creates on miss
//	...
//	if err := m.Close(); err != nil { ... }      // closes everything, aggregating failures
//
// Start is called at most once, before any GetStore call. Close is called once
// after all other activity has quiesced; a Close racing in-flight GetStore
// calls is the caller's bug. Shutdown never stops early: every store, the
// retained default namespace handle, and the engine each get a close attempt,
// and the failures (if any) come back as one aggregate error.
package manager
