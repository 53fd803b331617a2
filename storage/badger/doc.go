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


// Package badger implements persistent stratum stores on top of BadgerDB.
//
// One Engine wraps the single open BadgerDB instance for a process. The engine
// carves Badger's key space into namespaces: every namespace has a uint32 ID,
// and every key belonging to it is stored under the ID's 4-byte big-endian
// prefix. The namespace set is recorded in a catalog file inside the database
// directory, so it can be enumerated before the engine is opened and survives
// restarts.
//
// Opening an engine whose directory lock is held by another process does not
// fail: Open logs a single notice and retries until the lock is released or
// the context is cancelled.
//
// Store wraps one namespace of an open engine and implements storage.Store.
package badger
