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

package storage

import "errors"

var (
	// ErrEmptyStoreName indicates a store was requested with an empty name.
	ErrEmptyStoreName = errors.New("store name cannot be empty")

	// ErrReservedStoreName indicates a store was requested under the reserved
	// "default" namespace name.
	ErrReservedStoreName = errors.New(`store name "default" is reserved`)

	// ErrStoreClosed indicates an operation on a closed store.
	ErrStoreClosed = errors.New("store is closed")

	// ErrEngineClosed indicates an operation on a closed engine.
	ErrEngineClosed = errors.New("engine is closed")

	// ErrNamespaceExists indicates a namespace with the same name already
	// exists in the engine.
	ErrNamespaceExists = errors.New("namespace already exists")

	// ErrNamespaceNotFound indicates a requested namespace is not recorded in
	// the engine's catalog.
	ErrNamespaceNotFound = errors.New("namespace not found")

	// ErrOpenCancelled indicates the engine open was cancelled while waiting
	// for another process to release the directory lock.
	ErrOpenCancelled = errors.New("engine open cancelled while waiting for directory lock")

	// ErrBadBaseDirectory indicates the configured base directory is missing,
	// not a directory, or could not be created.
	ErrBadBaseDirectory = errors.New("invalid base directory")

	// ErrCatalogCorrupt indicates the on-disk namespace catalog could not be
	// decoded.
	ErrCatalogCorrupt = errors.New("namespace catalog is corrupt")
)
