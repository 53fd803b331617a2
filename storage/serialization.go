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

import (
	"fmt"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
)

// NamespaceRecord describes one named namespace in an engine's catalog.
type NamespaceRecord struct {
	ID   uint32
	Name string
}

// SizeNamespaceRecord returns the encoded size of rec.
func SizeNamespaceRecord(rec NamespaceRecord) int {
	return varint.Uint32.Size(rec.ID) + ord.String.Size(rec.Name)
}

// MarshalNamespaceRecord encodes rec into buf, returning the bytes written.
// buf must hold at least SizeNamespaceRecord(rec) bytes.
func MarshalNamespaceRecord(rec NamespaceRecord, buf []byte) int {
	n := varint.Uint32.Marshal(rec.ID, buf)
	n += ord.String.Marshal(rec.Name, buf[n:])
	return n
}

// UnmarshalNamespaceRecord decodes one NamespaceRecord from data, returning the
// record and the bytes consumed.
func UnmarshalNamespaceRecord(data []byte) (NamespaceRecord, int, error) {
	id, n, err := varint.Uint32.Unmarshal(data)
	if err != nil {
		return NamespaceRecord{}, n, fmt.Errorf("%w: namespace id: %v", ErrCatalogCorrupt, err)
	}
	name, m, err := ord.String.Unmarshal(data[n:])
	if err != nil {
		return NamespaceRecord{}, n + m, fmt.Errorf("%w: namespace name: %v", ErrCatalogCorrupt, err)
	}
	return NamespaceRecord{ID: id, Name: name}, n + m, nil
}
