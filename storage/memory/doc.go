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


// Package memory implements volatile stratum stores backed by process memory.
//
// A memory store has the same capability surface as a persistent one but no
// relation to any engine: each store owns an independent concurrent map and
// loses its contents when the process exits. The manager selects this backend
// for its in-memory operating mode.
package memory
