// Copyright 2021 Optakt Labs OÜ
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not
// use this file except in compliance with the License. You may obtain a copy of
// the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS, WITHOUT
// WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the
// License for the specific language governing permissions and limitations under
// the License.

// Package merkleset is an authenticated set of 256-bit digests backed by a
// packed-patricia storage engine (internal/patricia): insertion, deletion,
// root-hash queries, and per-element inclusion/exclusion proofs, plus
// stateless verifiers that check a proof against a claimed root without
// holding the set itself.
package merkleset
