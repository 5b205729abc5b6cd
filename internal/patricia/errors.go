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

package patricia

import "errors"

// ErrCapacityExhausted names the failure of a block geometry that cannot
// address the key space. Nothing in this package returns it: New returns
// no error, and the arena grows its blocks on demand.
var ErrCapacityExhausted = errors.New("patricia: capacity exhausted")

// ErrMalformedProof names a proof whose structure cannot correspond to any
// valid tree. Nothing in this package returns it: VerifyProof reports a
// malformed proof through its ok result.
var ErrMalformedProof = errors.New("patricia: malformed proof")
