// Copyright 2025 Kadir Pekel
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

package event

import (
	"errors"
	"fmt"
)

// ErrMalformed indicates an event that does not conform to the
// serialized event shape. Returned when decoding untrusted snapshots.
var ErrMalformed = errors.New("malformed event")

// Validate checks the structural invariants of a decoded event: a
// non-empty id, a recognized action, and a set timestamp. It is used at
// the deserialization boundary; events built through the constructors
// always pass.
func (e *Event) Validate() error {
	if e == nil {
		return fmt.Errorf("%w: nil event", ErrMalformed)
	}
	if e.ID == "" {
		return fmt.Errorf("%w: missing id", ErrMalformed)
	}
	if !Recognized(e.Action) {
		return fmt.Errorf("%w: unrecognized action %q (event %s)", ErrMalformed, e.Action, e.ID)
	}
	if e.Timestamp.IsZero() {
		return fmt.Errorf("%w: missing timestamp (event %s)", ErrMalformed, e.ID)
	}
	return nil
}
