/*
Copyright SUSE LLC.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package pkg

import "sync"

// Interner deduplicates the strings of package fields (names, arches,
// versions, capability names). Universes of tens of thousands of packages
// repeat the same few thousand strings.
//
// An Interner is owned by whoever loads a universe and handed to NewPkg. It is
// safe for concurrent use, so two loaders may share one.
type Interner struct {
	mu      sync.Mutex
	strings map[string]string
}

// NewInterner returns an empty interner.
func NewInterner() *Interner {
	return &Interner{strings: make(map[string]string)}
}

// Intern returns the canonical copy of s. A nil Interner returns s unchanged.
func (in *Interner) Intern(s string) string {
	if in == nil || s == "" {
		return s
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	if c, ok := in.strings[s]; ok {
		return c
	}
	in.strings[s] = s
	return s
}

// Len returns how many distinct strings are held.
func (in *Interner) Len() int {
	if in == nil {
		return 0
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	return len(in.strings)
}

// Reset drops every held string. Packages built before Reset keep their
// values, they just stop sharing storage with packages built after.
func (in *Interner) Reset() {
	if in == nil {
		return
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	in.strings = make(map[string]string)
}
