// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package resource

import "fmt"

type hintKind uint8

const (
	hintForever hintKind = iota
	hintWhileReferenced
	hintUntil
)

// CacheHint tells the cache how long an entry may stay
// in memory once nothing references it anymore.
type CacheHint struct {
	kind    hintKind
	minutes uint
}

// Predefined hints
var (
	// Forever entries are never evicted.
	Forever = CacheHint{kind: hintForever}

	// WhileReferenced entries are removed as soon as
	// their last handle is released.
	WhileReferenced = CacheHint{kind: hintWhileReferenced}
)

// Until keeps an unreferenced entry for the given number of
// consecutive eviction sweeps, one sweep being a simulated minute.
func Until(minutes uint) CacheHint {
	return CacheHint{kind: hintUntil, minutes: minutes}
}

// Minutes returns the idle window of an Until hint.
func (h CacheHint) Minutes() (uint, bool) {
	return h.minutes, h.kind == hintUntil
}

// IsForever reports if the hint never evicts.
func (h CacheHint) IsForever() bool {
	return h.kind == hintForever
}

// IsWhileReferenced reports if the hint evicts on last release.
func (h CacheHint) IsWhileReferenced() bool {
	return h.kind == hintWhileReferenced
}

func (h CacheHint) String() string {
	switch h.kind {
	case hintWhileReferenced:
		return "whileReferenced"
	case hintUntil:
		return fmt.Sprintf("until(%dm)", h.minutes)
	default:
		return "forever"
	}
}
