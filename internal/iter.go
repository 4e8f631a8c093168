// Package internal holds helpers shared by the machine packages.
package internal

import (
	"iter"
)

// Defines joins define tables in order. A name already produced by an
// earlier table is skipped.
func Defines(tables ...iter.Seq2[string, string]) iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		seen := map[string]bool{}
		for _, table := range tables {
			for name, value := range table {
				if seen[name] {
					continue
				}
				seen[name] = true
				if !yield(name, value) {
					return
				}
			}
		}
	}
}
