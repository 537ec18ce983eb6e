package language

import "strings"

// StrategyKind enumerates the closed set of source wrapping strategies.
type StrategyKind int

const (
	// KindIdentity passes source through unchanged.
	KindIdentity StrategyKind = iota
	// KindScaffoldIfNoEntryPoint wraps snippets lacking an entry point in a program skeleton.
	KindScaffoldIfNoEntryPoint
)

func (k StrategyKind) String() string {
	switch k {
	case KindIdentity:
		return "identity"
	case KindScaffoldIfNoEntryPoint:
		return "scaffold_if_no_entry_point"
	default:
		return "unknown"
	}
}

// Strategy is a tagged wrapping strategy. EntryPoint and Prelude are only
// meaningful for KindScaffoldIfNoEntryPoint.
type Strategy struct {
	Kind       StrategyKind
	EntryPoint string
	Prelude    string
}

const mainToken = "main"

const cppPrelude = `#include <iostream>
#include <vector>
#include <string>
#include <algorithm>
using namespace std;
`

const cPrelude = `#include <stdio.h>
#include <stdlib.h>
#include <string.h>
`

// Identity returns the strategy for languages whose executor accepts a bare script.
func Identity() Strategy {
	return Strategy{Kind: KindIdentity}
}

// ScaffoldIfNoEntryPoint returns the strategy for languages that need an explicit entry point.
func ScaffoldIfNoEntryPoint(entryPoint, prelude string) Strategy {
	return Strategy{Kind: KindScaffoldIfNoEntryPoint, EntryPoint: entryPoint, Prelude: prelude}
}

// Wrap produces the final source text sent to the executor.
//
// Entry-point detection is a plain substring test on the raw text: a token
// inside a comment or string literal counts as present, and an entry point
// spelled differently counts as absent.
func Wrap(source string, strategy Strategy) string {
	switch strategy.Kind {
	case KindScaffoldIfNoEntryPoint:
		if strategy.EntryPoint == "" || strings.Contains(source, strategy.EntryPoint) {
			return source
		}
		return scaffold(source, strategy)
	default:
		return source
	}
}

func scaffold(source string, strategy Strategy) string {
	var b strings.Builder
	b.Grow(len(strategy.Prelude) + len(source) + 64)
	b.WriteString(strategy.Prelude)
	b.WriteString("\nint ")
	b.WriteString(strategy.EntryPoint)
	b.WriteString("() {\n    ")
	b.WriteString(source)
	b.WriteString("\n    return 0;\n}")
	return b.String()
}
