// Package marker implements the wire grammar embedded in generated text.
//
// Markers are bracket-delimited directives (<<<FILE:/App.tsx tsx entry>>>)
// that demarcate project, file, and dependency boundaries inside otherwise
// free-form model output. The grammar lives here exactly once: the
// incremental parser and the whole-text fallback extractor are both drivers
// over this tokenizer, so the two paths cannot drift.
package marker

import "strings"

// Delimiters and bounds for the marker grammar.
const (
	// Open is the opening delimiter sequence.
	Open = "<<<"
	// Close is the closing delimiter sequence.
	Close = ">>>"
	// MaxMarkerLen is the maximum length of a complete marker, delimiters
	// included. Longer bracket sequences are demoted to plain content so
	// generated source that happens to contain "<<<" cannot stall a stream.
	MaxMarkerLen = 512
)

// Directive prefixes within the delimiters.
const (
	projectStartPrefix = "PROJECT_START"
	fileOpenPrefix     = "FILE:"
	dependencyPrefix   = "DEP:"
	fileCloseBody      = "END_FILE"
	projectEndBody     = "PROJECT_END"
)

// Kind discriminates marker tokens.
type Kind int

// Token kinds.
const (
	KindProjectStart Kind = iota
	KindFileOpen
	KindFileClose
	KindDependency
	KindProjectEnd
)

// Token is one recognized marker. Field usage per kind:
//   - KindProjectStart: Name
//   - KindFileOpen: Path, Language, Entry
//   - KindDependency: Dependency, Version (either may be empty when the
//     marker is malformed; drivers decide whether to drop)
type Token struct {
	Kind       Kind
	Name       string
	Path       string
	Language   string
	Entry      bool
	Dependency string
	Version    string
}

// FindNext scans text from offset from for the next recognized marker.
// Returns the token and the byte bounds [start, end) of the whole marker
// including delimiters. Unrecognized or oversized bracket sequences are
// skipped; the text they span remains content.
func FindNext(text string, from int) (tok Token, start, end int, ok bool) {
	for i := from; i < len(text); {
		idx := strings.Index(text[i:], Open)
		if idx < 0 {
			break
		}
		s := i + idx
		rel := strings.Index(text[s+len(Open):], Close)
		if rel < 0 {
			break
		}
		e := s + len(Open) + rel + len(Close)
		if e-s <= MaxMarkerLen {
			if t, valid := parse(text[s+len(Open) : e-len(Close)]); valid {
				return t, s, e, true
			}
		}
		// Not a marker; re-scan one delimiter byte later so nested opens
		// like "<<<<<<FILE:..." are still found.
		i = s + 1
	}
	return Token{}, 0, 0, false
}

// parse interprets the text between delimiters as a directive.
func parse(body string) (Token, bool) {
	switch {
	case body == fileCloseBody:
		return Token{Kind: KindFileClose}, true
	case body == projectEndBody:
		return Token{Kind: KindProjectEnd}, true
	case strings.HasPrefix(body, projectStartPrefix):
		rest := strings.TrimSpace(strings.TrimPrefix(body, projectStartPrefix))
		return Token{Kind: KindProjectStart, Name: rest}, true
	case strings.HasPrefix(body, fileOpenPrefix):
		fields := strings.Fields(strings.TrimPrefix(body, fileOpenPrefix))
		t := Token{Kind: KindFileOpen}
		if len(fields) > 0 {
			t.Path = fields[0]
			for _, f := range fields[1:] {
				if f == "entry" {
					t.Entry = true
				} else if t.Language == "" {
					t.Language = f
				}
			}
		}
		return t, true
	case strings.HasPrefix(body, dependencyPrefix):
		fields := strings.Fields(strings.TrimPrefix(body, dependencyPrefix))
		t := Token{Kind: KindDependency}
		if len(fields) > 0 {
			t.Dependency = fields[0]
		}
		if len(fields) > 1 {
			t.Version = fields[1]
		}
		return t, true
	}
	return Token{}, false
}

// Scan returns every recognized marker in text, in order. Batch counterpart
// of FindNext for callers that do not care about content between markers.
func Scan(text string) []Token {
	var toks []Token
	pos := 0
	for {
		tok, _, end, ok := FindNext(text, pos)
		if !ok {
			return toks
		}
		toks = append(toks, tok)
		pos = end
	}
}

// PartialTailIndex returns the index at which an incomplete trailing marker
// begins, or -1 when the text ends in plain content. Incremental drivers
// hold the tail back until the next chunk either completes the marker or
// grows it past MaxMarkerLen, at which point it is content after all.
func PartialTailIndex(text string) int {
	if idx := strings.LastIndex(text, Open); idx >= 0 && !strings.Contains(text[idx:], Close) {
		if len(text)-idx > MaxMarkerLen {
			return -1
		}
		return idx
	}
	// A trailing "<" or "<<" may still grow into an opening delimiter.
	for n := len(Open) - 1; n > 0; n-- {
		if strings.HasSuffix(text, Open[:n]) {
			return len(text) - n
		}
	}
	return -1
}

// CountFileMarkers is the cheap evidence check used to decide whether
// fallback extraction is worth attempting against raw stream text.
func CountFileMarkers(text string) int {
	return strings.Count(text, Open+fileOpenPrefix)
}
