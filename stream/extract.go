package stream

import (
	"strings"

	"github.com/pithecene-io/foundry/marker"
	"github.com/pithecene-io/foundry/types"
)

// Extract is the batch driver over the marker grammar: a pure function that
// scans complete stream text for file blocks, tolerating arbitrary unparsed
// surrounding text. It exists because truncated streams and markers split
// oddly across chunk boundaries can defeat the incremental parser; when the
// information was present in the text, it is not wasted.
//
// A file block's content runs from its open marker to the matching close,
// or to the next recognized marker (or end of text) when the close never
// arrived. Blocks with invalid paths or empty trimmed content are skipped.
// A later block for the same path overwrites the earlier one.
func Extract(fullText string) []types.VirtualFile {
	var files []types.VirtualFile
	index := make(map[string]int)

	pos := 0
	for {
		tok, _, end, ok := marker.FindNext(fullText, pos)
		if !ok {
			break
		}
		pos = end
		if tok.Kind != marker.KindFileOpen || !types.ValidPath(tok.Path) {
			continue
		}

		contentEnd := len(fullText)
		if next, ns, ne, found := marker.FindNext(fullText, end); found {
			contentEnd = ns
			if next.Kind == marker.KindFileClose {
				pos = ne
			} else {
				pos = ns
			}
		} else {
			pos = contentEnd
		}

		content := fullText[end:contentEnd]
		if strings.TrimSpace(content) == "" {
			continue
		}

		lang := tok.Language
		if lang == "" {
			lang = types.DetectLanguage(tok.Path)
		}
		vf := types.VirtualFile{
			Path:         tok.Path,
			Name:         types.BaseName(tok.Path),
			Content:      content,
			Language:     lang,
			FileType:     types.DetectFileType(tok.Path),
			IsEntryPoint: tok.Entry,
			GeneratedBy:  types.ProvenanceFallback,
		}
		if i, dup := index[tok.Path]; dup {
			files[i] = vf
		} else {
			index[tok.Path] = len(files)
			files = append(files, vf)
		}
	}

	return files
}
