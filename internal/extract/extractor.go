// Package extract builds the structural model of one source file: declared
// functions, string literals, globals, and external-service references. It is
// lexical extraction over raw text, not parsing; the matching shapes are the
// contract and some imprecision is accepted by design.
package extract

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// Reserved words that the function-shape regexes can match by accident
// (e.g. `if (cond) {`). Candidates with these names are discarded.
var jsKeywords = map[string]struct{}{
	"if": {}, "for": {}, "while": {}, "do": {}, "switch": {}, "case": {},
	"break": {}, "continue": {}, "return": {}, "try": {}, "catch": {},
	"finally": {}, "throw": {}, "new": {}, "class": {}, "extends": {},
	"import": {}, "export": {}, "default": {}, "const": {}, "let": {},
	"var": {}, "function": {}, "async": {}, "await": {}, "typeof": {},
	"instanceof": {}, "in": {}, "of": {}, "else": {}, "this": {},
	"super": {}, "yield": {}, "static": {},
}

// Call targets that are control flow, not functions.
var callKeywords = map[string]struct{}{
	"if": {}, "for": {}, "while": {}, "switch": {}, "catch": {}, "return": {},
	"function": {}, "typeof": {},
}

// DefaultServiceNamespaces are the platform services whose use counts as an
// external dependency of a file.
var DefaultServiceNamespaces = []string{
	"SpreadsheetApp",
	"DriveApp",
	"MailApp",
	"UrlFetchApp",
	"CacheService",
	"PropertiesService",
	"TriggerBuilder",
	"ScriptApp",
}

// functionShape pairs a declaration regex with a label. Group 1 is the name;
// group 2, when present, is the parameter list.
type functionShape struct {
	name string
	re   *regexp.Regexp
}

var functionShapes = []functionShape{
	{"function_decl", regexp.MustCompile(`function\s+(\w+)\s*\(([^)]*)\)\s*\{`)},
	{"var_function", regexp.MustCompile(`(?:var|let|const)\s+(\w+)\s*=\s*function\s*\(([^)]*)\)`)},
	{"arrow", regexp.MustCompile(`(?:const|let|var)\s+(\w+)\s*=\s*(?:\([^)]*\)|[^=\n]+?)\s*=>`)},
	// RE2 has no lookbehind, so the shorthand shape consumes the preceding
	// comma/brace; line numbers come from the name group instead.
	{"method_shorthand", regexp.MustCompile(`[,{]\s*(\w+)\s*\(([^)]*)\)\s*\{`)},
	{"object_method", regexp.MustCompile(`(\w+)\s*:\s*function\s*\(([^)]*)\)`)},
	{"class_method", regexp.MustCompile(`(?m)^\s+(?:async\s+)?(\w+)\s*\(([^)]*)\)\s*\{`)},
}

var (
	stringLiteralRE = regexp.MustCompile(`["']([^"']+)["']`)
	globalVarRE     = regexp.MustCompile(`(?:var|let|const)\s+(\w+)\s*=`)
	scriptBlockRE   = regexp.MustCompile(`(?is)<script[^>]*>(.*?)</script>`)

	errorHandlingRE = regexp.MustCompile(`\btry\b|\bcatch\b|\bthrow\b`)
	loggingRE       = regexp.MustCompile(`console\.(?:log|warn|error)|Logger\.log`)
	complexityRE    = regexp.MustCompile(`\bif\b|\belse\b|\bfor\b|\bwhile\b|\bswitch\b|\bcase\b|&&|\|\|`)
	callRE          = regexp.MustCompile(`(\w+)\s*\(`)
	commentLineRE   = regexp.MustCompile(`^\s*(//|\*)`)
)

var markupExts = map[string]struct{}{
	".html": {},
	".htm":  {},
}

type Extractor struct {
	serviceRes map[string]*regexp.Regexp
}

func NewExtractor(serviceNamespaces []string) *Extractor {
	if len(serviceNamespaces) == 0 {
		serviceNamespaces = DefaultServiceNamespaces
	}
	res := make(map[string]*regexp.Regexp, len(serviceNamespaces))
	for _, ns := range serviceNamespaces {
		res[ns] = regexp.MustCompile(regexp.QuoteMeta(ns) + `\.\w+`)
	}
	return &Extractor{serviceRes: res}
}

// ContentHash returns the cache key component for a file's content.
func ContentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// Extract builds the structural record for one file. It is deterministic and
// side-effect-free for identical content, which the caching layer relies on.
func (e *Extractor) Extract(relPath string, content []byte) *SourceFile {
	text := string(content)
	lines := strings.Split(text, "\n")
	ext := strings.ToLower(filepath.Ext(relPath))

	sf := &SourceFile{
		RelPath:    relPath,
		Ext:        ext,
		Kind:       KindCode,
		Hash:       ContentHash(content),
		TotalLines: len(lines),
	}
	if _, ok := markupExts[ext]; ok {
		sf.Kind = KindMarkup
	}

	countLineMetrics(sf, lines)
	sf.StringLiterals = extractLiterals(lines)

	if sf.Kind == KindMarkup {
		for _, block := range scriptBlockRE.FindAllStringSubmatchIndex(text, -1) {
			script := text[block[2]:block[3]]
			offset := strings.Count(text[:block[2]], "\n")
			sf.Functions = append(sf.Functions, extractFunctions(relPath, script, offset)...)
		}
	} else {
		sf.Functions = extractFunctions(relPath, text, 0)
		sf.Globals = extractGlobals(text)
		sf.Services = e.extractServices(text)
	}

	sortFunctions(sf.Functions)
	return sf
}

func countLineMetrics(sf *SourceFile, lines []string) {
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			sf.BlankLines++
		case commentLineRE.MatchString(line):
			sf.CommentLines++
		default:
			sf.CodeLines++
		}
	}
}

func extractLiterals(lines []string) []StringLiteral {
	var out []StringLiteral
	for i, line := range lines {
		for _, m := range stringLiteralRE.FindAllStringSubmatch(line, -1) {
			out = append(out, StringLiteral{Line: i + 1, Text: m[1]})
		}
	}
	return out
}

func extractFunctions(relPath, text string, lineOffset int) []FunctionRecord {
	lines := strings.Split(text, "\n")

	seen := make(map[FunctionID]struct{})
	var out []FunctionRecord

	for _, shape := range functionShapes {
		for _, m := range shape.re.FindAllStringSubmatchIndex(text, -1) {
			name := text[m[2]:m[3]]
			if _, reserved := jsKeywords[name]; reserved {
				continue
			}

			params := ""
			if len(m) > 5 && m[4] >= 0 {
				params = text[m[4]:m[5]]
			}

			// Line of the name, so shapes that consume a leading separator
			// still report the declaration line.
			startLine := strings.Count(text[:m[2]], "\n") + 1

			fn := FunctionRecord{
				Name:      name,
				File:      relPath,
				StartLine: startLine + lineOffset,
				Params:    splitParams(params),
			}
			id := fn.ID()
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}

			endLine := findBodyEnd(lines, startLine)
			fn.EndLine = endLine + lineOffset

			body := strings.Join(lines[startLine-1:endLine], "\n")
			fn.HasErrorHandling = errorHandlingRE.MatchString(body)
			fn.HasLogging = loggingRE.MatchString(body)
			fn.ComplexityScore = len(complexityRE.FindAllString(body, -1))
			fn.Calls = extractCalls(body)

			out = append(out, fn)
		}
	}
	return out
}

// findBodyEnd walks from the declaration line counting brace depth until the
// opening brace is balanced. A body whose braces never balance (malformed or
// truncated input) extends to end of file rather than failing the file.
func findBodyEnd(lines []string, startLine int) int {
	depth := 0
	opened := false
	for i := startLine - 1; i < len(lines); i++ {
		for _, ch := range lines[i] {
			switch ch {
			case '{':
				depth++
				opened = true
			case '}':
				depth--
				if opened && depth == 0 {
					return i + 1
				}
			}
		}
	}
	return len(lines)
}

func extractCalls(body string) []string {
	set := make(map[string]struct{})
	for _, m := range callRE.FindAllStringSubmatch(body, -1) {
		target := m[1]
		if _, skip := callKeywords[target]; skip {
			continue
		}
		set[target] = struct{}{}
	}
	return sortedKeys(set)
}

func extractGlobals(text string) []string {
	var out []string
	for _, m := range globalVarRE.FindAllStringSubmatchIndex(text, -1) {
		// A dot right before the declaration keyword means this is a
		// property assignment, not a global binding.
		if m[0] > 0 && text[m[0]-1] == '.' {
			continue
		}
		out = append(out, text[m[2]:m[3]])
	}
	return out
}

func (e *Extractor) extractServices(text string) []string {
	set := make(map[string]struct{})
	for ns, re := range e.serviceRes {
		if re.MatchString(text) {
			set[ns] = struct{}{}
		}
	}
	return sortedKeys(set)
}

func splitParams(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func sortFunctions(fns []FunctionRecord) {
	sort.SliceStable(fns, func(i, j int) bool {
		if fns[i].StartLine != fns[j].StartLine {
			return fns[i].StartLine < fns[j].StartLine
		}
		return fns[i].Name < fns[j].Name
	})
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
