package extract

import "fmt"

// FileKind separates code files (scanned for every shape) from markup files
// (literals always, functions only inside embedded script blocks).
type FileKind int

const (
	KindCode FileKind = iota
	KindMarkup
)

// FunctionID identifies a function across the corpus. Name alone is not
// unique; the owning file and start line disambiguate.
type FunctionID struct {
	File      string `json:"file"`
	Name      string `json:"name"`
	StartLine int    `json:"start_line"`
}

func (id FunctionID) String() string {
	return fmt.Sprintf("%s::%s", id.File, id.Name)
}

// FunctionRecord is the extracted view of one function-like declaration.
// CalledBy is the only field written after extraction; the graph builder
// fills it in once the whole corpus is known.
type FunctionRecord struct {
	Name      string   `json:"name"`
	File      string   `json:"file"`
	StartLine int      `json:"start_line"`
	EndLine   int      `json:"end_line"`
	Params    []string `json:"params"`

	Calls            []string `json:"calls"` // unresolved target names, sorted
	ComplexityScore  int      `json:"complexity_score"`
	HasErrorHandling bool     `json:"has_error_handling"`
	HasLogging       bool     `json:"has_logging"`

	CalledBy []FunctionID `json:"called_by,omitempty"`
}

func (f *FunctionRecord) ID() FunctionID {
	return FunctionID{File: f.File, Name: f.Name, StartLine: f.StartLine}
}

// StringLiteral is one quoted literal occurrence. Lines are 1-based.
type StringLiteral struct {
	Line int    `json:"line"`
	Text string `json:"text"`
}

// SourceFile is the structural record of one scanned file. It is rebuilt
// whole whenever the content hash changes and otherwise served from cache
// unchanged; nothing updates it partially.
type SourceFile struct {
	RelPath string   `json:"rel_path"`
	Ext     string   `json:"ext"`
	Kind    FileKind `json:"kind"`
	Hash    string   `json:"hash"`

	TotalLines   int `json:"total_lines"`
	CodeLines    int `json:"code_lines"`
	CommentLines int `json:"comment_lines"`
	BlankLines   int `json:"blank_lines"`

	Functions      []FunctionRecord `json:"functions"`
	StringLiterals []StringLiteral  `json:"string_literals"`
	Globals        []string         `json:"globals"`
	Services       []string         `json:"services"` // referenced external namespaces, sorted
}

// Clone returns a deep copy so cached records stay pristine when the graph
// builder mutates CalledBy on the working set.
func (s *SourceFile) Clone() *SourceFile {
	if s == nil {
		return nil
	}
	c := *s
	c.Functions = make([]FunctionRecord, len(s.Functions))
	for i := range s.Functions {
		fn := s.Functions[i]
		fn.Params = append([]string(nil), fn.Params...)
		fn.Calls = append([]string(nil), fn.Calls...)
		fn.CalledBy = append([]FunctionID(nil), fn.CalledBy...)
		c.Functions[i] = fn
	}
	c.StringLiterals = append([]StringLiteral(nil), s.StringLiterals...)
	c.Globals = append([]string(nil), s.Globals...)
	c.Services = append([]string(nil), s.Services...)
	return &c
}
