package knowledge

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/kyletbuzbee/K-L-Recycling-Outreach/internal/core/errors"
)

// Row categories understood by the settings loader.
const (
	CategoryValidationList = "VALIDATION_LIST"
	CategoryWorkflowRule   = "WORKFLOW_RULE"
	CategoryGlobalConst    = "GLOBAL_CONST"
)

// Validation-list keys mapped onto Base vocabularies.
const (
	keyOutcomes = "Outcomes"
	keyStages   = "Stages"
	keyStatuses = "Statuses"
)

// SchemaRow is one record of the schema table. The collaborator that parses
// the physical file is responsible for quoting; this layer only trims.
type SchemaRow struct {
	Object  string
	Label   string
	APIName string
}

// SettingsRow is one record of the settings table: a category tag, a key,
// and the remaining cells.
type SettingsRow struct {
	Category string
	Key      string
	Values   []string
}

// ApplySchemaRows folds schema records into the base. Both the label and the
// API name join the column set for the row's object.
func (b *Base) ApplySchemaRows(rows []SchemaRow) {
	for _, row := range rows {
		obj := strings.TrimSpace(row.Object)
		b.addColumn(obj, strings.TrimSpace(row.Label))
		b.addColumn(obj, strings.TrimSpace(row.APIName))
	}
}

// ApplySettingsRows folds settings records into the base. VALIDATION_LIST
// trailing cells are treated as one comma-joined list; values are trimmed and
// empties dropped. Unknown categories are ignored.
func (b *Base) ApplySettingsRows(rows []SettingsRow) {
	for _, row := range rows {
		switch strings.TrimSpace(row.Category) {
		case CategoryValidationList:
			values := splitValidationList(row.Values)
			switch strings.TrimSpace(row.Key) {
			case keyOutcomes:
				b.ValidOutcomes = values
			case keyStages:
				b.ValidStages = values
			case keyStatuses:
				b.ValidStatuses = values
			}
		case CategoryWorkflowRule:
			if len(row.Values) < 2 {
				continue
			}
			outcome := strings.TrimSpace(row.Key)
			if outcome == "" {
				continue
			}
			b.WorkflowRules[outcome] = WorkflowRule{
				Stage:  strings.TrimSpace(row.Values[0]),
				Status: strings.TrimSpace(row.Values[1]),
			}
		case CategoryGlobalConst:
			if len(row.Values) < 1 {
				continue
			}
			key := strings.TrimSpace(row.Key)
			if key == "" {
				continue
			}
			b.GlobalConstants[key] = strings.TrimSpace(row.Values[0])
		}
	}
}

func splitValidationList(cells []string) map[string]struct{} {
	out := make(map[string]struct{})
	joined := strings.Join(cells, ",")
	for _, v := range strings.Split(joined, ",") {
		v = strings.Trim(strings.TrimSpace(v), `"`)
		if v != "" {
			out[v] = struct{}{}
		}
	}
	return out
}

// Loader reads the source-of-truth files. Paths are optional; a missing file
// flips the corresponding Missing flag instead of failing, so the audit can
// degrade gracefully.
type Loader struct {
	SchemaCSVPath   string
	SettingsPath    string // .tsv or .csv; delimiter follows the extension
	CentralConfigJS string // optional Config.js with a HEADERS object literal
}

func (l Loader) Load() (*Base, error) {
	b := NewBase()

	schemaLoaded := false
	if l.CentralConfigJS != "" {
		ok, err := loadSchemaFromConfigJS(b, l.CentralConfigJS)
		if err != nil {
			return nil, err
		}
		schemaLoaded = ok
	}
	if !schemaLoaded && l.SchemaCSVPath != "" {
		ok, err := loadSchemaCSV(b, l.SchemaCSVPath)
		if err != nil {
			return nil, err
		}
		schemaLoaded = ok
	}
	b.MissingSchema = !schemaLoaded

	settingsLoaded := false
	if l.SettingsPath != "" {
		ok, err := loadSettings(b, l.SettingsPath)
		if err != nil {
			return nil, err
		}
		settingsLoaded = ok
	}
	b.MissingSettings = !settingsLoaded

	return b, nil
}

func loadSchemaCSV(b *Base, path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, errors.Wrap(err, errors.CodeFileUnreadable, "open schema table")
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		if err == io.EOF {
			return false, nil
		}
		return false, errors.Wrap(err, errors.CodeFileUnreadable, "read schema header")
	}

	idx := headerIndex(header)
	objectCol, okObject := idx["Object"]
	if !okObject {
		return false, nil
	}
	labelCol := columnOrMissing(idx, "Label")
	apiCol := columnOrMissing(idx, "API_Name")

	var rows []SchemaRow
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return false, errors.Wrap(err, errors.CodeFileUnreadable, "read schema row")
		}
		row := SchemaRow{Object: cell(record, objectCol)}
		row.Label = cell(record, labelCol)
		row.APIName = cell(record, apiCol)
		rows = append(rows, row)
	}

	b.ApplySchemaRows(rows)
	return true, nil
}

func loadSettings(b *Base, path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, errors.Wrap(err, errors.CodeFileUnreadable, "open settings table")
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	if strings.EqualFold(filepath.Ext(path), ".tsv") {
		r.Comma = '\t'
	}

	// Skip header row.
	if _, err := r.Read(); err != nil {
		if err == io.EOF {
			return false, nil
		}
		return false, errors.Wrap(err, errors.CodeFileUnreadable, "read settings header")
	}

	var rows []SettingsRow
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return false, errors.Wrap(err, errors.CodeFileUnreadable, "read settings row")
		}
		if len(record) < 3 {
			continue
		}
		rows = append(rows, SettingsRow{
			Category: record[0],
			Key:      record[1],
			Values:   record[2:],
		})
	}

	b.ApplySettingsRows(rows)
	return true, nil
}

// headersObjectRE captures the body of a HEADERS object literal, including
// the nested per-sheet arrays.
var (
	headersObjectRE = regexp.MustCompile(`(?s)(?:HEADERS|headers)['"]?\s*(?::|=)\s*\{([^}]+(?:\{[^}]+\}[^}]*)*)\}`)
	sheetArrayRE    = regexp.MustCompile(`(?s)(\w+)\s*:\s*\[([^\]]+)\]`)
	quotedValueRE   = regexp.MustCompile(`["']([^"']+)["']`)
)

// loadSchemaFromConfigJS recovers the schema from the codebase's central
// Config.js, where sheet headers are declared as HEADERS: { Sheet: [...] }.
func loadSchemaFromConfigJS(b *Base, path string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, errors.Wrap(err, errors.CodeFileUnreadable, "read central config")
	}

	m := headersObjectRE.FindSubmatch(data)
	if m == nil {
		return false, nil
	}

	found := false
	for _, sheet := range sheetArrayRE.FindAllSubmatch(m[1], -1) {
		sheetName := string(sheet[1])
		for _, q := range quotedValueRE.FindAllSubmatch(sheet[2], -1) {
			col := strings.TrimSpace(string(q[1]))
			if col != "" {
				b.addColumn(sheetName, col)
				found = true
			}
		}
	}
	return found, nil
}

func headerIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(h)] = i
	}
	return idx
}

func columnOrMissing(idx map[string]int, name string) int {
	if i, ok := idx[name]; ok {
		return i
	}
	return -1
}

func cell(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}
