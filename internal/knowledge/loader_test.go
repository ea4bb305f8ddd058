package knowledge

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestApplySchemaRows(t *testing.T) {
	b := NewBase()
	b.ApplySchemaRows([]SchemaRow{
		{Object: "Prospects", Label: "Company Name", APIName: "company_name"},
		{Object: "Prospects", Label: " Contact Status ", APIName: ""},
		{Object: "", Label: "Dropped", APIName: "dropped"},
	})

	cols := b.ObjectColumns("Prospects")
	assert.Contains(t, cols, "Company Name")
	assert.Contains(t, cols, "company_name")
	assert.Contains(t, cols, "Contact Status")
	assert.False(t, b.HasObject(""), "empty object must not be recorded")
}

func TestApplySettingsRows(t *testing.T) {
	b := NewBase()
	b.ApplySettingsRows([]SettingsRow{
		{Category: "VALIDATION_LIST", Key: "Outcomes", Values: []string{"Won, Lost", `"No Answer"`, ""}},
		{Category: "VALIDATION_LIST", Key: "Stages", Values: []string{"New,Contacted"}},
		{Category: "WORKFLOW_RULE", Key: "Won", Values: []string{"Closed", "Active"}},
		{Category: "GLOBAL_CONST", Key: "MAX_ROWS", Values: []string{"500"}},
		{Category: "SOMETHING_ELSE", Key: "x", Values: []string{"y"}},
	})

	assert.True(t, b.IsValidOutcome("Won"))
	assert.True(t, b.IsValidOutcome("Lost"))
	assert.True(t, b.IsValidOutcome("No Answer"), "quoted values should be unwrapped")
	assert.False(t, b.IsValidOutcome(""))
	assert.True(t, b.IsValidStage("Contacted"))
	assert.Equal(t, WorkflowRule{Stage: "Closed", Status: "Active"}, b.WorkflowRules["Won"])
	assert.Equal(t, "500", b.GlobalConstants["MAX_ROWS"])
}

func TestLoaderMissingFilesDegrades(t *testing.T) {
	dir := t.TempDir()
	b, err := Loader{
		SchemaCSVPath: filepath.Join(dir, "System_Schema.csv"),
		SettingsPath:  filepath.Join(dir, "Settings.tsv"),
	}.Load()
	require.NoError(t, err, "missing configuration must not be fatal")

	assert.True(t, b.MissingSchema)
	assert.True(t, b.MissingSettings)
	assert.Empty(t, b.AllColumns())
	assert.Empty(t, b.ValidOutcomes)
}

func TestLoaderSchemaCSV(t *testing.T) {
	dir := t.TempDir()
	schema := writeFile(t, dir, "System_Schema.csv",
		"Object,Label,API_Name\nProspects,Company Name,company_name\nOutreach,Outcome,outcome\n")

	b, err := Loader{SchemaCSVPath: schema}.Load()
	require.NoError(t, err)

	assert.False(t, b.MissingSchema)
	assert.ElementsMatch(t, []string{"Company Name", "Outcome", "company_name", "outcome"}, b.AllColumns())
	assert.True(t, b.HasObject("Outreach"))
}

func TestLoaderSettingsTSV(t *testing.T) {
	dir := t.TempDir()
	settings := writeFile(t, dir, "Settings.tsv",
		"Category\tKey\tValue\n"+
			"VALIDATION_LIST\tOutcomes\tWon, Lost, No Answer\n"+
			"VALIDATION_LIST\tStatuses\tActive,Dormant\n"+
			"WORKFLOW_RULE\tWon\tClosed\tActive\n")

	b, err := Loader{SettingsPath: settings}.Load()
	require.NoError(t, err)

	assert.False(t, b.MissingSettings)
	assert.True(t, b.IsValidOutcome("No Answer"))
	assert.True(t, b.IsValidStatus("Dormant"))
	assert.Equal(t, "Closed", b.WorkflowRules["Won"].Stage)
}

func TestLoaderConfigJSHeaders(t *testing.T) {
	dir := t.TempDir()
	configJS := writeFile(t, dir, "Config.js", `
const CONFIG = {
  HEADERS: {
    Prospects: ['Company ID', 'Company Name', "Contact Status"],
    Outreach: ['Outreach ID', 'Outcome']
  }
};
`)

	b, err := Loader{CentralConfigJS: configJS}.Load()
	require.NoError(t, err)

	assert.False(t, b.MissingSchema)
	assert.Contains(t, b.ObjectColumns("Prospects"), "Company ID")
	assert.Contains(t, b.ObjectColumns("Outreach"), "Outcome")
}

func TestLoaderConfigJSFallsBackToCSV(t *testing.T) {
	dir := t.TempDir()
	// Config.js present but without a HEADERS block.
	writeFile(t, dir, "Config.js", "const CONFIG = { SHEETS: {} };")
	schema := writeFile(t, dir, "System_Schema.csv",
		"Object,Label,API_Name\nAccounts,Contact Name,contact_name\n")

	b, err := Loader{
		CentralConfigJS: filepath.Join(dir, "Config.js"),
		SchemaCSVPath:   schema,
	}.Load()
	require.NoError(t, err)

	assert.False(t, b.MissingSchema)
	assert.True(t, b.HasObject("Accounts"))
}

func TestDivergentRules(t *testing.T) {
	b := NewBase()
	b.ValidOutcomes = map[string]struct{}{"Won": {}}
	b.WorkflowRules["Won"] = WorkflowRule{Stage: "Closed", Status: "Active"}
	b.WorkflowRules["Ghosted"] = WorkflowRule{Stage: "Dormant", Status: "Inactive"}

	assert.Equal(t, []string{"Ghosted"}, b.DivergentRules())
}
