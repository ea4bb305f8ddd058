package validate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kyletbuzbee/K-L-Recycling-Outreach/internal/extract"
	"github.com/kyletbuzbee/K-L-Recycling-Outreach/internal/issue"
	"github.com/kyletbuzbee/K-L-Recycling-Outreach/internal/knowledge"
)

func buildInput(t *testing.T, kb *knowledge.Base, sources map[string]string) *Input {
	t.Helper()
	e := extract.NewExtractor(nil)
	in := &Input{
		KB:      kb,
		Content: make(map[string][]byte),
		Options: DefaultOptions(),
	}
	for path, src := range sources {
		in.Files = append(in.Files, e.Extract(path, []byte(src)))
		in.Content[path] = []byte(src)
	}
	return in
}

func testKB() *knowledge.Base {
	kb := knowledge.NewBase()
	kb.ApplySchemaRows([]knowledge.SchemaRow{
		{Object: "Prospects", Label: "Company ID", APIName: "company_id"},
		{Object: "Prospects", Label: "Company Name", APIName: "CompanyName"},
		{Object: "Prospects", Label: "Contact Status", APIName: "contact_status"},
		{Object: "Outreach", Label: "Outreach ID", APIName: "outreach_id"},
		{Object: "Outreach", Label: "Company ID", APIName: "company_id"},
		{Object: "Outreach", Label: "Outcome", APIName: "outcome"},
		{Object: "Accounts", Label: "Company Name", APIName: "company_name"},
		{Object: "Accounts", Label: "Contact Name", APIName: "contact_name"},
	})
	kb.ApplySettingsRows([]knowledge.SettingsRow{
		{Category: "VALIDATION_LIST", Key: "Outcomes", Values: []string{"Won, Lost, No Answer"}},
		{Category: "VALIDATION_LIST", Key: "Stages", Values: []string{"New, Contacted, Closed"}},
		{Category: "VALIDATION_LIST", Key: "Statuses", Values: []string{"Active, Dormant"}},
	})
	return kb
}

func filterCategory(issues []issue.Issue, cat issue.Category) []issue.Issue {
	var out []issue.Issue
	for _, is := range issues {
		if is.Category == cat {
			out = append(out, is)
		}
	}
	return out
}

func TestSchemaPassFlagsTypoInColumnContext(t *testing.T) {
	in := buildInput(t, testKB(), map[string]string{
		"Sync.js": `function sync(headers) {
  var idx = headers['CompanyNam'];
  return idx;
}
`,
	})
	issues := SchemaPass{}.Check(in)
	require.Len(t, issues, 1)
	assert.Equal(t, issue.SeverityMedium, issues[0].Severity)
	assert.Equal(t, issue.CategorySchema, issues[0].Category)
	assert.Equal(t, 2, issues[0].Line)
	assert.Contains(t, issues[0].Message, "CompanyNam")
}

func TestSchemaPassFlagsClosestColumn(t *testing.T) {
	// Two columns sit in the similarity band; the closer one wins even though
	// the other sorts first.
	kb := testKB()
	kb.ApplySchemaRows([]knowledge.SchemaRow{
		{Object: "Prospects", Label: "Contact Statues"},
	})
	in := buildInput(t, kb, map[string]string{
		"Sync.js": "var idx = headers['Contact Statu'];\n",
	})
	issues := SchemaPass{}.Check(in)
	require.Len(t, issues, 1)
	assert.Contains(t, issues[0].Message, "similar to 'Contact Status'")
}

func TestSchemaPassExactMatchNeverFlagged(t *testing.T) {
	in := buildInput(t, testKB(), map[string]string{
		"Sync.js": "var idx = headers['Company Name'];\n",
	})
	assert.Empty(t, SchemaPass{}.Check(in))
}

func TestSchemaPassUnrelatedLiteralNeverFlagged(t *testing.T) {
	in := buildInput(t, testKB(), map[string]string{
		"Sync.js": "var idx = headers['Zebra'];\n",
	})
	assert.Empty(t, SchemaPass{}.Check(in))
}

func TestSchemaPassContextGate(t *testing.T) {
	// Same near-miss literal, but nowhere near a column reference template.
	in := buildInput(t, testKB(), map[string]string{
		"Msg.js": "var label = 'CompanyNam';\n",
	})
	assert.Empty(t, SchemaPass{}.Check(in), "literals outside column context are never evaluated")
}

func TestSchemaPassStopListAndShortLiterals(t *testing.T) {
	in := buildInput(t, testKB(), map[string]string{
		"Sync.js": `var a = headers['id'];
var b = headers['value'];
`,
	})
	assert.Empty(t, SchemaPass{}.Check(in))
}

func TestSchemaPassSkipsWhenSchemaMissing(t *testing.T) {
	kb := knowledge.NewBase()
	kb.MissingSchema = true
	in := buildInput(t, kb, map[string]string{
		"Sync.js": "var idx = headers['CompanyNam'];\n",
	})
	assert.Empty(t, SchemaPass{}.Check(in))
}

func TestSettingsPassStrictMembership(t *testing.T) {
	// "Won" is a valid outcome and "Wonn" is not an exact member; neither is
	// flagged by the vocabulary rule because membership is strict, not fuzzy.
	in := buildInput(t, testKB(), map[string]string{
		"Logic.js": `var ok = 'Won';
var typo = 'Wonn';
`,
	})
	assert.Empty(t, SettingsPass{}.Check(in))
}

func TestSettingsPassBannedStatusInOutreachPath(t *testing.T) {
	in := buildInput(t, testKB(), map[string]string{
		"OutreachLogic.js": "var status = 'Not Contacted';\n",
	})
	issues := SettingsPass{}.Check(in)
	require.Len(t, issues, 1)
	assert.Equal(t, issue.SeverityHigh, issues[0].Severity)
	assert.Equal(t, issue.CategorySettings, issues[0].Category)
	assert.Equal(t, 1, issues[0].Line)
}

func TestSettingsPassBannedStatusEvenIfValidElsewhere(t *testing.T) {
	kb := testKB()
	kb.ApplySettingsRows([]knowledge.SettingsRow{
		{Category: "VALIDATION_LIST", Key: "Statuses", Values: []string{"Active, Not Contacted"}},
	})
	in := buildInput(t, kb, map[string]string{
		"OutreachForm.js": "setStatus('Not Contacted');\n",
	})
	issues := SettingsPass{}.Check(in)
	require.Len(t, issues, 1, "the deprecation rule ignores vocabulary membership")
}

func TestSettingsPassBannedStatusOutsideOutreachIsQuiet(t *testing.T) {
	in := buildInput(t, testKB(), map[string]string{
		"Prospects.js": "var defaultStatus = 'Not Contacted';\n",
	})
	assert.Empty(t, SettingsPass{}.Check(in))
}

func TestSettingsPassBannedStatusInOutreachContext(t *testing.T) {
	// The file name says nothing about outreach, but the surrounding lines do.
	in := buildInput(t, testKB(), map[string]string{
		"Logic.js": `// part of the outreach follow-up flow
var status = 'Not Contacted';
`,
	})
	issues := SettingsPass{}.Check(in)
	require.Len(t, issues, 1)
	assert.Equal(t, issue.SeverityHigh, issues[0].Severity)
	assert.Equal(t, issue.CategorySettings, issues[0].Category)
	assert.Equal(t, 2, issues[0].Line)
}

func TestSettingsPassBannedStatusContextWindowBounded(t *testing.T) {
	// A mention of the outreach flow far from the literal does not count.
	in := buildInput(t, testKB(), map[string]string{
		"Logic.js": `// outreach helpers live elsewhere
var a = 1;
var b = 2;
var c = 3;
var d = 4;
var status = 'Not Contacted';
`,
	})
	assert.Empty(t, SettingsPass{}.Check(in))
}

func TestSettingsPassBannedStatusInMarkup(t *testing.T) {
	in := buildInput(t, testKB(), map[string]string{
		"dashboard.html": "<button onclick=\"setOutcome('Not Contacted')\">Skip</button>\n",
	})
	issues := SettingsPass{}.Check(in)
	require.Len(t, issues, 1)
	assert.Equal(t, issue.SeverityHigh, issues[0].Severity)
}

func TestSettingsPassOutcomeSetterAudit(t *testing.T) {
	in := buildInput(t, testKB(), map[string]string{
		"dialog.html": `<button onclick="setOutcome('Won')">Won</button>
<button onclick="setOutcome('Ghosted')">Ghosted</button>
`,
	})
	issues := SettingsPass{}.Check(in)
	require.Len(t, issues, 1)
	assert.Contains(t, issues[0].Message, "Ghosted")
	assert.Equal(t, issue.SeverityHigh, issues[0].Severity)
	assert.Equal(t, 2, issues[0].Line)
}

func TestSettingsPassWorkflowDivergence(t *testing.T) {
	kb := testKB()
	kb.WorkflowRules["Ghosted"] = knowledge.WorkflowRule{Stage: "Dormant", Status: "Inactive"}
	in := buildInput(t, kb, map[string]string{})

	issues := SettingsPass{}.Check(in)
	require.Len(t, issues, 1)
	assert.Equal(t, issue.SeverityInfo, issues[0].Severity)
	assert.Equal(t, "PROJECT", issues[0].File)
	assert.Contains(t, issues[0].Message, "Ghosted")
}

func TestSecurityPassEvalIsCritical(t *testing.T) {
	in := buildInput(t, testKB(), map[string]string{
		"Danger.js": "var out = eval(userInput);\n",
	})
	issues := filterCategory(SecurityPass{}.Check(in), issue.CategorySecurity)
	require.Len(t, issues, 1)
	assert.Equal(t, issue.SeverityCritical, issues[0].Severity)
}

func TestSecurityPassInsecureURL(t *testing.T) {
	in := buildInput(t, testKB(), map[string]string{
		"Fetch.js": `UrlFetchApp.fetch('http://example.com/api');
UrlFetchApp.fetch('http://localhost:8080/dev');
UrlFetchApp.fetch('http://127.0.0.1/dev');
`,
	})
	issues := SecurityPass{}.Check(in)
	require.Len(t, issues, 1, "loopback addresses are exempt")
	assert.Equal(t, 1, issues[0].Line)
}

func TestSecurityPassInnerHTML(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		flagged bool
	}{
		{"raw assignment", "el.innerHTML = userValue;\n", true},
		{"sanitized on same line", "el.innerHTML = sanitizeHtml(userValue);\n", false},
		{"clearing", "el.innerHTML = '';\n", false},
		{"sanitizer defined in file", "function sanitizeHtml(s) { return s; }\nel.innerHTML = userValue;\n", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := buildInput(t, testKB(), map[string]string{"Ui.js": tt.src})
			issues := SecurityPass{}.Check(in)
			if tt.flagged {
				require.Len(t, issues, 1)
				assert.Equal(t, issue.SeverityMedium, issues[0].Severity)
			} else {
				assert.Empty(t, issues)
			}
		})
	}
}

func TestPerformancePassGetRangeInLoop(t *testing.T) {
	in := buildInput(t, testKB(), map[string]string{
		"Slow.js": `function slow(sheet) {
  for (var i = 0; i < 100; i++) {
    sheet.getRange(i, 1).getValue();
  }
}
`,
	})
	issues := filterCategory(PerformancePass{}.Check(in), issue.CategoryPerformance)
	require.Len(t, issues, 1)
	assert.Equal(t, issue.SeverityHigh, issues[0].Severity)
}

func TestPerformancePassGetRangeOutsideLoopIsQuiet(t *testing.T) {
	in := buildInput(t, testKB(), map[string]string{
		"Fast.js": "var value = sheet.getRange(1, 1).getValue();\n",
	})
	assert.Empty(t, PerformancePass{}.Check(in))
}

func TestPerformancePassAppendRowOnlyInLoop(t *testing.T) {
	in := buildInput(t, testKB(), map[string]string{
		"Single.js": "sheet.appendRow(['one']);\n",
		"Batch.js": `for (var i = 0; i < rows.length; i++) {
  sheet.appendRow(rows[i]);
}
`,
	})
	issues := PerformancePass{}.Check(in)
	require.Len(t, issues, 1)
	assert.Equal(t, "Batch.js", issues[0].File)
	assert.Equal(t, issue.SeverityMedium, issues[0].Severity)
}

func TestQualityPassThresholds(t *testing.T) {
	branch := "if (a) { x1(); } else { y1(); }\n"
	verybranchy := ""
	for i := 0; i < 9; i++ {
		verybranchy += branch
	}

	in := buildInput(t, testKB(), map[string]string{
		// 18 complexity tokens, no try/catch: high complexity + missing
		// error handling.
		"Big.js": "function monster() {\n" + verybranchy + "}\n",
		// Simple function: exempt from every rule.
		"Small.js": "function tiny() { if (a) { x(); } }\n",
	})
	issues := QualityPass{}.Check(in)

	var complexity, errHandling []issue.Issue
	for _, is := range issues {
		switch is.Category {
		case issue.CategoryCodeQuality:
			complexity = append(complexity, is)
		case issue.CategoryErrorHandling:
			errHandling = append(errHandling, is)
		}
	}
	require.Len(t, complexity, 1)
	assert.Contains(t, complexity[0].Message, "monster")
	require.Len(t, errHandling, 1)
	assert.Equal(t, "Big.js", errHandling[0].File)
}

func TestQualityPassMissingLogging(t *testing.T) {
	in := buildInput(t, testKB(), map[string]string{
		"Chatty.js": `function orchestrate(a) {
  if (a && b) { stepOne(); } else { stepTwo(); }
  if (c || d) { stepThree(); }
  if (e) { stepFour(); }
  stepFive();
  stepSix();
}
`,
	})
	issues := QualityPass{}.Check(in)
	require.Len(t, issues, 1)
	assert.Equal(t, issue.SeverityLow, issues[0].Severity)
	assert.Contains(t, issues[0].Message, "no logging")
}

func TestArchitecturePassMissingCentralConfig(t *testing.T) {
	in := buildInput(t, testKB(), map[string]string{
		"Main.js": "function run() { try { go(); } catch (e) {} }\n",
	})
	issues := ArchitecturePass{}.Check(in)
	require.Len(t, issues, 1)
	assert.Equal(t, "PROJECT", issues[0].File)
	assert.Equal(t, issue.SeverityHigh, issues[0].Severity)
	assert.Contains(t, issues[0].Message, "Config.js")
}

func TestArchitecturePassErrorHandlingCoverage(t *testing.T) {
	in := buildInput(t, testKB(), map[string]string{
		"Config.js":  "var CONFIG = {};\n",
		"Covered.js": "function ok() { try { go(); } catch (e) {} }\n",
		"Bare.js":    "function naked() { go(); }\n",
	})
	issues := ArchitecturePass{}.Check(in)
	require.Len(t, issues, 1)
	assert.Equal(t, "Bare.js", issues[0].File)
	assert.Equal(t, issue.SeverityLow, issues[0].Severity)
	assert.Equal(t, issue.CategoryErrorHandling, issues[0].Category)
}

func TestArchitecturePassSurfacesMissingKnowledge(t *testing.T) {
	kb := knowledge.NewBase()
	kb.MissingSchema = true
	kb.MissingSettings = true
	in := buildInput(t, kb, map[string]string{
		"Config.js": "var CONFIG = {};\n",
	})
	issues := ArchitecturePass{}.Check(in)
	require.Len(t, issues, 2)
	for _, is := range issues {
		assert.Equal(t, issue.CategoryArchitecture, is.Category)
		assert.Equal(t, issue.SeverityHigh, is.Severity)
	}
}

func TestDataFlowPassUndocumentedSheet(t *testing.T) {
	in := buildInput(t, testKB(), map[string]string{
		"Sync.js": `var known = ss.getSheetByName('Prospects');
var rogue = ss.getSheetByName('ScratchPad');
`,
	})
	issues := DataFlowPass{}.Check(in)
	require.Len(t, issues, 1)
	assert.Contains(t, issues[0].Message, "ScratchPad")
	assert.Equal(t, 2, issues[0].Line)
}

func TestDataFlowPassRequiredColumns(t *testing.T) {
	kb := knowledge.NewBase()
	kb.ApplySchemaRows([]knowledge.SchemaRow{
		{Object: "Prospects", Label: "Company ID"},
		{Object: "Prospects", Label: "Company Name"},
	})
	in := buildInput(t, kb, map[string]string{})

	issues := DataFlowPass{}.Check(in)
	require.Len(t, issues, 1)
	assert.Equal(t, issue.SeverityHigh, issues[0].Severity)
	assert.Contains(t, issues[0].Message, "Contact Status")
}

func TestEngineDeterministicAndSorted(t *testing.T) {
	sources := map[string]string{
		"OutreachLogic.js": `var status = 'Not Contacted';
var out = eval(x);
`,
		"Sync.js": "var idx = headers['CompanyNam'];\n",
	}
	engine := NewEngine(nil)

	first, err := engine.Run(context.Background(), buildInput(t, testKB(), sources))
	require.NoError(t, err)
	second, err := engine.Run(context.Background(), buildInput(t, testKB(), sources))
	require.NoError(t, err)

	assert.Equal(t, first, second)
	require.NotEmpty(t, first)
	for i := 1; i < len(first); i++ {
		assert.LessOrEqual(t, int(first[i-1].Severity), int(first[i].Severity))
	}
}

func TestEngineHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewEngine(nil).Run(ctx, buildInput(t, testKB(), nil))
	assert.Error(t, err)
}
