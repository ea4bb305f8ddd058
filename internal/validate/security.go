package validate

import (
	"regexp"
	"strings"

	"github.com/kyletbuzbee/K-L-Recycling-Outreach/internal/issue"
)

var (
	evalRE          = regexp.MustCompile(`(?i)\beval\s*\(`)
	documentWriteRE = regexp.MustCompile(`(?i)document\.write\s*\(`)
	insecureURLRE   = regexp.MustCompile(`(?i)http://`)
	loopbackRE      = regexp.MustCompile(`(?i)^(localhost|127\.0\.0\.1)`)
	innerHTMLRE     = regexp.MustCompile(`(?i)\.innerHTML\s*=\s*[^=]`)
	innerHTMLClear  = regexp.MustCompile(`\.innerHTML\s*=\s*['"]\s*['"]`)
	sanitizerDefRE  = regexp.MustCompile(`function\s+sanitizeHtml|sanitizeHtml\s*=`)
)

// SecurityPass scans raw text for dynamic evaluation, unsanitized HTML
// injection, and non-secure transport.
type SecurityPass struct{}

func (SecurityPass) Name() string { return "security" }

func (p SecurityPass) Check(in *Input) []issue.Issue {
	var out []issue.Issue
	for _, sf := range in.Files {
		content := in.text(sf.RelPath)
		out = append(out, p.checkPattern(sf.RelPath, content, evalRE,
			issue.SeverityCritical, "Use of eval() is dangerous")...)
		out = append(out, p.checkPattern(sf.RelPath, content, documentWriteRE,
			issue.SeverityMedium, "document.write is deprecated and can be unsafe")...)
		out = append(out, p.checkInsecureURLs(sf.RelPath, content)...)
		out = append(out, p.checkInnerHTML(sf.RelPath, content)...)
	}
	return out
}

func (p SecurityPass) checkPattern(relPath, content string, re *regexp.Regexp, sev issue.Severity, msg string) []issue.Issue {
	var out []issue.Issue
	for _, m := range re.FindAllStringIndex(content, -1) {
		line := strings.Count(content[:m[0]], "\n") + 1
		out = append(out, issue.New(
			relPath, line,
			sev, issue.CategorySecurity,
			msg,
			lineAt(content, line),
			"Review and use safer alternatives",
		))
	}
	return out
}

func (p SecurityPass) checkInsecureURLs(relPath, content string) []issue.Issue {
	var out []issue.Issue
	for _, m := range insecureURLRE.FindAllStringIndex(content, -1) {
		rest := content[m[1]:]
		if loopbackRE.MatchString(rest) {
			continue
		}
		line := strings.Count(content[:m[0]], "\n") + 1
		out = append(out, issue.New(
			relPath, line,
			issue.SeverityMedium, issue.CategorySecurity,
			"Non-HTTPS URL detected",
			lineAt(content, line),
			"Use https:// for all external endpoints",
		))
	}
	return out
}

// checkInnerHTML flags direct innerHTML assignment unless the same line
// sanitizes or merely clears, or the file defines a sanitizer anywhere.
func (p SecurityPass) checkInnerHTML(relPath, content string) []issue.Issue {
	if sanitizerDefRE.MatchString(content) {
		return nil
	}
	var out []issue.Issue
	for _, m := range innerHTMLRE.FindAllStringIndex(content, -1) {
		line := strings.Count(content[:m[0]], "\n") + 1
		lineText := lineAt(content, line)
		if strings.Contains(lineText, "sanitizeHtml") || innerHTMLClear.MatchString(lineText) {
			continue
		}
		out = append(out, issue.New(
			relPath, line,
			issue.SeverityMedium, issue.CategorySecurity,
			"innerHTML assignment - verify sanitization",
			lineText,
			"Ensure content is sanitized with sanitizeHtml() before assignment",
		))
	}
	return out
}
