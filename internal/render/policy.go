package render

import (
	"html"
	"html/template"
	"regexp"
	"strings"

	"travelops/internal/domain"
)

// policyBlock is one rendered policy section appended to a document.
type policyBlock struct {
	Title string
	Body  template.HTML
}

var numberedLine = regexp.MustCompile(`^\d+\.\s*`)

// looksLikeMarkup reports whether a policy text is already formatted
// markup that should pass through unchanged.
func looksLikeMarkup(text string) bool {
	t := strings.TrimSpace(text)
	return strings.HasPrefix(t, "<") && strings.HasSuffix(t, ">")
}

// formatPolicyText converts plain policy text to HTML. Lines starting
// with a bullet marker or a number become list items; everything else
// becomes a paragraph. Already-formatted markup passes through.
func formatPolicyText(text string) template.HTML {
	if text == "" {
		return ""
	}
	if looksLikeMarkup(text) {
		return template.HTML(text)
	}

	var items, out []string
	flushItems := func() {
		if len(items) > 0 {
			out = append(out, `<ul style="margin: 0; padding-left: 20px;">`+strings.Join(items, "")+`</ul>`)
			items = nil
		}
	}
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, "-") || strings.HasPrefix(trimmed, "•") || numberedLine.MatchString(trimmed) {
			item := strings.TrimSpace(strings.TrimLeft(trimmed, "-• "))
			item = numberedLine.ReplaceAllString(item, "")
			items = append(items, `<li style="margin: 5px 0; color: #555;">`+html.EscapeString(item)+`</li>`)
			continue
		}
		flushItems()
		out = append(out, `<p style="margin: 8px 0; color: #555;">`+html.EscapeString(trimmed)+`</p>`)
	}
	flushItems()
	return template.HTML(strings.Join(out, ""))
}

// policyBlocks assembles the present policy sections in their fixed
// order. Absent texts are skipped; the thank-you message is handled
// separately by the layouts.
func policyBlocks(p domain.Policies) []policyBlock {
	sections := []struct {
		title string
		text  string
	}{
		{"Remarks", p.Remarks},
		{"Terms & Conditions", p.Terms},
		{"Confirmation Policy", p.Confirmation},
		{"Cancellation Policy", p.Cancellation},
		{"Amendment Policy (Postpone & Prepone Policy)", p.Amendment},
	}
	var blocks []policyBlock
	for _, s := range sections {
		if s.text == "" {
			continue
		}
		blocks = append(blocks, policyBlock{Title: s.title, Body: formatPolicyText(s.text)})
	}
	return blocks
}
