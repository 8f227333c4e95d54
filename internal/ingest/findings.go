package ingest

import (
	"bufio"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Sandroisu/ai-code-risk-analyzer/internal/metrics"
	"github.com/Sandroisu/ai-code-risk-analyzer/schema"
	"github.com/tidwall/gjson"
)

// Tool names stamped on parsed findings.
const (
	DetektTool = "detekt"
	KtlintTool = "ktlint"
)

// ParseFindings decodes a JSON array of findings as written by the findings
// command. Objects missing file or tool are skipped; is_new defaults to true.
func ParseFindings(data []byte, rec *metrics.Recorder) ([]schema.Finding, error) {
	doc := gjson.ParseBytes(data)
	if !doc.IsArray() {
		return nil, fmt.Errorf("findings must be a JSON array")
	}
	var out []schema.Finding
	i := -1
	doc.ForEach(func(_, item gjson.Result) bool {
		i++
		if !item.IsObject() {
			skip(rec, KindFinding, i, fmt.Errorf("not an object"))
			return true
		}
		file := item.Get("file").String()
		tool := item.Get("tool").String()
		if file == "" || tool == "" {
			skip(rec, KindFinding, i, fmt.Errorf("missing file or tool"))
			return true
		}
		isNew := true
		if v := item.Get("is_new"); v.Exists() {
			isNew = v.Bool()
		}
		out = append(out, schema.Finding{
			Tool:     tool,
			Rule:     item.Get("rule").String(),
			Severity: schema.NormalizeSeverity(item.Get("severity").String()),
			File:     file,
			Line:     int(item.Get("line").Int()),
			RID:      item.Get("rid").String(),
			IsNew:    isNew,
		})
		return true
	})
	return out, nil
}

// ParseKtlint reads ktlint output. Both the JSON-lines shape (one finding per
// line with file, line, rule|ruleId, severity) and ktlint's json reporter shape
// ([{file, errors: [{line, rule}]}]) are accepted. Every ktlint finding is new.
func ParseKtlint(data []byte, rec *metrics.Recorder) []schema.Finding {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' && gjson.ValidBytes(trimmed) {
		return parseKtlintReport(gjson.ParseBytes(trimmed))
	}

	var out []schema.Finding
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	i := -1
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		i++
		if !gjson.Valid(line) {
			skip(rec, KindFinding, i, fmt.Errorf("unparsable ktlint line"))
			continue
		}
		obj := gjson.Parse(line)
		if !obj.IsObject() {
			skip(rec, KindFinding, i, fmt.Errorf("not an object"))
			continue
		}
		out = append(out, ktlintFinding(obj.Get("file").String(), obj))
	}
	return out
}

func parseKtlintReport(doc gjson.Result) []schema.Finding {
	var out []schema.Finding
	doc.ForEach(func(_, file gjson.Result) bool {
		name := file.Get("file").String()
		file.Get("errors").ForEach(func(_, e gjson.Result) bool {
			out = append(out, ktlintFinding(name, e))
			return true
		})
		return true
	})
	return out
}

func ktlintFinding(file string, obj gjson.Result) schema.Finding {
	rule := obj.Get("rule").String()
	if rule == "" {
		rule = obj.Get("ruleId").String()
	}
	if rule == "" {
		rule = KtlintTool
	}
	severity := schema.NormalizeSeverity(obj.Get("severity").String())
	if severity == "" {
		severity = schema.SeverityMinor
	}
	line := int(obj.Get("line").Int())
	return schema.Finding{
		Tool:     KtlintTool,
		Rule:     rule,
		Severity: severity,
		File:     file,
		Line:     line,
		RID:      fmt.Sprintf("%s:%s:%d", file, rule, line),
		IsNew:    true,
	}
}

type checkstyleReport struct {
	Files []checkstyleFile `xml:"file"`
}

type checkstyleFile struct {
	Name   string            `xml:"name,attr"`
	Errors []checkstyleError `xml:"error"`
}

type checkstyleError struct {
	Line     string `xml:"line,attr"`
	Severity string `xml:"severity,attr"`
	Source   string `xml:"source,attr"`
	Rule     string `xml:"rule,attr"`
	ID       string `xml:"id,attr"`
}

// ParseDetekt reads a detekt checkstyle XML report. Findings whose id is listed
// in the baseline are marked as not new.
func ParseDetekt(report []byte, baseline map[string]struct{}, rec *metrics.Recorder) ([]schema.Finding, error) {
	var doc checkstyleReport
	if err := xml.Unmarshal(report, &doc); err != nil {
		return nil, fmt.Errorf("invalid detekt report: %w", err)
	}
	var out []schema.Finding
	i := -1
	for _, f := range doc.Files {
		for _, e := range f.Errors {
			i++
			line := 0
			if e.Line != "" {
				n, err := strconv.Atoi(strings.TrimSpace(e.Line))
				if err != nil || n < 0 {
					skip(rec, KindFinding, i, fmt.Errorf("bad line %q", e.Line))
					continue
				}
				line = n
			}
			rule := e.Source
			if rule == "" {
				rule = e.Rule
			}
			severity := schema.NormalizeSeverity(e.Severity)
			if severity == "" {
				severity = schema.SeverityMinor
			}
			rid := e.ID
			if rid == "" {
				rid = fmt.Sprintf("%s:%s:%d", f.Name, rule, line)
			}
			_, known := baseline[rid]
			out = append(out, schema.Finding{
				Tool:     DetektTool,
				Rule:     rule,
				Severity: severity,
				File:     f.Name,
				Line:     line,
				RID:      rid,
				IsNew:    !known,
			})
		}
	}
	return out, nil
}

// ParseBaseline collects the text of every <ID> element of a detekt baseline.
func ParseBaseline(data []byte) (map[string]struct{}, error) {
	ids := make(map[string]struct{})
	dec := xml.NewDecoder(bytes.NewReader(data))
	inID := false
	var text strings.Builder
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return ids, nil
		}
		if err != nil {
			return nil, fmt.Errorf("invalid detekt baseline: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "ID" {
				inID = true
				text.Reset()
			}
		case xml.CharData:
			if inID {
				text.Write(t)
			}
		case xml.EndElement:
			if t.Name.Local == "ID" && inID {
				ids[strings.TrimSpace(text.String())] = struct{}{}
				inID = false
			}
		}
	}
}
