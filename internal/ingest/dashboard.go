package ingest

import (
	"encoding/json"
	"fmt"

	"github.com/Sandroisu/ai-code-risk-analyzer/internal/metrics"
	"github.com/Sandroisu/ai-code-risk-analyzer/schema"
	"github.com/tidwall/gjson"
)

// KindRiskRecord labels skipped dashboard entries.
const KindRiskRecord = "risk_record"

// ParseDashboard reads a dashboard document back into risk records. Both the
// {"prs": [...]} document and a bare array of records are accepted. Entries
// without a positive number are skipped.
func ParseDashboard(data []byte, rec *metrics.Recorder) (schema.Dashboard, error) {
	doc := gjson.ParseBytes(data)
	var dash schema.Dashboard
	list := doc
	if doc.IsObject() {
		dash.Profile = schema.WeightProfile(doc.Get("profile").String())
		list = doc.Get("prs")
	}
	if !list.IsArray() {
		return dash, fmt.Errorf("dashboard must be a JSON array or an object with a prs array")
	}

	i := -1
	list.ForEach(func(_, item gjson.Result) bool {
		i++
		var r schema.RiskRecord
		if err := json.Unmarshal([]byte(item.Raw), &r); err != nil {
			skip(rec, KindRiskRecord, i, err)
			return true
		}
		if r.Number <= 0 {
			skip(rec, KindRiskRecord, i, fmt.Errorf("missing number"))
			return true
		}
		dash.PRs = append(dash.PRs, r)
		return true
	})
	return dash, nil
}
