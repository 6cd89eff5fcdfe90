package schema

import "strings"

// keywordGroup ties a set of question keywords to the tables they imply.
// Adding a table family is a data change here, not a code change.
type keywordGroup struct {
	keywords []string
	tables   []string
}

var keywordGroups = []keywordGroup{
	{[]string{"campaign", "email", "sms"}, []string{TableCampaignStatistics}},
	{[]string{"flow", "automation"}, []string{TableFlowStatistics}},
	{[]string{"customer", "buyer"}, []string{TableCustomerProfiles, TableBuyerSegments}},
	{[]string{"product", "item", "sku"}, []string{TableProductsMaster, TableFirstPurchaseLTV}},
	{[]string{"order", "purchase", "transaction"}, []string{TableKlaviyoOrders}},
	{[]string{"revenue", "metric", "daily", "trend"}, []string{TableAccountMetricsDaily}},
	{[]string{"discount", "coupon", "promo"}, []string{TableDiscountUsageAnalytics}},
	{[]string{"segment", "list"}, []string{TableSegmentStatistics, TableBuyerSegments}},
	{[]string{"ltv", "lifetime"}, []string{TableFirstPurchaseLTV, TableBuyerSegments}},
}

// defaultTables is returned when no keyword group matches. The selector
// never returns an empty set.
var defaultTables = []string{
	TableAccountMetricsDaily,
	TableCampaignStatistics,
	TableCustomerProfiles,
}

// RelevantTables maps a free-text question to catalog tables worth including
// in the generation prompt. This is a keyword heuristic, not a classifier:
// extra tables are acceptable, an empty result is not. Duplicates are removed
// preserving first-seen order.
func RelevantTables(question string) []string {
	lower := strings.ToLower(question)

	var tables []string
	seen := make(map[string]bool)

	for _, g := range keywordGroups {
		matched := false
		for _, kw := range g.keywords {
			if strings.Contains(lower, kw) {
				matched = true
				break
			}
		}
		if !matched {
			continue
		}
		for _, t := range g.tables {
			if !seen[t] {
				seen[t] = true
				tables = append(tables, t)
			}
		}
	}

	if len(tables) == 0 {
		return append([]string(nil), defaultTables...)
	}
	return tables
}
