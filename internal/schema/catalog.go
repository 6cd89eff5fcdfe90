// Package schema holds the static catalog of warehouse tables available to
// the SQL generator, plus the keyword-based table relevance selector.
// The catalog is immutable after process start.
package schema

// Table name constants for the analytics warehouse (ClickHouse)
const (
	TableAccountMetricsDaily    = "account_metrics_daily"
	TableCampaignStatistics     = "campaign_statistics"
	TableFlowStatistics         = "flow_statistics"
	TableCustomerProfiles       = "customer_profiles"
	TableBuyerSegments          = "buyer_segments_analysis"
	TableProductsMaster         = "products_master"
	TableFirstPurchaseLTV       = "first_purchase_ltv_analysis"
	TableSegmentStatistics      = "segment_statistics"
	TableKlaviyoOrders          = "klaviyo_orders"
	TableDiscountUsageAnalytics = "discount_usage_analytics"
)

// Column describes a single warehouse column.
type Column struct {
	Name        string
	Type        string
	Description string
}

// Table describes one warehouse table: columns, required tenant filters,
// the date column used for time filtering, and rate columns stored on the
// 0-10000 integer scale (0-100.00%).
type Table struct {
	Name            string
	Description     string
	Columns         []Column
	RequiredFilters []string
	DateColumn      string
	RateColumns     []string
}

// TableNames lists every catalog table in a stable order.
var TableNames = []string{
	TableAccountMetricsDaily,
	TableCampaignStatistics,
	TableFlowStatistics,
	TableCustomerProfiles,
	TableBuyerSegments,
	TableProductsMaster,
	TableFirstPurchaseLTV,
	TableSegmentStatistics,
	TableKlaviyoOrders,
	TableDiscountUsageAnalytics,
}

// Lookup returns the schema for a table name.
func Lookup(name string) (Table, bool) {
	t, ok := catalog[name]
	return t, ok
}

// AllTables returns every table name in catalog order.
func AllTables() []string {
	out := make([]string, len(TableNames))
	copy(out, TableNames)
	return out
}

var catalog = map[string]Table{
	TableAccountMetricsDaily: {
		Name:        TableAccountMetricsDaily,
		Description: "Daily aggregated account metrics across all channels",
		Columns: []Column{
			{"date", "Date", "Metric date"},
			{"klaviyo_public_id", "String", "Klaviyo account ID"},
			{"store_public_ids", "Array(String)", "Associated store IDs"},
			{"total_orders", "UInt32", "Total orders"},
			{"total_revenue", "Float64", "Total revenue"},
			{"avg_order_value", "Float64", "Average order value"},
			{"unique_customers", "UInt32", "Unique customers"},
			{"new_customers", "UInt32", "New customers"},
			{"returning_customers", "UInt32", "Returning customers"},
			{"campaigns_sent", "UInt32", "Campaigns sent"},
			{"campaign_recipients", "UInt32", "Campaign recipients"},
			{"campaign_revenue", "Float64", "Campaign revenue"},
			{"flow_revenue", "Float64", "Flow revenue"},
			{"email_revenue", "Float64", "Email revenue"},
			{"sms_revenue", "Float64", "SMS revenue"},
			{"email_recipients", "UInt32", "Email recipients"},
			{"sms_recipients", "UInt32", "SMS recipients"},
			{"email_opens", "Int32", "Email opens"},
			{"email_clicks", "UInt32", "Email clicks"},
			{"sms_clicks", "UInt32", "SMS clicks"},
		},
		RequiredFilters: []string{"klaviyo_public_id"},
		DateColumn:      "date",
	},

	TableCampaignStatistics: {
		Name:        TableCampaignStatistics,
		Description: "Campaign performance statistics by date and campaign",
		Columns: []Column{
			{"date", "Date", "Campaign date"},
			{"klaviyo_public_id", "String", "Klaviyo account ID"},
			{"campaign_id", "String", "Campaign ID"},
			{"campaign_name", "String", "Campaign name"},
			{"campaign_message_id", "String", "Campaign message ID"},
			{"send_channel", "String", "Send channel (email, sms, push)"},
			{"store_public_ids", "Array(String)", "Associated store IDs"},
			{"recipients", "UInt32", "Recipients"},
			{"delivered", "UInt32", "Delivered"},
			{"opens", "UInt32", "Opens (total)"},
			{"opens_unique", "UInt32", "Unique opens"},
			{"clicks", "UInt32", "Clicks (total)"},
			{"clicks_unique", "UInt32", "Unique clicks"},
			{"conversions", "UInt32", "Conversions"},
			{"conversion_value", "Float64", "Conversion value"},
			{"average_order_value", "Float64", "Average order value"},
			{"revenue_per_recipient", "Float64", "Revenue per recipient"},
			{"delivery_rate", "UInt16", "Delivery rate (0-10000 = 0-100%)"},
			{"open_rate", "UInt16", "Open rate (0-10000 = 0-100%)"},
			{"click_rate", "UInt16", "Click rate (0-10000 = 0-100%)"},
			{"click_to_open_rate", "UInt16", "CTOR (0-10000 = 0-100%)"},
			{"conversion_rate", "UInt16", "Conversion rate (0-10000 = 0-100%)"},
			{"bounce_rate", "UInt16", "Bounce rate (0-10000 = 0-100%)"},
			{"unsubscribe_rate", "UInt16", "Unsubscribe rate (0-10000 = 0-100%)"},
			{"spam_complaint_rate", "UInt16", "Spam rate (0-10000 = 0-100%)"},
			{"bounced", "UInt32", "Bounced"},
			{"unsubscribes", "UInt32", "Unsubscribes"},
			{"spam_complaints", "UInt32", "Spam complaints"},
			{"tag_names", "Array(String)", "Campaign tags"},
		},
		RequiredFilters: []string{"klaviyo_public_id"},
		DateColumn:      "date",
		RateColumns: []string{
			"delivery_rate", "open_rate", "click_rate", "click_to_open_rate",
			"conversion_rate", "bounce_rate", "unsubscribe_rate", "spam_complaint_rate",
		},
	},

	TableFlowStatistics: {
		Name:        TableFlowStatistics,
		Description: "Flow (automation) performance statistics",
		Columns: []Column{
			{"date", "Date", "Flow date"},
			{"klaviyo_public_id", "String", "Klaviyo account ID"},
			{"flow_id", "String", "Flow ID"},
			{"flow_name", "String", "Flow name"},
			{"flow_message_id", "String", "Flow message ID"},
			{"flow_message_name", "String", "Flow message name"},
			{"send_channel", "String", "Send channel (email, sms, push)"},
			{"store_public_ids", "Array(String)", "Associated store IDs"},
			{"recipients", "UInt32", "Recipients"},
			{"delivered", "UInt32", "Delivered"},
			{"opens_unique", "UInt32", "Unique opens"},
			{"clicks_unique", "UInt32", "Unique clicks"},
			{"conversions", "UInt32", "Conversions"},
			{"conversion_value", "Float64", "Conversion value"},
			{"average_order_value", "Float64", "Average order value"},
			{"revenue_per_recipient", "Float64", "Revenue per recipient"},
			{"open_rate", "Float64", "Open rate (decimal)"},
			{"click_rate", "Float64", "Click rate (decimal)"},
			{"conversion_rate", "Float64", "Conversion rate (decimal)"},
			{"tag_names", "Array(String)", "Flow tags"},
		},
		RequiredFilters: []string{"klaviyo_public_id"},
		DateColumn:      "date",
	},

	TableCustomerProfiles: {
		Name:        TableCustomerProfiles,
		Description: "Customer profiles with RFM segmentation",
		Columns: []Column{
			{"klaviyo_public_id", "String", "Klaviyo account ID"},
			{"customer_email", "String", "Customer email"},
			{"total_orders", "UInt32", "Total orders"},
			{"total_revenue", "Float64", "Total revenue"},
			{"avg_order_value", "Float64", "Average order value"},
			{"first_order_date", "Date", "First order date"},
			{"last_order_date", "Date", "Last order date"},
			{"days_since_last_order", "UInt32", "Days since last order"},
			{"orders_last_30_days", "UInt32", "Orders in last 30 days"},
			{"revenue_last_30_days", "Float64", "Revenue in last 30 days"},
			{"recency_score", "UInt8", "Recency score (1-5)"},
			{"frequency_score", "UInt8", "Frequency score (1-5)"},
			{"monetary_score", "UInt8", "Monetary score (1-5)"},
			{"rfm_segment", "String", "RFM segment"},
			{"favorite_product", "String", "Favorite product"},
			{"favorite_category", "String", "Favorite category"},
			{"favorite_brand", "String", "Favorite brand"},
		},
		RequiredFilters: []string{"klaviyo_public_id"},
	},

	TableBuyerSegments: {
		Name:        TableBuyerSegments,
		Description: "Buyer segments analysis (1x, 2x, 3x+ buyers)",
		Columns: []Column{
			{"klaviyo_public_id", "String", "Klaviyo account ID"},
			{"buyer_segment", "String", "Buyer segment (1x, 2x, 3x+)"},
			{"customer_count", "UInt32", "Customer count"},
			{"total_revenue", "Float64", "Total revenue"},
			{"avg_order_value", "Float64", "Average order value"},
			{"avg_ltv", "Float64", "Average LTV"},
			{"pct_of_customers", "Float64", "Percentage of customers"},
			{"pct_of_revenue", "Float64", "Percentage of revenue"},
			{"avg_days_between_orders", "Float64", "Average days between orders"},
		},
		RequiredFilters: []string{"klaviyo_public_id"},
	},

	TableProductsMaster: {
		Name:        TableProductsMaster,
		Description: "Product catalog with performance metrics",
		Columns: []Column{
			{"klaviyo_public_id", "String", "Klaviyo account ID"},
			{"product_id", "String", "Product ID"},
			{"product_name", "String", "Product name"},
			{"sku", "String", "SKU"},
			{"product_brand", "String", "Product brand"},
			{"product_categories", "Array(String)", "Product categories"},
			{"store_public_ids", "Array(String)", "Associated store IDs"},
			{"total_revenue", "Float64", "Total revenue"},
			{"total_orders", "UInt32", "Total orders"},
			{"unique_customers", "UInt32", "Unique customers"},
			{"avg_price", "Float64", "Average price"},
			{"first_sold_date", "Date", "First sold date"},
			{"last_sold_date", "Date", "Last sold date"},
		},
		RequiredFilters: []string{"klaviyo_public_id"},
	},

	TableFirstPurchaseLTV: {
		Name:        TableFirstPurchaseLTV,
		Description: "LTV analysis by first purchase product",
		Columns: []Column{
			{"klaviyo_public_id", "String", "Klaviyo account ID"},
			{"first_product_id", "String", "First product ID"},
			{"first_product_name", "String", "First product name"},
			{"first_product_category", "String", "First product category"},
			{"first_product_brand", "String", "First product brand"},
			{"cohort_month", "Date", "Cohort month"},
			{"customers_acquired", "UInt32", "Customers acquired"},
			{"avg_first_order_value", "Float64", "Average first order value"},
			{"avg_ltv_30d", "Float64", "Average LTV at 30 days"},
			{"avg_ltv_90d", "Float64", "Average LTV at 90 days"},
			{"avg_ltv_365d", "Float64", "Average LTV at 365 days"},
			{"avg_ltv_lifetime", "Float64", "Average lifetime LTV"},
			{"repeat_purchase_rate_30d", "Float64", "Repeat purchase rate at 30 days"},
			{"repeat_purchase_rate_90d", "Float64", "Repeat purchase rate at 90 days"},
			{"avg_days_to_second_order", "Float64", "Average days to second order"},
		},
		RequiredFilters: []string{"klaviyo_public_id"},
	},

	TableSegmentStatistics: {
		Name:        TableSegmentStatistics,
		Description: "Segment statistics and performance",
		Columns: []Column{
			{"date", "Date", "Date"},
			{"klaviyo_public_id", "String", "Klaviyo account ID"},
			{"segment_id", "String", "Segment ID"},
			{"segment_name", "String", "Segment name"},
			{"store_public_ids", "Array(String)", "Associated store IDs"},
			{"members_count", "UInt32", "Member count"},
			{"new_members", "UInt32", "New members"},
			{"removed_members", "UInt32", "Removed members"},
			{"conversion_value", "Float64", "Conversion value"},
		},
		RequiredFilters: []string{"klaviyo_public_id"},
		DateColumn:      "date",
	},

	TableKlaviyoOrders: {
		Name:        TableKlaviyoOrders,
		Description: "Order transactions",
		Columns: []Column{
			{"klaviyo_public_id", "String", "Klaviyo account ID"},
			{"store_public_ids", "Array(String)", "Associated store IDs"},
			{"order_id", "String", "Order ID"},
			{"customer_email", "String", "Customer email"},
			{"order_value", "Float64", "Order value"},
			{"order_date", "Date", "Order date"},
			{"order_timestamp", "DateTime64(3)", "Order timestamp"},
			{"is_first_order", "UInt8", "Is first order (1=yes, 0=no)"},
			{"discount_code", "String", "Discount code"},
			{"discount_amount", "Float64", "Discount amount"},
		},
		RequiredFilters: []string{"klaviyo_public_id"},
		DateColumn:      "order_date",
	},

	TableDiscountUsageAnalytics: {
		Name:        TableDiscountUsageAnalytics,
		Description: "Discount usage and effectiveness analysis",
		Columns: []Column{
			{"klaviyo_public_id", "String", "Klaviyo account ID"},
			{"analysis_date", "Date", "Analysis date"},
			{"total_orders", "UInt32", "Total orders"},
			{"orders_with_discount", "UInt32", "Orders with discount"},
			{"discount_usage_rate", "Float64", "Discount usage rate"},
			{"avg_discount_percentage", "Float64", "Average discount percentage"},
			{"first_order_discount_rate", "Float64", "First order discount rate"},
			{"avg_ltv_with_first_discount", "Float64", "Average LTV with first discount"},
			{"avg_ltv_without_first_discount", "Float64", "Average LTV without first discount"},
		},
		RequiredFilters: []string{"klaviyo_public_id"},
		DateColumn:      "analysis_date",
	},
}
