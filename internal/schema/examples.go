package schema

// ExampleQuery is a worked query pattern embedded in the SQL generation
// prompt. Templates keep {klaviyo_ids}, {start_date}, {end_date} and {limit}
// as literal placeholders; the model substitutes real values.
type ExampleQuery struct {
	Name        string
	Description string
	Table       string
	SQL         string
}

// ExampleQueries lists one worked example per table family, in prompt order.
var ExampleQueries = []ExampleQuery{
	{
		Name:        "CAMPAIGN_PERFORMANCE",
		Description: "Top campaigns by revenue",
		Table:       TableCampaignStatistics,
		SQL: `SELECT
  campaign_name,
  send_channel,
  SUM(conversion_value) as total_revenue,
  SUM(recipients) as total_recipients,
  SUM(conversions) as total_conversions,
  AVG(open_rate) / 100.0 as avg_open_rate,
  AVG(click_rate) / 100.0 as avg_click_rate
FROM campaign_statistics
WHERE klaviyo_public_id IN ({klaviyo_ids})
  AND date >= {start_date}
  AND date <= {end_date}
GROUP BY campaign_name, send_channel
ORDER BY total_revenue DESC
LIMIT {limit}`,
	},
	{
		Name:        "DAILY_METRICS",
		Description: "Daily account metrics",
		Table:       TableAccountMetricsDaily,
		SQL: `SELECT
  date,
  total_revenue,
  total_orders,
  avg_order_value,
  unique_customers,
  new_customers,
  returning_customers
FROM account_metrics_daily
WHERE klaviyo_public_id IN ({klaviyo_ids})
  AND date >= {start_date}
  AND date <= {end_date}
ORDER BY date ASC
LIMIT 100`,
	},
	{
		Name:        "BUYER_SEGMENTS",
		Description: "Buyer segment analysis",
		Table:       TableBuyerSegments,
		SQL: `SELECT
  buyer_segment,
  customer_count,
  total_revenue,
  avg_order_value,
  avg_ltv,
  pct_of_customers,
  pct_of_revenue,
  avg_days_between_orders
FROM buyer_segments_analysis
WHERE klaviyo_public_id IN ({klaviyo_ids})
ORDER BY total_revenue DESC
LIMIT 100`,
	},
	{
		Name:        "PRODUCT_PERFORMANCE",
		Description: "Top performing products",
		Table:       TableProductsMaster,
		SQL: `SELECT
  product_name,
  product_brand,
  total_revenue,
  total_orders,
  unique_customers,
  avg_price
FROM products_master
WHERE klaviyo_public_id IN ({klaviyo_ids})
ORDER BY total_revenue DESC
LIMIT {limit}`,
	},
	{
		Name:        "FIRST_PURCHASE_LTV",
		Description: "LTV by first purchase product",
		Table:       TableFirstPurchaseLTV,
		SQL: `SELECT
  first_product_name,
  first_product_category,
  customers_acquired,
  avg_first_order_value,
  avg_ltv_30d,
  avg_ltv_90d,
  avg_ltv_365d,
  repeat_purchase_rate_30d,
  avg_days_to_second_order
FROM first_purchase_ltv_analysis
WHERE klaviyo_public_id IN ({klaviyo_ids})
ORDER BY avg_ltv_365d DESC
LIMIT {limit}`,
	},
}
