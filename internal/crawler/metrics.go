package crawler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PagesFetched counts pages retrieved successfully.
	PagesFetched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bookharvest_pages_fetched_total",
		Help: "The total number of pages fetched successfully.",
	})
	// FetchErrors counts fetches that failed after exhausting retries.
	FetchErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bookharvest_fetch_errors_total",
		Help: "The total number of fetches that failed after retries.",
	})
	// FetchRetries counts individual retry attempts.
	FetchRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bookharvest_fetch_retries_total",
		Help: "The total number of fetch retry attempts.",
	})
	// RecordsUpserted counts records written to the sink.
	RecordsUpserted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bookharvest_records_upserted_total",
		Help: "The total number of records upserted into the sink.",
	})
	// RecordsSkipped counts records dropped for recoverable parse gaps.
	RecordsSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bookharvest_records_skipped_total",
		Help: "The total number of records skipped due to missing data or unreachable pages.",
	})
	// RecordsFailed counts records rejected by validation or the sink.
	RecordsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bookharvest_records_failed_total",
		Help: "The total number of records rejected as malformed or unpersistable.",
	})
)
