package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// CheckoutTotal counts checkout attempts by outcome.
	CheckoutTotal *prometheus.CounterVec
	// CheckoutLines records the number of priced lines per successful checkout.
	CheckoutLines prometheus.Histogram
	// DiscountsTotal counts discounts granted by offer type.
	DiscountsTotal *prometheus.CounterVec
	// CatalogCacheTotal counts price cache lookups by result.
	CatalogCacheTotal *prometheus.CounterVec
	// ReceiptPrintTotal counts receipt print task outcomes.
	ReceiptPrintTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers checkout Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		CheckoutTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_total",
			Help:      "Count of checkout attempts by outcome.",
		}, []string{"result"})
		CheckoutLines = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "checkout_lines",
			Help:      "Priced lines per completed checkout.",
			Buckets:   []float64{1, 2, 5, 10, 25, 50, 100},
		})
		DiscountsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "discounts_total",
			Help:      "Count of discounts granted by offer type.",
		}, []string{"offer_type"})
		CatalogCacheTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_cache_total",
			Help:      "Price cache lookups by result.",
		}, []string{"result"})
		ReceiptPrintTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "receipt_print_total",
			Help:      "Receipt print task outcomes.",
		}, []string{"result"})

		mustRegisterCollector(reg, CheckoutTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				CheckoutTotal = v
			}
		})
		mustRegisterCollector(reg, CheckoutLines, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Histogram); ok {
				CheckoutLines = v
			}
		})
		mustRegisterCollector(reg, DiscountsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				DiscountsTotal = v
			}
		})
		mustRegisterCollector(reg, CatalogCacheTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				CatalogCacheTotal = v
			}
		})
		mustRegisterCollector(reg, ReceiptPrintTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				ReceiptPrintTotal = v
			}
		})
	})
}

// ObserveCheckout records a checkout outcome and, on success, its line count.
func ObserveCheckout(result string, lines int) {
	if CheckoutTotal != nil {
		CheckoutTotal.WithLabelValues(result).Inc()
	}
	if result == "ok" && CheckoutLines != nil {
		CheckoutLines.Observe(float64(lines))
	}
}

// ObserveDiscount records one granted discount.
func ObserveDiscount(offerType string) {
	if DiscountsTotal != nil {
		DiscountsTotal.WithLabelValues(offerType).Inc()
	}
}

// ObserveCatalogCache records a price cache lookup result.
func ObserveCatalogCache(result string) {
	if CatalogCacheTotal != nil {
		CatalogCacheTotal.WithLabelValues(result).Inc()
	}
}

// ObserveReceiptPrint records a print task outcome.
func ObserveReceiptPrint(result string) {
	if ReceiptPrintTotal != nil {
		ReceiptPrintTotal.WithLabelValues(result).Inc()
	}
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register domain metric: %w", err))
	}
}
