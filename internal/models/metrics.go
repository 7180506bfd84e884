package models

import "time"

// SystemMetricsSnapshot aggregates runtime counters for the ops endpoint.
type SystemMetricsSnapshot struct {
	CacheHitRatio            float64   `json:"cacheHitRatio"`
	CacheHits                uint64    `json:"cacheHits"`
	CacheMisses              uint64    `json:"cacheMisses"`
	RequestsTotal            uint64    `json:"requestsTotal"`
	AverageRequestDurationMs float64   `json:"averageRequestDurationMs"`
	RetakeTransitionsTotal   uint64    `json:"retakeTransitionsTotal"`
	RetakeUndosTotal         uint64    `json:"retakeUndosTotal"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generatedAt"`
}
