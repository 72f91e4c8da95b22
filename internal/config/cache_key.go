package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// SchemeKey returns the cache key for a stored grading scheme
func (r *CacheKeyStruct) SchemeKey(schemeID string) string {
	return fmt.Sprintf("scheme:%s", schemeID)
}

// TestStructureKey returns the cache key for a test's answer key and group layout
func (r *CacheKeyStruct) TestStructureKey(testID string) string {
	return fmt.Sprintf("test:%s:structure", testID)
}

// TestResultsChannel returns the Redis PubSub channel name for a test's live results
func (r *CacheKeyStruct) TestResultsChannel(testID string) string {
	return fmt.Sprintf("test:%s:results", testID)
}

// LoginAttemptsKey returns the rate limit counter key for a client IP
func (r *CacheKeyStruct) LoginAttemptsKey(ip string) string {
	return fmt.Sprintf("ratelimit:login:%s", ip)
}

var CacheKey = NewCacheKeyStruct()
