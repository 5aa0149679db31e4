package tasks

import (
	"strconv"
	"time"

	"text2phenotype.com/gst/redis"
)

const ResultsDB redis.DB = 3

// ResultTTL bounds how long an identical corpus reuses a stored result.
const ResultTTL = 7 * 24 * time.Hour

// ResultCache maps a corpus hash to the S3 key of its result file.
type ResultCache struct {
	client redis.Client
}

func resultKey(hash uint64) string {
	return "gst-result-" + strconv.FormatUint(hash, 16)
}

func (cache ResultCache) Get(hash uint64) (string, bool, error) {
	return cache.client.GetString(resultKey(hash))
}

func (cache ResultCache) Put(hash uint64, resultsFileKey string) error {
	return cache.client.SetString(resultKey(hash), resultsFileKey, ResultTTL)
}
