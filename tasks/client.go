package tasks

import (
	"fmt"

	"text2phenotype.com/gst/redis"
)

type Client struct {
	Corpora CorpusTasks
	Jobs    JobTasks
	Results ResultCache
}

// NewClient is a preferred way for working with TaskInfos
func NewClient() (Client, error) {
	jobsRedisClient, err := redis.NewClient(JobsDB)
	if err != nil {
		return Client{}, err
	}
	corporaRedisClient, err := redis.NewClient(CorporaDB)
	if err != nil {
		_ = jobsRedisClient.Close()
		return Client{}, err
	}
	resultsRedisClient, err := redis.NewClient(ResultsDB)
	if err != nil {
		_ = jobsRedisClient.Close()
		_ = corporaRedisClient.Close()
		return Client{}, err
	}
	return Client{
		Corpora: CorpusTasks{client: corporaRedisClient},
		Jobs:    JobTasks{client: jobsRedisClient},
		Results: ResultCache{client: resultsRedisClient},
	}, nil
}

func (client *Client) Close() {
	_ = client.Corpora.client.Close()
	_ = client.Jobs.client.Close()
	_ = client.Results.client.Close()
}

func cachedPropertiesKey(redisKey string) string {
	return fmt.Sprintf("%s-cached-properties", redisKey)
}
