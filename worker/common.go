package worker

import (
	"encoding/binary"
	"fmt"
	"path"
	"strconv"
	"time"

	"text2phenotype.com/gst/utils"
)

const sender = "gst"

func getResultsFileKey(task *Task) string {
	return path.Join(
		"processed",
		"corpora",
		task.corpusTask.CorpusID,
		fmt.Sprintf("%s.gst_results.json", task.redisKey),
	)
}

// corpusHash identifies a corpus text processed by a set of configurations.
func corpusHash(configsHash uint64, text []byte) uint64 {
	salt := make([]byte, 8)
	binary.LittleEndian.PutUint64(salt, configsHash)
	return utils.HashBytes(salt, text)
}

func formatHash(hash uint64) string {
	return strconv.FormatUint(hash, 16)
}

const RFC3339Micro = "2006-01-02T15:04:05.000000-07:00"

func getFormattedNow() *string {
	now := time.Now().UTC().Format(RFC3339Micro)
	return &now
}
