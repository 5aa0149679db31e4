package worker

import (
	"text2phenotype.com/gst/s3client"
)

type s3Transactions interface {
	saveResultsFile(task *Task, result string) error
	getCorpusText(task *Task) ([]byte, error)
	close()
}

type s3ClientWrapper struct {
	s3Client *s3client.Client
}

func (wrapper *s3ClientWrapper) close() {
	wrapper.s3Client.Close()
}

func (wrapper *s3ClientWrapper) saveResultsFile(task *Task, result string) error {
	location, err := wrapper.s3Client.Upload([]byte(result), getResultsFileKey(task), s3client.ContentTypeJSON)
	if err != nil {
		return err
	}
	task.gstLogger.Debug().Str("location", location).Msg("Uploaded results")
	return nil
}

func (wrapper *s3ClientWrapper) getCorpusText(task *Task) ([]byte, error) {
	return wrapper.s3Client.Download(task.corpusTask.TextFileKey)
}
