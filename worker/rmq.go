package worker

import (
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
	"github.com/streadway/amqp"

	"text2phenotype.com/gst/rmq"
)

type rmqTransactions interface {
	pingSequencer(task *Task) error
	acknowledgeDelivery(delivery *amqp.Delivery) error
	rejectDelivery(delivery *amqp.Delivery, gstLogger *zerolog.Logger)
	deliveries() <-chan amqp.Delivery
	requestErrors() <-chan *amqp.Error
	responseErrors() <-chan *amqp.Error
	close()
}

// sequencerReply hands a corpus task back to the sequencer together with
// where its result was stored, so the sequencer does not have to read the
// task document to route the job.
type sequencerReply struct {
	Message
	CorpusID       string `json:"corpus_id"`
	ResultsFileKey string `json:"results_file_key,omitempty"`
	CorpusHash     string `json:"corpus_hash,omitempty"`
	CacheHit       bool   `json:"cache_hit,omitempty"`
}

type rmqClientWrapper struct {
	rmqClient *rmq.Client
}

func (wrapper *rmqClientWrapper) close() {
	wrapper.rmqClient.Close()
}

func (wrapper *rmqClientWrapper) deliveries() <-chan amqp.Delivery {
	return wrapper.rmqClient.Deliveries
}

func (wrapper *rmqClientWrapper) requestErrors() <-chan *amqp.Error {
	return wrapper.rmqClient.ReqChanErrors
}

func (wrapper *rmqClientWrapper) responseErrors() <-chan *amqp.Error {
	return wrapper.rmqClient.RespChanErrors
}

func (wrapper *rmqClientWrapper) pingSequencer(task *Task) error {
	publishing, err := sequencerPublishing(task)
	if err != nil {
		return err
	}
	task.gstLogger.Debug().
		Str("correlation_id", publishing.CorrelationId).
		Bool("cache_hit", task.cacheHit).
		Msg("Replying to sequencer")
	return wrapper.rmqClient.SendMessageToSequencer(publishing)
}

// sequencerPublishing builds the reply to the delivery task came from. A task
// that did not run (skipped, cancelled, failed) carries no result fields.
func sequencerPublishing(task *Task) (amqp.Publishing, error) {
	reply := sequencerReply{
		Message:        *task.message,
		CorpusID:       task.corpusTask.CorpusID,
		ResultsFileKey: task.resultsFileKey,
		CacheHit:       task.cacheHit,
	}
	reply.Sender = sender
	if task.resultsFileKey != "" {
		reply.CorpusHash = formatHash(task.corpusHash)
	}
	body, err := json.Marshal(reply)
	if err != nil {
		return amqp.Publishing{}, err
	}

	publishing := amqp.Publishing{
		ContentType: "application/json",
		Timestamp:   time.Now().UTC(),
		Body:        body,
	}
	if task.delivery != nil {
		publishing.CorrelationId = task.delivery.MessageId
	}
	return publishing, nil
}

func (wrapper *rmqClientWrapper) acknowledgeDelivery(delivery *amqp.Delivery) error {
	return delivery.Ack(false)
}

// rejectDelivery requeues a delivery seen for the first time and drops one
// that was already redelivered.
func (wrapper *rmqClientWrapper) rejectDelivery(delivery *amqp.Delivery, gstLogger *zerolog.Logger) {
	requeue := !delivery.Redelivered
	gstLogger.Info().Bool("requeue", requeue).Msg("Rejecting delivery")
	if err := delivery.Reject(requeue); err != nil {
		gstLogger.Err(err).Bool("requeue", requeue).Msg("Failed to reject delivery")
	}
}
