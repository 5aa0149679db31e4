package rmq

import (
	"fmt"
	"net/url"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
	"github.com/streadway/amqp"

	"text2phenotype.com/gst/logger"
)

type Config struct {
	Host                    string `envconfig:"MDL_COMN_RMQ_HOST" required:"true"`
	Port                    string `envconfig:"MDL_COMN_RMQ_PORT" required:"true"`
	Username                string `envconfig:"MDL_COMN_RMQ_USERNAME" required:"true"`
	Password                string `envconfig:"MDL_COMN_RMQ_PASSWORD" required:"true"`
	Exchange                string `envconfig:"MDL_COMN_RMQ_DEFAULT_EXCHANGE" default:"text2phenotype-default-exchange"`
	MaxParallelRequestCount int    `envconfig:"GST_MQ_MAX_PARALLEL_REQUESTS" default:"2"`
	GSTTaskQueue            string `envconfig:"MDL_COMN_GST_TASK_QUEUE" required:"true"`
	SequencerTaskQueue      string `envconfig:"MDL_COMN_SEQUENCER_TASK_QUEUE" required:"true"`
}

// Client consumes corpus tasks from the gst queue and answers on the
// sequencer queue. Requests and responses use separate connections.
type Client struct {
	Deliveries     <-chan amqp.Delivery
	ReqChanErrors  <-chan *amqp.Error
	RespChanErrors <-chan *amqp.Error
	config         Config
	reqConn        *amqp.Connection
	respConn       *amqp.Connection
	respChannel    *amqp.Channel
	gstLogger      *zerolog.Logger
}

func NewClient() (*Client, error) {
	gstLogger := logger.NewLogger("RMQ client")
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		gstLogger.Error().Err(err).Msg("Could not read env config")
		return nil, err
	}
	return Dial(config, &gstLogger)
}

func Dial(config Config, gstLogger *zerolog.Logger) (*Client, error) {
	amqpURL := getURL(config)
	respConn, respChannel, err := setup(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("failed response connection: %w", err)
	}
	reqConn, reqChannel, err := setup(amqpURL)
	if err != nil {
		_ = respConn.Close()
		return nil, fmt.Errorf("failed request connection: %w", err)
	}
	closeAll := func() {
		_ = reqConn.Close()
		_ = respConn.Close()
	}

	deliveries, err := consume(reqChannel, config)
	if err != nil {
		closeAll()
		return nil, err
	}
	gstLogger.Info().
		Str("queue", config.GSTTaskQueue).
		Int("prefetch", config.MaxParallelRequestCount).
		Msg("Consuming corpus tasks")

	return &Client{
		Deliveries:     deliveries,
		ReqChanErrors:  reqChannel.NotifyClose(make(chan *amqp.Error)),
		RespChanErrors: respChannel.NotifyClose(make(chan *amqp.Error)),
		config:         config,
		reqConn:        reqConn,
		respConn:       respConn,
		respChannel:    respChannel,
		gstLogger:      gstLogger,
	}, nil
}

func consume(reqChannel *amqp.Channel, config Config) (<-chan amqp.Delivery, error) {
	q, err := reqChannel.QueueDeclarePassive(
		config.GSTTaskQueue, // name
		true,                // durable
		false,               // delete when unused
		false,               // exclusive
		false,               // no-wait
		nil,                 // arguments
	)
	if err != nil {
		return nil, fmt.Errorf("declare %s: %w", config.GSTTaskQueue, err)
	}
	if err := reqChannel.QueueBind(
		config.GSTTaskQueue,
		config.GSTTaskQueue,
		config.Exchange,
		false,
		nil); err != nil {
		return nil, fmt.Errorf("bind %s: %w", config.GSTTaskQueue, err)
	}
	// one suffix tree per delivery can be large; prefetch stays small
	if err := reqChannel.Qos(config.MaxParallelRequestCount, 0, false); err != nil {
		return nil, fmt.Errorf("qos: %w", err)
	}
	deliveries, err := reqChannel.Consume(
		q.Name,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("consume deliveries: %w", err)
	}
	return deliveries, nil
}

func (c *Client) SendMessageToSequencer(msg amqp.Publishing) error {
	c.gstLogger.Debug().
		Str("queue", c.config.SequencerTaskQueue).
		Int("size", len(msg.Body)).
		Msg("Publishing to sequencer")
	return c.respChannel.Publish(
		c.config.Exchange,
		c.config.SequencerTaskQueue,
		false,
		false,
		msg)
}

func (c *Client) Close() {
	_ = c.reqConn.Close()
	_ = c.respConn.Close()
}

func getURL(config Config) string {
	u := url.URL{
		Scheme: "amqp",
		User:   url.UserPassword(config.Username, config.Password),
		Host:   fmt.Sprintf("%s:%s", config.Host, config.Port),
	}
	return u.String()
}

func setup(amqpURL string) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, err
	}
	return conn, ch, nil
}
