package s3client

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/aws/aws-sdk-go/service/sts"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"

	"text2phenotype.com/gst/logger"
)

const ContentTypeJSON = "application/json"

var ErrNoSession = errors.New("could not get S3 session")

// Client stores corpora and results in one bucket. Sessions are owned by a
// refresher goroutine and replaced whenever a request fails.
type Client struct {
	holder     *sessionHolder
	bucketName string
	region     string
	env        EnvironmentConfig
}

type sessionHolder struct {
	curr      *session.Session
	requestCh <-chan *session.Session
	errorCh   chan<- error
	closeCh   chan<- struct{}
}

var clientLogger = logger.NewLogger("S3Client")
var sdkLogger = logger.NewLogger("S3-SDK")

func New() (*Client, error) {
	errLogger := clientLogger.With().Caller().Logger()
	env, err := readEnvironment(&errLogger)
	if err != nil {
		clientLogger.Err(err).Msg("Failed to get proper variables from environment")
		return nil, err
	}
	client := Client{
		bucketName: env.BucketName,
		region:     env.Region,
		env:        env,
	}
	sessionCh := make(chan *session.Session)
	errorCh := make(chan error)
	closeCh := make(chan struct{}, 1)

	client.holder = &sessionHolder{
		requestCh: sessionCh,
		errorCh:   errorCh,
		closeCh:   closeCh,
	}
	if err := client.acquireNewSession(); err != nil {
		return nil, err
	}
	go keepSessionRefreshed(&client, sessionCh, errorCh, closeCh)
	return &client, nil
}

// Upload stores data at key and returns the object location.
func (client Client) Upload(data []byte, key string, contentType string) (string, error) {
	var location string
	err := client.withSession(func(sess *session.Session) error {
		params := &s3manager.UploadInput{
			Bucket:      aws.String(client.bucketName),
			Key:         aws.String(key),
			ContentType: aws.String(contentType),
			Body:        bytes.NewReader(data),
		}
		output, err := client.upload(sess, params)
		if err != nil {
			return err
		}
		location = output.Location
		return nil
	})
	return location, err
}

func (client Client) Download(key string) ([]byte, error) {
	var data []byte
	err := client.withSession(func(sess *session.Session) error {
		params := &s3.GetObjectInput{
			Bucket: aws.String(client.bucketName),
			Key:    aws.String(key),
		}
		res, err := client.download(sess, params)
		if err != nil {
			return err
		}
		data = res
		return nil
	})
	return data, err
}

func (client Client) Close() {
	client.holder.closeCh <- struct{}{}
}

// withSession runs request once and, if it fails, once more on a
// refreshed session.
func (client Client) withSession(request func(sess *session.Session) error) error {
	sess, err := client.session()
	if err != nil {
		return err
	}
	err = request(sess)
	if err == nil {
		return nil
	}
	sess, err = client.tryRefreshingSession(err)
	if err != nil {
		return err
	}
	return request(sess)
}

func (client Client) upload(sess *session.Session, params *s3manager.UploadInput) (*s3manager.UploadOutput, error) {
	gstLogger := clientLogger.With().
		Str("key", *params.Key).
		Str("bucket", *params.Bucket).Logger()

	sdkLog := sdkLogger.With().
		Str("key", *params.Key).
		Str("bucket", *params.Bucket).Logger()

	uploader := s3manager.NewUploader(sess.Copy(&aws.Config{Logger: getLogger(sdkLog)}))
	gstLogger.Debug().Str("content_type", *params.ContentType).Msg("Uploading the file")
	output, err := uploader.Upload(params)
	if err != nil {
		gstLogger.Error().Err(err).Msg("Failed to upload file")
		return nil, err
	}
	return output, nil
}

func (client Client) download(sess *session.Session, params *s3.GetObjectInput) ([]byte, error) {
	gstLogger := clientLogger.With().
		Str("key", *params.Key).
		Str("bucket", *params.Bucket).Logger()

	sdkLog := sdkLogger.With().
		Str("key", *params.Key).
		Str("bucket", *params.Bucket).Logger()

	downloader := s3manager.NewDownloader(sess.Copy(&aws.Config{Logger: getLogger(sdkLog)}))

	buf := aws.NewWriteAtBuffer([]byte{})

	gstLogger.Debug().Msg("Downloading file")

	size, err := downloader.Download(buf, params)
	if err != nil {
		gstLogger.Error().Err(err).Msg("Failed to download file")
		return nil, err
	}
	gstLogger.Debug().Int64("size", size).Msg("Downloaded file")
	return buf.Bytes(), nil
}

func keepSessionRefreshed(client *Client, sessionCh chan<- *session.Session, errorCh <-chan error, closeCh <-chan struct{}) {
	for {
		select {
		case sessionCh <- client.holder.curr:
			continue
		default:
		}
		select {
		case sessionCh <- client.holder.curr:
		case err := <-errorCh:
			clientLogger.Error().Err(err).Msg("Caught error while using S3 session, trying to refresh it")
			if err = client.acquireNewSession(); err != nil {
				clientLogger.Error().Err(err).Msg("Caught error while refreshing S3 session")
				continue
			}
			clientLogger.Info().Msg("Successfully refreshed session")
		case <-closeCh:
			clientLogger.Info().Msg("Closing client")
			return
		}
	}
}

func (client Client) tryRefreshingSession(err error) (*session.Session, error) {
	var sess *session.Session
	select {
	case client.holder.errorCh <- err:
		sess = <-client.holder.requestCh
	case sess = <-client.holder.requestCh:
	}
	if sess == nil {
		return nil, fmt.Errorf("%w after error: %v", ErrNoSession, err)
	}
	return sess, nil
}

func (client Client) session() (*session.Session, error) {
	sess := <-client.holder.requestCh
	if sess == nil {
		return nil, ErrNoSession
	}
	return sess, nil
}

func (client Client) createEC2Config() *aws.Config {
	return &aws.Config{
		Region:     aws.String(client.region),
		MaxRetries: aws.Int(4),
		LogLevel:   aws.LogLevel(aws.LogDebug),
	}
}

func (client Client) createEnvConfig() (*aws.Config, error) {
	creds := credentials.NewStaticCredentials(
		client.env.AccessKeyID,
		client.env.AccessKey,
		"")
	if _, err := creds.Get(); err != nil {
		return nil, fmt.Errorf("credentials from environment: %w", err)
	}
	cfg := aws.NewConfig().
		WithRegion(client.region).
		WithMaxRetries(4).
		WithCredentials(creds).
		WithLogLevel(aws.LogDebug)

	if client.env.T2PEnv == "dev" && len(client.env.AwsEndpoint) > 0 {
		cfg = cfg.WithEndpoint(client.env.AwsEndpoint).
			WithS3ForcePathStyle(true)
	}
	return cfg, nil
}

func (client *Client) acquireNewSession() error {
	sess, err := session.NewSession(
		client.createEC2Config(),
	)
	if err != nil {
		client.holder.curr = nil
		clientLogger.Error().Err(err).Msg("Could not initialize S3 session")
		return err
	}
	_, err = sts.New(sess).GetCallerIdentity(&sts.GetCallerIdentityInput{})
	if err == nil {
		client.holder.curr = sess
		clientLogger.Info().Msg("S3 session successfully initialized using EC2")
		return nil
	}
	clientLogger.Info().Msg("Could not initialize S3 session using EC2, trying env credentials")
	envConfig, err := client.createEnvConfig()
	if err != nil {
		client.holder.curr = nil
		clientLogger.Error().Err(err).Msg("Error with credentials from environment")
		return err
	}
	sess, err = session.NewSession(envConfig)
	if err != nil {
		client.holder.curr = nil
		clientLogger.Error().Err(err).Msg("Could not initialize S3 session")
		return err
	}
	_, err = sts.New(sess).GetCallerIdentity(&sts.GetCallerIdentityInput{})
	if err != nil {
		client.holder.curr = nil
		clientLogger.Error().Err(err).Msg("Could not initialize S3 session")
		return fmt.Errorf("%w: %v", ErrNoSession, err)
	}
	client.holder.curr = sess
	clientLogger.Info().Msg("S3 session successfully initialized using env credentials")
	return nil
}

type EnvironmentConfig struct {
	BucketName  string `envconfig:"MDL_COMN_STORAGE_CONTAINER_NAME" required:"true"`
	T2PEnv      string `envconfig:"T2P_ENV" required:"true"`
	Region      string `envconfig:"MDL_COMN_AWS_REGION_NAME" required:"true"`
	AwsEndpoint string `envconfig:"MDL_COMN_AWS_ENDPOINT_URL" default:""`
	AccessKeyID string `envconfig:"MDL_COMN_AWS_ACCESS_ID" default:""`
	AccessKey   string `envconfig:"MDL_COMN_AWS_ACCESS_KEY" default:""`
}

func readEnvironment(errLogger *zerolog.Logger) (EnvironmentConfig, error) {
	var config EnvironmentConfig
	err := envconfig.Process("", &config)
	if err != nil {
		errLogger.Err(err).Msg("Got error while processing environment")
		return config, err
	}
	return config, nil
}

// s3Logger routes the SDK's debug output into zerolog.
type s3Logger struct {
	gstLogger zerolog.Logger
}

func getLogger(gstLogger zerolog.Logger) *s3Logger {
	return &s3Logger{
		gstLogger,
	}
}

func (logger *s3Logger) Log(v ...interface{}) {
	logger.gstLogger.Debug().Msg(strings.TrimSuffix(fmt.Sprintln(v...), "\n"))
}
