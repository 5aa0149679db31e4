package s3client

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateEnvConfig(t *testing.T) {
	client := Client{
		region: "us-east-1",
		env: EnvironmentConfig{
			T2PEnv:      "dev",
			AwsEndpoint: "http://localstack:4566",
			AccessKeyID: "id",
			AccessKey:   "secret",
		},
	}
	cfg, err := client.createEnvConfig()
	require.NoError(t, err)
	assert.Equal(t, "us-east-1", *cfg.Region)
	assert.Equal(t, "http://localstack:4566", *cfg.Endpoint)
	assert.True(t, *cfg.S3ForcePathStyle)

	client.env.T2PEnv = "prod"
	cfg, err = client.createEnvConfig()
	require.NoError(t, err)
	assert.Nil(t, cfg.Endpoint)

	client.env.AccessKey = ""
	_, err = client.createEnvConfig()
	require.Error(t, err)
}

func TestReadEnvironment(t *testing.T) {
	t.Setenv("MDL_COMN_STORAGE_CONTAINER_NAME", "corpora")
	t.Setenv("T2P_ENV", "dev")
	t.Setenv("MDL_COMN_AWS_REGION_NAME", "us-west-2")

	errLogger := zerolog.Nop()
	env, err := readEnvironment(&errLogger)
	require.NoError(t, err)
	assert.Equal(t, "corpora", env.BucketName)
	assert.Equal(t, "", env.AwsEndpoint)
}

func TestSDKLogger(t *testing.T) {
	var buf bytes.Buffer
	getLogger(zerolog.New(&buf).Level(zerolog.DebugLevel)).Log("DEBUG: request", 3)
	assert.Contains(t, buf.String(), "DEBUG: request 3")

	buf.Reset()
	getLogger(zerolog.New(&buf).Level(zerolog.DebugLevel)).Log("DEBUG: Send Request", "s3/PutObject", "failed")
	assert.Contains(t, buf.String(), `"message":"DEBUG: Send Request s3/PutObject failed"`)
}
