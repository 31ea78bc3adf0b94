package services

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	sc "github.com/dmitrijs2005/carmarket/internal/server/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newS3Images() *S3Images {
	return NewS3Images(&sc.Config{
		S3Region:       "us-east-1",
		S3RootUser:     "minioadmin",
		S3RootPassword: "minioadmin",
		S3BaseEndpoint: "http://127.0.0.1:9000",
		S3Bucket:       "listings",
		PresignExpiry:  5 * time.Minute,
	})
}

// stubS3 replaces the AWS constructors with inert fakes for one test.
func stubS3(t *testing.T) {
	t.Helper()
	origLoad, origNewS3, origNewPre := loadDefaultAWSConfig, newS3ClientFromConfig, newS3PresignClient
	origPut, origGet := presignPutObject, presignGetObject
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNewS3
		newS3PresignClient = origNewPre
		presignPutObject = origPut
		presignGetObject = origGet
	})

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, nil
	}
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client { return &s3.Client{} }
	newS3PresignClient = func(c *s3.Client) *s3.PresignClient { return &s3.PresignClient{} }
}

func Test_getPresignClient_SuccessAndError(t *testing.T) {
	stubS3(t)
	svc := newS3Images()

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		require.NotEmpty(t, optFns, "expected config options")
		var lo awsconfig.LoadOptions
		for _, fn := range optFns {
			require.NoError(t, fn(&lo))
		}
		assert.Equal(t, "us-east-1", lo.Region)
		return aws.Config{}, nil
	}

	var opts s3.Options
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		for _, fn := range optFns {
			fn(&opts)
		}
		return &s3.Client{}
	}

	pc, err := svc.getPresignClient(context.Background())
	require.NoError(t, err)
	require.NotNil(t, pc)
	require.NotNil(t, opts.BaseEndpoint)
	assert.Equal(t, "http://127.0.0.1:9000", *opts.BaseEndpoint)
	assert.True(t, opts.UsePathStyle)

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("load-fail")
	}

	_, err = svc.getPresignClient(context.Background())
	assert.EqualError(t, err, "load-fail")
}

func TestPresignPut(t *testing.T) {
	stubS3(t)
	svc := newS3Images()

	var expires time.Duration
	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		var po s3.PresignOptions
		for _, fn := range optFns {
			fn(&po)
		}
		expires = po.Expires
		return &v4.PresignedHTTPRequest{URL: "put://" + *in.Bucket + "/" + *in.Key}, nil
	}

	urls, err := svc.PresignPut(context.Background(), []string{"k1", "k2"})
	require.NoError(t, err)
	assert.Equal(t, []string{"put://listings/k1", "put://listings/k2"}, urls)
	assert.Equal(t, 5*time.Minute, expires)

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return nil, errors.New("presign-put-fail")
	}
	_, err = svc.PresignPut(context.Background(), []string{"k1"})
	assert.EqualError(t, err, "presign-put-fail")
}

func TestPresignGet(t *testing.T) {
	stubS3(t)
	svc := newS3Images()
	svc.config.PresignExpiry = 0

	var expires time.Duration
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		var po s3.PresignOptions
		for _, fn := range optFns {
			fn(&po)
		}
		expires = po.Expires
		return &v4.PresignedHTTPRequest{URL: "get://" + *in.Key}, nil
	}

	urls, err := svc.PresignGet(context.Background(), []string{"k1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"get://k1"}, urls)
	assert.Equal(t, defaultPresignExpiry, expires)

	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return nil, errors.New("presign-get-fail")
	}
	_, err = svc.PresignGet(context.Background(), []string{"k1"})
	assert.EqualError(t, err, "presign-get-fail")
}

func TestPresign_NoKeysSkipsClient(t *testing.T) {
	stubS3(t)
	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		t.Fatal("client must not be built for zero keys")
		return aws.Config{}, nil
	}

	svc := newS3Images()
	urls, err := svc.PresignPut(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, urls)
	urls, err = svc.PresignGet(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, urls)
}

func TestNewStorageKey(t *testing.T) {
	k1, k2 := NewStorageKey(), NewStorageKey()
	assert.Regexp(t, regexp.MustCompile(`^listings/\d{4}/\d{1,2}/\d{1,2}/[0-9a-f-]{36}$`), k1)
	assert.NotEqual(t, k1, k2)
}
