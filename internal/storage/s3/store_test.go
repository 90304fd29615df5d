package s3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vidstore/internal/storage"
)

type fakeClient struct {
	mu            sync.Mutex
	buckets       map[string]bool
	objects       map[string][]byte
	createdRegion string
	pageSize      int
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		buckets:  map[string]bool{},
		objects:  map[string][]byte{},
		pageSize: 2,
	}
}

func (f *fakeClient) HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.buckets[aws.ToString(params.Bucket)] {
		return nil, &types.NotFound{}
	}
	return &s3.HeadBucketOutput{}, nil
}

func (f *fakeClient) CreateBucket(ctx context.Context, params *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.buckets[aws.ToString(params.Bucket)] = true
	if params.CreateBucketConfiguration != nil {
		f.createdRegion = string(params.CreateBucketConfiguration.LocationConstraint)
	}
	return &s3.CreateBucketOutput{}, nil
}

func (f *fakeClient) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[aws.ToString(params.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeClient) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[aws.ToString(params.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeClient) ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var keys []string
	for k := range f.objects {
		if strings.HasPrefix(k, aws.ToString(params.Prefix)) && k > aws.ToString(params.ContinuationToken) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(false)}
	for i, k := range keys {
		if i == f.pageSize {
			out.IsTruncated = aws.Bool(true)
			out.NextContinuationToken = aws.String(keys[i-1])
			break
		}
		out.Contents = append(out.Contents, types.Object{
			Key:  aws.String(k),
			Size: aws.Int64(int64(len(f.objects[k]))),
		})
	}
	return out, nil
}

func TestUploadDownload(t *testing.T) {
	client := newFakeClient()
	store := New(client, NewConfig("eu-west-1", "bucket"))
	ctx := context.Background()

	require.NoError(t, store.Upload(ctx, "archives/host/storage/a.file", strings.NewReader("payload"), 7))

	var buf bytes.Buffer
	n, err := store.Download(ctx, "archives/host/storage/a.file", &buf)
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
	assert.Equal(t, "payload", buf.String())

	_, err = store.Download(ctx, "missing", &buf)
	var noKey *types.NoSuchKey
	assert.True(t, errors.As(err, &noKey))
	assert.ErrorIs(t, err, storage.ErrObjectNotFound)
}

func TestListPaginates(t *testing.T) {
	client := newFakeClient()
	store := New(client, NewConfig("", "bucket"))
	ctx := context.Background()

	for _, key := range []string{"p/a", "p/b", "p/c", "p/d", "q/e"} {
		require.NoError(t, store.Upload(ctx, key, strings.NewReader(key), int64(len(key))))
	}

	objects, err := store.List(ctx, "p/")
	require.NoError(t, err)
	require.Len(t, objects, 4)
	assert.Equal(t, "p/a", objects[0].Key)
	assert.Equal(t, "p/d", objects[3].Key)
	assert.Equal(t, int64(3), objects[0].Size)
}

func TestEnsureBucket(t *testing.T) {
	client := newFakeClient()
	store := New(client, NewConfig("eu-west-1", "bucket"))

	created, err := store.EnsureBucket(context.Background())
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "eu-west-1", client.createdRegion)

	created, err = store.EnsureBucket(context.Background())
	require.NoError(t, err)
	assert.False(t, created)
}

func TestNewConfig(t *testing.T) {
	config := NewConfig("", "", WithPrefix("backups/"), WithInstanceID("host-1"))
	assert.Equal(t, DefaultConfig.BucketName, config.BucketName)
	assert.Equal(t, DefaultConfig.Region, config.Region)
	assert.Equal(t, "backups/", config.Prefix)
	assert.Equal(t, "host-1", config.InstanceID)

	config = NewConfig("ap-south-1", "mine", WithPrefix(""))
	assert.Equal(t, "mine", config.BucketName)
	assert.Equal(t, "ap-south-1", config.Region)
	assert.Equal(t, DefaultConfig.Prefix, config.Prefix)
}
