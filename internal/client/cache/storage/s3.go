package storage

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/dmitrijs2005/syncbox/internal/common"
	"github.com/dmitrijs2005/syncbox/internal/timex"
)

// S3API is the subset of *s3.Client the backend needs.
type S3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	Prefix    string
}

// seams for tests
var (
	loadDefaultAWSConfig  = awsconfig.LoadDefaultConfig
	newS3ClientFromConfig = s3.NewFromConfig
)

// NewS3Client builds a path-style client, which MinIO requires.
func NewS3Client(ctx context.Context, c S3Config) (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		awsconfig.WithRegion(c.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(c.AccessKey, c.SecretKey, "")),
	)
	if err != nil {
		return nil, err
	}

	return newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if c.Endpoint != "" {
			o.BaseEndpoint = aws.String(c.Endpoint)
		}
		o.UsePathStyle = true
	}), nil
}

const markerName = ".cache"

// s3Object is the stored form of an entry.
type s3Object struct {
	Seq   int64 `json:"seq"`
	Entry Entry `json:"entry"`
}

// S3 keeps every entry as one JSON object:
//
//	<prefix><cache>/.cache        marker, so empty caches are listed
//	<prefix><cache>/e/<sha256>    entry
type S3 struct {
	api    S3API
	bucket string
	prefix string
	clock  timex.Clock

	mu      sync.Mutex
	lastSeq int64
}

func NewS3(api S3API, bucket, prefix string, clock timex.Clock) *S3 {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &S3{api: api, bucket: bucket, prefix: prefix, clock: clock}
}

func (s *S3) cachePrefix(cache string) string { return s.prefix + cache + "/" }

func (s *S3) entryKey(cache, key string) string {
	sum := sha256.Sum256([]byte(key))
	return s.cachePrefix(cache) + "e/" + hex.EncodeToString(sum[:])
}

func (s *S3) nextSeq() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.clock.Now().UnixNano()
	if n <= s.lastSeq {
		n = s.lastSeq + 1
	}
	s.lastSeq = n
	return n
}

func (s *S3) put(ctx context.Context, key string, body []byte) error {
	_, err := s.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	return err
}

func (s *S3) list(ctx context.Context, prefix, delimiter string, fn func(out *s3.ListObjectsV2Output)) error {
	in := &s3.ListObjectsV2Input{Bucket: aws.String(s.bucket), Prefix: aws.String(prefix)}
	if delimiter != "" {
		in.Delimiter = aws.String(delimiter)
	}
	p := s3.NewListObjectsV2Paginator(s.api, in)
	for p.HasMorePages() {
		out, err := p.NextPage(ctx)
		if err != nil {
			return err
		}
		fn(out)
	}
	return nil
}

func (s *S3) Open(ctx context.Context, cache string) error {
	if err := s.put(ctx, s.cachePrefix(cache)+markerName, []byte("{}")); err != nil {
		return common.NewStorageError("cache open", err)
	}
	return nil
}

func (s *S3) Names(ctx context.Context) ([]string, error) {
	var names []string
	err := s.list(ctx, s.prefix, "/", func(out *s3.ListObjectsV2Output) {
		for _, cp := range out.CommonPrefixes {
			n := strings.TrimSuffix(strings.TrimPrefix(aws.ToString(cp.Prefix), s.prefix), "/")
			if n != "" {
				names = append(names, n)
			}
		}
	})
	if err != nil {
		return nil, common.NewStorageError("cache names", err)
	}
	sort.Strings(names)
	return names, nil
}

func (s *S3) Drop(ctx context.Context, cache string) (bool, error) {
	var keys []string
	err := s.list(ctx, s.cachePrefix(cache), "", func(out *s3.ListObjectsV2Output) {
		for _, o := range out.Contents {
			keys = append(keys, aws.ToString(o.Key))
		}
	})
	if err != nil {
		return false, common.NewStorageError("cache drop", err)
	}

	for _, k := range keys {
		if _, err := s.api.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(k)}); err != nil {
			return false, common.NewStorageError("cache drop", err)
		}
	}
	return len(keys) > 0, nil
}

func (s *S3) getObject(ctx context.Context, key string) (*s3Object, error) {
	out, err := s.api.GetObject(ctx, &s3.GetObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(key)})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, common.ErrorNotFound
		}
		return nil, err
	}
	defer out.Body.Close()

	raw, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, err
	}
	var obj s3Object
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, err
	}
	return &obj, nil
}

func (s *S3) Get(ctx context.Context, cache, key string) (*Entry, error) {
	obj, err := s.getObject(ctx, s.entryKey(cache, key))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, err
		}
		return nil, common.NewStorageError("cache get", err)
	}
	return &obj.Entry, nil
}

func (s *S3) Put(ctx context.Context, cache string, e *Entry) error {
	if e.StoredAt == 0 {
		e.StoredAt = s.clock.UnixMilli()
	}
	raw, err := json.Marshal(s3Object{Seq: s.nextSeq(), Entry: *e})
	if err != nil {
		return common.NewStorageError("cache put", err)
	}
	if err := s.put(ctx, s.cachePrefix(cache)+markerName, []byte("{}")); err != nil {
		return common.NewStorageError("cache put", err)
	}
	if err := s.put(ctx, s.entryKey(cache, e.Key), raw); err != nil {
		return common.NewStorageError("cache put", err)
	}
	return nil
}

// Keys reads every entry object of the cache to recover insertion order.
func (s *S3) Keys(ctx context.Context, cache string) ([]string, error) {
	var objectKeys []string
	err := s.list(ctx, s.cachePrefix(cache)+"e/", "", func(out *s3.ListObjectsV2Output) {
		for _, o := range out.Contents {
			objectKeys = append(objectKeys, aws.ToString(o.Key))
		}
	})
	if err != nil {
		return nil, common.NewStorageError("cache keys", err)
	}

	objs := make([]*s3Object, 0, len(objectKeys))
	for _, k := range objectKeys {
		obj, err := s.getObject(ctx, k)
		if errors.Is(err, common.ErrorNotFound) {
			continue
		}
		if err != nil {
			return nil, common.NewStorageError("cache keys", err)
		}
		objs = append(objs, obj)
	}
	sort.Slice(objs, func(i, j int) bool { return objs[i].Seq < objs[j].Seq })

	keys := make([]string, len(objs))
	for i, o := range objs {
		keys[i] = o.Entry.Key
	}
	return keys, nil
}

func (s *S3) Delete(ctx context.Context, cache, key string) (bool, error) {
	objectKey := s.entryKey(cache, key)
	if _, err := s.getObject(ctx, objectKey); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return false, nil
		}
		return false, common.NewStorageError("cache delete", err)
	}
	if _, err := s.api.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(objectKey)}); err != nil {
		return false, common.NewStorageError("cache delete", err)
	}
	return true, nil
}
