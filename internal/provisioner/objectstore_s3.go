package provisioner

import (
	"bytes"
	"context"
	"errors"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

func newReadSeeker(body []byte) *bytes.Reader {
	return bytes.NewReader(body)
}

// S3ObjectStore adapts an aws-sdk-go-v2 S3 client to the narrow ObjectStore
// capability the persistence layer needs, scoped to one bucket.
type S3ObjectStore struct {
	Client *s3.Client
	Bucket string
}

func (o S3ObjectStore) Put(ctx context.Context, key string, body []byte) error {
	_, err := o.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(o.Bucket),
		Key:    aws.String(key),
		Body:   newReadSeeker(body),
	})
	return err
}

func (o S3ObjectStore) PutIfMatch(ctx context.Context, key string, body []byte, etag string) error {
	_, err := o.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:  aws.String(o.Bucket),
		Key:     aws.String(key),
		Body:    newReadSeeker(body),
		IfMatch: aws.String(etag),
	})
	return err
}

func (o S3ObjectStore) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := o.Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(o.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, ErrObjectNotFound
		}
		return nil, err
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}

func (o S3ObjectStore) Delete(ctx context.Context, key string) error {
	_, err := o.Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(o.Bucket),
		Key:    aws.String(key),
	})
	return err
}
