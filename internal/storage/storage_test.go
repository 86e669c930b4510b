package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"parcel-courier/internal/models"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectKey(t *testing.T) {
	now := time.UnixMilli(1718000000123)
	assert.Equal(t, "1718000000123-my_parcel_photo.png", ObjectKey(" my parcel\tphoto.png", now))
}

func TestLocalBucketUpload(t *testing.T) {
	dir := t.TempDir()
	b := NewLocalBucket(dir, "united-parcel-service", "/uploads/")

	path, err := b.Upload(context.Background(), "1-box.png", strings.NewReader("png"), "image/png")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "united-parcel-service", path))
	require.NoError(t, err)
	assert.Equal(t, "png", string(data))
	assert.Equal(t, "/uploads/united-parcel-service/1-box.png", b.PublicURL(path))
}

func TestLocalBucketRejectsTraversal(t *testing.T) {
	b := NewLocalBucket(t.TempDir(), "b", "/uploads")
	_, err := b.Upload(context.Background(), "../escape", strings.NewReader("x"), "")
	assert.Error(t, err)
}

type fakePutter struct {
	input *s3.PutObjectInput
	err   error
}

func (f *fakePutter) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = in
	return &s3.PutObjectOutput{}, f.err
}

func TestS3BucketUpload(t *testing.T) {
	fp := &fakePutter{}
	b := NewS3Bucket(fp, "parcels", "eu-west-1", "")

	path, err := b.Upload(context.Background(), "1-box.png", strings.NewReader("png"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "parcels", *fp.input.Bucket)
	assert.Equal(t, "image/png", *fp.input.ContentType)
	assert.Equal(t, "https://parcels.s3.eu-west-1.amazonaws.com/1-box.png", b.PublicURL(path))
}

func TestPutWrapsUploadFailure(t *testing.T) {
	b := NewS3Bucket(&fakePutter{err: errors.New("access denied")}, "parcels", "us-east-1", "https://cdn.example.com")

	_, err := Put(context.Background(), b, models.Upload{Filename: "a.png", Body: io.NopCloser(strings.NewReader(""))}, time.Now())
	assert.ErrorIs(t, err, models.ErrUploadFailed)
}
