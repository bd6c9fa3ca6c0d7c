package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocal_SaveDelete(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	l, err := NewLocal(root, "http://localhost:8000/media/")
	require.NoError(t, err)

	key, err := l.Save(ctx, RecipeImagesDir, []byte("png-bytes"), "png", "image/png")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, RecipeImagesDir+"/"))
	assert.True(t, strings.HasSuffix(key, ".png"))
	assert.Equal(t, "http://localhost:8000/media/"+key, l.URL(key))

	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(key)))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))

	require.NoError(t, l.Delete(ctx, key))
	_, err = os.Stat(filepath.Join(root, filepath.FromSlash(key)))
	assert.True(t, errors.Is(err, os.ErrNotExist))

	assert.NoError(t, l.Delete(ctx, key), "deleting twice is not an error")
}

func TestLocal_KeysStayInsideRoot(t *testing.T) {
	root := t.TempDir()
	l, err := NewLocal(root, "/media")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, "etc", "passwd"), l.path("../../etc/passwd"))
}

func TestNewKey_Unique(t *testing.T) {
	a, b := NewKey(AvatarsDir, ".jpg"), NewKey(AvatarsDir, "jpg")
	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasSuffix(a, ".jpg"))
	assert.False(t, strings.Contains(a, ".."))
}

type fakeS3 struct {
	objects map[string][]byte
	failPut error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.failPut != nil {
		return nil, f.failPut
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	delete(f.objects, aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3_SaveDelete(t *testing.T) {
	ctx := context.Background()
	fake := &fakeS3{objects: map[string][]byte{}}
	s := newS3(fake, S3Options{Endpoint: "http://minio:9000/", Bucket: "media", Region: "us-east-1"})

	key, err := s.Save(ctx, RecipeImagesDir, []byte("img"), "gif", "image/gif")
	require.NoError(t, err)
	assert.Equal(t, []byte("img"), fake.objects["media/"+key])
	assert.Equal(t, "http://minio:9000/media/"+key, s.URL(key))

	require.NoError(t, s.Delete(ctx, key))
	assert.Empty(t, fake.objects)
}

func TestS3_AWSURL(t *testing.T) {
	s := newS3(&fakeS3{}, S3Options{Bucket: "media", Region: "eu-west-1"})
	assert.Equal(t, "https://media.s3.eu-west-1.amazonaws.com/a.png", s.URL("a.png"))
}

func TestS3_SaveError(t *testing.T) {
	boom := errors.New("access denied")
	s := newS3(&fakeS3{failPut: boom}, S3Options{Bucket: "media"})
	_, err := s.Save(context.Background(), AvatarsDir, []byte("x"), "png", "image/png")
	assert.ErrorIs(t, err, boom)
}
