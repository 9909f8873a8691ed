package storage

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T) []byte {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func gifBytes(t *testing.T) []byte {
	img := image.NewPaletted(image.Rect(0, 0, 1, 1), color.Palette{color.Black, color.White})
	var buf bytes.Buffer
	require.NoError(t, gif.Encode(&buf, img, nil))
	return buf.Bytes()
}

func dataURI(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

func TestDecodeDataURI(t *testing.T) {
	pngData := pngBytes(t)

	img, err := DecodeDataURI(dataURI("image/png", pngData))
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.ContentType)
	assert.Equal(t, "png", img.Ext)
	assert.Equal(t, pngData, img.Data)

	// bare base64 is accepted
	img, err = DecodeDataURI(base64.StdEncoding.EncodeToString(gifBytes(t)))
	require.NoError(t, err)
	assert.Equal(t, "gif", img.Ext)

	// the sniffed type wins over the declared one
	img, err = DecodeDataURI(dataURI("image/jpeg", pngData))
	require.NoError(t, err)
	assert.Equal(t, "png", img.Ext)
}

func TestDecodeDataURIRejects(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  error
	}{
		{"empty", "", ErrInvalidImage},
		{"not base64", "data:image/png;base64,!!!", ErrInvalidImage},
		{"missing base64 marker", "data:image/png," + base64.StdEncoding.EncodeToString([]byte("x")), ErrInvalidImage},
		{"declared non image", dataURI("text/plain", []byte("hello")), ErrUnsupportedImage},
		{"sniffed non image", dataURI("image/png", []byte("just some text")), ErrUnsupportedImage},
		{"too large", dataURI("image/png", make([]byte, MaxImageSize+1024)), ErrImageTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeDataURI(tt.input)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestObjectName(t *testing.T) {
	a, b := ObjectName("png"), ObjectName("png")
	assert.True(t, strings.HasPrefix(a, "recipes/"))
	assert.True(t, strings.HasSuffix(a, ".png"))
	assert.NotEqual(t, a, b)
}

func TestLocalStore(t *testing.T) {
	root := t.TempDir()
	store, err := NewLocalStore(root, "/media/")
	require.NoError(t, err)
	ctx := context.Background()

	url, err := store.Save(ctx, "recipes/abc.png", "image/png", []byte("data"))
	require.NoError(t, err)
	assert.Equal(t, "/media/recipes/abc.png", url)

	written, err := os.ReadFile(filepath.Join(root, "recipes", "abc.png"))
	require.NoError(t, err)
	assert.Equal(t, []byte("data"), written)

	require.NoError(t, store.Delete(ctx, url))
	_, err = os.Stat(filepath.Join(root, "recipes", "abc.png"))
	assert.True(t, os.IsNotExist(err))

	// deleting twice or a foreign URL is a no-op
	assert.NoError(t, store.Delete(ctx, url))
	assert.NoError(t, store.Delete(ctx, "https://elsewhere.example/x.png"))

	_, err = store.Save(ctx, "../escape.png", "image/png", []byte("x"))
	assert.Error(t, err)
}

type fakeS3 struct {
	puts    map[string][]byte
	deletes []string
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, _ := io.ReadAll(in.Body)
	f.puts[*in.Key] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.deletes = append(f.deletes, *in.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3Store(t *testing.T) {
	fake := &fakeS3{puts: map[string][]byte{}}
	store := newS3Store(fake, S3Config{Bucket: "foodgram", Region: "eu-west-1"})
	ctx := context.Background()

	url, err := store.Save(ctx, "recipes/abc.png", "image/png", []byte("data"))
	require.NoError(t, err)
	assert.Equal(t, "https://foodgram.s3.eu-west-1.amazonaws.com/recipes/abc.png", url)
	assert.Equal(t, []byte("data"), fake.puts["recipes/abc.png"])

	require.NoError(t, store.Delete(ctx, url))
	require.NoError(t, store.Delete(ctx, "/media/recipes/other.png"))
	assert.Equal(t, []string{"recipes/abc.png"}, fake.deletes)
}

func TestS3StoreCustomEndpoint(t *testing.T) {
	store := newS3Store(&fakeS3{puts: map[string][]byte{}}, S3Config{Bucket: "media", Endpoint: "http://minio:9000/"})
	url, err := store.Save(context.Background(), "recipes/x.gif", "image/gif", nil)
	require.NoError(t, err)
	assert.Equal(t, "http://minio:9000/media/recipes/x.gif", url)
}
