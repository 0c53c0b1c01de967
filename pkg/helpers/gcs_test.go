package helpers

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memObject struct {
	bytes.Buffer
	closed bool
}

func (o *memObject) Close() error { o.closed = true; return nil }

func TestAvatarUploader(t *testing.T) {
	objects := map[string]*memObject{}
	up := &AvatarUploader{
		Bucket: "bkt",
		Open: func(_ context.Context, bucket, objectPath, _ string) io.WriteCloser {
			o := &memObject{}
			objects[bucket+"/"+objectPath] = o
			return o
		},
	}

	url, err := up.Upload(context.Background(), 42, "Me.PNG", "image/png", strings.NewReader("pixels"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "https://storage.googleapis.com/bkt/avatars/42/"))
	assert.True(t, strings.HasSuffix(url, ".png"))

	require.Len(t, objects, 1)
	for _, o := range objects {
		assert.Equal(t, "pixels", o.String())
		assert.True(t, o.closed)
	}
}

func TestAvatarUploader_RejectsType(t *testing.T) {
	up := &AvatarUploader{Bucket: "bkt"}
	_, err := up.Upload(context.Background(), 1, "x.exe", "application/octet-stream", strings.NewReader(""))
	assert.ErrorIs(t, err, ErrAvatarType)
}
