package assets

import (
	"testing"

	"github.com/dom/coursemarket/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDataURI(t *testing.T) {
	uri := DataURI(domain.ImageUpload{ContentType: "image/png", Data: []byte("png")})
	assert.Equal(t, "data:image/png;base64,cG5n", uri)
}

func TestNewCloudinaryHost(t *testing.T) {
	host, err := NewCloudinaryHost("demo", "key", "secret")
	require.NoError(t, err)
	assert.NotNil(t, host.cld)
}
