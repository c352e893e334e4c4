package validation

import (
	"errors"
	"testing"

	"github.com/medsport/attachments/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckFile(t *testing.T) {
	c := NewUploadConstraints([]string{"application/pdf", "Image/PNG"}, 1024)

	tests := []struct {
		name     string
		filename string
		mimeType string
		size     int64
		field    string
	}{
		{"valid pdf", "report.pdf", "application/pdf", 1024, ""},
		{"allow-list is case insensitive", "scan.png", "image/png", 10, ""},
		{"unknown size", "report.pdf", "application/pdf", -1, ""},
		{"missing file", "", "application/pdf", 10, "file"},
		{"empty file", "report.pdf", "application/pdf", 0, "file"},
		{"executable", "setup.exe", "application/x-msdownload", 10, "mime_type"},
		{"too large", "report.pdf", "application/pdf", 1025, "file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := c.CheckFile(tt.filename, tt.mimeType, tt.size)
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			var verr *Error
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestNormalizeMimeType(t *testing.T) {
	assert.Equal(t, "text/plain", NormalizeMimeType("Text/Plain; charset=utf-8"))
	assert.Equal(t, "application/pdf", NormalizeMimeType("application/pdf"))
}

func TestEntityRef(t *testing.T) {
	et, err := EntityRef("visit_pcma", "42")
	require.NoError(t, err)
	assert.Equal(t, model.EntityVisitPCMA, et)

	_, err = EntityRef("", "42")
	assert.Error(t, err)
	_, err = EntityRef("player", " ")
	assert.Error(t, err)
	_, err = EntityRef("spaceship", "42")
	assert.Error(t, err)
}

func TestParseCategory(t *testing.T) {
	c, err := ParseCategory("")
	require.NoError(t, err)
	assert.Equal(t, model.CategoryGeneral, c)

	c, err = ParseCategory("ecg")
	require.NoError(t, err)
	assert.Equal(t, model.CategoryECG, c)

	_, err = ParseCategory("holiday_photos")
	assert.Error(t, err)
}

func TestParseMetadata(t *testing.T) {
	m, err := ParseMetadata("")
	require.NoError(t, err)
	assert.False(t, m.Valid)

	m, err = ParseMetadata(`{"device":"GE MAC 2000","leads":12}`)
	require.NoError(t, err)
	assert.True(t, m.Valid)
	assert.JSONEq(t, `{"device":"GE MAC 2000","leads":12}`, string(m.JSONText))

	_, err = ParseMetadata(`{"device":`)
	var verr *Error
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "metadata", verr.Field)
}
