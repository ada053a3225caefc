package auth

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		name    string
		values  []string
		want    string
		wantErr error
	}{
		{name: "missing header", wantErr: ErrEmptyToken},
		{name: "empty header", values: []string{""}, wantErr: ErrEmptyToken},
		{name: "basic scheme", values: []string{"Basic dXNlcjpwYXNz"}, wantErr: ErrEmptyToken},
		{name: "lowercase scheme", values: []string{"bearer abc123"}, wantErr: ErrEmptyToken},
		{name: "no space", values: []string{"Bearerabc123"}, wantErr: ErrEmptyToken},
		{name: "prefix only", values: []string{"Bearer "}, wantErr: ErrEmptyToken},
		{name: "valid", values: []string{"Bearer abc123"}, want: "abc123"},
		{name: "remainder is verbatim", values: []string{"Bearer  a b.c="}, want: " a b.c="},
		{name: "first header wins", values: []string{"Bearer first", "Bearer second"}, want: "first"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header := http.Header{}
			for _, v := range tt.values {
				header.Add(HeaderAuthorization, v)
			}

			token, err := ExtractBearerToken(header)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, token)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, token)
		})
	}
}

func TestFingerprint(t *testing.T) {
	fp := Fingerprint("abc123")
	assert.Len(t, fp, fingerprintBytes*2)
	assert.Equal(t, fp, Fingerprint("abc123"))
	assert.NotEqual(t, fp, Fingerprint("abc124"))
	assert.NotContains(t, fp, "abc123")
	assert.Empty(t, Fingerprint(""))
}
