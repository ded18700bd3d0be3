package schema

import (
	"encoding/base64"
	"testing"
)

func TestDecodeDataURI(t *testing.T) {
	doc := `{"traits":{}}`

	tests := []struct {
		name    string
		uri     string
		want    string
		wantOK  bool
		wantErr bool
	}{
		{
			name:   "base64 payload",
			uri:    "data:application/json;base64," + base64.StdEncoding.EncodeToString([]byte(doc)),
			want:   doc,
			wantOK: true,
		},
		{
			name:   "plain payload",
			uri:    "data:application/json," + doc,
			want:   doc,
			wantOK: true,
		},
		{
			name:   "percent encoded payload",
			uri:    "data:application/json,%7B%22traits%22%3A%7B%7D%7D",
			want:   doc,
			wantOK: true,
		},
		{
			name:   "offchain URL is not a data URI",
			uri:    "https://example.com/traits.json",
			wantOK: false,
		},
		{
			name:    "data URI without comma",
			uri:     "data:application/json;base64",
			wantOK:  true,
			wantErr: true,
		},
		{
			name:    "bad base64",
			uri:     "data:application/json;base64,!!!",
			wantOK:  true,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, ok, err := DecodeDataURI(tt.uri)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil || !ok {
				return
			}
			if string(data) != tt.want {
				t.Errorf("payload = %q, want %q", data, tt.want)
			}
		})
	}
}
