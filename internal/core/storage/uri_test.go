package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseURI(t *testing.T) {
	tests := []struct {
		raw     string
		want    URI
		wantErr bool
	}{
		{raw: "s3://bucket/sts/ep/datacapture", want: URI{Bucket: "bucket", Key: "sts/ep/datacapture"}},
		{raw: "s3://bucket", want: URI{Bucket: "bucket"}},
		{raw: "s3://bucket/", want: URI{Bucket: "bucket"}},
		{raw: "https://bucket/key", wantErr: true},
		{raw: "s3:///key", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseURI(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestURI_Join(t *testing.T) {
	u := URI{Bucket: "b", Key: "sts/ep/"}
	assert.Equal(t, "s3://b/sts/ep/ground_truth_data/2021/02/12/13", u.Join("ground_truth_data", "/2021/02/12/13/").String())
	assert.Equal(t, "s3://b/x", URI{Bucket: "b"}.Join("x").String())
}

func TestJoinURI(t *testing.T) {
	got, err := JoinURI("s3://bucket/sts/datacapture", "sts-sklearn-1")
	require.NoError(t, err)
	assert.Equal(t, "s3://bucket/sts/datacapture/sts-sklearn-1", got)

	_, err = JoinURI("bucket/key", "x")
	assert.Error(t, err)
}
