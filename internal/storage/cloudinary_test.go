package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDownloadURL(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{
			"raw delivery url",
			"https://res.cloudinary.com/demo/raw/upload/v1724932800/stockflow_bills/bill_1724932800000.pdf",
			"https://res.cloudinary.com/demo/raw/upload/fl_attachment/v1724932800/stockflow_bills/bill_1724932800000.pdf",
		},
		{
			"only the first upload segment is rewritten",
			"https://res.cloudinary.com/demo/raw/upload/v1/folder/upload/file.pdf",
			"https://res.cloudinary.com/demo/raw/upload/fl_attachment/v1/folder/upload/file.pdf",
		},
		{"empty", "", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DownloadURL(tc.in))
		})
	}
}

func TestExtractPublicID(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{
			"bill url",
			"https://res.cloudinary.com/demo/raw/upload/v1724932800/stockflow_bills/bill_1724932800000.pdf",
			"stockflow_bills/bill_1724932800000",
		},
		{
			"no folder",
			"https://res.cloudinary.com/demo/image/upload/v42/avatar.png",
			"avatar",
		},
		{"no version segment", "https://res.cloudinary.com/demo/raw/upload/file.pdf", ""},
		{"empty", "", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ExtractPublicID(tc.in))
		})
	}
}

func TestNewCloudinaryStorage_RequiresURL(t *testing.T) {
	_, err := NewCloudinaryStorage("", "stockflow_bills")
	assert.Error(t, err)
}
