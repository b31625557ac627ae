package aws_test

import (
	"testing"

	awspkg "storefront-service/pkg/aws"

	"github.com/stretchr/testify/assert"
)

func TestObjectKeyFromURL(t *testing.T) {
	cases := []struct {
		name string
		url  string
		key  string
		ok   bool
	}{
		{"virtual hosted", "https://images.s3.amazonaws.com/products/7/front.jpg", "products/7/front.jpg", true},
		{"path style", "http://localhost:4566/images/products/7/front.jpg", "products/7/front.jpg", true},
		{"other bucket", "https://other.s3.amazonaws.com/products/7/front.jpg", "", false},
		{"bucket root", "https://images.s3.amazonaws.com/", "", false},
		{"not a url", "::", "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			key, ok := awspkg.ObjectKeyFromURL(tc.url, "images")
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.key, key)
		})
	}
}
