package aws

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3ImageStore removes product images stored in a single bucket.
type S3ImageStore struct {
	client *s3.Client
	bucket string
}

func NewS3ImageStore(cfg sdkaws.Config, bucket string) *S3ImageStore {
	return &S3ImageStore{client: s3.NewFromConfig(cfg), bucket: bucket}
}

// DeleteImages deletes the objects behind the given public URLs. URLs that do not point
// into the bucket are ignored.
func (s *S3ImageStore) DeleteImages(ctx context.Context, imageURLs []string) error {
	ids := make([]types.ObjectIdentifier, 0, len(imageURLs))
	for _, raw := range imageURLs {
		key, ok := ObjectKeyFromURL(raw, s.bucket)
		if !ok {
			continue
		}
		ids = append(ids, types.ObjectIdentifier{Key: sdkaws.String(key)})
	}

	// DeleteObjects accepts at most 1000 keys per call.
	for start := 0; start < len(ids); start += 1000 {
		end := min(start+1000, len(ids))
		out, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: sdkaws.String(s.bucket),
			Delete: &types.Delete{Objects: ids[start:end], Quiet: sdkaws.Bool(true)},
		})
		if err != nil {
			return fmt.Errorf("s3 DeleteObjects failed: %w", err)
		}
		if len(out.Errors) > 0 {
			e := out.Errors[0]
			return fmt.Errorf("s3 could not delete %s: %s", sdkaws.ToString(e.Key), sdkaws.ToString(e.Message))
		}
	}
	return nil
}

// ObjectKeyFromURL extracts the object key from a virtual-hosted
// (https://bucket.s3.amazonaws.com/key) or path-style (https://host/bucket/key) URL.
func ObjectKeyFromURL(raw, bucket string) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", false
	}
	path := strings.TrimPrefix(u.Path, "/")

	if strings.HasPrefix(u.Host, bucket+".") {
		return path, path != ""
	}
	if rest, ok := strings.CutPrefix(path, bucket+"/"); ok {
		return rest, rest != ""
	}
	return "", false
}
