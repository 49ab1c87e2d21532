package store

import (
	"context"
	"strings"
)

// OpenSink picks the sink for an output location: s3:// URLs go to S3,
// anything else is a local directory.
func OpenSink(ctx context.Context, output string) (Sink, error) {
	if strings.HasPrefix(output, "s3://") {
		return NewS3Sink(ctx, output)
	}
	return NewLocalSink(output)
}
