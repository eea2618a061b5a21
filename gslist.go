package dicomconvert

import (
	"context"
	"fmt"
	"sort"

	"cloud.google.com/go/storage"
	"github.com/carbocation/pfx"
	"google.golang.org/api/iterator"
)

// ListFromGoogleStorage returns the full gs:// paths of every object whose
// name starts with the object part of prefix, sorted.
func ListFromGoogleStorage(ctx context.Context, prefix string, client *storage.Client) ([]string, error) {
	if client == nil {
		return nil, pfx.Err(fmt.Errorf("%s: no Google Storage client", prefix))
	}

	bucketName, objectPrefix, err := SplitGoogleStoragePath(prefix)
	if err != nil {
		return nil, pfx.Err(err)
	}

	it := client.Bucket(bucketName).Objects(ctx, &storage.Query{Prefix: objectPrefix})

	out := make([]string, 0)
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, pfx.Err(fmt.Errorf("%s: %w", prefix, err))
		}

		// Skip "directory" placeholders
		if attrs.Name == "" || attrs.Name[len(attrs.Name)-1] == '/' {
			continue
		}

		out = append(out, gsPrefix+bucketName+"/"+attrs.Name)
	}

	sort.Strings(out)

	return out, nil
}
