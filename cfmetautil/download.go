/*
Copyright © 2019 the InMAP authors.
This file is part of cfmeta.

cfmeta is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

cfmeta is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with cfmeta.  If not, see <http://www.gnu.org/licenses/>.
*/

package cfmetautil

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/google/go-cloud/blob"
	"github.com/google/go-cloud/blob/fileblob"
	"github.com/google/go-cloud/blob/gcsblob"
	"github.com/google/go-cloud/blob/s3blob"
	"github.com/google/go-cloud/gcp"
	"github.com/spatialmodel/cfmeta/catalog"
	"github.com/spatialmodel/cfmeta/ncfile"
)

// maybeDownload checks if the input is an existing file locally.
// If not, it checks if the file is a URL or a blob.
// If it is, it downloads the file into a new temporary directory and
// returns the path to the downloaded file. Other paths are returned
// unchanged.
func maybeDownload(ctx context.Context, path string) (string, error) {
	// Check if local file exists. If it does, return the given path.
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return path, nil
	}

	// If the path starts with one of these prefixes, download the file and
	// return the location it was downloaded to.
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return downloadHTTP(ctx, path)
	}

	if IsBlob(path) {
		return downloadBlob(ctx, path)
	}

	return path, nil
}

// removeDownload deletes the temporary directory holding local if it
// was downloaded from path.
func removeDownload(path, local string) {
	if local != path {
		os.RemoveAll(filepath.Dir(local))
	}
}

// downloadHTTP downloads a file from the specified URL and returns
// the path to the downloaded file.
func downloadHTTP(ctx context.Context, path string) (string, error) {
	u, err := url.Parse(path)
	if err != nil {
		return path, err
	}
	req, err := http.NewRequest(http.MethodGet, path, nil)
	if err != nil {
		return path, err
	}
	resp, err := http.DefaultClient.Do(req.WithContext(ctx))
	if err != nil {
		return path, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return path, fmt.Errorf("cfmetautil: downloading %s: %s", path, resp.Status)
	}
	return saveDownload(baseName(u.Path), resp.Body)
}

// saveDownload copies r into a file called name in a new temporary
// directory.
func saveDownload(name string, r io.Reader) (string, error) {
	// Prepare a temporary directory for the downloads.
	dir, err := os.MkdirTemp("", "cfmeta")
	if err != nil {
		return "", fmt.Errorf("cfmetautil: failed creating temporary download directory: %v", err)
	}
	local := filepath.Join(dir, name)
	w, err := os.Create(local)
	if err != nil {
		os.RemoveAll(dir)
		return "", fmt.Errorf("cfmetautil: failed creating file for download: %v", err)
	}
	if _, err = io.Copy(w, r); err != nil {
		w.Close()
		os.RemoveAll(dir)
		return "", err
	}
	if err = w.Close(); err != nil {
		os.RemoveAll(dir)
		return "", err
	}
	return local, nil
}

func baseName(p string) string {
	b := path.Base(p)
	if b == "." || b == "/" {
		return "download"
	}
	return b
}

// IsBlob returns whether the given filename represents a blob.
// (i.e., if it starts with `gs://`, 's3://', or 'file://').
func IsBlob(path string) bool {
	return strings.HasPrefix(path, "gs://") || strings.HasPrefix(path, "s3://") || strings.HasPrefix(path, "file://")
}

// OpenBucket returns the blob storage bucket specified by bucketName,
// where bucketName must be in the format 'provider://name' where provider
// is the name of the storage provider and name is the name of the bucket.
// The currently accepted storage providers are "file" for the local filesystem
// (e.g., for testing), "gs" for Google Cloud Storage, and "s3" for AWS S3.
// For "file", name is the directory that holds the blobs.
func OpenBucket(ctx context.Context, bucketName string) (*blob.Bucket, error) {
	u, err := url.Parse(bucketName)
	if err != nil {
		return nil, fmt.Errorf("cfmetautil.OpenBucket: %v", err)
	}
	switch u.Scheme {
	case "file":
		return fileblob.NewBucket(u.Host + u.Path)
	case "gs":
		return gsBucket(ctx, u.Hostname())
	case "s3":
		return s3Bucket(ctx, u.Hostname())
	default:
		return nil, fmt.Errorf("cfmetautil.OpenBucket: invalid provider %s", u.Scheme)
	}
}

func gsBucket(ctx context.Context, name string) (*blob.Bucket, error) {
	// See here for information on credentials:
	// https://cloud.google.com/docs/authentication/getting-started
	creds, err := gcp.DefaultCredentials(ctx)
	if err != nil {
		return nil, err
	}
	c, err := gcp.NewHTTPClient(gcp.DefaultTransport(), gcp.CredentialsTokenSource(creds))
	if err != nil {
		return nil, err
	}
	return gcsblob.OpenBucket(ctx, name, c)
}

// s3Bucket opens an s3 storage bucket. It assumes the following
// environment variables are set: AWS_REGION, AWS_ACCESS_KEY_ID, and
// AWS_SECRET_ACCESS_KEY.
func s3Bucket(ctx context.Context, name string) (*blob.Bucket, error) {
	region := os.Getenv("AWS_REGION")
	if region == "" {
		region = "us-east-2"
	}
	c := &aws.Config{
		Region:      aws.String(region),
		Credentials: credentials.NewEnvCredentials(),
	}
	s, err := session.NewSession(c)
	if err != nil {
		return nil, err
	}
	return s3blob.OpenBucket(ctx, s, name)
}

// splitBlob splits a blob path into its bucket and key. For file blobs
// the bucket is the directory holding the file.
func splitBlob(p string) (bucket, key string, err error) {
	u, err := url.Parse(p)
	if err != nil {
		return "", "", err
	}
	if u.Scheme == "file" {
		dir, file := path.Split(u.Host + u.Path)
		return "file://" + strings.TrimSuffix(dir, "/"), file, nil
	}
	return u.Scheme + "://" + u.Host, strings.TrimPrefix(u.Path, "/"), nil
}

// downloadBlob downloads the specified file from blob storage.
func downloadBlob(ctx context.Context, p string) (string, error) {
	bucketName, key, err := splitBlob(p)
	if err != nil {
		return p, err
	}
	bucket, err := OpenBucket(ctx, bucketName)
	if err != nil {
		return p, err
	}
	r, err := bucket.NewReader(ctx, key)
	if err != nil {
		return p, err
	}
	defer r.Close()
	return saveDownload(baseName(key), r)
}

// download is a dataset that was downloaded to a temporary directory.
type download struct {
	*ncfile.File
	source, local string
}

// Close closes the file and deletes the download.
func (d *download) Close() error {
	err := d.File.Close()
	removeDownload(d.source, d.local)
	return err
}

// openSource opens the NetCDF dataset at source, which can be a local
// file, a URL or a blob.
func openSource(ctx context.Context, source string) (catalog.Dataset, error) {
	local, err := maybeDownload(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("cfmetautil: getting %s: %v", source, err)
	}
	f, err := ncfile.Open(local)
	if err != nil {
		removeDownload(source, local)
		return nil, err
	}
	return &download{File: f, source: source, local: local}, nil
}
