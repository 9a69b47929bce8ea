// Package storage handles object store URIs of the form s3://bucket/key.
package storage

import (
	"fmt"
	"strings"
)

// Scheme is the only URI scheme understood by the object store adapters.
const Scheme = "s3://"

// URI addresses an object or a key prefix in a bucket.
type URI struct {
	Bucket string
	Key    string
}

// ParseURI splits s3://bucket/key into its parts. The key may be empty.
func ParseURI(raw string) (URI, error) {
	if !strings.HasPrefix(raw, Scheme) {
		return URI{}, fmt.Errorf("invalid object URI %q: missing %s scheme", raw, Scheme)
	}
	rest := strings.TrimPrefix(raw, Scheme)
	bucket, key, _ := strings.Cut(rest, "/")
	if bucket == "" {
		return URI{}, fmt.Errorf("invalid object URI %q: missing bucket", raw)
	}
	return URI{Bucket: bucket, Key: key}, nil
}

// String renders the URI back to s3://bucket/key form.
func (u URI) String() string {
	if u.Key == "" {
		return Scheme + u.Bucket
	}
	return Scheme + u.Bucket + "/" + u.Key
}

// Join appends path segments to the key, separated by a single slash.
func (u URI) Join(parts ...string) URI {
	segs := make([]string, 0, len(parts)+1)
	if k := strings.Trim(u.Key, "/"); k != "" {
		segs = append(segs, k)
	}
	for _, p := range parts {
		if p = strings.Trim(p, "/"); p != "" {
			segs = append(segs, p)
		}
	}
	return URI{Bucket: u.Bucket, Key: strings.Join(segs, "/")}
}

// JoinURI parses base and appends parts to it.
func JoinURI(base string, parts ...string) (string, error) {
	u, err := ParseURI(base)
	if err != nil {
		return "", err
	}
	return u.Join(parts...).String(), nil
}
