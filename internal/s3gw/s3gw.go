// Package s3gw implements the S3 Gateway (spec §4.3): uniform,
// cancellable list/get/put/delete/head/mkdir/rename verbs over
// aws-sdk-go-v2's S3 client, normalizing SDK errors into the closed
// taxonomy in internal/apperr.
package s3gw

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/s3c/s3c/internal/apperr"
	"github.com/s3c/s3c/internal/model"
)

// multipartThreshold is the size above which Put uses multipart upload
// (spec §4.3).
const multipartThreshold = 16 * 1024 * 1024

const deleteBatchSize = 1000

// API is the subset of *s3.Client the Gateway calls, narrowed so tests
// can substitute a fake rather than hitting a real endpoint (the same
// interface-seam C2FO-vfs's s3 backend uses around its own Client).
type API interface {
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, opts ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, opts ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	DeleteObjects(ctx context.Context, in *s3.DeleteObjectsInput, opts ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)
	CopyObject(ctx context.Context, in *s3.CopyObjectInput, opts ...func(*s3.Options)) (*s3.CopyObjectOutput, error)
	CreateMultipartUpload(ctx context.Context, in *s3.CreateMultipartUploadInput, opts ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error)
	UploadPart(ctx context.Context, in *s3.UploadPartInput, opts ...func(*s3.Options)) (*s3.UploadPartOutput, error)
	CompleteMultipartUpload(ctx context.Context, in *s3.CompleteMultipartUploadInput, opts ...func(*s3.Options)) (*s3.CompleteMultipartUploadOutput, error)
	AbortMultipartUpload(ctx context.Context, in *s3.AbortMultipartUploadInput, opts ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error)
}

// Gateway wraps an API client bound to one bucket for the duration of a
// session (spec §4.2's cache lifetime).
type Gateway struct {
	Client API
	Bucket string
}

// New builds a Gateway bound to a bucket. Any *s3.Client satisfies API.
func New(client API, bucket string) *Gateway {
	return &Gateway{Client: client, Bucket: bucket}
}

// HeadInfo is the result of Head (spec §4.3).
type HeadInfo struct {
	Size  int64
	MTime int64 // unix seconds
	ETag  string
}

// List lists one "directory" level at prefix, delimiter "/" (spec §4.3).
// CommonPrefixes become Directory entries named by their last path
// segment; Contents become File entries; a Content key equal to prefix
// itself is omitted. Pages are concatenated transparently.
func (g *Gateway) List(ctx context.Context, prefix string) (model.Listing, error) {
	var entries []model.Entry
	var token *string
	for {
		out, err := g.Client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(g.Bucket),
			Prefix:            aws.String(prefix),
			Delimiter:         aws.String("/"),
			ContinuationToken: token,
		})
		if err != nil {
			return nil, normalizeErr(err)
		}
		for _, cp := range out.CommonPrefixes {
			key := aws.ToString(cp.Prefix)
			name := strings.TrimSuffix(strings.TrimPrefix(key, prefix), "/")
			if name == "" {
				continue
			}
			entries = append(entries, model.Entry{Name: name, Kind: model.Directory})
		}
		for _, obj := range out.Contents {
			key := aws.ToString(obj.Key)
			if key == prefix || strings.HasSuffix(key, "/") {
				continue
			}
			name := strings.TrimPrefix(key, prefix)
			e := model.Entry{Name: name, Kind: model.File, Size: aws.ToInt64(obj.Size), HasSize: true}
			if obj.LastModified != nil {
				e.MTime = *obj.LastModified
				e.HasMTime = true
			}
			entries = append(entries, e)
		}
		if out.IsTruncated == nil || !*out.IsTruncated {
			break
		}
		token = out.NextContinuationToken
	}
	return model.Listing(entries), nil
}

// Head returns size/mtime/etag for a key (spec §4.3).
func (g *Gateway) Head(ctx context.Context, key string) (HeadInfo, error) {
	out, err := g.Client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(g.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return HeadInfo{}, normalizeErr(err)
	}
	info := HeadInfo{Size: aws.ToInt64(out.ContentLength), ETag: aws.ToString(out.ETag)}
	if out.LastModified != nil {
		info.MTime = out.LastModified.Unix()
	}
	return info, nil
}

// GetRange fetches [offset, offset+length) of key (spec §4.3, used by the
// Preview Engine's chunked reads).
func (g *Gateway) GetRange(ctx context.Context, key string, offset, length int64) ([]byte, error) {
	rng := fmt.Sprintf("bytes=%d-%d", offset, offset+length-1)
	out, err := g.Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(g.Bucket),
		Key:    aws.String(key),
		Range:  aws.String(rng),
	})
	if err != nil {
		return nil, normalizeErr(err)
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}

// ProgressFunc reports bytes transferred so far.
type ProgressFunc func(transferred int64)

// Put uploads a stream of totalBytes to key, switching to multipart above
// multipartThreshold (spec §4.3).
func (g *Gateway) Put(ctx context.Context, key string, r io.Reader, totalBytes int64, progress ProgressFunc) error {
	if totalBytes <= multipartThreshold {
		data, err := io.ReadAll(r)
		if err != nil {
			return err
		}
		_, err = g.Client.PutObject(ctx, &s3.PutObjectInput{
			Bucket: aws.String(g.Bucket),
			Key:    aws.String(key),
			Body:   bytes.NewReader(data),
		})
		if err != nil {
			return normalizeErr(err)
		}
		if progress != nil {
			progress(int64(len(data)))
		}
		return nil
	}
	return g.putMultipart(ctx, key, r, totalBytes, progress)
}

const partSize = multipartThreshold

func (g *Gateway) putMultipart(ctx context.Context, key string, r io.Reader, totalBytes int64, progress ProgressFunc) error {
	created, err := g.Client.CreateMultipartUpload(ctx, &s3.CreateMultipartUploadInput{
		Bucket: aws.String(g.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return normalizeErr(err)
	}
	uploadID := created.UploadId

	abort := func() {
		_, _ = g.Client.AbortMultipartUpload(context.WithoutCancel(ctx), &s3.AbortMultipartUploadInput{
			Bucket:   aws.String(g.Bucket),
			Key:      aws.String(key),
			UploadId: uploadID,
		})
	}

	var parts []types.CompletedPart
	var partNum int32 = 1
	var transferred int64
	buf := make([]byte, partSize)
	for {
		n, readErr := io.ReadFull(r, buf)
		if n > 0 {
			out, err := g.Client.UploadPart(ctx, &s3.UploadPartInput{
				Bucket:     aws.String(g.Bucket),
				Key:        aws.String(key),
				UploadId:   uploadID,
				PartNumber: aws.Int32(partNum),
				Body:       bytes.NewReader(buf[:n]),
			})
			if err != nil {
				abort()
				return normalizeErr(err)
			}
			parts = append(parts, types.CompletedPart{ETag: out.ETag, PartNumber: aws.Int32(partNum)})
			partNum++
			transferred += int64(n)
			if progress != nil {
				progress(transferred)
			}
		}
		if readErr == io.EOF || readErr == io.ErrUnexpectedEOF {
			break
		}
		if readErr != nil {
			abort()
			return readErr
		}
	}

	_, err = g.Client.CompleteMultipartUpload(ctx, &s3.CompleteMultipartUploadInput{
		Bucket:          aws.String(g.Bucket),
		Key:             aws.String(key),
		UploadId:        uploadID,
		MultipartUpload: &types.CompletedMultipartUpload{Parts: parts},
	})
	if err != nil {
		abort()
		return normalizeErr(err)
	}
	return nil
}

// Delete removes key; if it names a "directory" (ends with "/"), all keys
// sharing that prefix are deleted in batches of up to 1000 (spec §4.3).
func (g *Gateway) Delete(ctx context.Context, key string) error {
	if !strings.HasSuffix(key, "/") {
		_, err := g.Client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(g.Bucket),
			Key:    aws.String(key),
		})
		return normalizeErr(err)
	}
	keys, err := g.listAllKeys(ctx, key)
	if err != nil {
		return err
	}
	return g.deleteKeys(ctx, keys)
}

func (g *Gateway) deleteKeys(ctx context.Context, keys []string) error {
	for start := 0; start < len(keys); start += deleteBatchSize {
		end := start + deleteBatchSize
		if end > len(keys) {
			end = len(keys)
		}
		batch := keys[start:end]
		objs := make([]types.ObjectIdentifier, len(batch))
		for i, k := range batch {
			objs[i] = types.ObjectIdentifier{Key: aws.String(k)}
		}
		_, err := g.Client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(g.Bucket),
			Delete: &types.Delete{Objects: objs},
		})
		if err != nil {
			return normalizeErr(err)
		}
	}
	return nil
}

func (g *Gateway) listAllKeys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	var token *string
	for {
		out, err := g.Client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(g.Bucket),
			Prefix:            aws.String(prefix),
			ContinuationToken: token,
		})
		if err != nil {
			return nil, normalizeErr(err)
		}
		for _, obj := range out.Contents {
			keys = append(keys, aws.ToString(obj.Key))
		}
		if out.IsTruncated == nil || !*out.IsTruncated {
			break
		}
		token = out.NextContinuationToken
	}
	return keys, nil
}

// Mkdir puts a zero-byte object at prefix, which must end with "/" (spec
// §4.3).
func (g *Gateway) Mkdir(ctx context.Context, prefix string) error {
	_, err := g.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(g.Bucket),
		Key:    aws.String(prefix),
		Body:   bytes.NewReader(nil),
	})
	return normalizeErr(err)
}

// Rename performs a server-side copy + delete (spec §4.3); for a prefix
// "directory" it iterates all contained keys, preserving partial state and
// surfacing the first failing key on error (spec scenario 6).
func (g *Gateway) Rename(ctx context.Context, srcKey, dstKey string) error {
	if !strings.HasSuffix(srcKey, "/") {
		if err := g.copyOne(ctx, srcKey, dstKey); err != nil {
			return err
		}
		_, err := g.Client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: aws.String(g.Bucket), Key: aws.String(srcKey)})
		return normalizeErr(err)
	}

	keys, err := g.listAllKeys(ctx, srcKey)
	if err != nil {
		return err
	}
	var renamed []string
	for _, k := range keys {
		newKey := dstKey + strings.TrimPrefix(k, srcKey)
		if err := g.copyOne(ctx, k, newKey); err != nil {
			return fmt.Errorf("renaming %q: %w", k, err)
		}
		renamed = append(renamed, k)
	}
	return g.deleteKeys(ctx, renamed)
}

func (g *Gateway) copyOne(ctx context.Context, srcKey, dstKey string) error {
	source := g.Bucket + "/" + srcKey
	_, err := g.Client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(g.Bucket),
		Key:        aws.String(dstKey),
		CopySource: aws.String(source),
	})
	return normalizeErr(err)
}

// normalizeErr maps raw SDK errors to the closed taxonomy (spec §4.3).
func normalizeErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return apperr.New(apperr.Canceled, "")
	}
	var nf *types.NoSuchKey
	var nb *types.NoSuchBucket
	if errors.As(err, &nf) || errors.As(err, &nb) {
		return apperr.WrapMsg(apperr.NotFound, err.Error(), err)
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NoSuchBucket", "NotFound":
			return apperr.WrapMsg(apperr.NotFound, err.Error(), err)
		case "AccessDenied", "Forbidden":
			return apperr.WrapMsg(apperr.AccessDenied, err.Error(), err)
		case "AuthorizationHeaderMalformed", "PermanentRedirect", "301 Moved Permanently":
			return apperr.WrapMsg(apperr.WrongRegion, err.Error(), err)
		case "ExpiredToken", "RequestExpired":
			return apperr.WrapMsg(apperr.CredentialExpired, err.Error(), err)
		}
	}

	var canceledErr interface{ Temporary() bool }
	if errors.As(err, &canceledErr) {
		return apperr.WrapMsg(apperr.NetworkError, err.Error(), err)
	}

	return apperr.WrapMsg(apperr.Other, err.Error(), err)
}
