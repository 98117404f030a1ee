package s3gw

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/require"

	"github.com/s3c/s3c/internal/apperr"
)

// fakeAPI is a hand-written stand-in for *s3.Client, grounded on C2FO-vfs's
// mocked S3 backend tests (backend/s3/fileSystem_test.go) but written
// directly against the narrow s3gw.API seam instead of a generated mock.
type fakeAPI struct {
	putCalls      int
	putSizes      []int
	createCalled  bool
	uploadCalls   int
	abortCalled   bool
	completeErr   error
	uploadPartErr error

	getErr error
}

func (f *fakeAPI) ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, opts ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	return &s3.ListObjectsV2Output{}, nil
}

func (f *fakeAPI) HeadObject(ctx context.Context, in *s3.HeadObjectInput, opts ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	return &s3.HeadObjectOutput{}, nil
}

func (f *fakeAPI) GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader("x"))}, nil
}

func (f *fakeAPI) PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.putCalls++
	data, _ := io.ReadAll(in.Body)
	f.putSizes = append(f.putSizes, len(data))
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeAPI) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeAPI) DeleteObjects(ctx context.Context, in *s3.DeleteObjectsInput, opts ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error) {
	return &s3.DeleteObjectsOutput{}, nil
}

func (f *fakeAPI) CopyObject(ctx context.Context, in *s3.CopyObjectInput, opts ...func(*s3.Options)) (*s3.CopyObjectOutput, error) {
	return &s3.CopyObjectOutput{}, nil
}

func (f *fakeAPI) CreateMultipartUpload(ctx context.Context, in *s3.CreateMultipartUploadInput, opts ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error) {
	f.createCalled = true
	return &s3.CreateMultipartUploadOutput{UploadId: aws.String("upload-1")}, nil
}

func (f *fakeAPI) UploadPart(ctx context.Context, in *s3.UploadPartInput, opts ...func(*s3.Options)) (*s3.UploadPartOutput, error) {
	f.uploadCalls++
	if f.uploadPartErr != nil {
		return nil, f.uploadPartErr
	}
	return &s3.UploadPartOutput{ETag: aws.String("etag")}, nil
}

func (f *fakeAPI) CompleteMultipartUpload(ctx context.Context, in *s3.CompleteMultipartUploadInput, opts ...func(*s3.Options)) (*s3.CompleteMultipartUploadOutput, error) {
	if f.completeErr != nil {
		return nil, f.completeErr
	}
	return &s3.CompleteMultipartUploadOutput{}, nil
}

func (f *fakeAPI) AbortMultipartUpload(ctx context.Context, in *s3.AbortMultipartUploadInput, opts ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error) {
	f.abortCalled = true
	return &s3.AbortMultipartUploadOutput{}, nil
}

func TestPutAtMultipartThresholdUsesSinglePutObject(t *testing.T) {
	fake := &fakeAPI{}
	gw := New(fake, "bucket")

	err := gw.Put(context.Background(), "key", strings.NewReader(strings.Repeat("a", multipartThreshold)), multipartThreshold, nil)

	require.NoError(t, err)
	require.Equal(t, 1, fake.putCalls)
	require.False(t, fake.createCalled, "exactly multipartThreshold bytes must stay under the single-PutObject path")
}

func TestPutOverMultipartThresholdUsesMultipartUpload(t *testing.T) {
	fake := &fakeAPI{}
	gw := New(fake, "bucket")
	total := int64(multipartThreshold + 1)

	err := gw.Put(context.Background(), "key", strings.NewReader(strings.Repeat("a", int(total))), total, nil)

	require.NoError(t, err)
	require.True(t, fake.createCalled)
	require.Equal(t, 2, fake.uploadCalls, "one part exactly at partSize, a second for the 1 remaining byte")
	require.False(t, fake.abortCalled)
	require.Equal(t, 0, fake.putCalls)
}

func TestPutMultipartAbortsOnUploadPartError(t *testing.T) {
	wantErr := errors.New("network blip")
	fake := &fakeAPI{uploadPartErr: wantErr}
	gw := New(fake, "bucket")
	total := int64(multipartThreshold + 1)

	err := gw.Put(context.Background(), "key", strings.NewReader(strings.Repeat("a", int(total))), total, nil)

	require.Error(t, err)
	require.True(t, fake.abortCalled, "a failed UploadPart must abort the multipart upload rather than leave it dangling")
}

func TestPutMultipartAbortsOnCompleteError(t *testing.T) {
	wantErr := errors.New("complete failed")
	fake := &fakeAPI{completeErr: wantErr}
	gw := New(fake, "bucket")
	total := int64(multipartThreshold + 1)

	err := gw.Put(context.Background(), "key", strings.NewReader(strings.Repeat("a", int(total))), total, nil)

	require.Error(t, err)
	require.True(t, fake.abortCalled)
}

func TestPutReportsProgressForSmallUpload(t *testing.T) {
	fake := &fakeAPI{}
	gw := New(fake, "bucket")
	var reported int64

	err := gw.Put(context.Background(), "key", strings.NewReader("hello"), 5, func(n int64) { reported = n })

	require.NoError(t, err)
	require.Equal(t, int64(5), reported)
}

func TestNormalizeErrNilIsNil(t *testing.T) {
	require.NoError(t, normalizeErr(nil))
}

func TestNormalizeErrContextCanceledMapsToCanceled(t *testing.T) {
	err := normalizeErr(context.Canceled)
	require.True(t, apperr.Is(err, apperr.Canceled))
}

func TestNormalizeErrNoSuchKeyMapsToNotFound(t *testing.T) {
	err := normalizeErr(&types.NoSuchKey{})
	require.True(t, apperr.Is(err, apperr.NotFound))
}

func TestNormalizeErrNoSuchBucketMapsToNotFound(t *testing.T) {
	err := normalizeErr(&types.NoSuchBucket{})
	require.True(t, apperr.Is(err, apperr.NotFound))
}

func TestNormalizeErrAPIErrorCodesMapToTaxonomy(t *testing.T) {
	cases := []struct {
		code string
		want apperr.Kind
	}{
		{"NoSuchKey", apperr.NotFound},
		{"NoSuchBucket", apperr.NotFound},
		{"AccessDenied", apperr.AccessDenied},
		{"Forbidden", apperr.AccessDenied},
		{"PermanentRedirect", apperr.WrongRegion},
		{"AuthorizationHeaderMalformed", apperr.WrongRegion},
		{"ExpiredToken", apperr.CredentialExpired},
		{"RequestExpired", apperr.CredentialExpired},
	}
	for _, c := range cases {
		err := normalizeErr(&smithy.GenericAPIError{Code: c.code, Message: "boom"})
		require.True(t, apperr.Is(err, c.want), "code %q", c.code)
	}
}

func TestNormalizeErrUnknownMapsToOther(t *testing.T) {
	err := normalizeErr(&smithy.GenericAPIError{Code: "SomeUnmappedThing", Message: "?"})
	require.True(t, apperr.Is(err, apperr.Other))
}
