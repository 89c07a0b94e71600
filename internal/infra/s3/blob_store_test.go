package s3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

type stubS3 struct {
	s3iface.S3API

	objects map[string][]byte
	getErr  error
}

func newStubS3() *stubS3 {
	return &stubS3{objects: map[string][]byte{}}
}

func (s *stubS3) PutObjectWithContext(_ aws.Context, input *s3.PutObjectInput, _ ...request.Option) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(input.Body)
	if err != nil {
		return nil, err
	}
	s.objects[aws.StringValue(input.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

func (s *stubS3) GetObjectWithContext(_ aws.Context, input *s3.GetObjectInput, _ ...request.Option) (*s3.GetObjectOutput, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	data, ok := s.objects[aws.StringValue(input.Key)]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (s *stubS3) DeleteObjectWithContext(_ aws.Context, input *s3.DeleteObjectInput, _ ...request.Option) (*s3.DeleteObjectOutput, error) {
	delete(s.objects, aws.StringValue(input.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestBlobStore_PutGetDelete(t *testing.T) {
	stub := newStubS3()
	b := NewBlobStoreWithClient(stub, "bucket")
	ctx := context.Background()

	if err := b.Put(ctx, "fonts/owned/u1/o1/arial.shx", []byte("glyphs")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	data, err := b.Get(ctx, "fonts/owned/u1/o1/arial.shx")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(data) != "glyphs" {
		t.Errorf("payload = %q", data)
	}

	if err := b.Delete(ctx, "fonts/owned/u1/o1/arial.shx"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok := stub.objects["fonts/owned/u1/o1/arial.shx"]; ok {
		t.Error("object still present after delete")
	}
}

func TestBlobStore_GetError(t *testing.T) {
	stub := newStubS3()
	stub.getErr = errors.New("connection reset")
	b := NewBlobStoreWithClient(stub, "bucket")

	if _, err := b.Get(context.Background(), "somewhere"); err == nil {
		t.Fatal("expected an error")
	}
}
