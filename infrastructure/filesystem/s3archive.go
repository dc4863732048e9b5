package filesystem

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"
	"time"

	"axiapac.com/timeclock/device"
	"axiapac.com/timeclock/model"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3API is the subset of the S3 client the archive uses.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	s3.ListObjectsV2APIClient
}

// RawBatch is the document stored for each fetch from a terminal.
type RawBatch struct {
	DeviceID     int32                `json:"deviceId"`
	SerialNumber string               `json:"serialNumber"`
	FetchedAt    time.Time            `json:"fetchedAt"`
	Punches      []device.DevicePunch `json:"punches"`
}

// S3Archive stores raw terminal batches under
// <prefix>/<device>/<yyyy>/<mm>/<dd>/<fetchedAt>.json.
type S3Archive struct {
	client S3API
	bucket string
	prefix string
}

func NewS3Archive(client S3API, bucket, prefix string) *S3Archive {
	return &S3Archive{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

// ConnectS3Archive builds the client from the default AWS configuration.
func ConnectS3Archive(ctx context.Context, bucket, prefix string) (*S3Archive, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return NewS3Archive(s3.NewFromConfig(cfg), bucket, prefix), nil
}

func (a *S3Archive) key(d model.Device, fetchedAt time.Time) string {
	name := d.SerialNumber
	if name == "" {
		name = "device-" + strconv.Itoa(int(d.ID))
	}
	at := fetchedAt.UTC()
	return path.Join(a.prefix, name, at.Format("2006/01/02"), at.Format("20060102T150405.000Z")+".json")
}

func (a *S3Archive) ArchivePunches(ctx context.Context, d model.Device, fetchedAt time.Time, punches []device.DevicePunch) error {
	body, err := json.Marshal(RawBatch{
		DeviceID:     d.ID,
		SerialNumber: d.SerialNumber,
		FetchedAt:    fetchedAt.UTC(),
		Punches:      punches,
	})
	if err != nil {
		return err
	}

	key := a.key(d, fetchedAt)
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to put object %s to bucket %s: %w", key, a.bucket, err)
	}
	return nil
}

// ReadFile copies an archived object to outStream.
func (a *S3Archive) ReadFile(ctx context.Context, key string, outStream io.Writer) error {
	resp, err := a.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to get object %s from bucket %s: %w", key, a.bucket, err)
	}
	defer resp.Body.Close()

	if _, err := io.Copy(outStream, resp.Body); err != nil {
		return fmt.Errorf("failed to copy object %s from bucket %s: %w", key, a.bucket, err)
	}
	return nil
}

// ListFiles lists archived keys below the archive prefix joined with sub.
func (a *S3Archive) ListFiles(ctx context.Context, sub string) ([]string, error) {
	prefix := path.Join(a.prefix, sub)
	if prefix != "" && prefix != "." {
		prefix += "/"
	} else {
		prefix = ""
	}

	var keys []string
	paginator := s3.NewListObjectsV2Paginator(a.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(a.bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list objects in bucket %s: %w", a.bucket, err)
		}
		for _, obj := range page.Contents {
			if obj.Key != nil {
				keys = append(keys, *obj.Key)
			}
		}
	}
	return keys, nil
}
