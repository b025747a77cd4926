package checkup

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"github.com/hazz-dev/infracheck/internal/redact"
)

// SpacesConfig holds S3-compatible object storage settings, read from
// SPACES_* variables with vendor-neutral aliases.
type SpacesConfig struct {
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	Endpoint  string
}

// LoadSpacesConfig assembles the object-storage settings. Missing fields are
// reported by the runner as configuration records, not here.
func LoadSpacesConfig() SpacesConfig {
	region := firstEnv("SPACES_REGION", "DO_SPACES_REGION", "AWS_REGION")
	if region == "" {
		region = "syd1"
	}
	endpoint := firstEnv("SPACES_ENDPOINT", "DO_SPACES_ENDPOINT", "AWS_ENDPOINT_URL")
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://%s.digitaloceanspaces.com", region)
	}
	return SpacesConfig{
		AccessKey: firstEnv("SPACES_ACCESS_KEY", "DO_SPACES_KEY", "AWS_ACCESS_KEY_ID"),
		SecretKey: firstEnv("SPACES_SECRET_KEY", "DO_SPACES_SECRET", "AWS_SECRET_ACCESS_KEY"),
		Bucket:    firstEnv("SPACES_BUCKET", "DO_SPACES_BUCKET", "S3_BUCKET"),
		Region:    region,
		Endpoint:  endpoint,
	}
}

// SpacesRunner validates object-storage access: bucket reachability plus a
// put/get/head/delete cycle on a throwaway key.
type SpacesRunner struct {
	opts Options
}

func NewSpacesRunner(opts Options) *SpacesRunner {
	return &SpacesRunner{opts: opts}
}

func (r *SpacesRunner) System() string { return "spaces" }

func (r *SpacesRunner) Run(ctx context.Context) Suite {
	suite := Suite{System: r.System()}
	rep := r.opts.reporter()

	cfg := LoadSpacesConfig()
	if cfg.AccessKey == "" && cfg.SecretKey == "" {
		suite.Skipped = true
		suite.SkipReason = "no credentials configured (SPACES_ACCESS_KEY, SPACES_SECRET_KEY, SPACES_BUCKET)"
		return suite
	}

	rep.Info("endpoint: %s  region: %s  bucket: %s", cfg.Endpoint, cfg.Region, cfg.Bucket)
	rep.Info("access key: %s  secret key: %s",
		redact.MaskSecret(cfg.AccessKey, 4), redact.MaskSecret(cfg.SecretKey, 4))

	configured := true
	if cfg.AccessKey == "" {
		configured = suite.add("Spaces Config", false, "SPACES_ACCESS_KEY not set")
		rep.Check("Configuration", false, "missing access key")
	}
	if cfg.SecretKey == "" {
		configured = suite.add("Spaces Config", false, "SPACES_SECRET_KEY not set")
		rep.Check("Configuration", false, "missing secret key")
	}
	if cfg.Bucket == "" {
		configured = suite.add("Spaces Config", false, "SPACES_BUCKET not set")
		rep.Check("Configuration", false, "missing bucket name")
	}
	if !configured {
		return suite
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		),
	)
	if err != nil {
		suite.add("Spaces Client", false, err.Error())
		rep.Check("Client", false, err.Error())
		return suite
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.Endpoint)
		o.UsePathStyle = true
	})

	r.probe(ctx, &suite, client, cfg.Bucket)
	return suite
}

func (r *SpacesRunner) probe(ctx context.Context, suite *Suite, client *s3.Client, bucket string) {
	rep := r.opts.reporter()

	hctx, cancel := runCtx(ctx, r.opts.Timeouts.Heavy)
	defer cancel()

	if _, err := client.HeadBucket(hctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)}); err != nil {
		code := apiErrorCode(err)
		switch code {
		case "NotFound":
			suite.add("Spaces Bucket", false, fmt.Sprintf("bucket %q not found", bucket))
			rep.Check("Bucket Access", false, "bucket not found")
			rep.Warn("create the bucket or check SPACES_BUCKET")
		case "Forbidden", "AccessDenied":
			suite.add("Spaces Bucket", false, "access denied to bucket")
			rep.Check("Bucket Access", false, "access denied")
			rep.Warn("check the access key's permissions")
		default:
			suite.add("Spaces Bucket", false, err.Error())
			rep.Check("Bucket Access", false, err.Error())
			rep.Warn("check SPACES_ENDPOINT and SPACES_REGION")
		}
		return
	}
	suite.add("Spaces Bucket", true, fmt.Sprintf("bucket %q accessible", bucket))
	rep.Check("Bucket Access", true, "")

	key := "_infracheck_probe/" + shortID()
	content := []byte("infracheck probe content")

	defer func() {
		// Best-effort removal even when the object sequence failed partway.
		cctx, cancel := runCtx(context.Background(), r.opts.Timeouts.Cleanup)
		defer cancel()
		_, _ = client.DeleteObject(cctx, &s3.DeleteObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		})
	}()

	_, err := client.PutObject(hctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(content),
		ContentType: aws.String("text/plain"),
	})
	if err != nil {
		detail := spacesOpError(err)
		suite.add("Spaces PUT", false, detail)
		rep.Check("PUT Object", false, detail)
		return
	}
	suite.add("Spaces PUT", true, "uploaded "+key)
	rep.Check("PUT Object", true, "")

	got, err := client.GetObject(hctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		detail := spacesOpError(err)
		suite.add("Spaces GET", false, detail)
		rep.Check("GET Object", false, detail)
		return
	}
	retrieved, _ := io.ReadAll(got.Body)
	got.Body.Close()
	if !bytes.Equal(retrieved, content) {
		suite.add("Spaces GET", false, "content mismatch")
		rep.Check("GET Object", false, "content mismatch")
		return
	}
	suite.add("Spaces GET", true, "retrieved correct content")
	rep.Check("GET Object", true, "")

	head, err := client.HeadObject(hctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		suite.add("Spaces HEAD", false, spacesOpError(err))
		rep.Check("HEAD Object", false, spacesOpError(err))
		return
	}
	size := aws.ToInt64(head.ContentLength)
	suite.add("Spaces HEAD", true, fmt.Sprintf("object size: %d bytes", size))
	rep.Check("HEAD Object", true, fmt.Sprintf("size: %d bytes", size))

	_, err = client.DeleteObject(hctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		suite.add("Spaces DELETE", false, spacesOpError(err))
		rep.Check("DELETE Object", false, spacesOpError(err))
		return
	}
	suite.add("Spaces DELETE", true, "deleted probe object")
	rep.Check("DELETE Object", true, "")

	_, err = client.HeadObject(hctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil && apiErrorCode(err) == "NotFound" {
		rep.Check("Cleanup", true, "probe object removed")
	} else if err == nil {
		rep.Warn("probe object still present after delete")
	}

	list, err := client.ListObjectsV2(hctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(bucket),
		MaxKeys: aws.Int32(5),
	})
	if err != nil {
		suite.add("Spaces LIST", false, spacesOpError(err))
		rep.Check("LIST Objects", false, spacesOpError(err))
		return
	}
	suite.add("Spaces LIST", true, fmt.Sprintf("can list objects (%d shown)", aws.ToInt32(list.KeyCount)))
	rep.Check("LIST Objects", true, "")
}

func apiErrorCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}

func spacesOpError(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		msg := fmt.Sprintf("%s: %s", apiErr.ErrorCode(), apiErr.ErrorMessage())
		return strings.TrimSpace(msg)
	}
	return err.Error()
}
