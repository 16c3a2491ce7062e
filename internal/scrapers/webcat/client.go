package webcat

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http/cookiejar"
	"net/url"
	"time"

	"webcat-submit/internal/components/assert"
	"webcat-submit/internal/components/telemetry"
	"webcat-submit/pkg/htmlutil"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

const (
	report_client_get     = "client.get"
	report_client_submit  = "client.submit"
	report_client_targets = "client.targets"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

type ClientOptions struct {
	Timeout   time.Duration
	UserAgent string
	// CloudflareBypass wraps the transport with cloudflare-bp-go, some
	// institutions put Web-CAT behind cloudflare.
	CloudflareBypass bool
	// RequestsPerSecond limits outgoing requests, 0 disables the limit.
	RequestsPerSecond float64
}

// Client talks to a Web-CAT server. It keeps cookies between requests so
// the session created by a submission is reused when fetching results.
type Client struct {
	Http *resty.Client

	tel telemetry.API
}

// FilePart is one file of a multipart submission.
type FilePart struct {
	Param    string
	Filename string
	Reader   io.Reader
}

func NewClient(opts ClientOptions, tel telemetry.API) (*Client, error) {
	assert.NotNil(tel)

	tel = telemetry.NewScopedAPI("webcat", tel)

	httpClient := resty.New()
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	httpClient.SetCookieJar(jar)
	if opts.CloudflareBypass {
		httpClient.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(httpClient.GetClient().Transport)
	}

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	httpClient.SetHeader("user-agent", userAgent)

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = time.Second * 30
	}
	httpClient.SetTimeout(timeout)

	if opts.RequestsPerSecond > 0 {
		burst := int(opts.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		rateLimiter := rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
		httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			return rateLimiter.Wait(req.Context())
		})
	}

	telemetry.InstrumentResty(httpClient, tel, "webcat-submit.internal.scrapers.webcat.client")

	return &Client{
		Http: httpClient,
		tel:  tel,
	}, nil
}

func statusError(res *resty.Response) error {
	if res.IsError() {
		return fmt.Errorf("unexpected status %s", res.Status())
	}
	return nil
}

// Get fetches a page and returns its body, non-2xx responses are errors.
func (c *Client) Get(ctx context.Context, endpoint string) (string, error) {
	c.tel.ReportDebug(report_client_get, endpoint)

	res, err := c.Http.R().
		SetContext(ctx).
		Get(endpoint)
	if err == nil {
		err = statusError(res)
	}
	if err != nil {
		c.tel.ReportBroken(
			report_client_get,
			fmt.Errorf("fetch: %w", err),
			endpoint,
		)
		return "", fmt.Errorf("webcat client: get: %w", err)
	}

	return string(res.Body()), nil
}

// Submit posts fields and files as a multipart form to transportUri and
// returns the response body.
func (c *Client) Submit(ctx context.Context, transportUri string, fields map[string]string, files []FilePart) (string, error) {
	ctx, span := tracer.Start(ctx, "Submit")
	defer span.End()

	c.tel.ReportDebug(report_client_submit, transportUri, len(files))

	req := c.Http.R().
		SetContext(ctx).
		SetMultipartFormData(fields)
	for _, f := range files {
		req.SetFileReader(f.Param, f.Filename, f.Reader)
	}

	res, err := req.Post(transportUri)
	if err == nil {
		err = statusError(res)
	}
	if err != nil {
		c.tel.ReportBroken(
			report_client_submit,
			fmt.Errorf("post: %w", err),
			transportUri,
		)
		return "", fmt.Errorf("webcat client: submit: %w", err)
	}

	return string(res.Body()), nil
}

// Targets fetches the submission targets served at submitUrl.
func (c *Client) Targets(ctx context.Context, submitUrl string) (SubmissionRoot, error) {
	c.tel.ReportDebug(report_client_targets, submitUrl)

	res, err := c.Http.R().
		SetContext(ctx).
		Get(submitUrl)
	if err == nil {
		err = statusError(res)
	}
	if err != nil {
		c.tel.ReportBroken(
			report_client_targets,
			fmt.Errorf("fetch: %w", err),
			submitUrl,
		)
		return SubmissionRoot{}, fmt.Errorf("webcat client: targets: %w", err)
	}

	root, err := ParseTargets(submitUrl, res.Body())
	if err != nil {
		c.tel.ReportBroken(report_client_targets, err, submitUrl)
		return SubmissionRoot{}, fmt.Errorf("webcat client: targets: %w", err)
	}
	return root, nil
}

// ResultsLink returns the first link of a submission response, resolved
// against the transport uri it was posted to.
func ResultsLink(transportUri, body string) (string, error) {
	base, err := url.Parse(transportUri)
	if err != nil {
		return "", err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewBufferString(body))
	if err != nil {
		return "", err
	}
	anchors := htmlutil.GetAnchors(base, doc.Find("a").First())
	if len(anchors) == 0 || anchors[0].Url.String() == "" {
		return "", ErrNoResultsLink
	}
	return anchors[0].Url.String(), nil
}
