// Package sapo scrapes the sports newspaper front pages off the sapo
// press review. One listing page carries every paper's cover thumbnail;
// the thumbnail url doubles as the high-res source once its sizing
// params are rewritten.
package sapo

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"benficabot/lib/restyutil"
	"benficabot/lib/telemetry"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("scrapers/sapo")

const DefaultListingUrl = "https://24.sapo.pt/jornais/desporto"

// collage order is fixed left to right
var Newspapers = []string{"a-bola", "o-jogo", "record"}

// MissingCoversError is returned when the listing page no longer
// carries one or more of the expected papers. The collage is
// all-or-nothing, a partial set fails the whole scrape.
type MissingCoversError struct {
	Missing []string
}

func (e MissingCoversError) Error() string {
	return fmt.Sprintf("sapo: covers missing from listing page: %s", strings.Join(e.Missing, ", "))
}

// Cover is one paper's front page image url, high-res.
type Cover struct {
	Newspaper string
	Url       string
}

type Client struct {
	http *resty.Client
	url  string
}

type ClientOptions struct {
	// defaults to DefaultListingUrl
	ListingUrl string
}

func NewClient(opts ClientOptions) *Client {
	if opts.ListingUrl == "" {
		opts.ListingUrl = DefaultListingUrl
	}

	client := resty.New()
	client.SetTimeout(time.Second * 5)
	client.SetRetryCount(3)
	client.SetRetryWaitTime(time.Second)
	client.AddRetryCondition(func(res *resty.Response, err error) bool {
		return err != nil || res.StatusCode() >= 500
	})

	telemetry.InstrumentResty(client, "scrapers/sapo/http")

	return &Client{
		http: client,
		url:  opts.ListingUrl,
	}
}

// CoverUrls fetches the listing page and returns the three covers in
// collage order.
func (c *Client) CoverUrls(ctx context.Context) ([]Cover, error) {
	ctx, span := tracer.Start(ctx, "CoverUrls")
	defer span.End()

	res, err := c.http.R().
		SetContext(ctx).
		Get(c.url)
	if err != nil {
		span.SetStatus(codes.Error, "fetch failed")
		return nil, fmt.Errorf("sapo: fetch listing page: %w", err)
	}
	if res.IsError() {
		span.SetStatus(codes.Error, "bad status")
		return nil, fmt.Errorf("sapo: fetch listing page: status %d", res.StatusCode())
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body()))
	if err != nil {
		return nil, fmt.Errorf("sapo: parse listing page: %w", err)
	}

	covers, err := filterCovers(doc)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return covers, nil
}

func filterCovers(doc *goquery.Document) ([]Cover, error) {
	found := map[string]string{}
	doc.Find("img").Each(func(_ int, img *goquery.Selection) {
		alt := strings.ToLower(img.AttrOr("alt", ""))
		src := img.AttrOr("src", "")
		if src == "" {
			return
		}
		for _, paper := range Newspapers {
			if alt == paper {
				if _, dup := found[paper]; !dup {
					found[paper] = highResUrl(src)
				}
				return
			}
		}
	})

	var covers []Cover
	var missing []string
	for _, paper := range Newspapers {
		src, ok := found[paper]
		if !ok {
			missing = append(missing, paper)
			continue
		}
		covers = append(covers, Cover{Newspaper: paper, Url: src})
	}
	if len(missing) > 0 {
		return nil, MissingCoversError{Missing: missing}
	}
	return covers, nil
}

var (
	widthParamRegex  = regexp.MustCompile(`W=\d+`)
	heightParamRegex = regexp.MustCompile(`H=\d+`)
)

// the thumbs service scales by W=/H= query params and crops to fit;
// bump the dimensions and drop the crop to get the full front page
func highResUrl(src string) string {
	src = widthParamRegex.ReplaceAllString(src, "W=1000")
	src = heightParamRegex.ReplaceAllString(src, "H=1500")
	return strings.ReplaceAll(src, "&crop=center", "")
}

// Download fetches one cover's raw image bytes.
func (c *Client) Download(ctx context.Context, cover Cover) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "Download")
	defer span.End()

	res, err := c.http.R().
		SetContext(ctx).
		Get(cover.Url)
	if err != nil {
		span.SetStatus(codes.Error, "fetch failed")
		return nil, fmt.Errorf("sapo: download %s cover: %w", cover.Newspaper, err)
	}
	if res.IsError() {
		span.SetStatus(codes.Error, "bad status")
		return nil, fmt.Errorf("sapo: download %s cover: status %d", cover.Newspaper, res.StatusCode())
	}
	return res.Body(), nil
}

// FetchCovers is the one-call path: listing page, then every cover's
// bytes, in collage order. Any missing or undownloadable cover fails
// the whole fetch.
func (c *Client) FetchCovers(ctx context.Context) ([][]byte, error) {
	ctx, span := tracer.Start(ctx, "FetchCovers")
	defer span.End()

	covers, err := c.CoverUrls(ctx)
	if err != nil {
		return nil, err
	}

	images := make([][]byte, len(covers))
	for i, cover := range covers {
		images[i], err = c.Download(ctx, cover)
		if err != nil {
			return nil, err
		}
	}
	return images, nil
}

// SetRestyInstrumentOutput dumps every request and response this
// client makes to the filesystem. Debugging aid, not for production.
func (c *Client) SetRestyInstrumentOutput(output restyutil.FilesystemOutput) {
	output.Attach(c.http)
}
