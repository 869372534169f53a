package loader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/retry"
)

// maxRemoteSize bounds the size of a report fetched over HTTP.
const maxRemoteSize = 256 << 20

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// isRemote reports whether source is an http(s) URL.
func isRemote(source string) bool {
	u, err := url.Parse(source)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// extension returns the lowercased file extension of a path or URL.
func extension(source string) string {
	if isRemote(source) {
		if u, err := url.Parse(source); err == nil {
			return strings.ToLower(path.Ext(u.Path))
		}
	}
	return strings.ToLower(filepath.Ext(source))
}

// formatOf returns "csv" or "xlsx" for a source name.
func formatOf(source string) (string, error) {
	switch extension(source) {
	case ".csv", ".tsv", ".txt":
		return "csv", nil
	case ".xlsx", ".xlsm":
		return "xlsx", nil
	default:
		return "", fmt.Errorf("cannot tell the format of %q; set the format explicitly", source)
	}
}

// Open returns a loader for a local path or http(s) URL.
// The caller must close the returned io.Closer after Load.
func Open(ctx context.Context, source string, opts Options) (Loader, io.Closer, error) {
	opts = opts.withDefaults()

	format := strings.ToLower(opts.Format)
	if format == "" {
		var err error
		if format, err = formatOf(source); err != nil {
			return nil, nil, err
		}
	}
	if format != "csv" && format != "xlsx" {
		return nil, nil, fmt.Errorf("unsupported format %q", format)
	}
	if format == "csv" && opts.Delimiter == ',' && extension(source) == ".tsv" {
		opts.Delimiter = '\t'
	}

	var r io.Reader
	var closer io.Closer = nopCloser{}
	if isRemote(source) {
		body, err := fetch(ctx, opts, source)
		if err != nil {
			return nil, nil, err
		}
		r = bytes.NewReader(body)
	} else {
		f, err := os.Open(source)
		if err != nil {
			return nil, nil, fmt.Errorf("opening report: %w", err)
		}
		r, closer = f, f
	}

	opts.Logger.Debug("report opened", "source", source, "format", format)
	if format == "xlsx" {
		return NewXLSX(r, opts), closer, nil
	}
	return NewCSV(r, opts), closer, nil
}

// fetch downloads a report with exponential backoff and jitter.
// Client errors other than 429 are not retried.
func fetch(ctx context.Context, opts Options, source string) ([]byte, error) {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}

	var body []byte
	err := retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, http.NoBody)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			resp, err := client.Do(req)
			if err != nil {
				return err
			}
			defer func() {
				if closeErr := resp.Body.Close(); closeErr != nil {
					opts.Logger.Debug("failed to close response body", "error", closeErr)
				}
			}()

			switch {
			case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError:
				return fmt.Errorf("HTTP %d", resp.StatusCode)
			case resp.StatusCode != http.StatusOK:
				return retry.Unrecoverable(fmt.Errorf("HTTP %d", resp.StatusCode))
			default:
			}

			body, err = io.ReadAll(io.LimitReader(resp.Body, maxRemoteSize+1))
			if err != nil {
				return err
			}
			if len(body) > maxRemoteSize {
				return retry.Unrecoverable(errors.New("report exceeds size limit"))
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(4),
		retry.Delay(250*time.Millisecond),
		retry.MaxDelay(10*time.Second),
		retry.DelayType(retry.CombineDelay(retry.BackOffDelay, retry.RandomDelay)),
		retry.MaxJitter(250*time.Millisecond),
		retry.OnRetry(func(n uint, err error) {
			opts.Logger.Debug("retrying report download", "attempt", n+1, "url", source, "error", err)
		}),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", source, err)
	}
	return body, nil
}
