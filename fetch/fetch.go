// Package fetch retrieves a peer's routing document and promotes it into
// place with the rotate-triple pattern: the new body lands in a ".download"
// side file, and only once it is fully written does it get rotated over the
// live file, which itself slides to ".bck" first (spec.md §4.2).
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package fetch

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/eida/routingcore/cmn/cos"
	"github.com/eida/routingcore/cmn/nlog"
)

const requestTimeout = 15 * time.Second

var httpClient = &fasthttp.Client{
	Name: "routingcore-fetch",
}

// Fetch retrieves method from baseURL (an HTTP(S) peer or a local file path)
// and, on success, promotes the result to saveAs. If baseURL is remote,
// the request goes to baseURL + "/" + method.
//
// When the primary fetch fails and method is "dc", Fetch retries once
// against baseURL with its last ".xml" occurrence rewritten to ".json" and
// no method suffix appended — the static fallback a "dc" peer publishes
// when its dynamic endpoint is unreachable. If the retry also fails, saveAs
// is left untouched and the original error is returned.
func Fetch(ctx context.Context, saveAs, baseURL, method string) error {
	downloadPath := saveAs + ".download"
	os.Remove(downloadPath) // best-effort: stale leftovers must not survive a restart

	err := fetchInto(ctx, downloadPath, composeURL(baseURL, method))
	if err != nil {
		nlog.Warningf("fetch: %s: %v", baseURL, err)
		if method != "dc" {
			return err
		}
		fallbackURL := replaceLast(baseURL, ".xml", ".json")
		nlog.Warningf("fetch: retrying %s as static fallback %s", baseURL, fallbackURL)
		if err2 := fetchInto(ctx, downloadPath, fallbackURL); err2 != nil {
			nlog.Warningf("fetch: fallback %s: %v", fallbackURL, err2)
			return err
		}
	}

	return promote(saveAs, downloadPath)
}

// composeURL builds the request target for a peer: remote peers are asked
// for the named method, local paths are read as-is.
func composeURL(baseURL, method string) string {
	if isRemote(baseURL) {
		return baseURL + "/" + method
	}
	return baseURL
}

func isRemote(baseURL string) bool {
	return strings.HasPrefix(baseURL, "http://") || strings.HasPrefix(baseURL, "https://")
}

// fetchInto streams src into dst, truncating any previous content. src is
// either an HTTP(S) URL or a local file path.
func fetchInto(ctx context.Context, dst, src string) error {
	if !isRemote(src) {
		in, err := os.Open(src)
		if err != nil {
			return err
		}
		defer in.Close()
		return writeAll(dst, in)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(src)
	req.Header.SetMethod(fasthttp.MethodGet)

	deadline := requestTimeout
	if dl, ok := ctx.Deadline(); ok {
		deadline = time.Until(dl)
	}
	if err := httpClient.DoDeadline(req, resp, time.Now().Add(deadline)); err != nil {
		return cos.NewContentErr("fetch %s: %w", src, err)
	}
	if resp.StatusCode() >= 400 {
		return cos.NewContentErr("fetch %s: status %d", src, resp.StatusCode())
	}
	return writeAll(dst, strings.NewReader(string(resp.Body())))
}

func writeAll(dst string, r io.Reader) error {
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()
	if _, err := io.Copy(out, r); err != nil {
		return err
	}
	return out.Sync()
}

// promote rotates name over saveAs: the previous saveAs (if any) becomes
// saveAs + ".bck", and the freshly downloaded name becomes the live file.
// Failures removing or renaming a nonexistent ".bck"/saveAs are not fatal —
// a first-ever fetch has neither.
func promote(saveAs, downloadPath string) error {
	os.Remove(saveAs + ".bck")
	os.Rename(saveAs, saveAs+".bck")
	if err := os.Rename(downloadPath, saveAs); err != nil {
		return cos.NewContentErr("promote %s: %w", saveAs, err)
	}
	return nil
}

// replaceLast rewrites the last occurrence of old in s with new, leaving s
// unchanged if old does not occur.
func replaceLast(s, old, new string) string {
	i := strings.LastIndex(s, old)
	if i < 0 {
		return s
	}
	return s[:i] + new + s[i+len(old):]
}
