// Package cos provides common low-level types and utilities shared by the
// routing core's packages.
/*
 * Copyright (c) 2018-2023, NVIDIA CORPORATION. All rights reserved.
 */
package cos

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	ratomic "sync/atomic"

	pkgerrors "github.com/pkg/errors"
)

// Request-facing error kinds, per spec.md §7. ClientError rejects the
// request; the rest degrade to an empty result and are only logged.
var (
	ErrClient          = errors.New("client error")
	ErrContent         = errors.New("no routes found")
	ErrRouting         = errors.New("routing error")
	ErrPeerUnavailable = errors.New("peer unavailable")
	ErrSnapshotCorrupt = errors.New("snapshot corrupt")
)

// NewClientErr wraps a malformed-input reason as an ErrClient, via
// pkg/errors so the stack frame where the request was rejected survives
// into the log line.
func NewClientErr(format string, a ...any) error {
	return pkgerrors.Wrapf(ErrClient, format, a...)
}

// NewContentErr wraps a "nothing matched" condition as ErrContent.
func NewContentErr(format string, a ...any) error {
	return pkgerrors.Wrapf(ErrContent, format, a...)
}

// Errs accumulates up to maxErrs distinct errors without aborting the
// caller's loop; used by XML ingest to collect IngestWarnings across an
// entire document (spec.md §4.1 "a malformed row is skipped ... but does
// not abort").
type Errs struct {
	errs []error
	cnt  int64
	mu   sync.Mutex
}

const maxErrs = 16

func (e *Errs) Add(err error) {
	if err == nil {
		return
	}
	e.mu.Lock()
	for _, added := range e.errs {
		if added.Error() == err.Error() {
			e.mu.Unlock()
			return
		}
	}
	if len(e.errs) < maxErrs {
		e.errs = append(e.errs, err)
		ratomic.StoreInt64(&e.cnt, int64(len(e.errs)))
	}
	e.mu.Unlock()
}

func (e *Errs) Cnt() int { return int(ratomic.LoadInt64(&e.cnt)) }

func (e *Errs) JoinErr() (cnt int, err error) {
	if cnt = e.Cnt(); cnt > 0 {
		e.mu.Lock()
		err = errors.Join(e.errs...)
		e.mu.Unlock()
	}
	return
}

func (e *Errs) Error() (s string) {
	cnt := e.Cnt()
	if cnt == 0 {
		return
	}
	e.mu.Lock()
	err := e.errs[0]
	cnt = len(e.errs)
	e.mu.Unlock()
	if cnt > 1 {
		err = fmt.Errorf("%v (and %d more error%s)", err, cnt-1, Plural(cnt-1))
	}
	return err.Error()
}

func Plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

func IsEOF(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}

func isErrDNSLookup(err error) bool {
	_, ok := err.(*net.DNSError)
	return ok
}

// IsRetriableConnErr reports connection failures worth a single retry: a
// deadline, a DNS lookup failure, or an EOF. No package in this module calls
// it; the peer fetcher and station-cache builder handle errors themselves.
func IsRetriableConnErr(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || isErrDNSLookup(err) || IsEOF(err)
}

// IsUnreachable broadens IsRetriableConnErr with HTTP status codes that mean
// "this data centre is down right now" (408, 502, 503). Like
// IsRetriableConnErr, it has no caller in this module.
func IsUnreachable(err error, status int) bool {
	return IsRetriableConnErr(err) ||
		status == http.StatusRequestTimeout ||
		status == http.StatusServiceUnavailable ||
		status == http.StatusBadGateway
}
