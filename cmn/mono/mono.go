// Package mono provides a monotonic clock reading for log timestamps and
// refresh-staleness checks.
/*
 * Copyright (c) 2018-2021, NVIDIA CORPORATION. All rights reserved.
 */
package mono

import "time"

var start = time.Now()

// NanoTime returns a nanosecond reading off the runtime's monotonic clock
// (time.Now carries a monotonic component on all supported platforms), safe
// for Since()-style staleness checks across the refresh loop.
func NanoTime() int64 {
	return int64(time.Since(start))
}
