// Package cos provides common low-level types and utilities shared by the
// routing core's packages.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package cos

import "unsafe"

// UnsafeB borrows a string's bytes without copying. Callers must not mutate
// the result and must not retain it past the string's lifetime.
func UnsafeB(s string) []byte {
	if s == "" {
		return nil
	}
	return unsafe.Slice(unsafe.StringData(s), len(s))
}
