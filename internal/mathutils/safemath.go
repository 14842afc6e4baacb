// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package mathutils provides overflow-checked arithmetic on uint64s, the
// way vms/platformvm/reward.calculator leans on utils/math.Sub and
// utils/math.Mul64 instead of raw operators when a result could wrap.
package mathutils

import "errors"

var ErrOverflow = errors.New("overflow")

// Add returns a+b, or ErrOverflow if the sum overflows a uint64.
func Add(a, b uint64) (uint64, error) {
	sum := a + b
	if sum < a {
		return 0, ErrOverflow
	}
	return sum, nil
}

// Sub returns a-b, or ErrOverflow if b > a.
func Sub(a, b uint64) (uint64, error) {
	if b > a {
		return 0, ErrOverflow
	}
	return a - b, nil
}

// Mul64 returns a*b, or ErrOverflow if the product overflows a uint64.
func Mul64(a, b uint64) (uint64, error) {
	if a == 0 || b == 0 {
		return 0, nil
	}
	product := a * b
	if product/a != b {
		return 0, ErrOverflow
	}
	return product, nil
}
