package nanoid

import (
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	defaultSize = 16

	lowercase     = "abcdefghijklmnopqrstuvwxyz"
	uppercase     = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	number        = "0123456789"
	lowerUpper    = lowercase + uppercase
	numLowerUpper = number + lowerUpper
)

func getSize(l ...int) int {
	size := defaultSize
	if len(l) > 0 {
		size = l[0]
	}
	return size
}

// Must generate optional length nanoid
func Must(l ...int) string {
	size := getSize(l...)
	return gonanoid.Must(size)
}

// String generate optional length nanoid, use const by default
func String(l ...int) string {
	size := getSize(l...)
	return gonanoid.MustGenerate(lowerUpper, size)
}

// Lower generate optional length nanoid, use const by default
func Lower(l ...int) string {
	size := getSize(l...)
	return gonanoid.MustGenerate(lowercase, size)
}

// Upper generate optional length nanoid, use const by default
func Upper(l ...int) string {
	size := getSize(l...)
	return gonanoid.MustGenerate(uppercase, size)
}

// Number generate optional length nanoid, use const by default
func Number(l ...int) string {
	size := getSize(l...)
	return gonanoid.MustGenerate(number, size)
}

// Token generates an URL-safe token suitable for invitation and
// verification links.
func Token(l ...int) string {
	size := 32
	if len(l) > 0 {
		size = l[0]
	}
	return gonanoid.MustGenerate(numLowerUpper, size)
}
