// Package sanitizer normalizes untrusted user input before validation and
// storage. Normalization prevents duplicate accounts from case or whitespace
// variants of the same email address.
package sanitizer
