// Package textutil provides text processing utilities for filename and path
// segment sanitization.
//
// Entity directory names are derived from display titles that may contain
// filesystem-unsafe characters; SanitizeFileName strips or replaces them so a
// title can become a storage namespace.
package textutil
