// Package core orchestrates conversions for the HTTP layer.
//
// The parsing, cleaning and format adapters in packages tabular and convert
// are pure functions. This package adds everything around them that a
// running service needs, independent of any transport:
//
//   - Formats: a [FormatRegistry] maps format keys and file extensions to
//     converters. [BuiltinFormats] wires json, xml, text, excel and pdf.
//   - Input: [ReadUpload] caps upload size and [DecodeText] turns bytes in
//     any WHATWG charset into UTF-8, removing byte order marks.
//   - Service: [Service.Clean] and [Service.Convert] run under a
//     [ConversionLimiter] slot with a timeout, record Prometheus metrics and
//     a [HistoryEntry], and keep the latest output in a last-result cache.
//   - History: [MemoryHistory] or [PostgresHistory], purged by
//     [Service.StartRetentionScheduler].
//
// # Results and Errors
//
// A conversion that runs but cannot produce a table returns a failed
// tabular.Result, not a Go error. Errors are reserved for problems around
// the conversion: [ErrFileTooLarge], [ErrEmptyInput],
// [ErrUnsupportedEncoding], [ErrUnknownFormat], [ErrTooManyConversions] and
// context errors.
//
// Both kinds map to user messages with support codes through [MapError]
// and [MapMessage]:
//
//   - FILE001-FILE004: upload size, encoding, empty and missing files
//   - FMT001-FMT003: unknown formats, disabled decoders, bad delimiters
//   - JSON001-JSON002, XML001-XML002: document parsing
//   - CNV001-CNV006: conversion failures, busy, timeout, cancelled
package core
