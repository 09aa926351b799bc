// Package builtin provides the functions callable from {{fn(args)}}
// placeholders.
//
// Available functions:
//   - uuid(): random UUID v4
//   - now(): current UTC time in RFC 3339
//   - timestamp(), timestampMs(): Unix time in seconds or milliseconds
//   - date(layout): current UTC date, Go layout, default 2006-01-02
//   - random(min, max): random integer in range
//   - randomString(length): random alphanumeric string
//   - base64(value), base64Decode(value)
//   - sha256(value)
//   - urlEncode(value), urlDecode(value)
package builtin
