// Package ir provides the bindable value types shared by every layer of the
// statement builder.
//
// This package contains type definitions only. All other internal packages
// import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Value is sealed: Null, Bool, Int, Float, Text, Raw
//   - Values are immutable once constructed (NewRaw copies its input)
//   - Fingerprints use canonical JSON with NFC-normalized strings
package ir
