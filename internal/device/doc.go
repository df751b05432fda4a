// Package device models the native Bluetooth layer that discovery runs on.
//
// It defines the immutable records produced by discovery (devices and service
// records), the opaque native status codes, and the callback-driven interfaces
// a backend implements:
//   - Host hands out inquiries and remote device handles
//   - Inquiry scans for nearby devices and reports completion once
//   - RemoteDevice runs service queries and name requests against one device
//
// Backends deliver completion callbacks from their own goroutines. Callers that
// need blocking semantics use package discovery.
package device
