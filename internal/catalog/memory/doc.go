// Package memory implements catalog.API in process memory, seeded with the
// demo products. It backs `apm serve --memory` and the effect tests.
package memory
