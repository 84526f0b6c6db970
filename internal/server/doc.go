// Package server exposes the store over HTTP.
//
// Reads render selector outputs as JSON. Writes decode a payload, dispatch
// the matching action and answer 202 Accepted without waiting for effects:
//
//	GET    /api/products              products view (?all=true ignores the filter)
//	POST   /api/products              CreateProduct
//	POST   /api/products/load         Load
//	PUT    /api/products/{id}         UpdateProduct
//	DELETE /api/products/{id}         DeleteProduct
//	POST   /api/products/current/{id} SetCurrentProduct
//	POST   /api/products/current/new  InitializeCurrentProduct
//	DELETE /api/products/current      ClearCurrentProduct
//	POST   /api/products/code         ToggleProductCode
//	POST   /api/products/filter       SetListFilter
//	GET    /api/products/events       products view as server-sent events
//	GET    /api/session               session view
//	POST   /api/session/login         Login
//	POST   /api/session/logout        Logout
//	POST   /api/session/mask          MaskUserName
//
// Health probes live under /health and Prometheus metrics on /metrics.
// [Run] serves any handler with graceful shutdown.
package server
