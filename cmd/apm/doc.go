// Command apm runs the product management state server.
//
//	apm serve [--config apm.yaml] [--addr :8080] [--memory]
//	apm migrate [--config apm.yaml]
package main
