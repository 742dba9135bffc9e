// Package overlay loads overlay definitions and base templates from disk
// into an in-memory registry.
//
// An overlay directory carries a declarative overlay.yml manifest plus
// optional configuration fragments:
//
//	overlays/<id>/overlay.yml              metadata (required)
//	overlays/<id>/devcontainer-patch.json  devcontainer fragment (JSONC)
//	overlays/<id>/docker-compose.yml       multi-service fragment
//	overlays/<id>/.env.template            environment template text
//
// Any other files in the directory (install scripts, app assets) belong to
// the overlay's payload and are ignored by the engine.
//
// The registry is an explicit value: it is loaded once per invocation,
// passed into the resolver and composer as a parameter, and discarded after
// use. There is no package-level singleton.
package overlay
