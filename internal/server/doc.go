// Package server wires the HTTP surface: module listing, package download
// preparation, artifact retrieval, module HTML views, the websocket update
// channel, and the configured static/proxy routes.
package server
