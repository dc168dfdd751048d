// Package main is the atlasctl operator console.
//
// Usage:
//
//	atlasctl status
//	atlasctl snapshot --watch --interval 2s
//	atlasctl fail nav_ai
//	atlasctl restart nav_ai
//
// The server defaults to http://localhost:3001 and can be set with
// --server or ATLAS_SERVER.
package main
