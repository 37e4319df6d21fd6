// Package mcp exposes a rewind machine to Model Context Protocol clients.
package mcp
