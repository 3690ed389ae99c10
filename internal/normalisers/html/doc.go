// Package html provides a Normaliser implementation for HTML policy pages.
// It walks the token stream, dropping scripts and styles, and keeps block
// structure as line and paragraph breaks.
package html
