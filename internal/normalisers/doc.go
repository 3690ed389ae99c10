// Package normalisers turns policy files into plain text documents. Each
// format lives in its own subpackage; Registry picks one by MIME type.
package normalisers
