// Package connectors holds the sources chapters are read from outside the
// request path. The filesystem connector watches a directory and reports
// files once they stop changing.
package connectors
