// Package fetcher retrieves llms.txt documents over HTTP. Fetches are
// conditional when cache validators from an earlier fetch are supplied, and
// a 304 response is reported as NotModified without reading a body.
package fetcher
