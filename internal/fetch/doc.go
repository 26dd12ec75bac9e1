// Package fetch retrieves project assets into scratch storage.
//
// Client.Fetch downloads http(s) sources, following redirects itself so the
// hop count can be bounded by download.max_redirects, and copies file:// URLs
// and bare local paths. A non-200 final response or transport failure is
// reported with services.ErrDownload; a transport failure mid-body removes
// the partially written file. When an asset cache is attached, hits skip the
// network and successful downloads are stored for the next export.
package fetch
