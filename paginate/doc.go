// Package paginate walks paged API endpoints as a lazy sequence.
//
// Each call to Iterator.Next issues exactly one request, built from the
// previous page's cursor. Nothing is prefetched, pages are strictly
// sequential, and a fresh Iterator always starts again from the first page.
// A page without a cursor is the last one.
package paginate
