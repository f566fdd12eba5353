// Package jsonstream decodes the elements of one JSON array, found at a dotted
// collection path inside a document, one element per Next call.
//
// Design choices:
//   - Forward-only over encoding/json's token stream; sibling values are skipped token
//     by token so memory stays bounded by the largest single element.
//   - Every element must be an object; anything else is malformed input.
//   - A leading byte order mark is honored via x/text (UTF-8 stripped, UTF-16 transcoded).
//   - Reading stops at the closing bracket; the rest of the document is not inspected.
package jsonstream
