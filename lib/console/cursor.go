// Copyright 2026 The Jenkdo Authors
// SPDX-License-Identifier: Apache-2.0

package console

// Cursor is the read position in one build's log. The zero value starts
// at offset 0. The offset never decreases.
type Cursor struct {
	offset int64
}

// Offset returns the next log offset to request.
func (cursor *Cursor) Offset() int64 {
	return cursor.offset
}

// Accept takes one response body for a request at offset start and the
// log size reported with it, and returns the bytes not consumed yet.
// text is taken to cover [size-len(text), size), but never to begin
// after start: a body shorter than size-start is the beginning of the
// range, not its end. The cursor moves to the end of what text covers,
// so a short or cut body is fetched again from there. Bytes before the
// cursor are dropped; a body that ends at or before the cursor yields
// nothing and leaves the cursor alone.
func (cursor *Cursor) Accept(text []byte, start, size int64) []byte {
	begin := min(size-int64(len(text)), start)
	end := begin + int64(len(text))
	if end <= cursor.offset {
		return nil
	}
	fresh := text[max(0, cursor.offset-begin):]
	cursor.offset = end
	return fresh
}
