package logging

import "github.com/felixgeelhaar/bolt/v3"

// Field is a function that applies structured data to a log event.
type Field func(*bolt.Event) *bolt.Event

// Path adds the file being processed.
func Path(p string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("path", p)
	}
}

// Output adds the file being written.
func Output(p string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("output", p)
	}
}

// Op adds the operation name.
func Op(op string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("op", op)
	}
}

// Formats adds the source and target format names of a conversion.
func Formats(from, to string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("from", from).Str("to", to)
	}
}

// Pages adds a page count.
func Pages(n int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int("pages", n)
	}
}

// Files adds the number of input files.
func Files(n int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int("files", n)
	}
}

// Skipped adds the number of objects dropped while loading.
func Skipped(n int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int("skipped", n)
	}
}

// Damaged adds the number of streams whose data does not decode.
func Damaged(n int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int("damaged", n)
	}
}

// Bytes adds a byte count.
func Bytes(n int64) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int64("bytes", n)
	}
}

// Substituted adds the number of characters the PDF encoder replaced.
func Substituted(n int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int("substituted", n)
	}
}

// Err adds an error field. A nil error adds nothing.
func Err(err error) Field {
	return func(e *bolt.Event) *bolt.Event {
		if err == nil {
			return e
		}
		return e.Err(err)
	}
}
