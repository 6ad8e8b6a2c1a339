package textpdf

// Wrap splits line into pieces of at most max bytes, breaking after the
// last space that keeps a piece within the limit and hard-splitting words
// longer than max. An empty line yields one empty piece.
func Wrap(line []byte, max int) [][]byte {
	if max < 1 {
		max = 1
	}
	var out [][]byte
	for len(line) > max {
		cut := -1
		for i := max; i > 0; i-- {
			if line[i] == ' ' {
				cut = i
				break
			}
		}
		if cut <= 0 {
			out = append(out, line[:max])
			line = line[max:]
			continue
		}
		out = append(out, line[:cut])
		line = line[cut+1:]
	}
	return append(out, line)
}
