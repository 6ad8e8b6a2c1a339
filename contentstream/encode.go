package contentstream

import (
	"bytes"

	"github.com/tsawler/folio/core"
)

// Encode serializes ops, one operation per line.
func Encode(ops []Operation) []byte {
	var buf bytes.Buffer
	for _, op := range ops {
		if op.Operator == "BI" {
			encodeInlineImage(&buf, op)
			continue
		}
		for _, operand := range op.Operands {
			core.WriteObject(&buf, operand)
			buf.WriteByte(' ')
		}
		buf.WriteString(op.Operator)
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

func encodeInlineImage(buf *bytes.Buffer, op Operation) {
	buf.WriteString("BI")
	var data []byte
	if len(op.Operands) == 2 {
		if dict, ok := op.Operands[0].(core.Dict); ok {
			for _, k := range dict.Keys() {
				buf.WriteByte(' ')
				core.WriteObject(buf, core.Name(k))
				buf.WriteByte(' ')
				core.WriteObject(buf, dict[k])
			}
		}
		if s, ok := op.Operands[1].(core.String); ok {
			data = []byte(s)
		}
	}
	buf.WriteString(" ID ")
	buf.Write(data)
	buf.WriteString("\nEI\n")
}
