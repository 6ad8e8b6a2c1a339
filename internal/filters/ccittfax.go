package filters

import (
	"bytes"
	"io"

	"golang.org/x/image/ccitt"
)

// CCITTFaxDecode expands Group 3 or Group 4 fax data into packed 1-bit rows.
// K < 0 selects Group 4; Columns defaults to 1728 and a zero Rows lets
// the decoder find the end of the image.
func CCITTFaxDecode(data []byte, params Params) ([]byte, error) {
	sf := ccitt.Group3
	if getIntParam(params, "K", 0) < 0 {
		sf = ccitt.Group4
	}
	rows := getIntParam(params, "Rows", 0)
	if rows == 0 {
		rows = ccitt.AutoDetectHeight
	}
	blackIs1, _ := params["BlackIs1"].(bool)
	r := ccitt.NewReader(bytes.NewReader(data), ccitt.MSB, sf,
		getIntParam(params, "Columns", 1728), rows, &ccitt.Options{Invert: blackIs1})
	return io.ReadAll(r)
}
