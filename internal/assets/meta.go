package assets

import (
	"bytes"
	"encoding/binary"
	"image"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/ledongthuc/pdf"
	"github.com/xuri/excelize/v2"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// imageDimensions decodes just the image header. Unsupported or corrupt
// payloads report zero dimensions.
func imageDimensions(data []byte) (width, height int) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0
	}
	return cfg.Width, cfg.Height
}

// pdfPageCount counts the pages of an embedded PDF.
func pdfPageCount(data []byte) int {
	defer func() {
		// The pdf reader panics on some malformed xref tables; a bad
		// embedded document must not take down the extraction pass.
		_ = recover()
	}()
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0
	}
	return r.NumPage()
}

// workbookSheets lists the sheet names of an embedded spreadsheet.
func workbookSheets(data []byte) []string {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil
	}
	defer f.Close()
	return f.GetSheetList()
}

// wavDuration computes playback length from the fmt chunk's byte rate and
// the data chunk size. Non-WAV or truncated payloads report zero.
func wavDuration(data []byte) float64 {
	if len(data) < 44 || string(data[:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return 0
	}
	var byteRate uint32
	var dataSize uint32
	for off := 12; off+8 <= len(data); {
		id := string(data[off : off+4])
		size := binary.LittleEndian.Uint32(data[off+4 : off+8])
		body := off + 8
		switch id {
		case "fmt ":
			if body+12 <= len(data) {
				byteRate = binary.LittleEndian.Uint32(data[body+8 : body+12])
			}
		case "data":
			dataSize = size
		}
		off = body + int(size)
		if size%2 == 1 {
			off++
		}
	}
	if byteRate == 0 {
		return 0
	}
	return float64(dataSize) / float64(byteRate)
}

// codecHint reports the container's own codec declaration where one is
// cheap to read: the major brand of an ISO media file, the DocType of an
// EBML container. Everything else stays empty.
func codecHint(format string, data []byte) string {
	switch format {
	case "mp4", "mov", "m4a", "3gp":
		if len(data) >= 12 && string(data[4:8]) == "ftyp" {
			return string(bytes.TrimRight(data[8:12], " \x00"))
		}
	case "webm":
		return "vp8/vp9"
	case "mkv":
		return "matroska"
	}
	return ""
}
