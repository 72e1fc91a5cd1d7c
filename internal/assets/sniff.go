package assets

import (
	"bytes"

	"github.com/deckform/deckform/internal/model"
)

// DetectFormat identifies an asset payload by its binary signature. The
// declared filename and MIME type of the source shape are never consulted;
// a payload named ".bin" that starts with an MP4 ftyp atom is an mp4. The
// asset kind narrows which signature table is consulted first, but content
// always decides. Pure function of its arguments.
//
// Returns "bin" when no signature matches.
func DetectFormat(kind model.AssetType, data []byte) string {
	var tables [][]func([]byte) string
	switch kind {
	case model.AssetImage:
		tables = [][]func([]byte) string{imageSniffers}
	case model.AssetVideo:
		tables = [][]func([]byte) string{videoSniffers}
	case model.AssetAudio:
		tables = [][]func([]byte) string{audioSniffers}
	case model.AssetDocument:
		tables = [][]func([]byte) string{documentSniffers}
	default:
		tables = [][]func([]byte) string{imageSniffers, videoSniffers, audioSniffers, documentSniffers}
	}
	for _, table := range tables {
		for _, sniff := range table {
			if f := sniff(data); f != "" {
				return f
			}
		}
	}
	return "bin"
}

var imageSniffers = []func([]byte) string{
	prefix("png", "\x89PNG\r\n\x1a\n"),
	prefix("jpg", "\xff\xd8\xff"),
	prefix("gif", "GIF87a"),
	prefix("gif", "GIF89a"),
	prefix("tiff", "II*\x00"),
	prefix("tiff", "MM\x00*"),
	riff("webp", "WEBP"),
	prefix("bmp", "BM"),
	sniffEMF,
	prefix("wmf", "\xd7\xcd\xc6\x9a"),
}

var videoSniffers = []func([]byte) string{
	sniffFtyp,
	riff("avi", "AVI "),
	sniffEBML,
	prefix("wmv", "\x30\x26\xb2\x75\x8e\x66\xcf\x11"),
	prefix("flv", "FLV\x01"),
	sniffMPEG,
}

var audioSniffers = []func([]byte) string{
	prefix("mp3", "ID3"),
	riff("wav", "WAVE"),
	prefix("ogg", "OggS"),
	prefix("flac", "fLaC"),
	sniffFtyp, // m4a audio ships in an MP4 container
	sniffMP3FrameSync,
}

var documentSniffers = []func([]byte) string{
	prefix("pdf", "%PDF-"),
	sniffZipOffice,
	prefix("ole", "\xd0\xcf\x11\xe0\xa1\xb1\x1a\xe1"),
}

func prefix(format, sig string) func([]byte) string {
	return func(data []byte) string {
		if len(data) >= len(sig) && string(data[:len(sig)]) == sig {
			return format
		}
		return ""
	}
}

// riff matches the RIFF container wrapper plus the four-byte form type at
// offset 8 (AVI , WAVE, WEBP).
func riff(format, form string) func([]byte) string {
	return func(data []byte) string {
		if len(data) >= 12 && string(data[:4]) == "RIFF" && string(data[8:12]) == form {
			return format
		}
		return ""
	}
}

// sniffFtyp matches the ISO base media "ftyp" atom at offset 4 and
// distinguishes the common brands.
func sniffFtyp(data []byte) string {
	if len(data) < 12 || string(data[4:8]) != "ftyp" {
		return ""
	}
	brand := string(data[8:12])
	switch {
	case brand == "qt  ":
		return "mov"
	case brand == "M4A ":
		return "m4a"
	case brand == "3gp4" || brand == "3gp5":
		return "3gp"
	default:
		return "mp4"
	}
}

// sniffEBML matches the EBML header shared by WebM and Matroska, then scans
// the header region for the DocType to tell them apart.
func sniffEBML(data []byte) string {
	if len(data) < 4 || !bytes.Equal(data[:4], []byte{0x1a, 0x45, 0xdf, 0xa3}) {
		return ""
	}
	head := data
	if len(head) > 64 {
		head = head[:64]
	}
	if bytes.Contains(head, []byte("webm")) {
		return "webm"
	}
	return "mkv"
}

func sniffMPEG(data []byte) string {
	if len(data) >= 4 && data[0] == 0x00 && data[1] == 0x00 && data[2] == 0x01 &&
		(data[3] == 0xba || data[3] == 0xb3) {
		return "mpg"
	}
	return ""
}

// sniffMP3FrameSync matches a bare MPEG audio frame header (11 set sync
// bits) for ID3-less mp3 payloads. Checked last in the audio table because
// the pattern is loose.
func sniffMP3FrameSync(data []byte) string {
	if len(data) >= 2 && data[0] == 0xff && data[1]&0xe0 == 0xe0 {
		return "mp3"
	}
	return ""
}

// sniffZipOffice tells the OOXML formats apart by their well-known internal
// directory names; any other zip stays "zip".
func sniffZipOffice(data []byte) string {
	if len(data) < 4 || string(data[:2]) != "PK" {
		return ""
	}
	switch {
	case bytes.Contains(data, []byte("word/")):
		return "docx"
	case bytes.Contains(data, []byte("xl/")):
		return "xlsx"
	case bytes.Contains(data, []byte("ppt/")):
		return "pptx"
	default:
		return "zip"
	}
}

// sniffEMF matches the EMF header record type with its " EMF" signature at
// offset 40.
func sniffEMF(data []byte) string {
	if len(data) >= 44 && data[0] == 0x01 && data[1] == 0x00 && data[2] == 0x00 && data[3] == 0x00 &&
		string(data[40:44]) == " EMF" {
		return "emf"
	}
	return ""
}

// mimeByFormat maps sniffed formats to MIME types for storage metadata.
var mimeByFormat = map[string]string{
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"gif":  "image/gif",
	"bmp":  "image/bmp",
	"tiff": "image/tiff",
	"webp": "image/webp",
	"emf":  "image/emf",
	"wmf":  "image/wmf",
	"mp4":  "video/mp4",
	"mov":  "video/quicktime",
	"avi":  "video/x-msvideo",
	"webm": "video/webm",
	"mkv":  "video/x-matroska",
	"wmv":  "video/x-ms-wmv",
	"flv":  "video/x-flv",
	"mpg":  "video/mpeg",
	"3gp":  "video/3gpp",
	"mp3":  "audio/mpeg",
	"wav":  "audio/wav",
	"ogg":  "audio/ogg",
	"flac": "audio/flac",
	"m4a":  "audio/mp4",
	"pdf":  "application/pdf",
	"docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	"zip":  "application/zip",
	"ole":  "application/x-ole-storage",
	"bin":  "application/octet-stream",
}

// MimeFor returns the MIME type for a sniffed format.
func MimeFor(format string) string {
	if m, ok := mimeByFormat[format]; ok {
		return m
	}
	return "application/octet-stream"
}
