package format

import (
	"encoding/binary"
	"errors"
	"io"
)

var mp3FileHeader = FileHeader{
	Name:        "mp3",
	Ext:         "mp3",
	Description: "MPEG audio layer III",
	MIME:        []string{"mpeg", "mp3", "x-mp3"},
	Signatures: [][]byte{
		[]byte("ID3"),
		{0xFF, 0xFB},
		{0xFF, 0xF3},
		{0xFF, 0xF2},
	},
	Parse: ScanMP3,
}

const (
	id3v2HeaderSize = 10
	id3v1TagSize    = 128

	// A lone frame is too weak a match to trust.
	minMP3Frames = 2
)

// mp3Header represents the parsed information from a 4-byte MP3 frame header.
type mp3Header struct {
	MPEGVersion int  // 1, 2, or 2.5
	Layer       int  // 1, 2, or 3 (for MP3)
	Bitrate     int  // in kbps
	SampleRate  int  // in Hz
	Padding     bool // True if padding bit is set
	FrameSize   int  // calculated size of the entire frame in bytes
}

// --- Global Lookup Tables for MP3 Header Parsing ---
// These tables are derived from the MPEG Audio specification.

// Bitrate values in kbps for MPEG 1 Layer III (MP3)
var bitrateMPEG1Layer3 = []int{
	0, 32, 40, 48, 56, 64, 80, 96, 112, 128, 160, 192, 224, 256, 320, 0,
}

// Bitrate values in kbps for MPEG 2/2.5 Layer III (MP3)
var bitrateMPEG2Layer3 = []int{
	0, 8, 16, 24, 32, 40, 48, 56, 64, 80, 96, 112, 128, 144, 160, 0,
}

// Sample rate values in Hz for different MPEG versions.
// Indexed by MPEG version bits (0 for 2.5, 2 for 2, 3 for 1).
var sampleRateTable = [][]int{
	{11025, 12000, 8000, 0},  // Index 0: MPEG 2.5
	{0, 0, 0, 0},             // Index 1: Reserved
	{22050, 24000, 16000, 0}, // Index 2: MPEG 2
	{44100, 48000, 32000, 0}, // Index 3: MPEG 1
}

// parseSynchsafeInt parses a 4-byte synchsafe integer, whose bytes carry 7
// bits each.
func parseSynchsafeInt(b []byte) int {
	return int(b[0]&0x7F)<<21 |
		int(b[1]&0x7F)<<14 |
		int(b[2]&0x7F)<<7 |
		int(b[3]&0x7F)
}

// skipID3v2Tag skips a leading ID3v2 tag, footer included, if there is one.
func skipID3v2Tag(r *Reader) error {
	hdr, err := r.Peek(id3v2HeaderSize)
	if err != nil || string(hdr[:3]) != "ID3" {
		return nil
	}

	size := int64(id3v2HeaderSize + parseSynchsafeInt(hdr[6:10]))
	if hdr[5]&0x10 != 0 {
		size += id3v2HeaderSize
	}
	return r.Skip(size)
}

// parseMP3Header attempts to parse a 4-byte MP3 frame header.
// It returns an mp3Header struct and a boolean indicating success.
func parseMP3Header(headerBytes []byte) (mp3Header, bool) {
	if len(headerBytes) < 4 {
		return mp3Header{}, false
	}

	// Combine bytes into a 32-bit unsigned integer for easier bitwise operations
	header := binary.BigEndian.Uint32(headerBytes)

	// Check for sync word (first 11 bits must be 1s).
	// 0xFFE00000 is 11111111111000000000000000000000 in binary.
	if (header & 0xFFE00000) != 0xFFE00000 {
		return mp3Header{}, false
	}

	// Extract MPEG version (bits 12-13 from MSB, 0-indexed from 0xFFF)
	// 11 = MPEG 1, 10 = MPEG 2, 00 = MPEG 2.5, 01 = Reserved
	mpegVersionBits := int((header >> 19) & 0x03)
	var mpegVersion int
	switch mpegVersionBits {
	case 3:
		mpegVersion = 1
	case 2:
		mpegVersion = 2
	case 0:
		mpegVersion = 25 // Representing 2.5
	case 1:
		return mp3Header{}, false // Reserved version
	}

	// Extract Layer (bits 14-15 from MSB)
	// 11 = Layer I, 10 = Layer II, 01 = Layer III, 00 = Reserved
	layerBits := int((header >> 17) & 0x03)
	if layerBits != 1 { // We are specifically looking for MP3 (Layer III)
		return mp3Header{}, false
	}

	// Extract Bitrate Index (bits 16-19 from MSB)
	bitrateIndex := int((header >> 12) & 0x0F)
	var bitrate int
	if mpegVersion == 1 {
		if bitrateIndex == 0 || bitrateIndex == 15 { // 0 is 'free', 15 is 'bad'
			return mp3Header{}, false
		}
		bitrate = bitrateMPEG1Layer3[bitrateIndex]
	} else { // MPEG 2 or 2.5
		if bitrateIndex == 0 || bitrateIndex == 15 { // 0 is 'free', 15 is 'bad'
			return mp3Header{}, false
		}
		bitrate = bitrateMPEG2Layer3[bitrateIndex]
	}

	// Extract Sample Rate Index (bits 20-21 from MSB)
	sampleRateIndex := int((header >> 10) & 0x03)
	if sampleRateIndex == 3 { // Reserved sample rate
		return mp3Header{}, false
	}
	sampleRate := sampleRateTable[mpegVersionBits][sampleRateIndex]
	if sampleRate == 0 { // Should not happen if previous checks pass, but for safety
		return mp3Header{}, false
	}

	// Extract Padding bit (bit 22 from MSB)
	padding := ((header >> 9) & 0x01) != 0

	// Layer III frames hold 1152 samples in MPEG 1 and 576 otherwise.
	samples := 1152
	if mpegVersion != 1 {
		samples = 576
	}
	frameSize := samples / 8 * bitrate * 1000 / sampleRate
	if padding {
		frameSize += 1
	}

	if frameSize <= 4 { // A valid frame must be larger than its own 4-byte header
		return mp3Header{}, false
	}

	return mp3Header{
		MPEGVersion: mpegVersion,
		Layer:       3, // Always Layer III for MP3
		Bitrate:     bitrate,
		SampleRate:  sampleRate,
		Padding:     padding,
		FrameSize:   frameSize,
	}, true
}

// ScanMP3 follows contiguous Layer III frames after an optional ID3v2 tag.
// The stream ends at the first bytes that are not a frame header, or after
// an ID3v1 tag.
func ScanMP3(r *Reader) (uint64, error) {
	if err := skipID3v2Tag(r); err != nil {
		return 0, err
	}

	var (
		frames   int
		lastGood uint64
	)
	for {
		buf, err := r.Peek(4)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return lastGood, err
		}

		header, ok := parseMP3Header(buf)
		if !ok {
			if frames > 0 && string(buf[:3]) == "TAG" && r.Remaining() >= id3v1TagSize {
				if err := r.Skip(id3v1TagSize); err != nil {
					return lastGood, err
				}
				lastGood = uint64(r.Offset())
			}
			break
		}
		if int64(header.FrameSize) > r.Remaining() {
			break
		}
		if err := r.Skip(int64(header.FrameSize)); err != nil {
			return lastGood, err
		}
		frames++
		lastGood = uint64(r.Offset())
	}

	if frames < minMP3Frames {
		return 0, violation("mp3", 0, "stream is too short (%d frames)", frames)
	}
	return lastGood, nil
}
