package format

// ElementKind is the EBML data type of an element.
type ElementKind int

const (
	KindUnknown ElementKind = iota
	KindMaster
	KindUint
	KindInt
	KindFloat
	KindString
	KindUTF8
	KindDate
	KindBinary
)

// Element describes one EBML element ID. Level -1 marks global elements that
// may appear at any depth.
type Element struct {
	Name      string
	Level     int
	Kind      ElementKind
	Recursive bool
}

var unknownElement = Element{Name: "?", Level: -1, Kind: KindUnknown}

// MatroskaSpec maps the EBML header and Matroska element IDs to their
// definition.
var MatroskaSpec = map[uint32]Element{
	// EBML header
	0x1A45DFA3: {Name: "EBML", Level: 0, Kind: KindMaster},
	0x4286:     {Name: "EBMLVersion", Level: 1, Kind: KindUint},
	0x42F7:     {Name: "EBMLReadVersion", Level: 1, Kind: KindUint},
	0x42F2:     {Name: "EBMLMaxIDLength", Level: 1, Kind: KindUint},
	0x42F3:     {Name: "EBMLMaxSizeLength", Level: 1, Kind: KindUint},
	0x4282:     {Name: "DocType", Level: 1, Kind: KindString},
	0x4287:     {Name: "DocTypeVersion", Level: 1, Kind: KindUint},
	0x4285:     {Name: "DocTypeReadVersion", Level: 1, Kind: KindUint},

	// global
	0xEC: {Name: "Void", Level: -1, Kind: KindBinary},
	0xBF: {Name: "CRC-32", Level: -1, Kind: KindBinary},

	0x18538067: {Name: "Segment", Level: 0, Kind: KindMaster},

	// meta seek
	0x114D9B74: {Name: "SeekHead", Level: 1, Kind: KindMaster},
	0x4DBB:     {Name: "Seek", Level: 2, Kind: KindMaster},
	0x53AB:     {Name: "SeekID", Level: 3, Kind: KindBinary},
	0x53AC:     {Name: "SeekPosition", Level: 3, Kind: KindUint},

	// segment information
	0x1549A966: {Name: "Info", Level: 1, Kind: KindMaster},
	0x73A4:     {Name: "SegmentUID", Level: 2, Kind: KindBinary},
	0x7384:     {Name: "SegmentFilename", Level: 2, Kind: KindUTF8},
	0x3CB923:   {Name: "PrevUID", Level: 2, Kind: KindBinary},
	0x3C83AB:   {Name: "PrevFilename", Level: 2, Kind: KindUTF8},
	0x3EB923:   {Name: "NextUID", Level: 2, Kind: KindBinary},
	0x3E83BB:   {Name: "NextFilename", Level: 2, Kind: KindUTF8},
	0x4444:     {Name: "SegmentFamily", Level: 2, Kind: KindBinary},
	0x2AD7B1:   {Name: "TimecodeScale", Level: 2, Kind: KindUint},
	0x4489:     {Name: "Duration", Level: 2, Kind: KindFloat},
	0x4461:     {Name: "DateUTC", Level: 2, Kind: KindDate},
	0x7BA9:     {Name: "Title", Level: 2, Kind: KindUTF8},
	0x4D80:     {Name: "MuxingApp", Level: 2, Kind: KindUTF8},
	0x5741:     {Name: "WritingApp", Level: 2, Kind: KindUTF8},

	// cluster
	0x1F43B675: {Name: "Cluster", Level: 1, Kind: KindMaster},
	0xE7:       {Name: "Timecode", Level: 2, Kind: KindUint},
	0x5854:     {Name: "SilentTracks", Level: 2, Kind: KindMaster},
	0x58D7:     {Name: "SilentTrackNumber", Level: 3, Kind: KindUint},
	0xA7:       {Name: "Position", Level: 2, Kind: KindUint},
	0xAB:       {Name: "PrevSize", Level: 2, Kind: KindUint},
	0xA3:       {Name: "SimpleBlock", Level: 2, Kind: KindBinary},
	0xA0:       {Name: "BlockGroup", Level: 2, Kind: KindMaster},
	0xA1:       {Name: "Block", Level: 3, Kind: KindBinary},
	0x75A1:     {Name: "BlockAdditions", Level: 3, Kind: KindMaster},
	0xA6:       {Name: "BlockMore", Level: 4, Kind: KindMaster},
	0xEE:       {Name: "BlockAddID", Level: 5, Kind: KindUint},
	0xA5:       {Name: "BlockAdditional", Level: 5, Kind: KindBinary},
	0x9B:       {Name: "BlockDuration", Level: 3, Kind: KindUint},
	0xFA:       {Name: "ReferencePriority", Level: 3, Kind: KindUint},
	0xFB:       {Name: "ReferenceBlock", Level: 3, Kind: KindInt},
	0xA4:       {Name: "CodecState", Level: 3, Kind: KindBinary},
	0x75A2:     {Name: "DiscardPadding", Level: 3, Kind: KindInt},
	0x8E:       {Name: "Slices", Level: 3, Kind: KindMaster},
	0xE8:       {Name: "TimeSlice", Level: 4, Kind: KindMaster},
	0xCC:       {Name: "LaceNumber", Level: 5, Kind: KindUint},

	// tracks
	0x1654AE6B: {Name: "Tracks", Level: 1, Kind: KindMaster},
	0xAE:       {Name: "TrackEntry", Level: 2, Kind: KindMaster},
	0xD7:       {Name: "TrackNumber", Level: 3, Kind: KindUint},
	0x73C5:     {Name: "TrackUID", Level: 3, Kind: KindUint},
	0x83:       {Name: "TrackType", Level: 3, Kind: KindUint},
	0xB9:       {Name: "FlagEnabled", Level: 3, Kind: KindUint},
	0x88:       {Name: "FlagDefault", Level: 3, Kind: KindUint},
	0x55AA:     {Name: "FlagForced", Level: 3, Kind: KindUint},
	0x9C:       {Name: "FlagLacing", Level: 3, Kind: KindUint},
	0x6DE7:     {Name: "MinCache", Level: 3, Kind: KindUint},
	0x6DF8:     {Name: "MaxCache", Level: 3, Kind: KindUint},
	0x23E383:   {Name: "DefaultDuration", Level: 3, Kind: KindUint},
	0x234E7A:   {Name: "DefaultDecodedFieldDuration", Level: 3, Kind: KindUint},
	0x23314F:   {Name: "TrackTimecodeScale", Level: 3, Kind: KindFloat},
	0x55EE:     {Name: "MaxBlockAdditionID", Level: 3, Kind: KindUint},
	0x536E:     {Name: "Name", Level: 3, Kind: KindUTF8},
	0x22B59C:   {Name: "Language", Level: 3, Kind: KindString},
	0x86:       {Name: "CodecID", Level: 3, Kind: KindString},
	0x63A2:     {Name: "CodecPrivate", Level: 3, Kind: KindBinary},
	0x258688:   {Name: "CodecName", Level: 3, Kind: KindUTF8},
	0x7446:     {Name: "AttachmentLink", Level: 3, Kind: KindUint},
	0xAA:       {Name: "CodecDecodeAll", Level: 3, Kind: KindUint},
	0x6FAB:     {Name: "TrackOverlay", Level: 3, Kind: KindUint},
	0x56AA:     {Name: "CodecDelay", Level: 3, Kind: KindUint},
	0x56BB:     {Name: "SeekPreRoll", Level: 3, Kind: KindUint},
	0x6624:     {Name: "TrackTranslate", Level: 3, Kind: KindMaster},
	0x66FC:     {Name: "TrackTranslateEditionUID", Level: 4, Kind: KindUint},
	0x66BF:     {Name: "TrackTranslateCodec", Level: 4, Kind: KindUint},
	0x66A5:     {Name: "TrackTranslateTrackID", Level: 4, Kind: KindBinary},

	0xE0:   {Name: "Video", Level: 3, Kind: KindMaster},
	0x9A:   {Name: "FlagInterlaced", Level: 4, Kind: KindUint},
	0x53B8: {Name: "StereoMode", Level: 4, Kind: KindUint},
	0x53C0: {Name: "AlphaMode", Level: 4, Kind: KindUint},
	0xB0:   {Name: "PixelWidth", Level: 4, Kind: KindUint},
	0xBA:   {Name: "PixelHeight", Level: 4, Kind: KindUint},
	0x54AA: {Name: "PixelCropBottom", Level: 4, Kind: KindUint},
	0x54BB: {Name: "PixelCropTop", Level: 4, Kind: KindUint},
	0x54CC: {Name: "PixelCropLeft", Level: 4, Kind: KindUint},
	0x54DD: {Name: "PixelCropRight", Level: 4, Kind: KindUint},
	0x54B0: {Name: "DisplayWidth", Level: 4, Kind: KindUint},
	0x54BA: {Name: "DisplayHeight", Level: 4, Kind: KindUint},
	0x54B2: {Name: "DisplayUnit", Level: 4, Kind: KindUint},
	0x54B3: {Name: "AspectRatioType", Level: 4, Kind: KindUint},
	0x2EB524: {Name: "ColourSpace", Level: 4, Kind: KindBinary},
	0x55B0: {Name: "Colour", Level: 4, Kind: KindMaster},
	0x55B1: {Name: "MatrixCoefficients", Level: 5, Kind: KindUint},
	0x55B2: {Name: "BitsPerChannel", Level: 5, Kind: KindUint},
	0x55B9: {Name: "Range", Level: 5, Kind: KindUint},
	0x55BA: {Name: "TransferCharacteristics", Level: 5, Kind: KindUint},
	0x55BB: {Name: "Primaries", Level: 5, Kind: KindUint},

	0xE1:   {Name: "Audio", Level: 3, Kind: KindMaster},
	0xB5:   {Name: "SamplingFrequency", Level: 4, Kind: KindFloat},
	0x78B5: {Name: "OutputSamplingFrequency", Level: 4, Kind: KindFloat},
	0x9F:   {Name: "Channels", Level: 4, Kind: KindUint},
	0x6264: {Name: "BitDepth", Level: 4, Kind: KindUint},

	0x6D80: {Name: "ContentEncodings", Level: 3, Kind: KindMaster},
	0x6240: {Name: "ContentEncoding", Level: 4, Kind: KindMaster},
	0x5031: {Name: "ContentEncodingOrder", Level: 5, Kind: KindUint},
	0x5032: {Name: "ContentEncodingScope", Level: 5, Kind: KindUint},
	0x5033: {Name: "ContentEncodingType", Level: 5, Kind: KindUint},
	0x5034: {Name: "ContentCompression", Level: 5, Kind: KindMaster},
	0x4254: {Name: "ContentCompAlgo", Level: 6, Kind: KindUint},
	0x4255: {Name: "ContentCompSettings", Level: 6, Kind: KindBinary},
	0x5035: {Name: "ContentEncryption", Level: 5, Kind: KindMaster},
	0x47E1: {Name: "ContentEncAlgo", Level: 6, Kind: KindUint},
	0x47E2: {Name: "ContentEncKeyID", Level: 6, Kind: KindBinary},

	// cueing data
	0x1C53BB6B: {Name: "Cues", Level: 1, Kind: KindMaster},
	0xBB:       {Name: "CuePoint", Level: 2, Kind: KindMaster},
	0xB3:       {Name: "CueTime", Level: 3, Kind: KindUint},
	0xB7:       {Name: "CueTrackPositions", Level: 3, Kind: KindMaster},
	0xF7:       {Name: "CueTrack", Level: 4, Kind: KindUint},
	0xF1:       {Name: "CueClusterPosition", Level: 4, Kind: KindUint},
	0xF0:       {Name: "CueRelativePosition", Level: 4, Kind: KindUint},
	0xB2:       {Name: "CueDuration", Level: 4, Kind: KindUint},
	0x5378:     {Name: "CueBlockNumber", Level: 4, Kind: KindUint},
	0xEA:       {Name: "CueCodecState", Level: 4, Kind: KindUint},
	0xDB:       {Name: "CueReference", Level: 4, Kind: KindMaster},
	0x96:       {Name: "CueRefTime", Level: 5, Kind: KindUint},

	// attachments
	0x1941A469: {Name: "Attachments", Level: 1, Kind: KindMaster},
	0x61A7:     {Name: "AttachedFile", Level: 2, Kind: KindMaster},
	0x467E:     {Name: "FileDescription", Level: 3, Kind: KindUTF8},
	0x466E:     {Name: "FileName", Level: 3, Kind: KindUTF8},
	0x4660:     {Name: "FileMimeType", Level: 3, Kind: KindString},
	0x465C:     {Name: "FileData", Level: 3, Kind: KindBinary},
	0x46AE:     {Name: "FileUID", Level: 3, Kind: KindUint},

	// chapters
	0x1043A770: {Name: "Chapters", Level: 1, Kind: KindMaster},
	0x45B9:     {Name: "EditionEntry", Level: 2, Kind: KindMaster},
	0x45BC:     {Name: "EditionUID", Level: 3, Kind: KindUint},
	0x45BD:     {Name: "EditionFlagHidden", Level: 3, Kind: KindUint},
	0x45DB:     {Name: "EditionFlagDefault", Level: 3, Kind: KindUint},
	0x45DD:     {Name: "EditionFlagOrdered", Level: 3, Kind: KindUint},
	0xB6:       {Name: "ChapterAtom", Level: 3, Kind: KindMaster, Recursive: true},
	0x73C4:     {Name: "ChapterUID", Level: 4, Kind: KindUint},
	0x5654:     {Name: "ChapterStringUID", Level: 4, Kind: KindUTF8},
	0x91:       {Name: "ChapterTimeStart", Level: 4, Kind: KindUint},
	0x92:       {Name: "ChapterTimeEnd", Level: 4, Kind: KindUint},
	0x98:       {Name: "ChapterFlagHidden", Level: 4, Kind: KindUint},
	0x4598:     {Name: "ChapterFlagEnabled", Level: 4, Kind: KindUint},
	0x6E67:     {Name: "ChapterSegmentUID", Level: 4, Kind: KindBinary},
	0x6EBC:     {Name: "ChapterSegmentEditionUID", Level: 4, Kind: KindUint},
	0x63C3:     {Name: "ChapterPhysicalEquiv", Level: 4, Kind: KindUint},
	0x8F:       {Name: "ChapterTrack", Level: 4, Kind: KindMaster},
	0x89:       {Name: "ChapterTrackNumber", Level: 5, Kind: KindUint},
	0x80:       {Name: "ChapterDisplay", Level: 4, Kind: KindMaster},
	0x85:       {Name: "ChapString", Level: 5, Kind: KindUTF8},
	0x437C:     {Name: "ChapLanguage", Level: 5, Kind: KindString},
	0x437E:     {Name: "ChapCountry", Level: 5, Kind: KindString},
	0x6944:     {Name: "ChapProcess", Level: 4, Kind: KindMaster},
	0x6955:     {Name: "ChapProcessCodecID", Level: 5, Kind: KindUint},
	0x450D:     {Name: "ChapProcessPrivate", Level: 5, Kind: KindBinary},
	0x6911:     {Name: "ChapProcessCommand", Level: 5, Kind: KindMaster},
	0x6922:     {Name: "ChapProcessTime", Level: 6, Kind: KindUint},
	0x6933:     {Name: "ChapProcessData", Level: 6, Kind: KindBinary},

	// tagging
	0x1254C367: {Name: "Tags", Level: 1, Kind: KindMaster},
	0x7373:     {Name: "Tag", Level: 2, Kind: KindMaster},
	0x63C0:     {Name: "Targets", Level: 3, Kind: KindMaster},
	0x68CA:     {Name: "TargetTypeValue", Level: 4, Kind: KindUint},
	0x63CA:     {Name: "TargetType", Level: 4, Kind: KindString},
	0x63C5:     {Name: "TagTrackUID", Level: 4, Kind: KindUint},
	0x63C9:     {Name: "TagEditionUID", Level: 4, Kind: KindUint},
	0x63C4:     {Name: "TagChapterUID", Level: 4, Kind: KindUint},
	0x63C6:     {Name: "TagAttachmentUID", Level: 4, Kind: KindUint},
	0x67C8:     {Name: "SimpleTag", Level: 3, Kind: KindMaster, Recursive: true},
	0x45A3:     {Name: "TagName", Level: 4, Kind: KindUTF8},
	0x447A:     {Name: "TagLanguage", Level: 4, Kind: KindString},
	0x4484:     {Name: "TagDefault", Level: 4, Kind: KindUint},
	0x4487:     {Name: "TagString", Level: 4, Kind: KindUTF8},
	0x4485:     {Name: "TagBinary", Level: 4, Kind: KindBinary},
}

// LookupElement returns the definition of id, or an unknown element with
// level -1.
func LookupElement(id uint32) Element {
	if el, ok := MatroskaSpec[id]; ok {
		return el
	}
	return unknownElement
}
