package dfxml

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteReadFileObjects(t *testing.T) {
	var buf bytes.Buffer

	w := NewDFXMLWriter(&buf)
	err := w.WriteHeader(DFXMLHeader{
		XmlOutput: XmlOutputVersion,
		Metadata:  DefaultMetadata,
		Creator: Creator{
			Package:              "trailscan",
			Version:              "test",
			ExecutionEnvironment: GetExecEnv(),
		},
		Source: Source{ImageFilename: "/data/cat.png", ImageSize: 4096},
	})
	require.NoError(t, err)

	objs := []FileObject{
		{
			Filename:    "cat.png@1000",
			FileSize:    3096,
			SourceFile:  "/data/cat.png",
			MIME:        "audio/midi",
			Description: "Standard MIDI data",
			Exact:       true,
			Via:         "Ending",
			ByteRuns:    ByteRuns{Runs: []ByteRun{{Offset: 0, ImgOffset: 1000, Length: 3096}}},
		},
		{
			Filename:   "cat.png@2000",
			FileSize:   2096,
			SourceFile: "/data/cat.png",
			Encrypted:  true,
			Via:        "Magic",
			ByteRuns:   ByteRuns{Runs: []ByteRun{{Offset: 0, ImgOffset: 2000, Length: 2096}}},
		},
	}
	for _, obj := range objs {
		require.NoError(t, w.WriteFileObject(obj))
	}
	require.NoError(t, w.Close())

	require.Equal(t, 1, bytes.Count(buf.Bytes(), []byte("<dfxml ")))
	require.Contains(t, buf.String(), "<source_file>/data/cat.png</source_file>")

	got, err := ReadFileObjects(&buf)
	require.NoError(t, err)
	require.Len(t, got, 2)

	for i := range got {
		got[i].XMLName = objs[i].XMLName
	}
	require.Equal(t, objs, got)
}

func TestReadReport(t *testing.T) {
	var buf bytes.Buffer

	w := NewDFXMLWriter(&buf)
	require.NoError(t, w.WriteHeader(DFXMLHeader{
		XmlOutput: XmlOutputVersion,
		Metadata:  DefaultMetadata,
		Creator:   Creator{Package: "trailscan", Version: "1.2.3"},
		Source:    Source{ImageFilename: "/data", ImageSize: 10},
	}))
	require.NoError(t, w.WriteFileObject(FileObject{
		Filename: "a@1",
		ByteRuns: ByteRuns{Runs: []ByteRun{{ImgOffset: 1, Length: 9}}},
	}))
	require.NoError(t, w.Close())

	rep, err := ReadReport(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Equal(t, "1.2.3", rep.Creator.Version)
	require.Equal(t, Source{ImageFilename: "/data", ImageSize: 10}, rep.Source)
	require.Len(t, rep.Objects, 1)
	require.Equal(t, uint64(9), rep.Objects[0].ByteRuns.Runs[0].Length)
}

func TestReadReportRejectsObjectWithoutRuns(t *testing.T) {
	doc := `<?xml version="1.0"?><dfxml><fileobject><filename>x</filename></fileobject></dfxml>`

	_, err := ReadReport(bytes.NewReader([]byte(doc)))
	require.Error(t, err)
}
