package format_test

import (
	"slices"
	"testing"

	"github.com/ostafen/trailscan/internal/format"
	"github.com/stretchr/testify/require"
)

func registryHeader(t *testing.T, name string) *format.FileHeader {
	t.Helper()

	for _, hdr := range format.DefaultRegistry().Headers() {
		if hdr.Name == name {
			return hdr
		}
	}
	require.FailNow(t, "header not registered", name)
	return nil
}

func TestRegistryLookup(t *testing.T) {
	reg := format.DefaultRegistry()

	for minor, name := range map[string]string{
		"png":        "png",
		"apng":       "png",
		"tiff":       "tiff",
		"webm":       "ebml",
		"x-matroska": "ebml",
		"x-wav":      "wav",
		"midi":       "midi",
		"jpeg":       "jpeg",
		"x-sqlite3":  "sqlite",
		"x-dosexec":  "pe",
	} {
		hdr, ok := reg.Lookup(minor)
		require.True(t, ok, minor)
		require.Equal(t, name, hdr.Name)
		require.Equal(t, "ending", hdr.Family())
	}

	// magic formats are never dispatched by type
	for _, minor := range []string{"x-rar", "vnd.rar", "x-7z-compressed", "vnd.ms-cab-compressed", "zip"} {
		_, ok := reg.Lookup(minor)
		require.False(t, ok, minor)
		require.True(t, reg.IsMagicType(minor), minor)
	}

	_, ok := reg.Lookup("pdf")
	require.False(t, ok)
	require.False(t, reg.IsMagicType("pdf"))
}

func TestRegistryHeaders(t *testing.T) {
	reg := format.DefaultRegistry()

	hdrs := reg.Headers()
	require.Len(t, hdrs, len(format.DefaultHeaders))

	names := make([]string, 0, len(hdrs))
	for _, hdr := range hdrs {
		require.NotNil(t, hdr.Parse, hdr.Name)
		require.NotEmpty(t, hdr.MIME, hdr.Name)
		require.NotEmpty(t, hdr.Signatures, hdr.Name)
		names = append(names, hdr.Name)
	}
	require.Len(t, slices.Compact(slices.Sorted(slices.Values(names))), len(names))
}

func TestRegistrySearchMagic(t *testing.T) {
	reg := format.DefaultRegistry()

	match := func(data []byte) []string {
		var out []string
		for hdr := range reg.SearchMagic(data) {
			out = append(out, hdr.Name)
		}
		return out
	}

	require.Equal(t, []string{"rar5"}, match(buildRAR5(10)))
	require.Equal(t, []string{"rar4"}, match(buildRAR4(10, 0)))
	require.Equal(t, []string{"7z"}, match(build7z(1, 1)))
	require.Equal(t, []string{"cab"}, match(buildCAB(32)))
	require.Empty(t, match(encodePNG(t)))

	// a signature cut short does not match
	require.Empty(t, match(format.RAR5Signature[:5]))

	require.Equal(t, len(format.RAR5Signature), reg.MaxMagicLen())
	require.Equal(t, 6, reg.Signatures())
}

func TestBuildRegistry(t *testing.T) {
	custom := format.FileHeader{
		Name:       "custom",
		MIME:       []string{"x-custom"},
		Signatures: [][]byte{[]byte("CUST")},
		Parse:      func(*format.Reader) (uint64, error) { return 4, nil },
		Magic:      true,
	}

	reg := format.BuildRegistry(custom)
	require.True(t, reg.IsMagicType("x-custom"))
	require.Equal(t, 4, reg.MaxMagicLen())

	hdrs := slices.Collect(reg.SearchMagic([]byte("CUSTOM")))
	require.Len(t, hdrs, 1)
	require.Equal(t, "custom", hdrs[0].Name)
}
