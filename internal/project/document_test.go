package project

import (
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cutroom/cutroom-agent/internal/timeline"
)

func fixtureDocument() Document {
	return Document{
		Version: DocumentVersion,
		Name:    "Launch Teaser",
		Tracks: []timeline.Track{
			{ID: "t-pri", Kind: timeline.KindVisual, Role: timeline.RolePrimary, Label: "Video", Order: 2},
			{ID: "t-mus", Kind: timeline.KindAudio, Role: timeline.RoleMusic, Label: "Music", Order: 4},
		},
		Clips: []timeline.Clip{
			{ID: "c-1", Kind: timeline.KindVisual, TrackID: "t-pri", Start: 0, Duration: 4, ContentRef: "scene-1.mp4", Origin: timeline.OriginScene},
			{ID: "c-2", Kind: timeline.KindAudio, TrackID: "t-mus", Start: 0, Duration: 4, ContentRef: "builtin/theme.mp3", Label: "Music", Origin: timeline.OriginDefault},
		},
		Selection: "c-1",
		Position:  1.5,
	}
}

func TestDocument_GoldenEncoding(t *testing.T) {
	data, err := EncodeDocument(fixtureDocument())
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "document_v1", data)
}

func TestDocument_RoundTrip(t *testing.T) {
	doc := fixtureDocument()
	data, err := EncodeDocument(doc)
	require.NoError(t, err)

	back, err := DecodeDocument(data)
	require.NoError(t, err)
	assert.Equal(t, doc, back)
}

func TestDocument_SnapshotConversion(t *testing.T) {
	doc := fixtureDocument()
	snap := doc.Snapshot()

	assert.Equal(t, doc.Tracks, snap.Tracks)
	assert.Equal(t, doc.Clips, snap.Clips)
	assert.Equal(t, "c-1", snap.Selected)
	assert.Equal(t, 1.5, snap.Position)

	again := FromSnapshot(doc.Name, snap)
	assert.Equal(t, doc, again)
}

func TestDecodeDocument_RejectsUnknownVersions(t *testing.T) {
	_, err := DecodeDocument([]byte(`{"version": 99, "name": "x"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported document version")

	_, err = DecodeDocument([]byte(`{"name": "no version"}`))
	require.Error(t, err)

	_, err = DecodeDocument([]byte(`{not json`))
	require.Error(t, err)
}
