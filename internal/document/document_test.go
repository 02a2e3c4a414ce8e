package document

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/figure-editor/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const legacyDoc = `{
	"version": 0,
	"paper_width": 612,
	"paper_height": 792,
	"page_size": "letter",
	"orientation": "vertical",
	"fileId": 42,
	"panels": [
		{"x": 10, "y": 20, "width": 100, "height": 80, "imageId": 7, "name": "a.tif",
		 "pixel_size": 0.25, "sizeZ": 1, "sizeT": 1,
		 "labels": [{"text": "A", "size": 12, "color": "000000", "position": "topleft"}]},
		{"x": 0, "y": 0, "width": 10, "height": 10, "imageId": 8, "name": "b.tif"}
	]
}`

func rawDoc(t *testing.T, s string) map[string]any {
	t.Helper()
	var raw map[string]any
	require.NoError(t, json.Unmarshal([]byte(s), &raw))
	return raw
}

func TestUpgradeSplitsPixelSize(t *testing.T) {
	up, err := Upgrade(rawDoc(t, legacyDoc))
	require.NoError(t, err)

	assert.Equal(t, float64(1), up["version"])
	panel := up["panels"].([]any)[0].(map[string]any)
	assert.Equal(t, 0.25, panel["pixel_size_x"])
	assert.Equal(t, 0.25, panel["pixel_size_y"])
	assert.NotContains(t, panel, "pixel_size")

	other := up["panels"].([]any)[1].(map[string]any)
	assert.NotContains(t, other, "pixel_size_x")
}

func TestUpgradeIsIdempotent(t *testing.T) {
	raw := rawDoc(t, legacyDoc)

	once, err := Upgrade(raw)
	require.NoError(t, err)
	twice, err := Upgrade(once)
	require.NoError(t, err)

	assert.Equal(t, once, twice)
	// input is not modified
	assert.Contains(t, raw["panels"].([]any)[0].(map[string]any), "pixel_size")
}

func TestUpgradeRejectsBadVersions(t *testing.T) {
	tests := []struct {
		name    string
		version any
	}{
		{"future", float64(CurrentVersion + 1)},
		{"negative", float64(-1)},
		{"fractional", 0.5},
		{"string", "1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Upgrade(map[string]any{"version": tt.version})
			assert.True(t, errors.Is(err, ErrUnsupportedVersion))
		})
	}
}

func TestVersionMissingIsZero(t *testing.T) {
	v, err := Version(map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, 0, v)
}

func TestDecodeLegacyDocument(t *testing.T) {
	doc, err := Decode([]byte(legacyDoc))
	require.NoError(t, err)

	assert.Equal(t, CurrentVersion, doc.Version)
	assert.Equal(t, "42", doc.FileID)
	require.Len(t, doc.Panels, 2)
	require.NotNil(t, doc.Panels[0].PixelSizeX)
	assert.Equal(t, 0.25, *doc.Panels[0].PixelSizeX)
	assert.Equal(t, models.FontSize("12"), doc.Panels[0].Labels[0].Size)
	assert.Nil(t, doc.Panels[1].PixelSizeY)
}

func TestDecodeErrors(t *testing.T) {
	_, err := Decode([]byte(`not json`))
	assert.Error(t, err)

	_, err = Decode([]byte(`null`))
	assert.Error(t, err)

	_, err = Decode([]byte(`{"version": 99}`))
	assert.True(t, errors.Is(err, ErrUnsupportedVersion))
}

func sampleDoc() *models.FigureDocument {
	attrs := models.DefaultPanelAttrs()
	attrs.ImageID = 3
	attrs.Name = "cells.tif"
	attrs.PixelSizeX = models.FloatPtr(0.1)
	attrs.ZStart = models.IntPtr(1)
	attrs.Channels = []models.Channel{{Active: true, Color: "FF0000", Window: models.ChannelWindow{Max: 255, End: 200}}}
	return &models.FigureDocument{
		Panels:      []models.PanelAttrs{attrs},
		PaperWidth:  612,
		PaperHeight: 792,
		PageSize:    models.PageLetter,
		Orientation: models.OrientationVertical,
		FigureName:  "Figure 1",
	}
}

func TestEncodeDecodeJSON(t *testing.T) {
	doc := sampleDoc()
	data, err := Encode(doc)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"version":1`)

	back, err := Decode(data)
	require.NoError(t, err)
	doc.Version = CurrentVersion
	assert.Equal(t, doc, back)
}

func TestMsgpack(t *testing.T) {
	doc := sampleDoc()
	data, err := EncodeMsgpack(doc)
	require.NoError(t, err)

	back, err := DecodeMsgpack(data)
	require.NoError(t, err)
	assert.Equal(t, "cells.tif", back.Panels[0].Name)
	assert.Equal(t, 1, *back.Panels[0].ZStart)
	assert.Equal(t, "Figure 1", back.FigureName)
}
