package figure

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/figure-editor/backend/internal/geometry"
	"github.com/figure-editor/backend/internal/imagemeta"
	"github.com/figure-editor/backend/internal/models"
	"github.com/figure-editor/backend/internal/schedule"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testFigure struct {
	*Figure
	clock      *schedule.ManualClock
	sched      *schedule.Scheduler
	selections int
}

func newTestFigure(t *testing.T) *testFigure {
	t.Helper()
	clock := schedule.NewManualClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	sched := schedule.New(clock)
	tf := &testFigure{clock: clock, sched: sched}
	tf.Figure = New(Options{Scheduler: sched, DefaultBaseURL: "https://images.example.org"})
	tf.SelectionChanged.Subscribe(func(Panels) { tf.selections++ })
	return tf
}

// settle lets every deferred notification fire.
func (tf *testFigure) settle() {
	tf.clock.Advance(time.Second)
	tf.sched.RunDue()
}

func (tf *testFigure) addRect(t *testing.T, x, y, w, h float64) *Panel {
	t.Helper()
	a := models.DefaultPanelAttrs()
	a.X, a.Y, a.Width, a.Height = x, y, w, h
	p, err := tf.AddPanel(a)
	require.NoError(t, err)
	return p
}

func threePanels(t *testing.T) (*testFigure, *Panel, *Panel, *Panel) {
	tf := newTestFigure(t)
	p1 := tf.addRect(t, 0, 0, 100, 100)
	p2 := tf.addRect(t, 150, 0, 100, 100)
	p3 := tf.addRect(t, 0, 150, 100, 100)
	return tf, p1, p2, p3
}

func TestAlignLeft(t *testing.T) {
	tf, p1, p2, p3 := threePanels(t)
	tf.SelectAll()

	require.NoError(t, tf.Align(AlignLeft))
	for _, p := range []*Panel{p1, p2, p3} {
		assert.Equal(t, 0.0, p.Attrs().X)
	}
}

func TestAlignTop(t *testing.T) {
	tf, p1, p2, p3 := threePanels(t)
	tf.Select(p2, false)
	tf.AddToSelection(p3)

	require.NoError(t, tf.Align(AlignTop))
	assert.Equal(t, 0.0, p2.Attrs().Y)
	assert.Equal(t, 0.0, p3.Attrs().Y)
	assert.Equal(t, 0.0, p1.Attrs().Y)
}

func TestAlignGrid(t *testing.T) {
	tf, p1, p2, p3 := threePanels(t)
	tf.SelectAll()

	require.NoError(t, tf.Align(AlignGrid))
	assert.Equal(t, geometry.NewRect(0, 0, 100, 100), p1.Rect())
	assert.Equal(t, geometry.NewRect(105, 0, 100, 100), p2.Rect())
	assert.Equal(t, geometry.NewRect(0, 105, 100, 100), p3.Rect())
}

func TestAlignGridNonGridInputTerminates(t *testing.T) {
	tf := newTestFigure(t)
	tf.addRect(t, 0, 0, 100, 100)
	tf.addRect(t, 0, 0, 100, 100)
	far := tf.addRect(t, 5000, 5000, 10, 10)
	tf.SelectAll()

	require.NoError(t, tf.Align(AlignGrid))
	// unreachable panels keep their place
	assert.Equal(t, 5000.0, far.Attrs().X)
}

func TestAlignUnknownMode(t *testing.T) {
	tf, _, _, _ := threePanels(t)
	tf.SelectAll()
	assert.True(t, errors.Is(tf.Align("diagonal"), ErrValidation))
}

func TestAlignSize(t *testing.T) {
	tests := []struct {
		name          string
		width, height bool
		want          geometry.Rect
	}{
		{"both", true, true, geometry.NewRect(300, 0, 100, 100)},
		{"width keeps aspect", true, false, geometry.NewRect(300, 0, 100, 50)},
		{"height keeps aspect", false, true, geometry.NewRect(300, 0, 200, 100)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tf := newTestFigure(t)
			ref := tf.addRect(t, 0, 0, 100, 100)
			other := tf.addRect(t, 300, 0, 200, 100)
			tf.SelectAll()

			require.NoError(t, tf.AlignSize(tt.width, tt.height))
			assert.Equal(t, tt.want, other.Rect())
			assert.Equal(t, geometry.NewRect(0, 0, 100, 100), ref.Rect())
		})
	}
}

func TestNudge(t *testing.T) {
	tf, p1, p2, _ := threePanels(t)
	tf.Select(p1, false)
	tf.AddToSelection(p2)

	require.NoError(t, tf.Nudge(AxisX, NudgeStep))
	require.NoError(t, tf.Nudge(AxisY, -NudgeStep))
	assert.Equal(t, geometry.Point{X: 10, Y: -10}, geometry.Point{X: p1.Attrs().X, Y: p1.Attrs().Y})
	assert.Equal(t, 160.0, p2.Attrs().X)

	assert.Error(t, tf.Nudge("z", 1))
}

func TestDragAllSelected(t *testing.T) {
	tf, p1, p2, p3 := threePanels(t)
	tf.Select(p2, false)
	tf.AddToSelection(p3)

	var events []DragEvent
	tf.DragMoved.Subscribe(func(e DragEvent) { events = append(events, e) })

	require.NoError(t, tf.DragAllSelected(0, 0, true))
	assert.Empty(t, events)

	require.NoError(t, tf.DragAllSelected(10, 5, false))
	require.Len(t, events, 1)
	assert.Equal(t, geometry.Point{X: 10, Y: 5}, events[0].Position)
	assert.False(t, events[0].Commit)
	assert.Equal(t, 150.0, p2.Attrs().X)

	require.NoError(t, tf.DragAllSelected(10, 5, true))
	assert.Equal(t, 160.0, p2.Attrs().X)
	assert.Equal(t, 155.0, p3.Attrs().Y)
	assert.Equal(t, 0.0, p1.Attrs().X)
}

func TestMultiSelectDragScalesProportionally(t *testing.T) {
	tf, p1, p2, p3 := threePanels(t)
	tf.SelectAll()

	box, _ := tf.Selected().Bounds()
	assert.Equal(t, geometry.NewRect(0, 0, 250, 250), box)

	to := geometry.NewRect(0, 0, 500, 500)
	require.NoError(t, tf.MultiSelectDrag(box, to, true))
	assert.Equal(t, geometry.NewRect(0, 0, 200, 200), p1.Rect())
	assert.Equal(t, geometry.NewRect(300, 0, 200, 200), p2.Rect())
	assert.Equal(t, geometry.NewRect(0, 300, 200, 200), p3.Rect())
}

func TestSelectionNotificationsAreCoalesced(t *testing.T) {
	tf := newTestFigure(t)
	for i := 0; i < 50; i++ {
		tf.addRect(t, float64(i*10), 0, 5, 5)
	}

	tf.SelectByRegion(geometry.NewRect(0, 0, 1000, 10))
	assert.Equal(t, 0, tf.selections)
	tf.settle()
	assert.Equal(t, 1, tf.selections)
	assert.Len(t, tf.Selected(), 50)

	tf.ClearSelection()
	tf.SelectAll()
	tf.ClearSelection()
	tf.settle()
	assert.Equal(t, 2, tf.selections)
	assert.Empty(t, tf.Selected())
}

func TestSelect(t *testing.T) {
	tf, p1, p2, _ := threePanels(t)

	tf.Select(p1, false)
	tf.settle()
	assert.Equal(t, 1, tf.selections)

	// already selected, not exclusive: nothing to do
	tf.Select(p1, false)
	tf.settle()
	assert.Equal(t, 1, tf.selections)

	tf.AddToSelection(p2)
	tf.settle()
	assert.Equal(t, Panels{p1, p2}, tf.Selected())

	tf.Select(p1, true)
	tf.settle()
	assert.Equal(t, Panels{p1}, tf.Selected())
	assert.Equal(t, 3, tf.selections)
}

func TestDeleteSelectedEmpty(t *testing.T) {
	tf, _, _, _ := threePanels(t)
	tf.settle()
	tf.selections = 0

	assert.Equal(t, 0, tf.DeleteSelected())
	tf.settle()
	assert.Equal(t, 1, tf.selections)
	assert.Equal(t, 3, tf.Panels().Len())
}

func TestDeleteSelected(t *testing.T) {
	tf, p1, p2, p3 := threePanels(t)
	tf.Select(p1, false)
	tf.AddToSelection(p3)

	var removed []int
	tf.Panels().Removed.Subscribe(func(m Membership) { removed = append(removed, m.Index) })

	assert.Equal(t, 2, tf.DeleteSelected())
	assert.Equal(t, []int{0, 1}, removed)
	assert.Equal(t, Panels{p2}, tf.Panels().All())
}

func TestClearAllPanels(t *testing.T) {
	tf, _, _, _ := threePanels(t)
	var removed []int
	tf.Panels().Removed.Subscribe(func(m Membership) { removed = append(removed, m.Index) })

	tf.ClearAllPanels()
	assert.Equal(t, []int{2, 1, 0}, removed)
	assert.Equal(t, 0, tf.Panels().Len())
}

func TestUnsavedFlag(t *testing.T) {
	tf := newTestFigure(t)
	assert.False(t, tf.Settings().Unsaved)

	p := tf.addRect(t, 0, 0, 10, 10)
	assert.True(t, tf.Settings().Unsaved)

	store := &memoryStore{docs: map[string]*models.FigureDocument{}}
	_, err := tf.Save(context.Background(), store)
	require.NoError(t, err)
	assert.False(t, tf.Settings().Unsaved)

	// selection, zoom and id changes are not edits
	tf.Select(p, false)
	require.NoError(t, tf.SetZoom(50))
	assert.False(t, tf.Settings().Unsaved)

	require.NoError(t, tf.Nudge(AxisX, 1))
	assert.True(t, tf.Settings().Unsaved)
}

func TestCopyPaste(t *testing.T) {
	t.Run("row pasted below", func(t *testing.T) {
		tf := newTestFigure(t)
		tf.addRect(t, 0, 0, 100, 100)
		tf.addRect(t, 150, 0, 100, 100)
		tf.SelectAll()

		clip := tf.Copy()
		pasted, err := tf.Paste(clip)
		require.NoError(t, err)
		require.Len(t, pasted, 2)
		assert.Equal(t, geometry.NewRect(0, 105, 100, 100), pasted[0].Rect())
		assert.Equal(t, geometry.NewRect(150, 105, 100, 100), pasted[1].Rect())
		assert.Equal(t, pasted, tf.Selected())
		assert.Equal(t, 4, tf.Panels().Len())

		// again: cascades further down
		pasted, err = tf.Paste(clip)
		require.NoError(t, err)
		assert.Equal(t, 210.0, pasted[0].Attrs().Y)
	})

	t.Run("column pasted right", func(t *testing.T) {
		tf := newTestFigure(t)
		tf.addRect(t, 0, 0, 100, 100)
		tf.addRect(t, 0, 150, 100, 100)
		tf.SelectAll()

		pasted, err := tf.Paste(tf.Copy())
		require.NoError(t, err)
		assert.Equal(t, 105.0, pasted[0].Attrs().X)
		assert.Equal(t, 0.0, pasted[0].Attrs().Y)
	})

	t.Run("ids not copied", func(t *testing.T) {
		tf := newTestFigure(t)
		tf.addRect(t, 0, 0, 10, 10)
		require.NoError(t, tf.AssignIDs())
		tf.SelectAll()
		clip := tf.Copy()
		assert.Equal(t, "", clip.Panels[0].ID)
	})
}

func testImage(id int64, w, h float64) *models.ImageData {
	return &models.ImageData{
		ImageID: id, Name: "img", Width: w, Height: h, SizeZ: 1, SizeT: 1,
		Channels: []models.Channel{{Active: true, Color: "FF0000"}},
	}
}

func TestAddImages(t *testing.T) {
	tf := newTestFigure(t)

	ps, err := tf.AddImages([]*models.ImageData{testImage(1, 200, 100), testImage(2, 200, 100), testImage(3, 200, 100)}, 2)
	require.NoError(t, err)
	require.Len(t, ps, 3)
	assert.Equal(t, ps, tf.Selected())

	// spacer 10, grid 410x210 fits 612 paper unscaled and is centred
	assert.Equal(t, geometry.NewRect(101, 291, 200, 100), ps[0].Rect())
	assert.Equal(t, geometry.NewRect(311, 291, 200, 100), ps[1].Rect())
	assert.Equal(t, geometry.NewRect(101, 401, 200, 100), ps[2].Rect())
	assert.Equal(t, int64(2), ps[1].Attrs().ImageID)
	assert.Equal(t, 200.0, ps[0].Attrs().OrigWidth)
}

func TestAddImageTooLarge(t *testing.T) {
	tf := newTestFigure(t)
	_, err := tf.AddImages([]*models.ImageData{testImage(1, 100, 100), testImage(2, 20000, 10000)}, 2)
	assert.True(t, errors.Is(err, imagemeta.ErrImageTooLarge))
	assert.Equal(t, 0, tf.Panels().Len())

	p, err := tf.AddImage(testImage(3, 100, 100), geometry.NewRect(10, 10, 50, 50))
	require.NoError(t, err)
	assert.Equal(t, geometry.NewRect(10, 10, 50, 50), p.Rect())
}

func TestRebindSelected(t *testing.T) {
	tf := newTestFigure(t)
	_, err := tf.AddImage(testImage(1, 100, 100), geometry.Rect{})
	require.NoError(t, err)

	assert.True(t, errors.Is(tf.RebindSelected(testImage(2, 1e6, 1e6)), imagemeta.ErrImageTooLarge))
	require.NoError(t, tf.RebindSelected(testImage(2, 300, 300)))
	assert.Equal(t, int64(2), tf.Selected()[0].Attrs().ImageID)

	tf.ClearSelection()
	assert.True(t, errors.Is(tf.RebindSelected(testImage(3, 10, 10)), ErrNoSelection))
}

func TestRebindClampsTheT(t *testing.T) {
	tf := newTestFigure(t)
	a := models.DefaultPanelAttrs()
	a.SizeT, a.TheT = 5, 4
	p, err := tf.AddPanel(a)
	require.NoError(t, err)

	img := testImage(2, 100, 100)
	img.SizeT = 3
	require.NoError(t, p.Rebind(*img))
	assert.Equal(t, 2, p.Attrs().TheT)
}

func TestSetPaper(t *testing.T) {
	tests := []struct {
		spec     PaperSpec
		wantW    float64
		wantH    float64
		wantMMW  float64
		wantMMH  float64
		wantFail bool
	}{
		{PaperSpec{PageSize: models.PageA4}, 595, 842, 210, 297, false},
		{PaperSpec{PageSize: models.PageA4, Orientation: models.OrientationHorizontal}, 842, 595, 297, 210, false},
		{PaperSpec{PageSize: models.PageLetter}, 612, 794, 216, 280, false},
		{PaperSpec{PageSize: models.PageMM, WidthMM: 100, HeightMM: 50, Orientation: models.OrientationHorizontal}, 283, 142, 100, 50, false},
		{PaperSpec{PageSize: models.PagePixels, Width: 720, Height: 360}, 720, 360, 254, 127, false},
		{PaperSpec{PageSize: "B5"}, 0, 0, 0, 0, true},
		{PaperSpec{PageSize: models.PageA4, Orientation: "diagonal"}, 0, 0, 0, 0, true},
		{PaperSpec{PageSize: models.PageMM}, 0, 0, 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.spec.PageSize+"/"+tt.spec.Orientation, func(t *testing.T) {
			tf := newTestFigure(t)
			err := tf.SetPaper(tt.spec)
			if tt.wantFail {
				assert.True(t, errors.Is(err, ErrValidation))
				assert.Equal(t, DefaultSettings(), tf.Settings())
				return
			}
			require.NoError(t, err)
			s := tf.Settings()
			assert.Equal(t, tt.wantW, s.PaperWidth)
			assert.Equal(t, tt.wantH, s.PaperHeight)
			assert.Equal(t, tt.wantMMW, s.WidthMM)
			assert.Equal(t, tt.wantMMH, s.HeightMM)
			assert.True(t, s.Unsaved)
		})
	}
}

func TestZoom(t *testing.T) {
	tf := newTestFigure(t)
	assert.Error(t, tf.SetZoom(0))

	zoom, err := tf.ZoomToFit(1224, 3000)
	require.NoError(t, err)
	assert.Equal(t, 195.0, zoom)
	assert.Equal(t, 195.0, tf.Viewport().Zoom)
}

func TestDocumentRoundTrip(t *testing.T) {
	tf, _, _, _ := threePanels(t)
	tf.SetName("Figure 1")
	require.NoError(t, tf.SetPaper(PaperSpec{PageSize: models.PageA3}))

	doc := tf.ToDocument()
	assert.Len(t, doc.Panels, 3)
	assert.Equal(t, "Figure 1", doc.FigureName)
	assert.Equal(t, models.PageA3, doc.PageSize)

	other := newTestFigure(t)
	other.addRect(t, 1, 1, 1, 1)
	require.NoError(t, other.FromDocument(doc))
	assert.Equal(t, 3, other.Panels().Len())
	assert.Equal(t, doc.Panels, other.ToDocument().Panels)
	assert.Equal(t, tf.Settings().PaperWidth, other.Settings().PaperWidth)
	assert.False(t, other.Settings().Unsaved)
	assert.True(t, other.Settings().CanEdit)
}

func TestFromDocumentRejectsInvalidPanel(t *testing.T) {
	tf, _, _, _ := threePanels(t)
	bad := models.DefaultPanelAttrs()
	bad.SizeT, bad.TheT = 2, 7

	err := tf.FromDocument(&models.FigureDocument{Panels: []models.PanelAttrs{models.DefaultPanelAttrs(), bad}})
	assert.True(t, errors.Is(err, ErrValidation))
	var de *DocumentError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, 1, de.Panel)
	assert.Equal(t, 3, tf.Panels().Len())
}

type memoryStore struct {
	docs map[string]*models.FigureDocument
	next int
}

func (m *memoryStore) Load(_ context.Context, id string) (*models.FigureDocument, error) {
	doc, ok := m.docs[id]
	if !ok {
		return nil, errors.New("not found")
	}
	cp := *doc
	return &cp, nil
}

func (m *memoryStore) Save(_ context.Context, doc *models.FigureDocument) (string, error) {
	id := doc.FileID
	if id == "" {
		m.next++
		id = "doc-" + formatNumber(float64(m.next))
	}
	cp := *doc
	m.docs[id] = &cp
	return id, nil
}

func TestSaveLoad(t *testing.T) {
	store := &memoryStore{docs: map[string]*models.FigureDocument{}}

	tf, _, _, _ := threePanels(t)
	id, err := tf.Save(context.Background(), store)
	require.NoError(t, err)
	assert.Equal(t, "doc-1", id)
	assert.Equal(t, id, tf.Settings().FileID)
	for _, p := range tf.Panels().All() {
		assert.NotEmpty(t, p.ID())
	}

	// saving again overwrites
	id2, err := tf.Save(context.Background(), store)
	require.NoError(t, err)
	assert.Equal(t, id, id2)

	other := newTestFigure(t)
	require.NoError(t, other.Load(context.Background(), store, id))
	assert.Equal(t, id, other.Settings().FileID)
	assert.Equal(t, 3, other.Panels().Len())
	assert.NotNil(t, other.Panels().ByID(tf.Panels().At(0).ID()))

	assert.Error(t, other.Load(context.Background(), store, "missing"))
}

func TestSaveReadOnlyCreatesCopy(t *testing.T) {
	store := &memoryStore{docs: map[string]*models.FigureDocument{}}
	no := false
	store.docs["shared"] = &models.FigureDocument{CanEdit: &no, PaperWidth: 612, PaperHeight: 792}

	tf := newTestFigure(t)
	require.NoError(t, tf.Load(context.Background(), store, "shared"))
	assert.False(t, tf.Settings().CanEdit)

	id, err := tf.Save(context.Background(), store)
	require.NoError(t, err)
	assert.NotEqual(t, "shared", id)
	assert.True(t, tf.Settings().CanEdit)
}

func TestReset(t *testing.T) {
	tf, _, _, _ := threePanels(t)
	tf.SetName("x")
	tf.Reset()
	assert.Equal(t, 0, tf.Panels().Len())
	assert.Equal(t, "", tf.Settings().FigureName)
	assert.False(t, tf.Settings().Unsaved)
}
