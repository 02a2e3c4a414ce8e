package models

// Page sizes.
const (
	PageA4     = "A4"
	PageA3     = "A3"
	PageA2     = "A2"
	PageA1     = "A1"
	PageA0     = "A0"
	PageLetter = "letter"
	PageMM     = "mm"
	PagePixels = "pixels"
)

// Orientations.
const (
	OrientationVertical   = "vertical"
	OrientationHorizontal = "horizontal"
)

// FigureDocument is the persisted form of a figure.
type FigureDocument struct {
	Version     int          `json:"version"`
	Panels      []PanelAttrs `json:"panels"`
	PaperWidth  float64      `json:"paper_width"`
	PaperHeight float64      `json:"paper_height"`
	PageSize    string       `json:"page_size"`
	WidthMM     float64      `json:"width_mm,omitempty"`
	HeightMM    float64      `json:"height_mm,omitempty"`
	Orientation string       `json:"orientation"`
	FigureName  string       `json:"figureName,omitempty"`
	FileID      string       `json:"fileId,omitempty"`
	Legend      string       `json:"legend,omitempty"`
	CanEdit     *bool        `json:"canEdit,omitempty"`
}

// ImageData is the metadata of an image as returned by the image service.
// Panel creation and rebinding consume exactly this shape.
type ImageData struct {
	ImageID     int64     `json:"imageId" yaml:"imageId"`
	Name        string    `json:"name" yaml:"name"`
	Width       float64   `json:"width" yaml:"width"`
	Height      float64   `json:"height" yaml:"height"`
	SizeZ       int       `json:"sizeZ" yaml:"sizeZ"`
	SizeT       int       `json:"sizeT" yaml:"sizeT"`
	TheZ        int       `json:"theZ" yaml:"theZ"`
	TheT        int       `json:"theT" yaml:"theT"`
	Channels    []Channel `json:"channels" yaml:"channels"`
	PixelSizeX  *float64  `json:"pixel_size_x,omitempty" yaml:"pixelSizeX,omitempty"`
	PixelSizeY  *float64  `json:"pixel_size_y,omitempty" yaml:"pixelSizeY,omitempty"`
	DeltaT      []float64 `json:"deltaT" yaml:"deltaT"`
	DatasetName string    `json:"datasetName,omitempty" yaml:"datasetName,omitempty"`
	DatasetID   int64     `json:"datasetId,omitempty" yaml:"datasetId,omitempty"`
	BaseURL     string    `json:"baseUrl,omitempty" yaml:"baseUrl,omitempty"`
}
