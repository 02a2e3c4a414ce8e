package imagemeta

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/figure-editor/backend/internal/models"
)

// imgDataResponse is the JSON returned by {base}/imgData/{id}/.
type imgDataResponse struct {
	ID   int64 `json:"id"`
	Meta struct {
		ImageName   string `json:"imageName"`
		DatasetName string `json:"datasetName"`
		DatasetID   int64  `json:"datasetId"`
	} `json:"meta"`
	Size struct {
		Width  float64 `json:"width"`
		Height float64 `json:"height"`
		Z      int     `json:"z"`
		T      int     `json:"t"`
	} `json:"size"`
	Rdefs struct {
		Model    string `json:"model"`
		DefaultZ int    `json:"defaultZ"`
		DefaultT int    `json:"defaultT"`
	} `json:"rdefs"`
	Channels  []models.Channel `json:"channels"`
	PixelSize struct {
		X *float64 `json:"x"`
		Y *float64 `json:"y"`
	} `json:"pixel_size"`
	DeltaT []float64 `json:"deltaT"`
}

// HTTPProvider fetches metadata from an image service.
type HTTPProvider struct {
	BaseURL string
	Client  *http.Client
}

// NewHTTPProvider creates a provider for the service at baseURL.
func NewHTTPProvider(baseURL string, timeout time.Duration) *HTTPProvider {
	return &HTTPProvider{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		Client:  &http.Client{Timeout: timeout},
	}
}

// Lookup fetches and converts the metadata of imageID.
func (p *HTTPProvider) Lookup(ctx context.Context, imageID int64) (*models.ImageData, error) {
	url := fmt.Sprintf("%s/imgData/%d/", p.BaseURL, imageID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching image %d: %w", imageID, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %d", ErrNotFound, imageID)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("fetching image %d: status %d", imageID, resp.StatusCode)
	}

	var data imgDataResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return data.toImageData(p.BaseURL), nil
}

func (d *imgDataResponse) toImageData(baseURL string) *models.ImageData {
	channels := d.Channels
	if channels == nil {
		channels = []models.Channel{}
	}
	// greyscale is rendered as white active channels
	if d.Rdefs.Model == "greyscale" {
		for i := range channels {
			if channels[i].Active {
				channels[i].Color = "FFFFFF"
			}
		}
	}
	deltaT := d.DeltaT
	if deltaT == nil {
		deltaT = []float64{}
	}
	return &models.ImageData{
		ImageID:     d.ID,
		Name:        d.Meta.ImageName,
		Width:       d.Size.Width,
		Height:      d.Size.Height,
		SizeZ:       d.Size.Z,
		SizeT:       d.Size.T,
		TheZ:        d.Rdefs.DefaultZ,
		TheT:        d.Rdefs.DefaultT,
		Channels:    channels,
		PixelSizeX:  d.PixelSize.X,
		PixelSizeY:  d.PixelSize.Y,
		DeltaT:      deltaT,
		DatasetName: d.Meta.DatasetName,
		DatasetID:   d.Meta.DatasetID,
		BaseURL:     baseURL,
	}
}
