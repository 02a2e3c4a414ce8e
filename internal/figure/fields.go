package figure

import (
	"reflect"
	"strings"

	"github.com/figure-editor/backend/internal/models"
)

// Field names a panel attribute. Values match the persisted JSON keys.
type Field string

const (
	FieldID          Field = "id"
	FieldX           Field = "x"
	FieldY           Field = "y"
	FieldWidth       Field = "width"
	FieldHeight      Field = "height"
	FieldRotation    Field = "rotation"
	FieldZoom        Field = "zoom"
	FieldDx          Field = "dx"
	FieldDy          Field = "dy"
	FieldImageID     Field = "imageId"
	FieldName        Field = "name"
	FieldBaseURL     Field = "baseUrl"
	FieldOrigWidth   Field = "orig_width"
	FieldOrigHeight  Field = "orig_height"
	FieldDatasetName Field = "datasetName"
	FieldDatasetID   Field = "datasetId"
	FieldPixelSizeX  Field = "pixel_size_x"
	FieldPixelSizeY  Field = "pixel_size_y"
	FieldSizeZ       Field = "sizeZ"
	FieldTheZ        Field = "theZ"
	FieldZStart      Field = "z_start"
	FieldZEnd        Field = "z_end"
	FieldZProjection Field = "z_projection"
	FieldSizeT       Field = "sizeT"
	FieldTheT        Field = "theT"
	FieldDeltaT      Field = "deltaT"
	FieldChannels    Field = "channels"
	FieldLabels      Field = "labels"
	FieldScaleBar    Field = "scalebar"

	// FieldSelected is the transient selection flag. It is not an attribute
	// of models.PanelAttrs and is never persisted.
	FieldSelected Field = "selected"
)

var (
	fieldOrder []Field
	fieldIndex = map[Field]int{}
)

func init() {
	t := reflect.TypeOf(models.PanelAttrs{})
	for i := 0; i < t.NumField(); i++ {
		name, _, _ := strings.Cut(t.Field(i).Tag.Get("json"), ",")
		if name == "" || name == "-" {
			continue
		}
		f := Field(name)
		fieldOrder = append(fieldOrder, f)
		fieldIndex[f] = i
	}
}

// Fields returns every persisted panel field in declaration order.
func Fields() []Field {
	return append([]Field(nil), fieldOrder...)
}

// ParseField returns the Field named s.
func ParseField(s string) (Field, bool) {
	f := Field(s)
	if f == FieldSelected {
		return f, true
	}
	_, ok := fieldIndex[f]
	return f, ok
}

func fieldValue(a *models.PanelAttrs, f Field) (reflect.Value, bool) {
	i, ok := fieldIndex[f]
	if !ok {
		return reflect.Value{}, false
	}
	return reflect.ValueOf(a).Elem().Field(i), true
}

// diffFields lists the fields whose values differ between a and b.
func diffFields(a, b *models.PanelAttrs) []Field {
	va := reflect.ValueOf(a).Elem()
	vb := reflect.ValueOf(b).Elem()
	var changed []Field
	for _, f := range fieldOrder {
		i := fieldIndex[f]
		if !reflect.DeepEqual(va.Field(i).Interface(), vb.Field(i).Interface()) {
			changed = append(changed, f)
		}
	}
	return changed
}

// copyFields copies the named fields from src to dst.
func copyFields(dst, src *models.PanelAttrs, fields []Field) {
	vd := reflect.ValueOf(dst).Elem()
	vs := reflect.ValueOf(src).Elem()
	for _, f := range fields {
		if i, ok := fieldIndex[f]; ok {
			vd.Field(i).Set(vs.Field(i))
		}
	}
}

// numericValue returns a numeric field as float64. Nil pointers report false.
func numericValue(a *models.PanelAttrs, f Field) (float64, bool) {
	v, ok := fieldValue(a, f)
	if !ok {
		return 0, false
	}
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return 0, false
		}
		v = v.Elem()
	}
	switch v.Kind() {
	case reflect.Float32, reflect.Float64:
		return v.Float(), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int()), true
	case reflect.Bool:
		if v.Bool() {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}
