package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOperationSet_Kinds(t *testing.T) {
	require.Empty(t, OperationSet{}.Kinds())
	require.True(t, OperationSet{}.Empty())

	set := OperationSet{Watermark: &WatermarkSpec{}, Resize: &ResizeSpec{}}
	require.Equal(t, []OpKind{OpResize, OpWatermark}, set.Kinds())
	require.Equal(t, StringSlice{"resize", "watermark"}, KindsToSlice(set.Kinds()))
}

func TestBatchResult_Images(t *testing.T) {
	res := BatchResult{Items: []BatchItem{
		{Result: &ProcessingResult{URL: "a"}},
		{Err: "bad"},
		{},
		{Result: &ProcessingResult{URL: "d"}},
	}}

	imgs := res.Images()
	require.Len(t, imgs, 2)
	require.Equal(t, "a", imgs[0].URL)
	require.Equal(t, "d", imgs[1].URL)
	require.Equal(t, 2, res.SuccessCount())
}

func TestHealthReport(t *testing.T) {
	rep := HealthReport{Status: "healthy", Services: map[string]string{"z": "down", "a": "degraded", "m": "healthy"}}
	require.True(t, rep.Healthy())
	require.Equal(t, []string{"a", "z"}, rep.Degraded())
	require.Empty(t, HealthReport{Status: "degraded"}.Degraded())
}

func TestFormatSize(t *testing.T) {
	require.Equal(t, "0.00 KB", FormatSize(0))
	require.Equal(t, "1.00 KB", FormatSize(1024))
	require.Equal(t, "1.50 KB", FormatSize(1536))
}

func TestStringSlice(t *testing.T) {
	var s StringSlice
	require.NoError(t, s.Scan([]byte(`["resize","crop"]`)))
	require.Equal(t, StringSlice{"resize", "crop"}, s)

	require.NoError(t, s.Scan(nil))
	require.Empty(t, s)
	require.Error(t, s.Scan("text"))

	v, err := StringSlice(nil).Value()
	require.NoError(t, err)
	require.Equal(t, []byte(`[]`), v)
}

func TestErrors(t *testing.T) {
	cause := errors.New("dial tcp: refused")

	tests := []struct {
		name string
		err  error
		want string
		kind Kind
	}{
		{name: "validation with value", err: &ValidationError{Field: "resize.width", Value: "abc", Reason: "must be a whole number"}, want: `invalid resize.width "abc": must be a whole number`, kind: KindValidation},
		{name: "validation without value", err: &ValidationError{Field: "images", Reason: "empty"}, want: "invalid images: empty", kind: KindValidation},
		{name: "transport status", err: &TransportError{StatusCode: 500, Status: "Internal Server Error"}, want: "API error: Internal Server Error", kind: KindTransport},
		{name: "transport cause", err: &TransportError{Cause: cause}, want: "API error: dial tcp: refused", kind: KindTransport},
		{name: "application", err: &ApplicationError{Message: "Batch processing failed", Detail: "d"}, want: "Batch processing failed", kind: KindApplication},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.EqualError(t, tt.err, tt.want)
			require.True(t, IsKind(tt.err, tt.kind))
			// обертка не теряет вид ошибки
			require.True(t, IsKind(errors.Join(errors.New("ctx"), tt.err), tt.kind))
		})
	}

	require.ErrorIs(t, &TransportError{Cause: cause}, cause)
	require.False(t, IsKind(cause, KindTransport))
}
